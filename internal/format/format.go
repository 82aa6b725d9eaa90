// Package format renders money and dates for display. Nothing here touches stored values.
package format

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used until SetLocale is called.
const DefaultLocale = "en-IN"

var (
	mu      sync.RWMutex
	printer = message.NewPrinter(language.Make(DefaultLocale))
)

// SetLocale switches the locale used for thousands grouping.
func SetLocale(tag string) {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.Make(DefaultLocale)
	}
	mu.Lock()
	printer = message.NewPrinter(t)
	mu.Unlock()
}

// Currency formats d with locale grouping and two decimals, dropping an exact ".00".
func Currency(d decimal.Decimal) string {
	rounded := d.Round(2)

	mu.RLock()
	p := printer
	mu.RUnlock()

	if rounded.Equal(rounded.Truncate(0)) {
		return p.Sprint(number.Decimal(rounded.IntPart()))
	}
	f, _ := rounded.Float64()
	return p.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// CurrencyNull is Currency for nullable amounts; null renders as "".
func CurrencyNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return Currency(d.Decimal)
}

// CurrencyFloat is Currency for values already held as float64.
func CurrencyFloat(f float64) string {
	return Currency(decimal.NewFromFloat(f))
}

// RoundHalfUp rounds to the nearest integer: a fraction of 0.5 or more goes up, anything less goes down.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	floor := d.Floor()
	if d.Sub(floor).GreaterThanOrEqual(decimal.NewFromFloat(0.5)) {
		return floor.Add(decimal.NewFromInt(1))
	}
	return floor
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Date renders an ISO date string as dd-MM-yyyy. Unparseable input is returned as is.
func Date(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("02-01-2006")
		}
	}
	return iso
}

// DateOf renders a time value as dd-MM-yyyy; the zero time renders as "".
func DateOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02-01-2006")
}
