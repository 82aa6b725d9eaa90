// Package export saves list exports to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Filename is the download name of an export taken at now, e.g. customers_05-03-2024.csv.
func Filename(entity string, now time.Time) string {
	name := strings.ReplaceAll(strings.TrimSpace(entity), " ", "-")
	if name == "" {
		name = "export"
	}
	return fmt.Sprintf("%s_%s.csv", name, now.Format("02-01-2006"))
}

// Save writes data to dir/name, creating dir if needed, and returns the path written.
func Save(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteRows writes a header and rows as CSV. Rows shorter than the header are padded.
func WriteRows(w io.Writer, columns []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		copy(record, row)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
