package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the env-format configuration file looked up next to the binary.
const FileName = ".erp-config"

// Config holds the console configuration
type Config struct {
	App     AppConfig
	API     APIConfig
	UI      UIConfig
	Log     LogConfig
	Paths   PathConfig
	Printer PrinterConfig

	// File is the configuration file that was read, empty when only env vars were used.
	File string
}

// AppConfig general application settings.
type AppConfig struct {
	Env   string // development, production
	Brand string // shown in the status bar
}

// APIConfig backend connection settings.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// UIConfig screen behaviour shared by every list screen.
type UIConfig struct {
	Locale    string
	PageSize  int
	Debounce  time.Duration
	StaleTime time.Duration
}

// LogConfig where and how much to log.
type LogConfig struct {
	File  string
	Level string
}

// PathConfig persisted client state and export destination.
type PathConfig struct {
	StateFile string
	ExportDir string
}

// PrinterConfig OS command used to hand printable documents off.
type PrinterConfig struct {
	Command string
}

const (
	defaultBrand     = "ERP Console"
	defaultLocale    = "en-IN"
	defaultPageSize  = 10
	defaultDebounce  = 600
	defaultTimeout   = 30
	defaultStaleTime = 30
)

// Load reads .erp-config (if present) and environment variables; env vars win.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	file := findConfigFile()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", file, err)
		}
	}

	return fromViper(v, file)
}

// LoadFile reads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	return fromViper(v, path)
}

func fromViper(v *viper.Viper, file string) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:   getString(v, "APP_ENV", "development"),
			Brand: getString(v, "ERP_BRAND", defaultBrand),
		},
		API: APIConfig{
			BaseURL: strings.TrimSuffix(getString(v, "ERP_URL", ""), "/"),
			Timeout: time.Duration(getInt(v, "ERP_HTTP_TIMEOUT_SECONDS", defaultTimeout)) * time.Second,
		},
		UI: UIConfig{
			Locale:    getString(v, "ERP_LOCALE", defaultLocale),
			PageSize:  getInt(v, "ERP_PAGE_SIZE", defaultPageSize),
			Debounce:  time.Duration(getInt(v, "ERP_DEBOUNCE_MS", defaultDebounce)) * time.Millisecond,
			StaleTime: time.Duration(getInt(v, "ERP_STALE_SECONDS", defaultStaleTime)) * time.Second,
		},
		Log: LogConfig{
			File:  getString(v, "LOG_FILE", "erp-console.log"),
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		Paths: PathConfig{
			StateFile: getString(v, "ERP_STATE_FILE", defaultStateFile()),
			ExportDir: getString(v, "ERP_EXPORT_DIR", "."),
		},
		Printer: PrinterConfig{
			Command: getString(v, "ERP_PRINT_COMMAND", "lp"),
		},
		File: file,
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("missing required config: ERP_URL")
	}
	if cfg.UI.PageSize < 1 {
		cfg.UI.PageSize = defaultPageSize
	}
	if cfg.UI.Debounce <= 0 {
		cfg.UI.Debounce = defaultDebounce * time.Millisecond
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = defaultTimeout * time.Second
	}

	return cfg, nil
}

// findConfigFile looks for .erp-config in the usual places.
func findConfigFile() string {
	configPaths := []string{
		FileName,
		filepath.Join("..", FileName),
		filepath.Join(filepath.Dir(os.Args[0]), FileName),
		filepath.Join(filepath.Dir(os.Args[0]), "..", FileName),
	}

	for _, p := range configPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".erp-state.json")
	}
	return filepath.Join(dir, "erp-console", "state.json")
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		if s := strings.Trim(strings.TrimSpace(v.GetString(key)), "\"'"); s != "" {
			return s
		}
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return n
	default:
		return v.GetInt(key)
	}
}
