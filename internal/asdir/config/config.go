package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the TCP port the directory server binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// DBPath is the path of the record database file. The parent directory
	// must exist; the file is created on first start.
	DBPath string `koanf:"db_path" validate:"required,db_file"`

	// MaxConns caps concurrent client connections. Zero means unlimited.
	MaxConns int `koanf:"max_conns" validate:"gte=0"`

	// PageSize is the number of records per unfiltered listing page.
	PageSize int `koanf:"page_size" validate:"required,gte=1"`

	// ListingRate and ListingBurst shape the per-client record quota: a
	// client is admitted ListingRate records per second on average, with
	// bursts up to ListingBurst.
	ListingRate  uint `koanf:"listing_rate" validate:"required,gte=1"`
	ListingBurst uint `koanf:"listing_burst" validate:"required,gte=1"`

	// DetailRate and DetailBurst shape the per-client lookup quota.
	DetailRate  uint `koanf:"detail_rate" validate:"required,gte=1"`
	DetailBurst uint `koanf:"detail_burst" validate:"required,gte=1"`

	// ClientCacheSize bounds how many client quota states are kept.
	ClientCacheSize uint `koanf:"client_cache_size" validate:"required,gte=1"`
}

// DEFAULT_APP_CONFIG defines the default application configuration for the
// directory service: production logging, the standard port, and the quota
// calibration the service ships with.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:             "prod",
	LogLevel:        "info",
	Port:            4040,
	DBPath:          "/var/lib/asdird/records.db",
	MaxConns:        1024,
	PageSize:        50,
	ListingRate:     100,
	ListingBurst:    500,
	DetailRate:      1,
	DetailBurst:     2,
	ClientCacheSize: 4096,
}

// validDBFile validates that the field value names a database file rather
// than a directory: non-empty, no trailing separator, and a real base name.
func validDBFile(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" || strings.HasSuffix(path, "/") {
		return false
	}
	base := filepath.Base(path)
	return base != "." && base != ".." && base != "/"
}

// envLoader loads environment variables with the prefix "ASDIR_". It
// transforms the keys to lowercase and removes the prefix, and can be
// mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "ASDIR_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "ASDIR_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf
// instance using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "db_file" validation with the
// provided validator.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("db_file", validDBFile)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
