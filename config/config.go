package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyDatabasePath    = "database.path"
	KeyServerPort      = "server.port"
	KeyServerImportDir = "server.import_dir"
	KeyImportCSV       = "import.csv"
	KeyImportUsername  = "import.username"
	KeyImportDryRun    = "import.dry_run"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

// envBindings maps config keys to the environment variables that override
// them.
var envBindings = map[string]string{
	KeyDatabasePath:    "DB_PATH",
	KeyServerPort:      "SERVER_PORT",
	KeyServerImportDir: "IMPORT_DIR",
	KeyImportCSV:       "IMPORT_CSV",
	KeyImportUsername:  "IMPORT_USERNAME",
	KeyImportDryRun:    "IMPORT_DRY_RUN",
	KeyLogLevel:        "LOG_LEVEL",
	KeyLogFormat:       "LOG_FORMAT",
}

// EnvVar returns the environment variable that overrides key, or "" when
// key has no binding.
func EnvVar(key string) string {
	return envBindings[key]
}

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Import   ImportConfig   `mapstructure:"import"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	ImportDir string `mapstructure:"import_dir" validate:"required"`
}

// ImportConfig drives the startup import. CSV empty means no startup import.
type ImportConfig struct {
	CSV      string `mapstructure:"csv"`
	Username string `mapstructure:"username"`
	DryRun   string `mapstructure:"dry_run" validate:"toggle"`
}

// DryRunEnabled reports whether dry_run holds a truthy value.
func (c ImportConfig) DryRunEnabled() bool {
	return IsTruthy(c.DryRun)
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json auto"`
}

// SetDefaults sets default values if not provided and binds the environment
// overrides.
func SetDefaults() {
	setDefaults(viper.GetViper())
	bindEnv(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// LoadDotEnv loads KEY=VALUE files into the process environment. Missing
// files are ignored and variables that are already set win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# timetrack configuration
database:
  path: "./timetrack.db"

server:
  port: 8080
  import_dir: "/app/imports"

import:
  # Startup import, run once by "timetrack serve" when set.
  csv: ""
  username: ""
  dry_run: false

log:
  level: "info"
  format: "auto"
`
}

// IsTruthy accepts true, 1 and yes in any case. Everything else is false.
func IsTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func isToggle(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "true", "1", "yes", "false", "0", "no":
		return true
	default:
		return false
	}
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	if err := newValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	if err := validate.RegisterValidation("toggle", func(fl validator.FieldLevel) bool {
		return isToggle(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register toggle validation: %v", err))
	}
	return validate
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "./timetrack.db")
	v.SetDefault(KeyServerPort, 8080)
	v.SetDefault(KeyServerImportDir, "/app/imports")
	v.SetDefault(KeyImportCSV, "")
	v.SetDefault(KeyImportUsername, "")
	v.SetDefault(KeyImportDryRun, "false")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")
}

func bindEnv(v *viper.Viper) {
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}
