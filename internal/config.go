package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/noteservice"
	"github.com/starford/paranote/internal/parser"
	"github.com/starford/paranote/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App            ApplicationConfig    `yaml:"app"`
	Vault          VaultConfig          `yaml:"vault"`
	SQLite         SQLiteConfig         `yaml:"sqlite"`
	Auth           AuthConfig           `yaml:"auth"`
	Backup         BackupConfig         `yaml:"backup"`
	Cache          CacheConfig          `yaml:"cache"`
	Actions        ActionsConfig        `yaml:"actions"`
	Categorization CategorizationConfig `yaml:"categorization"`
	Reading        ReadingConfig        `yaml:"reading"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Vault, &c.SQLite, &c.Auth, &c.Backup, &c.Cache,
		&c.Actions, &c.Categorization, &c.Reading,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig locates the PARA vault and the notes inside it.
type VaultConfig struct {
	Path    string `yaml:"path"`
	Pattern string `yaml:"pattern"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Pattern == "" {
		c.Pattern = storage.DefaultPattern
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Pattern, validation.By(func(any) error {
			if _, err := filepath.Match(c.Pattern, ""); err != nil {
				return fmt.Errorf("invalid glob: %w", err)
			}
			return nil
		})),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// IndexPath returns the SQLite path. A relative path lives inside the vault.
func (c *Config) IndexPath() string {
	if filepath.IsAbs(c.SQLite.Path) {
		return c.SQLite.Path
	}
	return filepath.Join(c.Vault.Path, c.SQLite.Path)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// BackupConfig sets where frontmatter updates keep their backups.
type BackupConfig struct {
	// Dir is relative to the vault root.
	Dir string `yaml:"dir"`
}

// Validate validates the backup configuration.
func (c *BackupConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required, validation.By(vaultRelative)),
	)
}

// CacheConfig sets where project snapshots are written.
type CacheConfig struct {
	// Dir is relative to the vault root.
	Dir string `yaml:"dir"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required, validation.By(vaultRelative)),
	)
}

func vaultRelative(v any) error {
	dir, _ := v.(string)
	if filepath.IsAbs(dir) {
		return fmt.Errorf("must be relative to the vault root")
	}
	return nil
}

// ActionsConfig tunes action item queries.
type ActionsConfig struct {
	StaleDays int `yaml:"stale_days"`
}

// Validate validates the actions configuration.
func (c *ActionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StaleDays, validation.Required, validation.Min(1)),
	)
}

// CategorizationConfig tunes the PARA keyword scorer. Keywords are keyed by
// category name and replace the built-in tiers of that category only.
type CategorizationConfig struct {
	Threshold int                            `yaml:"threshold"`
	Keywords  map[string]parser.KeywordTiers `yaml:"keywords"`
}

// Validate validates the categorization configuration.
func (c *CategorizationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Threshold, validation.Min(0)),
	); err != nil {
		return err
	}
	_, err := c.KeywordMap()
	return err
}

// KeywordMap merges the configured keywords over the defaults.
func (c *CategorizationConfig) KeywordMap() (map[models.Category]parser.KeywordTiers, error) {
	out := parser.DefaultKeywords()
	for name, tiers := range c.Keywords {
		cat, err := models.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("categorization: %w", err)
		}
		if _, scored := out[cat]; !scored {
			return nil, fmt.Errorf("categorization: %s is not keyword-scored", cat)
		}
		out[cat] = tiers
	}
	return out, nil
}

// ReadingConfig tunes reading time estimates.
type ReadingConfig struct {
	WordsPerMinute int `yaml:"words_per_minute"`
}

// Validate validates the reading configuration.
func (c *ReadingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WordsPerMinute, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:    ".",
			Pattern: storage.DefaultPattern,
		},
		SQLite: SQLiteConfig{
			Path: ".paranote/index.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Backup: BackupConfig{
			Dir: noteservice.DefaultBackupDir,
		},
		Cache: CacheConfig{
			Dir: noteservice.DefaultCacheDir,
		},
		Actions: ActionsConfig{
			StaleDays: actions.DefaultStaleDays,
		},
		Categorization: CategorizationConfig{
			Threshold: parser.DefaultThreshold,
		},
		Reading: ReadingConfig{
			WordsPerMinute: parser.DefaultWordsPerMinute,
		},
	}
}
