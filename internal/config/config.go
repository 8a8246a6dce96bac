package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/damacus/iron-sync/internal/services"
)

type Config struct {
	Storage StorageConfig
	Sync    SyncConfig
	Log     LogConfig
	Server  ServerConfig
}

type StorageConfig struct {
	Backend      services.Backend
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	// UseSSL is nil when STORAGE_USE_SSL is unset and the endpoint decides
	UseSSL *bool
	Bucket string
}

type SyncConfig struct {
	EvacuateOnDownload bool
	LegacyDownloadDir  string
	RetryAttempts      int
	RetryBackoff       time.Duration
	PageSize           int
	Progress           bool
}

type LogConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	Addr     string
	APIToken string
	// Root confines the directories a sync request may name; empty allows any path
	Root string
}

// Load reads the configuration from the environment, after loading .env when present.
// Values that are set but unparsable are reported as a ConfigurationError;
// missing required values are left for Validate.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("STORAGE_BACKEND", string(services.BackendS3))
	v.SetDefault("SYNC_EVACUATE_ON_DOWNLOAD", true)
	v.SetDefault("SYNC_RETRY_ATTEMPTS", 1)
	v.SetDefault("SYNC_RETRY_BACKOFF", services.DefaultRetryBackoff.String())
	v.SetDefault("SYNC_PAGE_SIZE", services.MaxS3PageSize)
	v.SetDefault("SYNC_PROGRESS", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SERVER_ADDR", ":8080")
	_ = v.BindEnv("STORAGE_ENDPOINT", "STORAGE_ENDPOINT", "MINIO_ENDPOINT")

	v.AutomaticEnv()

	problems := &ConfigurationError{}

	backend, err := services.ParseBackend(v.GetString("STORAGE_BACKEND"))
	if err != nil {
		problems.Invalid = append(problems.Invalid, "STORAGE_BACKEND: "+err.Error())
	}

	backoff, err := time.ParseDuration(v.GetString("SYNC_RETRY_BACKOFF"))
	if err != nil || backoff < 0 {
		problems.Invalid = append(problems.Invalid, fmt.Sprintf("SYNC_RETRY_BACKOFF: %q is not a duration", v.GetString("SYNC_RETRY_BACKOFF")))
	}

	cfg := &Config{
		Storage: StorageConfig{
			Backend:      backend,
			Endpoint:     strings.TrimSpace(v.GetString("STORAGE_ENDPOINT")),
			AccessKey:    v.GetString("AWS_ACCESS_KEY_ID"),
			SecretKey:    v.GetString("AWS_SECRET_ACCESS_KEY"),
			SessionToken: v.GetString("AWS_SESSION_TOKEN"),
			Region:       strings.TrimSpace(v.GetString("AWS_REGION")),
			Bucket:       strings.TrimSpace(v.GetString("BUCKET_NAME")),
		},
		Sync: SyncConfig{
			EvacuateOnDownload: v.GetBool("SYNC_EVACUATE_ON_DOWNLOAD"),
			LegacyDownloadDir:  strings.TrimSpace(v.GetString("SYNC_LEGACY_DOWNLOAD_DIR")),
			RetryAttempts:      v.GetInt("SYNC_RETRY_ATTEMPTS"),
			RetryBackoff:       backoff,
			PageSize:           v.GetInt("SYNC_PAGE_SIZE"),
			Progress:           v.GetBool("SYNC_PROGRESS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Server: ServerConfig{
			Addr:     v.GetString("SERVER_ADDR"),
			APIToken: strings.TrimSpace(v.GetString("SYNC_API_TOKEN")),
			Root:     strings.TrimSpace(v.GetString("SYNC_ROOT")),
		},
	}

	if v.IsSet("STORAGE_USE_SSL") {
		useSSL := v.GetBool("STORAGE_USE_SSL")
		cfg.Storage.UseSSL = &useSSL
	}
	if cfg.Storage.Backend == services.BackendMinio && cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Sync.LegacyDownloadDir == "" {
		cfg.Sync.LegacyDownloadDir = cfg.Storage.Bucket
	}

	if cfg.Sync.PageSize <= 0 {
		problems.Invalid = append(problems.Invalid, "SYNC_PAGE_SIZE: must be positive")
	}
	if cfg.Sync.RetryAttempts < 1 {
		problems.Invalid = append(problems.Invalid, "SYNC_RETRY_ATTEMPTS: must be at least 1")
	}
	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		problems.Invalid = append(problems.Invalid, fmt.Sprintf("LOG_FORMAT: %q (want console or json)", cfg.Log.Format))
	}

	if problems.HasProblems() {
		return cfg, problems
	}
	return cfg, nil
}

// Validate reports every required setting that is missing for the selected backend
func (c *Config) Validate() error {
	problems := &ConfigurationError{}
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			problems.Missing = append(problems.Missing, name)
		}
	}

	require("AWS_ACCESS_KEY_ID", c.Storage.AccessKey)
	require("AWS_SECRET_ACCESS_KEY", c.Storage.SecretKey)
	require("BUCKET_NAME", c.Storage.Bucket)
	switch c.Storage.Backend {
	case services.BackendMinio:
		require("STORAGE_ENDPOINT", c.Storage.Endpoint)
	default:
		require("AWS_REGION", c.Storage.Region)
	}

	if problems.HasProblems() {
		return problems
	}
	return nil
}

// ValidateServer reports what the HTTP trigger needs on top of Validate.
// A request names the directory to upload and delete, so the trigger never runs without a token.
func (c *Config) ValidateServer() error {
	problems := &ConfigurationError{}
	if c.Server.APIToken == "" {
		problems.Missing = append(problems.Missing, "SYNC_API_TOKEN")
	}
	if c.Server.Root != "" && !filepath.IsAbs(c.Server.Root) {
		problems.Invalid = append(problems.Invalid, fmt.Sprintf("SYNC_ROOT: %q is not an absolute path", c.Server.Root))
	}
	if problems.HasProblems() {
		return problems
	}
	return nil
}

// GatewayOptions translates the storage and sync settings for services.NewGateway
func (c *Config) GatewayOptions() services.GatewayOptions {
	return services.GatewayOptions{
		Backend: c.Storage.Backend,
		Credentials: services.Credentials{
			Endpoint:     c.Storage.Endpoint,
			AccessKey:    c.Storage.AccessKey,
			SecretKey:    c.Storage.SecretKey,
			SessionToken: c.Storage.SessionToken,
			Region:       c.Storage.Region,
			UseSSL:       c.Storage.UseSSL,
		},
		PageSize:      c.Sync.PageSize,
		RetryAttempts: c.Sync.RetryAttempts,
		RetryBackoff:  c.Sync.RetryBackoff,
	}
}
