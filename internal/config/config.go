package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/connectivity"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Storage
		Sync
		Analysis
		Connectivity
		Tasks
		Audit
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Storage struct {
		Backend string // "database" or "file"
		Dir     string // Used by the file backend only
	}
	Sync struct {
		UploadMinLatency  time.Duration
		UploadMaxLatency  time.Duration
		UploadTimeout     time.Duration
		UploadFailureRate float64
		EncryptLatency    time.Duration
		EncryptTimeout    time.Duration
		EncryptionSecret  string // Random key per process when empty
	}
	Analysis struct {
		MinDelay         time.Duration
		MaxDelay         time.Duration
		DefaultAthleteID string
	}
	Connectivity struct {
		ProbeEnabled  bool
		ProbeURL      string
		ProbeSchedule string // Cron format: "* * * * *" = every minute
		ProbeTimeout  time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Metrics struct {
		Enabled bool // Serve /metrics
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("storage_backend", StorageBackendDatabase)
	v.SetDefault("storage_dir", DefaultStorageDir)

	// Sync defaults
	v.SetDefault("sync_upload_min_latency", "1s")
	v.SetDefault("sync_upload_max_latency", "3s")
	v.SetDefault("sync_upload_timeout", "10s")
	v.SetDefault("sync_upload_failure_rate", 0.0)
	v.SetDefault("sync_encrypt_latency", "500ms")
	v.SetDefault("sync_encrypt_timeout", "5s")
	v.SetDefault("sync_encryption_secret", "")

	// Analysis defaults
	v.SetDefault("analysis_min_delay", "2s")
	v.SetDefault("analysis_max_delay", "4s")
	v.SetDefault("analysis_default_athlete", analysis.DefaultAthleteID)

	// Connectivity probe defaults
	v.SetDefault("connectivity_probe_enabled", false)
	v.SetDefault("connectivity_probe_url", "https://www.google.com/generate_204")
	v.SetDefault("connectivity_probe_schedule", connectivity.DefaultProbeSchedule)
	v.SetDefault("connectivity_probe_timeout", "5s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Storage: Storage{
			Backend: v.GetString("STORAGE_BACKEND"),
			Dir:     v.GetString("STORAGE_DIR"),
		},
		Sync: Sync{
			UploadMinLatency:  v.GetDuration("SYNC_UPLOAD_MIN_LATENCY"),
			UploadMaxLatency:  v.GetDuration("SYNC_UPLOAD_MAX_LATENCY"),
			UploadTimeout:     v.GetDuration("SYNC_UPLOAD_TIMEOUT"),
			UploadFailureRate: v.GetFloat64("SYNC_UPLOAD_FAILURE_RATE"),
			EncryptLatency:    v.GetDuration("SYNC_ENCRYPT_LATENCY"),
			EncryptTimeout:    v.GetDuration("SYNC_ENCRYPT_TIMEOUT"),
			EncryptionSecret:  v.GetString("SYNC_ENCRYPTION_SECRET"),
		},
		Analysis: Analysis{
			MinDelay:         v.GetDuration("ANALYSIS_MIN_DELAY"),
			MaxDelay:         v.GetDuration("ANALYSIS_MAX_DELAY"),
			DefaultAthleteID: v.GetString("ANALYSIS_DEFAULT_ATHLETE"),
		},
		Connectivity: Connectivity{
			ProbeEnabled:  v.GetBool("CONNECTIVITY_PROBE_ENABLED"),
			ProbeURL:      v.GetString("CONNECTIVITY_PROBE_URL"),
			ProbeSchedule: v.GetString("CONNECTIVITY_PROBE_SCHEDULE"),
			ProbeTimeout:  v.GetDuration("CONNECTIVITY_PROBE_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}

// Validate reports settings that would make the service misbehave.
func (c *Config) Validate() error {
	if c.Storage.Backend != StorageBackendDatabase && c.Storage.Backend != StorageBackendFile {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Sync.UploadFailureRate < 0 || c.Sync.UploadFailureRate > 1 {
		return fmt.Errorf("upload failure rate %v is outside [0,1]", c.Sync.UploadFailureRate)
	}
	if c.Sync.UploadMaxLatency < c.Sync.UploadMinLatency {
		return fmt.Errorf("upload max latency %v is below min latency %v", c.Sync.UploadMaxLatency, c.Sync.UploadMinLatency)
	}
	if c.Connectivity.ProbeEnabled {
		if c.Connectivity.ProbeURL == "" {
			return fmt.Errorf("connectivity probe enabled without a URL")
		}
		if err := connectivity.ValidateCronSchedule(c.Connectivity.ProbeSchedule); err != nil {
			return fmt.Errorf("connectivity probe schedule: %w", err)
		}
	}
	return nil
}
