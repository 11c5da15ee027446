// Package config loads the collector deployment configuration. The
// orchestrator reads the same config.json the collector worker itself
// runs from, so service name, paths, and credentials stay in one place.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default registration values for a collector deployment.
const (
	DefaultServiceName = "SCADACollector"
	DefaultDisplayName = "SCADA Collector"
	DefaultDescription = "Collects SCADA telemetry (MSSQL/Firebird/TC2) into the plant database"
	DefaultPython      = `C:\Python311\python.exe`
	DefaultScript      = "collector.py"
)

// Config is the subset of config.json the orchestrator consumes. The
// worker reads the same file; unknown sections are left untouched.
type Config struct {
	Service      ServiceConfig      `mapstructure:"service"`
	Database     DatabaseConfig     `mapstructure:"database"`
	TC2Processor TC2ProcessorConfig `mapstructure:"tc2_processor"`

	// Path is the resolved location of the loaded config file.
	Path string `mapstructure:"-"`
}

// ServiceConfig describes how the collector is registered as a service.
// run_as_user/run_as_password may be absent; that is a recoverable
// condition handled by the credential chain, not a load error.
type ServiceConfig struct {
	Name           string `mapstructure:"name"`
	DisplayName    string `mapstructure:"display_name"`
	Description    string `mapstructure:"description"`
	Python         string `mapstructure:"python"`
	Script         string `mapstructure:"script"`
	AppDirectory   string `mapstructure:"app_directory"`
	RestartDelayMS int    `mapstructure:"restart_delay_ms"`
	RotateBytes    int64  `mapstructure:"rotate_bytes"`
	RotateSeconds  int    `mapstructure:"rotate_seconds"`
	RunAsUser      string `mapstructure:"run_as_user"`
	RunAsPassword  string `mapstructure:"run_as_password"`
}

// DatabaseConfig is the collector's target MSSQL database, used
// read-only by the data freshness probe.
type DatabaseConfig struct {
	Server   string `mapstructure:"server"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// TC2ProcessorConfig locates the TC2 workbook share the worker syncs
// from, used by the identity health check and the freshness probe.
type TC2ProcessorConfig struct {
	FilesDirectory string `mapstructure:"files_directory"`
	TargetTable    string `mapstructure:"target_table"`
}

// Load reads and validates the config file. An empty path means
// config.json in the current directory, matching how the collector
// itself resolves it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(abs)
	v.SetConfigType("json")

	v.SetDefault("service.name", DefaultServiceName)
	v.SetDefault("service.display_name", DefaultDisplayName)
	v.SetDefault("service.description", DefaultDescription)
	v.SetDefault("service.python", DefaultPython)
	v.SetDefault("service.script", DefaultScript)
	v.SetDefault("service.restart_delay_ms", 5000)
	v.SetDefault("service.rotate_bytes", 10*1024*1024)
	v.SetDefault("service.rotate_seconds", 86400)
	v.SetDefault("tc2_processor.target_table", "dbo.Dynamic_TC2")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", abs, err)
	}
	cfg.Path = abs

	// The collector runs out of the directory its config lives in.
	if cfg.Service.AppDirectory == "" {
		cfg.Service.AppDirectory = filepath.Dir(abs)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Service.Name) == "" {
		return fmt.Errorf("service.name must not be empty")
	}
	if strings.ContainsAny(c.Service.Name, " \t") {
		return fmt.Errorf("service.name %q must not contain whitespace", c.Service.Name)
	}
	if c.Service.RestartDelayMS < 0 {
		return fmt.Errorf("service.restart_delay_ms must not be negative")
	}
	return nil
}

// ScriptPath returns the worker script resolved against AppDirectory
// when it is not already absolute.
func (c *Config) ScriptPath() string {
	s := c.Service.Script
	if s == "" {
		s = DefaultScript
	}
	if filepath.IsAbs(s) || isWindowsAbs(s) {
		return s
	}
	return joinTarget(c.Service.AppDirectory, s)
}

// RestartDelay returns the registered failure-restart delay.
func (c *Config) RestartDelay() time.Duration {
	return time.Duration(c.Service.RestartDelayMS) * time.Millisecond
}

// LogDir returns the directory NSSM redirects worker output into.
func (c *Config) LogDir() string {
	return joinTarget(c.Service.AppDirectory, "logs")
}

// StdoutLog and StderrLog are the rotating capture files registered at
// install time and tailed for diagnostics.
func (c *Config) StdoutLog() string {
	return joinTarget(c.LogDir(), "service-stdout.log")
}

func (c *Config) StderrLog() string {
	return joinTarget(c.LogDir(), "service-stderr.log")
}

// JournalPath returns the operations journal database, kept beside the
// config file.
func (c *Config) JournalPath() string {
	return filepath.Join(filepath.Dir(c.Path), "scadactl.db")
}

// isWindowsAbs recognizes drive-letter and UNC paths even when the
// orchestrator itself runs on another OS (remote mode).
func isWindowsAbs(p string) bool {
	if strings.HasPrefix(p, `\\`) {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

// joinTarget joins paths in the target machine's separator. Service
// paths live on a Windows host regardless of where scadactl runs.
func joinTarget(dir, elem string) string {
	if isWindowsAbs(dir) || strings.Contains(dir, `\`) {
		return strings.TrimRight(dir, `\`) + `\` + elem
	}
	return filepath.Join(dir, elem)
}
