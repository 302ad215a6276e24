package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultServiceName       = "signalconfig"
	defaultHTTPListen        = ":8080"
	defaultHealthPath        = "/healthz"
	defaultReadyPath         = "/readyz"
	defaultAPIPrefix         = "/api"
	defaultMetricsPath       = "/metrics"
	defaultMaxBodyBytes      = 1 << 20
	defaultSQLitePath        = "data/signalconfig.db"
	defaultAutoSaveDelayMS   = 2000
	defaultReloadSeconds     = 5
	defaultNATSURL           = "nats://127.0.0.1:4222"
	defaultLaunchSubject     = "signalconfig.launches"
	defaultLaunchStream      = "SIGNAL_LAUNCHES"
	defaultLaunchMaxAgeHours = 7 * 24

	// ServiceModeNATS publishes launch events into JetStream.
	ServiceModeNATS = "nats"
	// ServiceModeSingle keeps single-instance mode without NATS dependencies.
	ServiceModeSingle = "single"

	// StorageBackendMemory keeps drafts in process memory.
	StorageBackendMemory = "memory"
	// StorageBackendSQLite keeps drafts in an embedded SQLite file.
	StorageBackendSQLite = "sqlite"
)

// Config holds service runtime settings.
// Params: TOML sections from file or merged directory snapshot.
// Returns: validated runtime configuration.
type Config struct {
	Service    ServiceConfig     `toml:"service"`
	Log        LogConfig         `toml:"log"`
	HTTP       HTTPConfig        `toml:"http"`
	Storage    StorageConfig     `toml:"storage"`
	AutoSave   AutoSaveConfig    `toml:"autosave"`
	Launch     LaunchConfig      `toml:"launch"`
	Metrics    MetricsConfig     `toml:"metrics"`
	Recipients map[string]string `toml:"recipients"`
}

// ServiceConfig contains process-level settings.
// Params: name, mode, and reload settings.
// Returns: service behavior defaults.
type ServiceConfig struct {
	Name              string `toml:"name"`
	Mode              string `toml:"mode"`
	ReloadEnabled     bool   `toml:"reload_enabled"`
	ReloadIntervalSec int    `toml:"reload_interval_sec"`
}

// HTTPConfig configures the JSON API listener.
// Params: listen address, health/API/metrics paths, and request body limit.
// Returns: HTTP server behavior.
type HTTPConfig struct {
	Listen       string `toml:"listen"`
	HealthPath   string `toml:"health_path"`
	ReadyPath    string `toml:"ready_path"`
	APIPrefix    string `toml:"api_prefix"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// StorageConfig selects the local draft storage backend.
// Params: backend name and SQLite file path.
// Returns: storage settings.
type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// AutoSaveConfig controls debounced draft saving for new editors.
// Params: enable flag (default true), debounce delay, and optional save timeout.
// Returns: scheduler settings.
type AutoSaveConfig struct {
	Enabled       *bool `toml:"enabled"`
	DelayMS       int   `toml:"delay_ms"`
	SaveTimeoutMS int   `toml:"save_timeout_ms"`
}

// LaunchConfig configures launch event publishing in nats mode.
// Params: NATS URLs, subject, stream name, and retention.
// Returns: JetStream publisher settings.
type LaunchConfig struct {
	URL         []string `toml:"url"`
	Subject     string   `toml:"subject"`
	Stream      string   `toml:"stream"`
	MaxAgeHours int      `toml:"max_age_hours"`
}

// MetricsConfig controls the Prometheus endpoint.
// Params: enable flag and path.
// Returns: metrics exposure settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig contains console/file logging sinks.
// Params: sink settings for each output target.
// Returns: logger setup options.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogSinkConfig `toml:"file"`
}

// LogSinkConfig defines one logging sink.
// Params: sink enable flag, level, format, and path.
// Returns: sink-specific behavior.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// AutoSaveEnabled reports the effective autosave flag.
// Params: none.
// Returns: true unless explicitly disabled.
func (c AutoSaveConfig) AutoSaveEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Delay returns the debounce delay.
func (c AutoSaveConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// SaveTimeout returns the per-save timeout (zero means unbounded).
func (c AutoSaveConfig) SaveTimeout() time.Duration {
	return time.Duration(c.SaveTimeoutMS) * time.Millisecond
}

// MaxAge returns launch stream retention.
func (c LaunchConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

// ConfigSource describes file or directory config source.
// Params: exactly one of file path or directory path.
// Returns: normalized source descriptor.
type ConfigSource struct {
	File string
	Dir  string
}

// FromCLI builds normalized source configuration from input paths.
// Params: optional file and directory arguments.
// Returns: source descriptor or validation error.
func FromCLI(filePath, dirPath string) (ConfigSource, error) {
	filePath = strings.TrimSpace(filePath)
	dirPath = strings.TrimSpace(dirPath)

	if filePath == "" && dirPath == "" {
		return ConfigSource{}, errors.New("either --config-file or --config-dir must be provided")
	}
	if filePath != "" && dirPath != "" {
		return ConfigSource{}, errors.New("config source must be either file or dir")
	}

	if filePath != "" {
		return ConfigSource{File: filePath}, nil
	}
	return ConfigSource{Dir: dirPath}, nil
}

// LoadSnapshot loads and validates configuration from one source.
// Params: source selects file or directory mode.
// Returns: validated config or load/validation error.
func LoadSnapshot(src ConfigSource) (Config, error) {
	var cfg Config
	var err error
	if src.File != "" {
		cfg, err = loadFile(src.File)
	} else {
		cfg, err = loadDir(src.Dir)
	}
	if err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns a validated configuration built from defaults only.
// Params: none.
// Returns: single-mode config with in-memory storage.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// configMergeHints carries explicit bool-presence markers used for directory overlays.
// Params: sparse fields decoded from one TOML fragment.
// Returns: merge behavior hints for zero-value bool overrides.
type configMergeHints struct {
	Service serviceMergeHints `toml:"service"`
	Metrics metricsMergeHints `toml:"metrics"`
	Log     logMergeHints     `toml:"log"`
}

type serviceMergeHints struct {
	ReloadEnabled *bool `toml:"reload_enabled"`
}

type metricsMergeHints struct {
	Enabled *bool `toml:"enabled"`
}

type logMergeHints struct {
	Console sinkMergeHints `toml:"console"`
	File    sinkMergeHints `toml:"file"`
}

type sinkMergeHints struct {
	Enabled *bool `toml:"enabled"`
}

// loadFile reads one TOML configuration file.
// Params: file path to config snapshot.
// Returns: decoded config or read/decode error.
func loadFile(path string) (Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(body, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file %q: %w", path, err)
	}
	return cfg, nil
}

// loadFileForMerge reads one TOML file with merge hints.
// Params: file path to config fragment.
// Returns: decoded config plus explicit-bool hints for overlay merge.
func loadFileForMerge(path string) (Config, configMergeHints, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, configMergeHints{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return Config{}, configMergeHints{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	var hints configMergeHints
	if err := toml.Unmarshal(body, &hints); err != nil {
		return Config{}, configMergeHints{}, fmt.Errorf("decode merge hints %q: %w", path, err)
	}
	return cfg, hints, nil
}

// loadDir reads and merges TOML files from one directory.
// Params: directory containing config fragments.
// Returns: merged config snapshot or load/decode error.
func loadDir(dir string) (Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Config{}, fmt.Errorf("read config dir %q: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.ToLower(filepath.Ext(name)) != ".toml" {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	if len(files) == 0 {
		return Config{}, fmt.Errorf("no .toml files found in %q", dir)
	}
	sort.Strings(files)

	var merged Config
	for _, file := range files {
		fragment, hints, err := loadFileForMerge(file)
		if err != nil {
			return Config{}, err
		}
		mergeConfig(&merged, fragment, hints)
	}
	return merged, nil
}

// mergeConfig overlays source onto destination field by field.
// Params: destination config, next fragment, and explicit-bool hints.
// Returns: merged configuration side-effect in dst.
func mergeConfig(dst *Config, src Config, hints configMergeHints) {
	mergeString(&dst.Service.Name, src.Service.Name)
	mergeString(&dst.Service.Mode, src.Service.Mode)
	applyBoolMerge(&dst.Service.ReloadEnabled, src.Service.ReloadEnabled, hints.Service.ReloadEnabled)
	if src.Service.ReloadIntervalSec != 0 {
		dst.Service.ReloadIntervalSec = src.Service.ReloadIntervalSec
	}

	mergeSink(&dst.Log.Console, src.Log.Console, hints.Log.Console)
	mergeSink(&dst.Log.File, src.Log.File, hints.Log.File)

	mergeString(&dst.HTTP.Listen, src.HTTP.Listen)
	mergeString(&dst.HTTP.HealthPath, src.HTTP.HealthPath)
	mergeString(&dst.HTTP.ReadyPath, src.HTTP.ReadyPath)
	mergeString(&dst.HTTP.APIPrefix, src.HTTP.APIPrefix)
	if src.HTTP.MaxBodyBytes != 0 {
		dst.HTTP.MaxBodyBytes = src.HTTP.MaxBodyBytes
	}

	mergeString(&dst.Storage.Backend, src.Storage.Backend)
	mergeString(&dst.Storage.Path, src.Storage.Path)

	if src.AutoSave.Enabled != nil {
		enabled := *src.AutoSave.Enabled
		dst.AutoSave.Enabled = &enabled
	}
	if src.AutoSave.DelayMS != 0 {
		dst.AutoSave.DelayMS = src.AutoSave.DelayMS
	}
	if src.AutoSave.SaveTimeoutMS != 0 {
		dst.AutoSave.SaveTimeoutMS = src.AutoSave.SaveTimeoutMS
	}

	if len(src.Launch.URL) > 0 {
		dst.Launch.URL = append([]string(nil), src.Launch.URL...)
	}
	mergeString(&dst.Launch.Subject, src.Launch.Subject)
	mergeString(&dst.Launch.Stream, src.Launch.Stream)
	if src.Launch.MaxAgeHours != 0 {
		dst.Launch.MaxAgeHours = src.Launch.MaxAgeHours
	}

	applyBoolMerge(&dst.Metrics.Enabled, src.Metrics.Enabled, hints.Metrics.Enabled)
	mergeString(&dst.Metrics.Path, src.Metrics.Path)

	if len(src.Recipients) > 0 && dst.Recipients == nil {
		dst.Recipients = make(map[string]string, len(src.Recipients))
	}
	for id, name := range src.Recipients {
		dst.Recipients[id] = name
	}
}

func mergeSink(dst *LogSinkConfig, src LogSinkConfig, hints sinkMergeHints) {
	applyBoolMerge(&dst.Enabled, src.Enabled, hints.Enabled)
	mergeString(&dst.Level, src.Level)
	mergeString(&dst.Format, src.Format)
	mergeString(&dst.Path, src.Path)
}

func mergeString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

// applyBoolMerge merges bool with explicit-value awareness for directory overlays.
// Params: destination bool pointer, source decoded bool, and explicit source marker.
// Returns: merged bool side-effect in dst.
func applyBoolMerge(dst *bool, value bool, explicit *bool) {
	if explicit != nil {
		*dst = *explicit
		return
	}
	if value {
		*dst = true
	}
}

// applyDefaults fills omitted settings.
// Params: config to mutate.
// Returns: none.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Service.Name) == "" {
		cfg.Service.Name = defaultServiceName
	}
	cfg.Service.Mode = NormalizeServiceMode(cfg.Service.Mode)
	if cfg.Service.ReloadIntervalSec <= 0 {
		cfg.Service.ReloadIntervalSec = defaultReloadSeconds
	}

	if cfg.Log.Console.Level == "" {
		cfg.Log.Console.Level = "info"
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = "line"
	}
	if cfg.Log.File.Level == "" {
		cfg.Log.File.Level = "info"
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = "json"
	}
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		cfg.HTTP.Listen = defaultHTTPListen
	}
	if strings.TrimSpace(cfg.HTTP.HealthPath) == "" {
		cfg.HTTP.HealthPath = defaultHealthPath
	}
	if strings.TrimSpace(cfg.HTTP.ReadyPath) == "" {
		cfg.HTTP.ReadyPath = defaultReadyPath
	}
	if strings.TrimSpace(cfg.HTTP.APIPrefix) == "" {
		cfg.HTTP.APIPrefix = defaultAPIPrefix
	}
	cfg.HTTP.APIPrefix = strings.TrimRight(cfg.HTTP.APIPrefix, "/")
	if cfg.HTTP.MaxBodyBytes <= 0 {
		cfg.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBackendMemory
	}
	if cfg.Storage.Backend == StorageBackendSQLite && strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = defaultSQLitePath
	}

	if cfg.AutoSave.Enabled == nil {
		enabled := true
		cfg.AutoSave.Enabled = &enabled
	}
	if cfg.AutoSave.DelayMS == 0 {
		cfg.AutoSave.DelayMS = defaultAutoSaveDelayMS
	}

	if cfg.Service.Mode == ServiceModeNATS {
		cfg.Launch.URL = normalizeNATSURLs(cfg.Launch.URL)
		if len(cfg.Launch.URL) == 0 {
			cfg.Launch.URL = []string{defaultNATSURL}
		}
	}
	if strings.TrimSpace(cfg.Launch.Subject) == "" {
		cfg.Launch.Subject = defaultLaunchSubject
	}
	if strings.TrimSpace(cfg.Launch.Stream) == "" {
		cfg.Launch.Stream = defaultLaunchStream
	}
	if cfg.Launch.MaxAgeHours == 0 {
		cfg.Launch.MaxAgeHours = defaultLaunchMaxAgeHours
	}

	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
}

// validateConfig checks a defaulted config.
// Params: config after applyDefaults.
// Returns: first violation with its dotted field path.
func validateConfig(cfg Config) error {
	mode := NormalizeServiceMode(cfg.Service.Mode)
	if !IsSupportedServiceMode(mode) {
		return fmt.Errorf("service.mode has unsupported value %q", cfg.Service.Mode)
	}
	if cfg.Service.ReloadIntervalSec <= 0 {
		return errors.New("service.reload_interval_sec must be >0")
	}

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		return errors.New("http.listen is required")
	}
	paths := map[string]string{
		"http.health_path": cfg.HTTP.HealthPath,
		"http.ready_path":  cfg.HTTP.ReadyPath,
		"http.api_prefix":  cfg.HTTP.APIPrefix,
		"metrics.path":     cfg.Metrics.Path,
	}
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !strings.HasPrefix(paths[name], "/") {
			return fmt.Errorf("%s must start with /", name)
		}
	}

	switch cfg.Storage.Backend {
	case StorageBackendMemory:
	case StorageBackendSQLite:
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			return errors.New("storage.path is required when storage.backend=sqlite")
		}
	default:
		return fmt.Errorf("storage.backend has unsupported value %q", cfg.Storage.Backend)
	}

	if cfg.AutoSave.DelayMS < 0 {
		return errors.New("autosave.delay_ms must be >0")
	}
	if cfg.AutoSave.SaveTimeoutMS < 0 {
		return errors.New("autosave.save_timeout_ms must be >=0")
	}

	if mode == ServiceModeNATS {
		if len(cfg.Launch.URL) == 0 {
			return errors.New("launch.url is required when service.mode=nats")
		}
		for i, url := range cfg.Launch.URL {
			if strings.TrimSpace(url) == "" {
				return fmt.Errorf("launch.url[%d] is empty", i)
			}
		}
	}
	if strings.ContainsAny(cfg.Launch.Subject, " \t") {
		return fmt.Errorf("launch.subject has unsupported value %q", cfg.Launch.Subject)
	}
	if strings.ContainsAny(cfg.Launch.Stream, " .*>") {
		return fmt.Errorf("launch.stream has unsupported value %q", cfg.Launch.Stream)
	}
	if cfg.Launch.MaxAgeHours < 0 {
		return errors.New("launch.max_age_hours must be >=0")
	}

	for id := range cfg.Recipients {
		if strings.TrimSpace(id) == "" {
			return errors.New("recipients has an empty id")
		}
	}

	if err := validateLogSink("log.console", cfg.Log.Console, false); err != nil {
		return err
	}
	if err := validateLogSink("log.file", cfg.Log.File, true); err != nil {
		return err
	}
	return nil
}

// normalizeNATSURLs trims spaces around each configured NATS URL.
// Params: raw URL list from config.
// Returns: normalized URL list preserving element count for validation.
func normalizeNATSURLs(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	out := make([]string, len(urls))
	for i := range urls {
		out[i] = strings.TrimSpace(urls[i])
	}
	return out
}

// NormalizeServiceMode canonicalizes service mode and applies default.
// Params: raw mode value from config.
// Returns: normalized mode (`single` by default).
func NormalizeServiceMode(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ServiceModeSingle
	}
	return normalized
}

// IsSupportedServiceMode reports whether mode value is supported.
// Params: normalized mode value.
// Returns: true for known modes.
func IsSupportedServiceMode(mode string) bool {
	switch NormalizeServiceMode(mode) {
	case ServiceModeNATS, ServiceModeSingle:
		return true
	default:
		return false
	}
}

// validateLogSink validates one log sink configuration.
// Params: sink name, sink values, and whether path is required.
// Returns: sink validation error.
func validateLogSink(name string, sink LogSinkConfig, requirePath bool) error {
	if !sink.Enabled {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(sink.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s.level has unsupported value %q", name, sink.Level)
	}

	switch strings.ToLower(strings.TrimSpace(sink.Format)) {
	case "line", "json":
	default:
		return fmt.Errorf("%s.format has unsupported value %q", name, sink.Format)
	}

	if requirePath && strings.TrimSpace(sink.Path) == "" {
		return fmt.Errorf("%s.path is required", name)
	}

	return nil
}
