// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Sources SourcesConfig
	Relay   RelayConfig
	Index   IndexConfig
	Search  SearchConfig
	Covers  CoversConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host          string        // Bind address (default: 0.0.0.0)
	Port          string        // Server port (default: 7000)
	PublicBaseURL string        // Optional; overrides the request-derived base for relay URLs
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout  time.Duration // HTTP write timeout (default: 0, relay streams are long-lived)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
	AdvertiseMDNS bool          // Advertise via mDNS/Zeroconf (default: false)
}

// SourcesConfig holds upstream source client configuration.
type SourcesConfig struct {
	LibriVoxBaseURL      string
	OpenLibraryBaseURL   string
	OpenLibraryCoversURL string
	UserAgent            string
	ListTimeout          time.Duration // Latency-sensitive listing calls (default: 3s)
	FetchTimeout         time.Duration // Single full-record fetches (default: 8s)
	RequestsPerSecond    float64       // Per upstream host (default: 5)
	Burst                int           // Per upstream host (default: 10)
}

// RelayConfig holds streaming relay configuration.
type RelayConfig struct {
	// AllowScraped adds the scraped-site media domain to the allowlist.
	AllowScraped bool
	// ExtraHosts are exact host names appended to the built-in allowlist.
	ExtraHosts []string
	// Timeout bounds connection setup and response headers, not the body copy.
	Timeout time.Duration
	// ClientRPS limits relay requests per client IP. Zero disables the limit.
	ClientRPS   float64
	ClientBurst int
}

// IndexConfig holds catalog index configuration.
type IndexConfig struct {
	// Path is the badger directory. Empty keeps the index in memory.
	Path string
	// TTL bounds how long an entry survives after its last Put.
	TTL time.Duration
}

// SearchConfig holds local search index configuration.
type SearchConfig struct {
	// Path is the bleve directory. Empty keeps the index in memory.
	Path string
}

// CoversConfig holds cover resolution configuration.
type CoversConfig struct {
	// Policy is the ordered rule list, e.g. "archive,enrichment,site".
	Policy []string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	serverHost := flag.String("host", "", "Bind address (default: 0.0.0.0)")
	serverPort := flag.String("port", "", "Server port (default: 7000)")
	publicBaseURL := flag.String("public-base-url", "", "Public base URL used in relay links")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 0, disabled)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: false)")

	listTimeout := flag.String("list-timeout", "", "Timeout for catalog listing calls (default: 3s)")
	fetchTimeout := flag.String("fetch-timeout", "", "Timeout for single-record fetches (default: 8s)")

	relayAllowScraped := flag.String("relay-allow-scraped", "", "Allow the scraped-site domain through the relay (default: true)")
	relayExtraHosts := flag.String("relay-extra-hosts", "", "Comma-separated extra relay hosts")

	indexPath := flag.String("index-path", "", "Catalog index directory (empty = in memory)")
	indexTTL := flag.String("index-ttl", "", "Catalog index entry lifetime (default: 72h)")
	searchPath := flag.String("search-path", "", "Search index directory (empty = in memory)")
	coverPolicy := flag.String("cover-policy", "", "Cover priority (default: archive,enrichment,site)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Host:          getConfigValue(*serverHost, "SERVER_HOST", "0.0.0.0"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "7000"),
			PublicBaseURL: strings.TrimRight(getConfigValue(*publicBaseURL, "PUBLIC_BASE_URL", ""), "/"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", false),
		},
		Sources: SourcesConfig{
			LibriVoxBaseURL:      getConfigValue("", "LIBRIVOX_BASE_URL", "https://librivox.org/api/feed/audiobooks"),
			OpenLibraryBaseURL:   getConfigValue("", "OPENLIBRARY_BASE_URL", "https://openlibrary.org"),
			OpenLibraryCoversURL: getConfigValue("", "OPENLIBRARY_COVERS_BASE_URL", "https://covers.openlibrary.org"),
			UserAgent:            getConfigValue("", "SOURCES_USER_AGENT", "Mozilla/5.0 (ListenUp Audiobook Add-on)"),
			RequestsPerSecond:    getFloatConfigValue("", "SOURCES_RPS", 5),
			Burst:                getIntConfigValue("", "SOURCES_BURST", 10),
		},
		Relay: RelayConfig{
			AllowScraped: getBoolConfigValue(*relayAllowScraped, "RELAY_ALLOW_SCRAPED", true),
			ExtraHosts:   splitList(getConfigValue(*relayExtraHosts, "RELAY_EXTRA_HOSTS", "")),
			ClientRPS:    getFloatConfigValue("", "RELAY_CLIENT_RPS", 0),
			ClientBurst:  getIntConfigValue("", "RELAY_CLIENT_BURST", 20),
		},
		Index: IndexConfig{
			Path: getConfigValue(*indexPath, "INDEX_PATH", ""),
		},
		Search: SearchConfig{
			Path: getConfigValue(*searchPath, "SEARCH_PATH", ""),
		},
		Covers: CoversConfig{
			Policy: splitList(getConfigValue(*coverPolicy, "COVER_POLICY", "archive,enrichment,site")),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dst       *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*listTimeout, "SOURCES_LIST_TIMEOUT", "3s", &cfg.Sources.ListTimeout},
		{*fetchTimeout, "SOURCES_FETCH_TIMEOUT", "8s", &cfg.Sources.FetchTimeout},
		{"", "RELAY_TIMEOUT", "15s", &cfg.Relay.Timeout},
		{*indexTTL, "INDEX_TTL", "72h", &cfg.Index.TTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandStoragePaths(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Server.PublicBaseURL != "" {
		u, err := url.Parse(c.Server.PublicBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid public base URL: %s", c.Server.PublicBaseURL)
		}
	}

	for _, base := range []string{c.Sources.LibriVoxBaseURL, c.Sources.OpenLibraryBaseURL, c.Sources.OpenLibraryCoversURL} {
		if _, err := url.ParseRequestURI(base); err != nil {
			return fmt.Errorf("invalid source base URL %q: %w", base, err)
		}
	}

	if c.Sources.ListTimeout <= 0 || c.Sources.FetchTimeout <= 0 {
		return errors.New("source timeouts must be positive")
	}
	if c.Sources.RequestsPerSecond <= 0 || c.Sources.Burst < 1 {
		return errors.New("source rate limit must be positive")
	}

	if c.Relay.ClientRPS < 0 || (c.Relay.ClientRPS > 0 && c.Relay.ClientBurst < 1) {
		return errors.New("relay client rate limit must be positive")
	}

	if c.Index.TTL <= 0 {
		return errors.New("index TTL must be positive")
	}

	validRules := map[string]bool{"archive": true, "enrichment": true, "site": true}
	if len(c.Covers.Policy) == 0 {
		return errors.New("cover policy cannot be empty")
	}
	for _, rule := range c.Covers.Policy {
		if !validRules[rule] {
			return fmt.Errorf("invalid cover policy rule: %s (must be archive, enrichment, or site)", rule)
		}
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStoragePaths expands the index and search directories.
// Empty paths stay empty, which selects in-memory storage.
func (c *Config) expandStoragePaths() error {
	indexPath, err := expandPath(c.Index.Path, "")
	if err != nil {
		return err
	}
	c.Index.Path = indexPath

	searchPath, err := expandPath(c.Search.Path, "")
	if err != nil {
		return err
	}
	c.Search.Path = searchPath
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Env vars already set take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
