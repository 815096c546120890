package config

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ats-aggregator/internal/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config represents the application configuration
type Config struct {
	Environment string `yaml:"environment"`

	Server struct {
		Port            int           `yaml:"port"`
		Host            string        `yaml:"host"`
		PortFallbacks   int           `yaml:"port_fallbacks"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// RateLimit bounds inbound requests per client IP.
	RateLimit struct {
		Requests int           `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`

	Retry RetryConfig `yaml:"retry"`

	Aggregator struct {
		SourceTimeout time.Duration `yaml:"source_timeout"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
	} `yaml:"aggregator"`

	Scheduler struct {
		Enabled  bool          `yaml:"enabled"`
		Schedule string        `yaml:"schedule"`
		Queries  []WarmQuery   `yaml:"queries"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"scheduler"`

	Scraper ScraperConfig `yaml:"scraper"`

	Firecrawl struct {
		APIKey  string        `yaml:"api_key"`
		APIURL  string        `yaml:"api_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"firecrawl"`

	Sources map[string]SourceConfig `yaml:"sources"`

	Logging struct {
		Level    string             `yaml:"level"`
		Format   string             `yaml:"format"`
		Adapters []LogAdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`

	GRPC struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"grpc"`
}

// RetryConfig parameterizes the per-adapter retrying executor.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Strategy    string        `yaml:"strategy"` // fixed, linear or exponential
	Jitter      float64       `yaml:"jitter"`
}

// ScraperConfig drives the browser used for detail-page enrichment.
type ScraperConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	HeadlessMode   bool          `yaml:"headless_mode"`
	StealthMode    bool          `yaml:"stealth_mode"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PageTimeout    time.Duration `yaml:"page_timeout"`
	MaxDetailPages int           `yaml:"max_detail_pages"`
}

// SourceConfig is the enablement and credential entry for one job board.
type SourceConfig struct {
	Enabled           bool     `yaml:"enabled"`
	APIKey            string   `yaml:"api_key"`
	CompanyIDs        []string `yaml:"company_ids"`
	BoardIDs          []string `yaml:"board_ids"`
	BaseURL           string   `yaml:"base_url"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

// WarmQuery is a search the scheduler runs ahead of time to fill the cache.
type WarmQuery struct {
	Keywords  string   `yaml:"keywords"`
	Location  string   `yaml:"location"`
	Platforms []string `yaml:"platforms"`
	DateRange int      `yaml:"date_range"`
}

// LogAdapterConfig describes one logging sink.
type LogAdapterConfig struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// SourceIDs returns the configured source ids in sorted order.
func (c *Config) SourceIDs() []string {
	ids := make([]string, 0, len(c.Sources))
	for id := range c.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	bracedVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR, leaving unknown variables untouched
func expandEnvVars(s string) string {
	lookup := func(name, original string) string {
		if val := os.Getenv(name); val != "" {
			return val
		}
		return original
	}

	s = bracedVar.ReplaceAllStringFunc(s, func(match string) string {
		return lookup(match[2:len(match)-1], match)
	})
	return bareVar.ReplaceAllStringFunc(s, func(match string) string {
		return lookup(match[1:], match)
	})
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	config := &Config{Environment: EnvDevelopment}

	config.Server.Port = 3001
	config.Server.Host = "0.0.0.0"
	config.Server.PortFallbacks = 2
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 2 * time.Minute
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.RequestTimeout = 90 * time.Second
	config.Server.ShutdownTimeout = 30 * time.Second

	config.RateLimit.Requests = 100
	config.RateLimit.Window = 15 * time.Minute

	config.Retry = RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Strategy:    "fixed",
	}

	config.Aggregator.CacheTTL = 10 * time.Minute

	config.Scheduler.Schedule = "@every 30m"
	config.Scheduler.Timeout = 5 * time.Minute

	config.Scraper = ScraperConfig{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		HeadlessMode:   true,
		StealthMode:    true,
		RequestTimeout: 30 * time.Second,
		PageTimeout:    20 * time.Second,
		MaxDetailPages: 25,
	}

	config.Firecrawl.APIURL = "https://api.firecrawl.dev"
	config.Firecrawl.Timeout = 60 * time.Second

	config.Sources = map[string]SourceConfig{
		"greenhouse": {BaseURL: "https://boards-api.greenhouse.io", RequestsPerMinute: 60},
		"lever":      {BaseURL: "https://api.lever.co", RequestsPerMinute: 60},
		"ashby":      {BaseURL: "https://api.ashbyhq.com", RequestsPerMinute: 60},
		"breezyhr":   {BaseURL: "https://{company}.breezy.hr", RequestsPerMinute: 30},
	}

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), config); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", configPath)
			}
		}
	}

	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("invalid server port %d", c.Server.Port)
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.Newf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	switch c.Retry.Strategy {
	case "", "fixed", "linear", "exponential":
	default:
		return errors.WithHint(
			errors.Newf("unknown retry strategy %q", c.Retry.Strategy),
			"use fixed, linear or exponential")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return errors.Newf("retry.jitter must be within [0,1], got %v", c.Retry.Jitter)
	}
	if c.RateLimit.Requests < 0 || (c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0) {
		return errors.New("rate_limit needs a positive window")
	}
	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if env := firstEnv("APP_ENV", "NODE_ENV"); env != "" {
		c.Environment = strings.ToLower(env)
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if attempts := os.Getenv("RETRY_MAX_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			c.Retry.MaxAttempts = n
		}
	}

	if delay := os.Getenv("RETRY_BASE_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			c.Retry.BaseDelay = d
		}
	}

	if strategy := os.Getenv("RETRY_STRATEGY"); strategy != "" {
		c.Retry.Strategy = strategy
	}

	if timeout := os.Getenv("SOURCE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Aggregator.SourceTimeout = d
		}
	}

	if firecrawlAPIKey := os.Getenv("FIRECRAWL_API_KEY"); firecrawlAPIKey != "" {
		c.Firecrawl.APIKey = firecrawlAPIKey
	}

	if firecrawlAPIURL := os.Getenv("FIRECRAWL_API_URL"); firecrawlAPIURL != "" {
		c.Firecrawl.APIURL = firecrawlAPIURL
	}

	if headless := os.Getenv("SCRAPER_HEADLESS"); headless != "" {
		c.Scraper.HeadlessMode = parseBool(headless)
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
		c.Redis.Enabled = true
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisEnabled := os.Getenv("REDIS_ENABLED"); redisEnabled != "" {
		c.Redis.Enabled = parseBool(redisEnabled)
	}

	if grpcEnabled := os.Getenv("GRPC_ENABLED"); grpcEnabled != "" {
		c.GRPC.Enabled = parseBool(grpcEnabled)
	}

	if schedulerEnabled := os.Getenv("SCHEDULER_ENABLED"); schedulerEnabled != "" {
		c.Scheduler.Enabled = parseBool(schedulerEnabled)
	}

	c.loadSourceEnvVars()
}

// loadSourceEnvVars applies <ID>_* variables to every configured source.
// Supplying board or company ids through the environment enables a source
// unless <ID>_ENABLED says otherwise.
func (c *Config) loadSourceEnvVars() {
	for _, id := range c.SourceIDs() {
		source := c.Sources[id]
		prefix := EnvPrefix(id)
		provided := false

		if v := os.Getenv(prefix + "_API_KEY"); v != "" {
			source.APIKey = v
		}
		if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
			source.BaseURL = v
		}
		if v := os.Getenv(prefix + "_COMPANY_IDS"); v != "" {
			source.CompanyIDs = splitList(v)
			provided = true
		}
		if v := os.Getenv(prefix + "_BOARD_IDS"); v != "" {
			source.BoardIDs = splitList(v)
			provided = true
		}
		if provided {
			source.Enabled = true
		}
		if v := os.Getenv(prefix + "_ENABLED"); v != "" {
			source.Enabled = parseBool(v)
		}

		c.Sources[id] = source
	}
}

// EnvPrefix maps a source id to its environment variable prefix.
func EnvPrefix(id string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(id))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
