package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "WIKITRENDS_CONFIG"
	logLevelEnv        = "WIKITRENDS_LOG_LEVEL"
	cacheDriverEnv     = "WIKITRENDS_CACHE_DRIVER"
	sqlitePathEnv      = "WIKITRENDS_SQLITE_PATH"
	redisAddrEnv       = "WIKITRENDS_REDIS_ADDR"
	redisPasswordEnv   = "WIKITRENDS_REDIS_PASSWORD"
	defaultLanguageEnv = "WIKITRENDS_DEFAULT_LANGUAGE"
	userAgentEnv       = "WIKITRENDS_USER_AGENT"
)

// Cache drivers understood by the application wiring.
const (
	CacheDriverSQLite = "sqlite"
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
	CacheDriverNone   = "none"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	HTTP      HTTPConfig      `yaml:"http"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Featured  FeaturedConfig  `yaml:"featured"`
	Denylist  DenylistConfig  `yaml:"denylist"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Search    SearchConfig    `yaml:"search"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig tunes the outbound client shared by every Wikimedia adapter.
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"userAgent"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
}

// WikipediaConfig holds endpoint templates. Placeholders: {lang}, {date}, {title}.
type WikipediaConfig struct {
	PageviewsURL string `yaml:"pageviewsUrl"`
	SummaryURL   string `yaml:"summaryUrl"`
	SearchURL    string `yaml:"searchUrl"`
}

// FeaturedConfig drives the trending-articles pipeline.
type FeaturedConfig struct {
	MaxRetries      int           `yaml:"maxRetries"`
	RetryBackoff    time.Duration `yaml:"retryBackoff"`
	MaxArticles     int           `yaml:"maxArticles"`
	ImageWidth      int           `yaml:"imageWidth"`
	Concurrency     int           `yaml:"concurrency"`
	FetchTimeout    time.Duration `yaml:"fetchTimeout"`
	DefaultLanguage string        `yaml:"defaultLanguage"`
	Languages       []string      `yaml:"languages"`
}

// DenylistConfig lists page titles (or title prefixes) hidden from trending lists.
type DenylistConfig struct {
	Default   []string            `yaml:"default"`
	Languages map[string][]string `yaml:"languages"`
}

// CacheConfig selects and tunes the featured-articles store.
type CacheConfig struct {
	Driver        string        `yaml:"driver"`
	KeyPrefix     string        `yaml:"keyPrefix"`
	MaxEntryBytes int           `yaml:"maxEntryBytes"`
	TTL           time.Duration `yaml:"ttl"`
	SQLite        SQLiteConfig  `yaml:"sqlite"`
	Redis         RedisConfig   `yaml:"redis"`
	Memory        MemoryConfig  `yaml:"memory"`
}

// SQLiteConfig points at the local database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig describes a shared redis instance.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MemoryConfig bounds the in-process LRU store.
type MemoryConfig struct {
	Size int `yaml:"size"`
}

// SchedulerConfig defines when the cache warmer runs and which calendar days use.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	Languages      []string       `yaml:"languages"`
	RunOnStart     bool           `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SearchConfig mirrors the MediaWiki search parameters.
type SearchConfig struct {
	Limit            int `yaml:"limit"`
	ThumbSize        int `yaml:"thumbSize"`
	ExtractSentences int `yaml:"extractSentences"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit file path; an empty path skips the file.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
				cfg.applyExplicitZeros(fileCfg, explicitKeys(raw))
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Denylist.Default) == 0 {
		cfg.Denylist.Default = defaultConfig().Denylist.Default
	}

	return cfg
}

// SchedulerLanguages returns the warmer languages, defaulting to every supported language.
func (c Config) SchedulerLanguages() []string {
	if len(c.Scheduler.Languages) > 0 {
		return c.Scheduler.Languages
	}
	return c.Featured.Languages
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(cacheDriverEnv); v != "" {
		c.Cache.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(sqlitePathEnv); v != "" {
		c.Cache.SQLite.Path = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.Redis.Addr = v
	}

	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Cache.Redis.Password = v
	}

	if v := os.Getenv(defaultLanguageEnv); v != "" {
		c.Featured.DefaultLanguage = v
	}

	if v := os.Getenv(userAgentEnv); v != "" {
		c.HTTP.UserAgent = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.HTTP.Timeout > 0 {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}
	if override.HTTP.RequestsPerSecond > 0 {
		base.HTTP.RequestsPerSecond = override.HTTP.RequestsPerSecond
	}

	if override.Wikipedia.PageviewsURL != "" {
		base.Wikipedia.PageviewsURL = override.Wikipedia.PageviewsURL
	}
	if override.Wikipedia.SummaryURL != "" {
		base.Wikipedia.SummaryURL = override.Wikipedia.SummaryURL
	}
	if override.Wikipedia.SearchURL != "" {
		base.Wikipedia.SearchURL = override.Wikipedia.SearchURL
	}

	if override.Featured.MaxRetries > 0 {
		base.Featured.MaxRetries = override.Featured.MaxRetries
	}
	if override.Featured.RetryBackoff > 0 {
		base.Featured.RetryBackoff = override.Featured.RetryBackoff
	}
	if override.Featured.MaxArticles > 0 {
		base.Featured.MaxArticles = override.Featured.MaxArticles
	}
	if override.Featured.ImageWidth > 0 {
		base.Featured.ImageWidth = override.Featured.ImageWidth
	}
	if override.Featured.Concurrency > 0 {
		base.Featured.Concurrency = override.Featured.Concurrency
	}
	if override.Featured.FetchTimeout > 0 {
		base.Featured.FetchTimeout = override.Featured.FetchTimeout
	}
	if override.Featured.DefaultLanguage != "" {
		base.Featured.DefaultLanguage = override.Featured.DefaultLanguage
	}
	if len(override.Featured.Languages) > 0 {
		base.Featured.Languages = override.Featured.Languages
	}

	if len(override.Denylist.Default) > 0 {
		base.Denylist.Default = override.Denylist.Default
	}
	if len(override.Denylist.Languages) > 0 {
		base.Denylist.Languages = override.Denylist.Languages
	}

	if override.Cache.Driver != "" {
		base.Cache.Driver = strings.ToLower(override.Cache.Driver)
	}
	if override.Cache.KeyPrefix != "" {
		base.Cache.KeyPrefix = override.Cache.KeyPrefix
	}
	if override.Cache.MaxEntryBytes > 0 {
		base.Cache.MaxEntryBytes = override.Cache.MaxEntryBytes
	}
	if override.Cache.TTL > 0 {
		base.Cache.TTL = override.Cache.TTL
	}
	if override.Cache.SQLite.Path != "" {
		base.Cache.SQLite = override.Cache.SQLite
	}
	if override.Cache.Redis.Addr != "" {
		base.Cache.Redis = override.Cache.Redis
	}
	if override.Cache.Memory.Size > 0 {
		base.Cache.Memory = override.Cache.Memory
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if len(override.Scheduler.Languages) > 0 {
		base.Scheduler.Languages = override.Scheduler.Languages
	}
	if override.Scheduler.RunOnStart {
		base.Scheduler.RunOnStart = true
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if override.Search.Limit > 0 {
		base.Search.Limit = override.Search.Limit
	}
	if override.Search.ThumbSize > 0 {
		base.Search.ThumbSize = override.Search.ThumbSize
	}
	if override.Search.ExtractSentences > 0 {
		base.Search.ExtractSentences = override.Search.ExtractSentences
	}

	return base
}

// applyExplicitZeros copies settings whose zero value is meaningful when the
// file names them, since mergeConfig only takes non-zero overrides.
func (c *Config) applyExplicitZeros(override Config, keys map[string]bool) {
	if keys["http.requestsPerSecond"] {
		c.HTTP.RequestsPerSecond = override.HTTP.RequestsPerSecond
	}
	if keys["featured.maxRetries"] {
		c.Featured.MaxRetries = override.Featured.MaxRetries
	}
	if keys["featured.retryBackoff"] {
		c.Featured.RetryBackoff = override.Featured.RetryBackoff
	}
	if keys["featured.concurrency"] {
		c.Featured.Concurrency = override.Featured.Concurrency
	}
	if keys["featured.fetchTimeout"] {
		c.Featured.FetchTimeout = override.Featured.FetchTimeout
	}
	if keys["cache.maxEntryBytes"] {
		c.Cache.MaxEntryBytes = override.Cache.MaxEntryBytes
	}
	if keys["cache.ttl"] {
		c.Cache.TTL = override.Cache.TTL
	}
	if keys["scheduler.runOnStart"] {
		c.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}
}

// explicitKeys lists the dotted paths a YAML document sets, e.g. "featured.maxRetries".
func explicitKeys(raw []byte) map[string]bool {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil
	}

	keys := map[string]bool{}
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, v := range node {
			keys[prefix+k] = true
			if child, ok := v.(map[string]any); ok {
				walk(prefix+k+".", child)
			}
		}
	}
	walk("", doc)
	return keys
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "WikiTrends/1.0 (https://github.com/guinetik/svelte-wikipedia)",
		},
		Wikipedia: WikipediaConfig{
			PageviewsURL: "https://wikimedia.org/api/rest_v1/metrics/pageviews/top/{lang}.wikipedia.org/all-access/{date}",
			SummaryURL:   "https://{lang}.wikipedia.org/api/rest_v1/page/summary/{title}",
			SearchURL:    "https://{lang}.wikipedia.org/w/api.php",
		},
		Featured: FeaturedConfig{
			MaxRetries:      10,
			RetryBackoff:    time.Second,
			MaxArticles:     50,
			ImageWidth:      400,
			FetchTimeout:    2 * time.Minute,
			DefaultLanguage: "en",
			Languages:       []string{"en", "pt", "es", "fr", "it", "de"},
		},
		Denylist: DenylistConfig{
			Default: []string{
				"Wikipedia:Portada",
				"Main_Page",
				"Special:Search",
				"Wikipédia:Página_principal",
				"Especial:Pesquisar",
				"Wikipedia:Featured_pictures",
				"Wikipédia:Accueil_principal",
				"Portal:Current_events",
				"Wikipedia:Hauptseite",
				"Pagina_principale",
				"Help:IPA/English",
				"CEO",
				"Video_hosting_service",
				"F5_Networks",
				"File:",
				"Ficheiro:",
				"Help",
				"Ajuda",
			},
		},
		Cache: CacheConfig{
			Driver:        CacheDriverSQLite,
			KeyPrefix:     "wiki_featured_",
			MaxEntryBytes: 5 << 20,
			SQLite:        SQLiteConfig{Path: "wikitrends.db"},
			Redis:         RedisConfig{Addr: "localhost:6379"},
			Memory:        MemoryConfig{Size: 256},
		},
		Scheduler: SchedulerConfig{CronExpression: "15 1 * * *", Timezone: defaultTimezone, location: tz},
		Search:    SearchConfig{Limit: 10, ThumbSize: 500, ExtractSentences: 2},
	}
}
