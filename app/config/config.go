package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/address-resolver/internal/etl"
	"github.com/address-resolver/internal/masterdata"
)

// Config holds the full application configuration.
type Config struct {
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Master      MasterConfig      `yaml:"master" mapstructure:"master"`
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Mongo       MongoConfig       `yaml:"mongo" mapstructure:"mongo"`
	Meilisearch MeilisearchConfig `yaml:"meilisearch" mapstructure:"meilisearch"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// MasterConfig locates the geography reference data.
type MasterConfig struct {
	DumpPath     string            `yaml:"dump_path" mapstructure:"dump_path"`
	JSONDir      string            `yaml:"json_dir" mapstructure:"json_dir"`
	SnapshotPath string            `yaml:"snapshot_path" mapstructure:"snapshot_path"`
	Tables       masterdata.Tables `yaml:"tables" mapstructure:"tables"`
}

// Source returns the JSON directory when set, else the SQL dump
func (m MasterConfig) Source() string {
	if m.JSONDir != "" {
		return m.JSONDir
	}
	return m.DumpPath
}

// ResolverConfig tunes the resolution pipeline.
type ResolverConfig struct {
	Workers     int     `yaml:"workers" mapstructure:"workers"`
	MemoSize    int     `yaml:"memo_size" mapstructure:"memo_size"`
	Suggestions int     `yaml:"suggestions" mapstructure:"suggestions"`
	MinScore    float64 `yaml:"min_score" mapstructure:"min_score"`
	MarkersPath string  `yaml:"markers_path" mapstructure:"markers_path"` // replaces the embedded marker vocabulary
}

// InputConfig describes the customer export being migrated.
type InputConfig struct {
	Path      string      `yaml:"path" mapstructure:"path"`
	Sheet     string      `yaml:"sheet" mapstructure:"sheet"`
	Header    bool        `yaml:"header" mapstructure:"header"`
	Delimiter string      `yaml:"delimiter" mapstructure:"delimiter"`
	Columns   etl.Mapping `yaml:"columns" mapstructure:"columns"`
}

// ReadOptions converts the input section for the etl readers
func (in InputConfig) ReadOptions() etl.ReadOptions {
	opts := etl.ReadOptions{HasHeader: in.Header, Sheet: in.Sheet}
	if r := []rune(in.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	return opts
}

// OutputConfig describes the migrated file.
type OutputConfig struct {
	Path      string          `yaml:"path" mapstructure:"path"`
	Format    string          `yaml:"format" mapstructure:"format"` // csv, sql or xlsx
	BOM       bool            `yaml:"bom" mapstructure:"bom"`
	Sheet     string          `yaml:"sheet" mapstructure:"sheet"`
	Table     string          `yaml:"table" mapstructure:"table"`
	BatchSize int             `yaml:"batch_size" mapstructure:"batch_size"`
	Columns   []etl.SQLColumn `yaml:"columns" mapstructure:"columns"`
	Review    bool            `yaml:"review" mapstructure:"review"` // queue fallback rows in MongoDB
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Mode string `yaml:"mode" mapstructure:"mode"` // gin mode
}

// CacheConfig selects the resolve result cache.
type CacheConfig struct {
	Driver   string        `yaml:"driver" mapstructure:"driver"` // memory, redis or hybrid
	Size     int           `yaml:"size" mapstructure:"size"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RedisURL string        `yaml:"redis_url" mapstructure:"redis_url"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
}

// MongoConfig locates the review queue.
type MongoConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	Database string `yaml:"database" mapstructure:"database"`
}

// MeilisearchConfig locates the search index.
type MeilisearchConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Index   string        `yaml:"index" mapstructure:"index"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Load reads configuration from path (or config.yaml in . and ./config when
// path is empty), ADDR_* environment variables and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment
	v.SetEnvPrefix("ADDR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("master.dump_path", "data/address_master.sql")
	v.SetDefault("master.json_dir", "")
	v.SetDefault("master.snapshot_path", "")
	tables := masterdata.DefaultTables()
	setTableDefaults(v, "master.tables.province", tables.Province)
	setTableDefaults(v, "master.tables.district", tables.District)
	setTableDefaults(v, "master.tables.subdistrict", tables.Subdistrict)

	v.SetDefault("resolver.workers", 4)
	v.SetDefault("resolver.memo_size", 10000)
	v.SetDefault("resolver.suggestions", 5)
	v.SetDefault("resolver.min_score", 0.6)
	v.SetDefault("resolver.markers_path", "")

	mapping := etl.DefaultMapping()
	v.SetDefault("input.path", "")
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.header", true)
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.columns.subdistrict", mapping.Subdistrict)
	v.SetDefault("input.columns.district", mapping.District)
	v.SetDefault("input.columns.province", mapping.Province)
	v.SetDefault("input.columns.postal_code", mapping.PostalCode)
	v.SetDefault("input.columns.free_text", mapping.FreeText)

	v.SetDefault("output.path", "")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.bom", true)
	v.SetDefault("output.sheet", "Sheet1")
	v.SetDefault("output.table", "customers")
	v.SetDefault("output.batch_size", 1000)
	v.SetDefault("output.review", false)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.size", 10000)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.prefix", "addr:")

	v.SetDefault("mongo.url", "")
	v.SetDefault("mongo.database", "address_resolver")

	v.SetDefault("meilisearch.url", "")
	v.SetDefault("meilisearch.api_key", "")
	v.SetDefault("meilisearch.index", "geo_records")
	v.SetDefault("meilisearch.timeout", 5*time.Second)
}

func setTableDefaults(v *viper.Viper, key string, spec masterdata.TableSpec) {
	v.SetDefault(key+".name", spec.Name)
	v.SetDefault(key+".id_col", spec.IDCol)
	v.SetDefault(key+".name_col", spec.NameCol)
	v.SetDefault(key+".parent_col", spec.ParentCol)
	v.SetDefault(key+".postal_col", spec.PostalCol)
}

// NewLogger builds a zap logger from cfg and installs it as the global logger.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return logger, nil
}
