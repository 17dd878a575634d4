package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName scopes config files, environment variables and data paths.
const AppName = "weathercache"

// Config is the runtime configuration of the weathercache CLI.
type Config struct {
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Log     LogConfig     `mapstructure:"log"`
}

type CacheConfig struct {
	Prefix string `mapstructure:"prefix"`
	// TTLSeconds is the root TTL. Zero or negative means every record is
	// already expired.
	TTLSeconds int64 `mapstructure:"ttl_seconds"`
	// NeverExpire drops the root TTL altogether; TTLSeconds is ignored.
	NeverExpire bool `mapstructure:"never_expire"`
	// Partition TTLs inherit the root TTL when unset.
	ConditionsTTLSeconds *int64 `mapstructure:"conditions_ttl_seconds"`
	ForecastTTLSeconds   *int64 `mapstructure:"forecast_ttl_seconds"`
	WarmOnSet            bool   `mapstructure:"warm_on_set"`
	Coalesce             bool   `mapstructure:"coalesce"`
	MemoryCapacity       uint64 `mapstructure:"memory_capacity"`
	LockStripes          int    `mapstructure:"lock_stripes"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type SyncConfig struct {
	Concurrency   int  `mapstructure:"concurrency"`
	EvictOnRemove bool `mapstructure:"evict_on_remove"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var ErrInvalid = errors.New("invalid configuration")

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Cache: CacheConfig{
			Prefix:      "GLOBAL",
			TTLSeconds:  30,
			LockStripes: 16,
		},
		Sync: SyncConfig{Concurrency: 4},
		Log:  LogConfig{Level: "info"},
	}
}

// Load reads configuration from defaults, an optional config file and
// WEATHERCACHE_* environment variables, in increasing precedence.
// With an empty path, weathercache.{yaml,toml,json} is looked up in the
// working directory and the user config dirs; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		if dirs, err := gap.NewScope(gap.User, AppName).ConfigDirs(); err == nil {
			for _, d := range dirs {
				v.AddConfigPath(d)
			}
		}
	}
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Storage.Path == "" {
		p, err := gap.NewScope(gap.User, AppName).DataPath(AppName + ".db")
		if err != nil {
			return nil, fmt.Errorf("resolve data path: %w", err)
		}
		cfg.Storage.Path = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the cache cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Cache.LockStripes < 1:
		return fmt.Errorf("%w: cache.lock_stripes must be >= 1", ErrInvalid)
	case c.Sync.Concurrency < 1:
		return fmt.Errorf("%w: sync.concurrency must be >= 1", ErrInvalid)
	}
	return nil
}

// RootTTL is the root partition TTL; nil means never expire.
func (c CacheConfig) RootTTL() *int64 {
	if c.NeverExpire {
		return nil
	}
	return copyTTL(&c.TTLSeconds)
}

// ConditionsTTL is the CONDITIONS partition TTL; nil inherits the root TTL.
func (c CacheConfig) ConditionsTTL() *int64 { return copyTTL(c.ConditionsTTLSeconds) }

// ForecastTTL is the FORECASTS partition TTL; nil inherits the root TTL.
func (c CacheConfig) ForecastTTL() *int64 { return copyTTL(c.ForecastTTLSeconds) }

func copyTTL(seconds *int64) *int64 {
	if seconds == nil {
		return nil
	}
	ttl := *seconds
	return &ttl
}

// bindEnvs registers every key in cfg so viper consults the matching
// environment variable when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
