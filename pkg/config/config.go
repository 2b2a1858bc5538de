// Package config loads the tunables of a heapdb process from TOML or INI
// files and applies the process-wide ones.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/logging"
	"heapdb/pkg/storage/page"
)

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type Config struct {
	PageSize        int
	BufferPoolPages int
	LockTimeout     time.Duration
	LockRetryBase   time.Duration
	LockRetryMax    time.Duration
	DataDir         string
	Log             LogConfig
}

func Default() *Config {
	return &Config{
		PageSize:        page.DefaultPageSize,
		BufferPoolPages: 50,
		LockTimeout:     2 * time.Second,
		LockRetryBase:   time.Millisecond,
		LockRetryMax:    50 * time.Millisecond,
		DataDir:         "./data",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of the defaults. The format is chosen by extension:
// .toml, or .ini/.cfg/.conf.
func Load(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = cfg.loadTOML(path)
	case ".ini", ".cfg", ".conf":
		err = cfg.loadINI(path)
	default:
		return nil, errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TOML layout:
//
//	[storage]  page_size, data_dir
//	[buffer]   pages
//	[lock]     timeout, retry_base, retry_max (duration strings)
//	[log]      level, format, output
func (c *Config) loadTOML(path string) error {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	if c.PageSize, err = tomlInt(tree, "storage.page_size", c.PageSize); err != nil {
		return err
	}
	if c.BufferPoolPages, err = tomlInt(tree, "buffer.pages", c.BufferPoolPages); err != nil {
		return err
	}
	if c.DataDir, err = tomlString(tree, "storage.data_dir", c.DataDir); err != nil {
		return err
	}
	if c.LockTimeout, err = tomlDuration(tree, "lock.timeout", c.LockTimeout); err != nil {
		return err
	}
	if c.LockRetryBase, err = tomlDuration(tree, "lock.retry_base", c.LockRetryBase); err != nil {
		return err
	}
	if c.LockRetryMax, err = tomlDuration(tree, "lock.retry_max", c.LockRetryMax); err != nil {
		return err
	}
	if c.Log.Level, err = tomlString(tree, "log.level", c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format, err = tomlString(tree, "log.format", c.Log.Format); err != nil {
		return err
	}
	if c.Log.OutputPath, err = tomlString(tree, "log.output", c.Log.OutputPath); err != nil {
		return err
	}
	return nil
}

func tomlInt(tree *toml.Tree, key string, def int) (int, error) {
	switch v := tree.GetDefault(key, int64(def)).(type) {
	case int64:
		return int(v), nil
	default:
		return 0, errors.Errorf("%s: expected integer, got %T", key, v)
	}
}

func tomlString(tree *toml.Tree, key, def string) (string, error) {
	v, ok := tree.GetDefault(key, def).(string)
	if !ok {
		return "", errors.Errorf("%s: expected string", key)
	}
	return v, nil
}

func tomlDuration(tree *toml.Tree, key string, def time.Duration) (time.Duration, error) {
	raw, err := tomlString(tree, key, def.String())
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", key)
	}
	return d, nil
}

// INI layout mirrors the TOML one, one section per table.
func (c *Config) loadINI(path string) error {
	file, err := ini.Load(path)
	if err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	storage := file.Section("storage")
	c.PageSize = storage.Key("page_size").MustInt(c.PageSize)
	c.DataDir = storage.Key("data_dir").MustString(c.DataDir)

	c.BufferPoolPages = file.Section("buffer").Key("pages").MustInt(c.BufferPoolPages)

	lk := file.Section("lock")
	c.LockTimeout = lk.Key("timeout").MustDuration(c.LockTimeout)
	c.LockRetryBase = lk.Key("retry_base").MustDuration(c.LockRetryBase)
	c.LockRetryMax = lk.Key("retry_max").MustDuration(c.LockRetryMax)

	lg := file.Section("log")
	c.Log.Level = lg.Key("level").MustString(c.Log.Level)
	c.Log.Format = lg.Key("format").MustString(c.Log.Format)
	c.Log.OutputPath = lg.Key("output").MustString(c.Log.OutputPath)
	return nil
}

func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.BufferPoolPages <= 0 {
		return fmt.Errorf("buffer pool capacity must be positive, got %d", c.BufferPoolPages)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock timeout must not be negative, got %s", c.LockTimeout)
	}
	if c.LockRetryBase <= 0 || c.LockRetryMax < c.LockRetryBase {
		return fmt.Errorf("invalid lock retry window [%s, %s]", c.LockRetryBase, c.LockRetryMax)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Apply sets the process page size. Call it before any heap file is opened.
func (c *Config) Apply() {
	page.SetPageSize(c.PageSize)
}

func (c *Config) LockConfig() lock.Config {
	return lock.Config{
		Timeout:   c.LockTimeout,
		RetryBase: c.LockRetryBase,
		RetryMax:  c.LockRetryMax,
	}
}

func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      logging.ParseLevel(c.Log.Level),
		Format:     c.Log.Format,
		OutputPath: c.Log.OutputPath,
	}
}
