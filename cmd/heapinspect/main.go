// Command heapinspect prints the page-by-page contents of a heap file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"heapdb/pkg/catalog"
	"heapdb/pkg/config"
	"heapdb/pkg/debug/heapreader"
	"heapdb/pkg/debug/ui"
	"heapdb/pkg/logging"
	"heapdb/pkg/memory"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/heap"
)

type options struct {
	File       string
	Fields     string
	ConfigPath string
	PoolPages  int
	LogLevel   string
}

func main() {
	opts := parseArguments()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(err))
		os.Exit(1)
	}
}

func parseArguments() options {
	var opts options

	flag.StringVar(&opts.File, "file", "", "Heap file to inspect")
	flag.StringVar(&opts.Fields, "fields", "int", "Comma separated field types, e.g. int,string")
	flag.StringVar(&opts.ConfigPath, "config", "", "Optional TOML or INI config file")
	flag.IntVar(&opts.PoolPages, "pool", 0, "Buffer pool capacity in pages (overrides config)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (overrides config)")

	flag.Parse()
	return opts
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.PoolPages > 0 {
		cfg.BufferPoolPages = opts.PoolPages
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, cfg.Validate()
}

func run(opts options) error {
	if opts.File == "" {
		return fmt.Errorf("-file is required")
	}
	if _, err := os.Stat(opts.File); err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Apply()

	// stdout carries the report, so logs default to stderr.
	logCfg := cfg.LoggingConfig()
	if logCfg.OutputPath == "" {
		err = logging.InitWriter(os.Stderr, logCfg.Level, logCfg.Format)
	} else {
		err = logging.Init(logCfg)
	}
	if err != nil {
		return err
	}
	defer logging.Close()

	td, err := heapreader.ParseSchema(opts.Fields)
	if err != nil {
		return err
	}

	cat := catalog.NewCatalog()
	defer cat.Clear()
	pool := memory.NewBufferPool(cat, cfg.BufferPoolPages, memory.WithLockConfig(cfg.LockConfig()))

	hf, err := heap.NewHeapFile(primitives.Filepath(opts.File), td, pool)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(opts.File), filepath.Ext(opts.File))
	if err := cat.AddTable(hf, name, ""); err != nil {
		return err
	}

	tid := primitives.NewTransactionID()
	report, err := heapreader.Inspect(pool, hf, tid)
	if cerr := pool.TransactionComplete(tid, err == nil); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Print(heapreader.Render(report))
	return nil
}
