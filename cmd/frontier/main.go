package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"frontier/internal/core/app"
	"frontier/internal/core/config"
	"frontier/internal/shared/observability"
	"frontier/internal/ui/tui"
)

var (
	configPath = flag.String("config", "./frontier.toml", "Path to config file")
	dataset    = flag.String("dataset", "", "Path to the wire-format JSON dataset (overrides config)")
	masterDB   = flag.String("masterdb", "", "Path to the analyzer master database (overrides config)")
	covDB      = flag.String("covdb", "", "Path to the coverage diff database (overrides config)")
	moduleID   = flag.Int("module", -1, "Module id to build the graph for (default: first module)")
	once       = flag.Bool("once", false, "Load, build, export once and exit")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("frontier v%s\n", VERSION)
		os.Exit(0)
	}

	setupLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) || isExplicitConfig() {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	if *dataset != "" {
		cfg.Dataset.Path = *dataset
		cfg.Dataset.MasterDB, cfg.Dataset.CoverageDB = "", ""
	}
	if *masterDB != "" {
		cfg.Dataset.MasterDB = *masterDB
	}
	if *covDB != "" {
		cfg.Dataset.CoverageDB = *covDB
	}
	if cfg.Dataset.Path == "" && (cfg.Dataset.MasterDB == "" || cfg.Dataset.CoverageDB == "") {
		fmt.Fprintln(os.Stderr, "no dataset source: pass -dataset or -masterdb/-covdb, or set [dataset] in config")
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, "frontier", VERSION, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(ctx)

	a, err := app.NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer a.Close(ctx)

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewServer(cfg.Observability.MetricsAddr, a.Health)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer srv.Stop(ctx)
	}

	if cfg.Dataset.MasterDB != "" {
		err = a.LoadFromCovDB(ctx, cfg.Dataset.MasterDB, cfg.Dataset.CoverageDB)
	} else {
		err = a.LoadDataset(ctx, cfg.Dataset.Path)
	}
	if err != nil {
		slog.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	target := *moduleID
	if target < 0 {
		ds := a.Dataset()
		if len(ds.Modules) == 0 {
			slog.Error("dataset contains no modules")
			os.Exit(1)
		}
		target = ds.Modules[0].ID
	}

	analysis, err := a.Apply(ctx, target, cfg.Filters())
	if err != nil {
		slog.Error("failed to build graph", "error", err)
		os.Exit(1)
	}

	if !*ui {
		printSummary(a, analysis)
	}
	if err := a.GenerateOutputs(); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	if *once {
		return
	}

	if cfg.Watch.Enabled {
		a.SetOnReload(func(analysis *app.Analysis) {
			if analysis == nil {
				return
			}
			if err := a.GenerateOutputs(); err != nil {
				slog.Error("failed to regenerate outputs", "error", err)
			}
		})
		if err := a.StartWatch(ctx); err != nil {
			slog.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
	}

	if *ui {
		if err := tui.Run(a); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Watch.Enabled {
		select {}
	}
}

func isExplicitConfig() bool {
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	return explicit
}

func setupLogging() {
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err == nil {
				output = f
			} else {
				fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "frontier", "frontier.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "frontier", "frontier.log")
	}

	return "frontier.log"
}
