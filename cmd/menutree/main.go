package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mchmarny/menutree/pkg/config"
	"github.com/mchmarny/menutree/pkg/logger"
	"github.com/mchmarny/menutree/pkg/menu"
	"github.com/mchmarny/menutree/pkg/metric"
	"github.com/mchmarny/menutree/pkg/server"
	"github.com/mchmarny/menutree/pkg/shell"
	"github.com/mchmarny/menutree/pkg/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"     // Set at build time via -ldflags "-X main.version=version"
	commit  = "none"    // Set at build time via -ldflags "-X main.commit=commit"
	date    = "unknown" // Set at build time via -ldflags "-X main.date=date"

	configPath = flag.String("config", "", "Path to a YAML config file")
	port       = flag.Int("port", -1, "Port to run the server on (overrides config)")
	endpoint   = flag.String("endpoint", "", "Menu tree API URL (overrides config)")
	file       = flag.String("file", "", "Local menu JSON file (overrides config)")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	printOnly  = flag.Bool("print", false, "Print the menu tree and exit")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "menutree: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.SetDefaultLoggerWithLevel("menutree", version, cfg.LogLevel)
	slog.Info("starting menutree", "commit", commit, "date", date)

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sh := shell.New(src,
		shell.WithBuilder(newBuilder(cfg)),
		shell.WithMetrics(metric.NewSet(reg)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *printOnly {
		if err := sh.Load(ctx); err != nil {
			slog.Debug("menu load failed", "error", err)
		}
		return sh.WriteText(os.Stdout)
	}

	srv := server.New(append(serverOptions(cfg),
		server.WithSimpleHealth(),
		server.WithReadiness(sh),
		server.WithPrometheusMetrics(reg),
		server.WithMount("/api/v1", sh.Routes()),
	)...)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(gCtx)
	})

	g.Go(func() error {
		// a failed initial load leaves the shell in its error state;
		// /api/v1/menu/reload retries on demand
		_ = sh.Load(gCtx)
		return nil
	})

	if fs, ok := src.(*source.FileSource); ok {
		g.Go(func() error {
			return fs.Watch(gCtx, func() {
				_ = sh.Load(gCtx)
			})
		})
	}

	return g.Wait()
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return cfg, err
	}

	if *port >= 0 {
		cfg.Port = *port
	}
	if *endpoint != "" {
		cfg.Source.Endpoint = *endpoint
		cfg.Source.File = ""
	}
	if *file != "" {
		cfg.Source.File = *file
		cfg.Source.Endpoint = ""
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	return cfg, cfg.Validate()
}

// serverOptions maps the server section of cfg onto server options. Zero
// values keep the server defaults.
func serverOptions(cfg config.Config) []server.Option {
	opts := []server.Option{server.WithPort(cfg.Port)}

	sc := cfg.Server
	if sc.ReadTimeout > 0 {
		opts = append(opts, server.WithReadTimeout(sc.ReadTimeout))
	}
	if sc.WriteTimeout > 0 {
		opts = append(opts, server.WithWriteTimeout(sc.WriteTimeout))
	}
	if sc.IdleTimeout > 0 {
		opts = append(opts, server.WithIdleTimeout(sc.IdleTimeout))
	}
	if sc.ShutdownTimeout > 0 {
		opts = append(opts, server.WithShutdownTimeout(sc.ShutdownTimeout))
	}
	if sc.MaxHeaderBytes > 0 {
		opts = append(opts, server.WithMaxHeaderBytes(sc.MaxHeaderBytes))
	}
	if sc.TLSEnabled() {
		opts = append(opts, server.WithTLS(server.TLSConfig{
			CertFile: sc.TLS.CertFile,
			KeyFile:  sc.TLS.KeyFile,
		}))
	}

	return opts
}

func newSource(cfg config.Config) (source.Source, error) {
	if cfg.Source.File != "" {
		return source.NewFileSource(cfg.Source.File)
	}

	return source.NewHTTPSource(cfg.Source.Endpoint,
		source.WithToken(cfg.Token()),
		source.WithTimeout(cfg.Source.Timeout),
	), nil
}

func newBuilder(cfg config.Config) *menu.Builder {
	decorations := make(menu.Decorations, len(cfg.Decorations))
	for kind, marker := range cfg.Decorations {
		decorations[kind] = menu.Decoration(marker)
	}

	return menu.NewBuilder(
		menu.WithRoot(menu.ID(cfg.Root)),
		menu.WithDecorations(decorations),
	)
}
