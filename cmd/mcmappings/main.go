// Command mcmappings resolves Minecraft class, field and method names
// between naming schemes by reading the class pages of mappings.dev.
//
// Usage:
//
//	mcmappings                                        # the three demo classes, Mojang, 1.20.1
//	mcmappings -scheme yarn net.minecraft.client.Minecraft
//	mcmappings -version 1.12.2 -scheme searge net.minecraft.entity.Entity
//	mcmappings -inspect net.minecraft.world.phys.AABB  # show detected markers
//	mcmappings -config mcmappings.yaml -serve :8090    # HTTP API
//	mcmappings -mcp                                   # MCP over stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/mcmappings/api"
	"github.com/hazyhaar/mcmappings/browser"
	"github.com/hazyhaar/mcmappings/history"
	"github.com/hazyhaar/mcmappings/mappings"
	"github.com/hazyhaar/mcmappings/scheme"
)

const defaultVersion = "1.20.1"

// demoClasses are looked up when no class path is given.
var demoClasses = []string{
	"net.minecraft.client.Minecraft",
	"net.minecraft.world.entity.Entity",
	"net.minecraft.world.phys.AABB",
}

type options struct {
	configPath  string
	version     string
	scheme      scheme.Scheme
	baseURL     string
	concurrency int
	inspect     bool
	serve       string
	mcp         bool
	historyPath string
	browser     bool
	logLevel    string
	classes     []string
	set         map[string]bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to mcmappings.yaml config file")
	flag.StringVar(&o.version, "version", defaultVersion, "game version, e.g. 1.20.1")
	flag.TextVar(&o.scheme, "scheme", scheme.Mojang, "naming scheme: mojang, yarn, intermediary, searge")
	flag.StringVar(&o.baseURL, "base-url", mappings.DefaultBaseURL, "mapping site base URL")
	flag.IntVar(&o.concurrency, "concurrency", mappings.DefaultConcurrency, "max parallel page fetches")
	flag.BoolVar(&o.inspect, "inspect", false, "print detected markers and tables instead of mappings")
	flag.StringVar(&o.serve, "serve", "", "serve the HTTP API on this address")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio")
	flag.StringVar(&o.historyPath, "history", "", "path to the SQLite lookup history")
	flag.BoolVar(&o.browser, "browser", false, "render pages in headless Chrome")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()
	o.classes = flag.Args()
	o.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, &level, o); err != nil {
		logger.Error("mcmappings: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, level *slog.LevelVar, o options) error {
	cfg, err := resolveConfig(o)
	if err != nil {
		return err
	}
	level.Set(cfg.Level())

	var svcOpts []mappings.ServiceOption
	var hist *history.Log
	if cfg.HistoryPath != "" {
		hist, err = history.Open(cfg.HistoryPath, history.WithLogger(logger))
		if err != nil {
			return err
		}
		defer hist.Close()
		svcOpts = append(svcOpts, mappings.WithObserver(hist))
	}
	if o.browser {
		bf := browser.New(browser.Config{Logger: logger})
		defer bf.Close()
		svcOpts = append(svcOpts, mappings.WithExtractorOptions(mappings.WithFetcher(bf)))
	}
	svc := mappings.NewService(cfg, logger, svcOpts...)

	switch {
	case o.mcp:
		return serveMCP(ctx, svc)
	case cfg.Listen != "":
		apiOpts := []api.Option{api.WithLogger(logger)}
		if hist != nil {
			apiOpts = append(apiOpts, api.WithHistory(hist))
		}
		return serveHTTP(ctx, logger, cfg.Listen, api.New(svc, apiOpts...).Router())
	}

	classes := o.classes
	if len(classes) == 0 {
		classes = demoClasses
	}
	if o.inspect {
		return inspect(ctx, svc, classes)
	}
	return lookup(ctx, svc, classes)
}

// resolveConfig loads the config file, if any, then applies the flags that
// were set on the command line.
func resolveConfig(o options) (*mappings.Config, error) {
	cfg := &mappings.Config{Version: defaultVersion}
	if o.configPath != "" {
		loaded, err := mappings.LoadConfigFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	if o.configPath == "" || o.set["version"] {
		cfg.Version = o.version
	}
	if o.configPath == "" || o.set["scheme"] {
		cfg.Scheme = o.scheme
	}
	if o.set["base-url"] {
		cfg.BaseURL = o.baseURL
	}
	if o.set["concurrency"] {
		cfg.Concurrency = o.concurrency
	}
	if o.set["serve"] {
		cfg.Listen = o.serve
	}
	if o.set["history"] {
		cfg.HistoryPath = o.historyPath
	}
	if o.configPath == "" || o.set["log-level"] {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func lookup(ctx context.Context, svc *mappings.Service, classes []string) error {
	items, err := svc.Batch(ctx, "", "", classes)
	if err != nil {
		return err
	}
	if err := printJSON(items); err != nil {
		return err
	}
	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(items))
	}
	return nil
}

func inspect(ctx context.Context, svc *mappings.Service, classes []string) error {
	var errs []error
	for _, cp := range classes {
		ins, err := svc.Inspect(ctx, mappings.Request{ClassPath: cp})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cp, err))
			continue
		}
		if err := printJSON(ins); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

func serveMCP(ctx context.Context, svc *mappings.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "mcmappings", Version: "1.0.0"}, nil)
	svc.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func serveHTTP(ctx context.Context, logger *slog.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcmappings: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("mcmappings: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
