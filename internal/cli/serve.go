package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neatgraph/neatgraph/internal/api"
	"github.com/neatgraph/neatgraph/pkg/cache"
	"github.com/neatgraph/neatgraph/pkg/config"
	"github.com/neatgraph/neatgraph/pkg/layout"
	"github.com/neatgraph/neatgraph/pkg/layout/graphviz"
	"github.com/neatgraph/neatgraph/pkg/pipeline"
	"github.com/neatgraph/neatgraph/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the neatgraph HTTP API server",
		Long: `Run the neatgraph HTTP API server.

The server exposes layout and rendering over HTTP: synchronous and async
layout endpoints, stored diagram CRUD, preset listing, health, and
Prometheus metrics.

Configuration comes from built-in defaults, an optional config file (TOML,
YAML or JSON, picked by extension), and environment variables for addresses
and secrets, in that order. The cache backend can be file, redis or none;
the diagram store memory, sqlite or mongo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (TOML, YAML or JSON)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// runServe wires the configured backends into an API server and runs it
// until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	prog := newProgress(c.Logger)

	cch, err := c.openCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	engine := graphviz.New()
	if err := engine.Warm(ctx); err != nil {
		c.Logger.Warn("engine warm failed, will retry lazily", "error", err)
	}
	layouter := layout.New(engine, layout.Config{
		Worker: cfg.Layout.Worker,
		Queue:  cfg.Layout.Queue,
		Logger: c.Logger,
	})

	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}
	runner := pipeline.NewRunner(layouter, engine, cch, keyer, c.Logger)
	defer runner.Close()

	c.Logger.Info("backends configured",
		"cache", cacheBackendName(cfg),
		"store", storeBackendName(cfg),
		"layout_mode", layouter.Mode())

	srv := api.New(cfg, runner, st, c.Logger)
	prog.done(fmt.Sprintf("Server ready on %s", cfg.Server.Addr))

	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down", "timeout_s", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errc
	return nil
}

// openCache builds the cache backend named by the config. Redis connects are
// retried with backoff since the server often races its cache at boot.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		var rc cache.Cache
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			rc, err = cache.NewRedisCache(ctx, cache.RedisConfig{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			return err
		})
		return rc, err
	default: // file
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	}
}

// openStore builds the document store backend named by the config.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return store.Open(ctx, store.Config{
		Backend:    cfg.Store.Backend,
		Path:       cfg.Store.Path,
		URI:        cfg.Store.Mongo.URI,
		Database:   cfg.Store.Mongo.Database,
		Collection: cfg.Store.Mongo.Collection,
	})
}

func cacheBackendName(cfg *config.Config) string {
	if cfg.Cache.Backend == "" {
		return "file"
	}
	return cfg.Cache.Backend
}

func storeBackendName(cfg *config.Config) string {
	if cfg.Store.Backend == "" {
		return "memory"
	}
	return cfg.Store.Backend
}
