package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/taskenti/topoguia"
	"github.com/taskenti/topoguia/asset"
	"github.com/taskenti/topoguia/internal/config"
	"github.com/taskenti/topoguia/internal/server"
	"github.com/taskenti/topoguia/internal/store"
)

func (c *CLI) serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generator over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return c.serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (TOML, YAML or JSON)")
	return cmd
}

func (c *CLI) serve(ctx context.Context, cfg *config.Config) error {
	opts, cleanup, err := generatorOptions(ctx, cfg, c.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	gen, err := topoguia.New(opts...)
	if err != nil {
		return err
	}

	srvOpts := []server.Option{
		server.WithLogger(c.Logger),
		server.WithMaxUpload(cfg.Server.MaxUploadMB << 20),
	}
	if cfg.MinIO.Enabled() {
		archive, err := store.New(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		c.Logger.Info("archiving guides", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)
		srvOpts = append(srvOpts, server.WithArchive(archive))
	}

	return server.New(gen, srvOpts...).ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}

// generatorOptions translates the service configuration into generator
// options. The returned cleanup closes the Redis client, if any.
func generatorOptions(ctx context.Context, cfg *config.Config, logger *log.Logger) ([]topoguia.Option, func(), error) {
	cleanup := func() {}

	tpl, err := topoguia.ParseTemplate(cfg.Generator.Template)
	if err != nil {
		return nil, cleanup, err
	}
	code, err := codeSource(cfg.Generator.Code)
	if err != nil {
		return nil, cleanup, err
	}
	opts := []topoguia.Option{
		topoguia.WithTemplate(tpl),
		topoguia.WithLogger(logger),
		topoguia.WithCodeSource(code),
		topoguia.WithMaxImageDPI(cfg.Generator.MaxDPI),
	}

	if cfg.Generator.Theme != "" {
		th, err := topoguia.LoadTheme(cfg.Generator.Theme)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, topoguia.WithTheme(th))
	}
	if cfg.Generator.Stationery != "" {
		data, err := os.ReadFile(cfg.Generator.Stationery)
		if err != nil {
			return nil, cleanup, fmt.Errorf("reading stationery: %w", err)
		}
		opts = append(opts, topoguia.WithStationery(data))
	}

	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, cleanup, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("caching assets in redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		opts = append(opts, topoguia.WithCache(asset.NewRedisCache(client, appName+":"), cfg.Redis.TTL))
		cleanup = func() { _ = client.Close() }
	} else {
		opts = append(opts, topoguia.WithCache(asset.NewMemoryCache(256), cfg.Redis.TTL))
	}
	return opts, cleanup, nil
}
