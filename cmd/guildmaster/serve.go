package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/guildmaster/internal/cache"
	"github.com/dropDatabas3/guildmaster/internal/config"
	guildhttp "github.com/dropDatabas3/guildmaster/internal/http"
	"github.com/dropDatabas3/guildmaster/internal/http/controllers/connect"
	"github.com/dropDatabas3/guildmaster/internal/http/router"
	"github.com/dropDatabas3/guildmaster/internal/oauth2"
	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
	"github.com/dropDatabas3/guildmaster/internal/provider"
	"github.com/dropDatabas3/guildmaster/internal/security/secretbox"
	"github.com/dropDatabas3/guildmaster/internal/session"
	memstore "github.com/dropDatabas3/guildmaster/internal/store/memory"
	pgstore "github.com/dropDatabas3/guildmaster/internal/store/pg"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP del flujo de autorización",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func serve(parent context.Context, cfg *config.Config) error {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "guildmaster",
		Version:     version,
	})
	defer logger.Sync()
	log := logger.Named("serve")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache (sesiones)
	cacheClient, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cacheClient.Close()

	// Storage (clientes y tokens)
	var (
		clients   oauth2.ClientStore
		tokens    oauth2.TokenStore
		storePing router.Pinger
	)
	switch cfg.Storage.Driver {
	case "postgres":
		if !secretbox.Ready() {
			return fmt.Errorf("storage postgres requiere GUILDMASTER_MASTER_KEY para cifrar secretos")
		}
		st, err := pgstore.New(ctx, cfg.Storage.DSN, pgstore.Config{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer st.Close()
		clients, tokens, storePing = st, st, st
	default:
		st := memstore.New()
		clients, tokens = st, st
	}

	registry := provider.Default()
	manager := oauth2.NewManager(registry, clients, tokens)

	if err := seedClients(ctx, cfg, registry, clients); err != nil {
		return err
	}

	sessions := session.NewManager(cacheClient, session.Config{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
		TTL:        cfg.Session.TTL,
	})

	controllers := connect.NewControllers(connect.Deps{
		Manager:  manager,
		Sessions: sessions,
		Workflow: oauth2.WorkflowConfig{
			StateBytes:       cfg.OAuth2.StateBytes,
			DefaultReturnURL: cfg.OAuth2.ReturnURL,
			SessionStateKey:  cfg.OAuth2.SessionStateKey,
			SessionReturnKey: cfg.OAuth2.SessionReturnKey,
		},
	})

	handler := router.New(router.Deps{
		Controllers: controllers,
		Cache:       cacheClient,
		Store:       storePing,
	})

	log.Info("starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("cache", cfg.Cache.Kind),
		zap.Int("clients", len(cfg.Clients)),
	)
	return guildhttp.NewServer(cfg.Server.Addr, handler).Start(ctx)
}

func buildCache(cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Kind == "redis" {
		return cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
	}
	return cache.NewMemory(cfg.Cache.Memory.DefaultTTL), nil
}

// seedClients vuelca los clientes del YAML al store. La identidad es el
// nombre, repetir el seed actualiza la fila existente.
func seedClients(ctx context.Context, cfg *config.Config, reg *provider.Registry, clients oauth2.ClientStore) error {
	for _, cc := range cfg.Clients {
		if _, err := reg.Get(cc.Provider); err != nil {
			return fmt.Errorf("client %q: %w", cc.Name, err)
		}
		c := &oauth2.Client{
			Name:          cc.Name,
			ProviderName:  cc.Provider,
			Enabled:       cc.IsEnabled(),
			ClientID:      cc.ClientID,
			ClientSecret:  cc.ClientSecret,
			ScopeOverride: cc.ScopeOverride,
		}
		if err := clients.UpsertClient(ctx, c); err != nil {
			return fmt.Errorf("seed client %q: %w", cc.Name, err)
		}
	}
	return nil
}
