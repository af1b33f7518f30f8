package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/wrightlabs/pagewright/pkg/abilities"
	"github.com/wrightlabs/pagewright/pkg/abilities/catalog"
	"github.com/wrightlabs/pagewright/pkg/content"
	contentredis "github.com/wrightlabs/pagewright/pkg/content/redis"
	"github.com/wrightlabs/pagewright/pkg/events"
	"github.com/wrightlabs/pagewright/pkg/httpapi"
	"github.com/wrightlabs/pagewright/pkg/layout"
)

// contentBackend is what both store implementations provide.
type contentBackend interface {
	content.Store
	content.SessionStore
}

func openStore() (contentBackend, func(), error) {
	addr := viper.GetString("redis-addr")
	if addr == "" {
		log.Debug().Msg("using in-memory content store")
		return content.NewMemoryStore(), func() {}, nil
	}
	store := contentredis.New(addr, viper.GetString("redis-password"), viper.GetInt("redis-db"))
	log.Debug().Str("addr", addr).Msg("using redis content store")
	return store, func() { _ = store.Close() }, nil
}

func buildRegistry(store content.Store) (*abilities.InMemoryRegistry, error) {
	registry := abilities.NewInMemoryRegistry()
	if err := catalog.RegisterAll(registry, store, layout.NewBuilder()); err != nil {
		return nil, err
	}
	return registry, nil
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ability server",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := viper.GetString("addr")

			store, closeStore, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			registry, err := buildRegistry(store)
			if err != nil {
				return err
			}

			router, err := events.NewEventRouter()
			if err != nil {
				return err
			}
			router.AddHandler("log-events", events.DefaultTopic, func(msg *message.Message) error {
				log.Info().
					Str("event_type", msg.Metadata.Get("event_type")).
					RawJSON("event", msg.Payload).
					Msg("event")
				return nil
			})

			server := &http.Server{
				Addr:              addr,
				Handler:           httpapi.NewServer(registry).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return router.Run(egCtx)
			})
			eg.Go(func() error {
				log.Info().Str("addr", addr).Msg("ability server listening")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = router.Close()
				return server.Shutdown(shutdownCtx)
			})
			return eg.Wait()
		},
	}
	cmd.Flags().String("addr", ":8823", "Listen address")
	_ = viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}
