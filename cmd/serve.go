package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/glefebvre/shufflarr/internal/adapters"
	"github.com/glefebvre/shufflarr/internal/api"
	"github.com/glefebvre/shufflarr/internal/config"
	"github.com/glefebvre/shufflarr/internal/lifecycle"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/scheduler"
	"github.com/glefebvre/shufflarr/internal/selection"
	"github.com/glefebvre/shufflarr/internal/shutdown"
	"github.com/glefebvre/shufflarr/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the addon and dashboard server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg := config.Get()
	logger.InitializeLoggers(cfg.GetAppLogLevel(), cfg.GetStoreLogLevel())
	log := logger.AppLogger()

	st, err := store.Open(cfg.Database, cfg.GetStoreLogLevel())
	if err != nil {
		return err
	}

	registry := adapters.NewRegistry(cfg)
	engine := selection.NewEngine(st, registry)
	manager := lifecycle.NewManager(st, engine, registry)
	sched := scheduler.New(engine)

	data, err := st.Load()
	if err != nil {
		return err
	}
	sched.Start(data.Settings.RefreshIntervalHours)

	server := api.NewServer(engine, manager, sched, st, cfg.Database.Path)

	handler := shutdown.New(30 * time.Second)
	handler.Register(func(ctx context.Context) error {
		return st.Close()
	})
	handler.Register(func(ctx context.Context) error {
		sched.Stop()
		return nil
	})
	handler.Register(server.Shutdown)

	errChan := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"port": cfg.Server.Port,
		}).Info("starting server")
		errChan <- server.Run(cfg.Server.Port)
	}()

	done := make(chan error, 1)
	go func() {
		done <- handler.Wait()
	}()

	select {
	case err := <-errChan:
		return err
	case err := <-done:
		log.Info("server stopped")
		return err
	}
}
