package main

import (
	"context"
	"fmt"
	"os"

	"github.com/glefebvre/shufflarr/internal/adapters"
	"github.com/glefebvre/shufflarr/internal/config"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/selection"
	"github.com/glefebvre/shufflarr/internal/store"
	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one batch refresh of all slots and exit",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRefresh(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh() error {
	cfg := config.Get()
	logger.InitializeLoggers(cfg.GetAppLogLevel(), cfg.GetStoreLogLevel())

	st, err := store.Open(cfg.Database, cfg.GetStoreLogLevel())
	if err != nil {
		return err
	}
	defer st.Close()

	engine := selection.NewEngine(st, adapters.NewRegistry(cfg))

	results, err := engine.RefreshAllSlots(context.Background())
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Success {
			fmt.Printf("slot %s: selected %q", r.SlotID, r.ListName)
			if r.Retried {
				fmt.Printf(" (retried after %q %s)", r.FailedListAlias, r.FailureReason)
			}
			fmt.Println()
		} else {
			fmt.Printf("slot %s: failed: %s\n", r.SlotID, r.Message)
		}
	}
	return nil
}
