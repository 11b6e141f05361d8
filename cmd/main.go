package main

import (
	"fmt"
	"os"

	"github.com/glefebvre/shufflarr/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shufflarr",
	Short: "Shufflarr rotates catalog slots among configured source lists",
	Long: `Shufflarr presents stable, named catalogs to a media-browsing client
while periodically and randomly swapping their content among a pool of
configured source lists from MDBList, Trakt, and the top charts.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Shufflarr",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Shufflarr v0.1.0")
	},
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yml)")
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// Skip config loading for version command
	if len(os.Args) > 1 && os.Args[1] == "version" {
		return
	}

	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
