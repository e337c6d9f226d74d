// Package cmd implements the chorus CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "🎭"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: logo + " chorus — Multi-Persona Chat Observer",
	Long:  logo + " chorus — a set of AI personas that observe shared conversations\nand independently decide whether, and when, to speak.",
}

// Execute runs the root command and exits on error.
func Execute() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(channelsCmd)
}
