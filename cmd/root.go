package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the slotbook application
var rootCmd = &cobra.Command{
	Use:   "slotbook",
	Short: "Books 30-minute Google Meet appointments in free calendar slots",
	Long: `slotbook finds free 30-minute slots in the next 24 hours of a Google
Calendar, books them as Google Meet appointments and cancels them again.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants
  - A standalone CLI for the same operations`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// envFile is the dotenv file loaded before the environment is read.
var envFile string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "slotbook version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load; missing files are ignored")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newCancelCmd())
	rootCmd.AddCommand(newUpcomingCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
