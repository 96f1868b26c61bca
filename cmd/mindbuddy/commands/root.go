// Package commands implements the mindbuddy CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mindbuddy",
		Short: "MindBuddy - a supportive chat companion",
		Long: `MindBuddy chats with you as a relaxed friend who knows a few facts
about you and remembers your earlier conversations.

Examples:
  mindbuddy chat
  mindbuddy chat "rough day at work"
  mindbuddy serve --addr :8080
  mindbuddy chat --thread work
  mindbuddy threads
  mindbuddy profile show`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newChatCmd(),
		newServeCmd(),
		newProfileCmd(),
		newThreadsCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
