package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "journal",
	Short:         "Journaling API",
	Long:          `A journaling service: account signup and login with JWT access and refresh tokens, password reset by email, and per-user journal entries over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command named on the command line. Any error ends the
// process with exit status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
		os.Exit(1)
	}
}
