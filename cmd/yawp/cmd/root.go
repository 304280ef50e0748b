package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "yawp",
	Short: "yawp is a single-admin publishing service",
	Long: `A small publishing service for one author. Administration is
authenticated exclusively with passkeys; there are no passwords and no
user accounts.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
