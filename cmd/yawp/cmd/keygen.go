package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdwb/yawp/internal/util"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a cookie sealing key",
	Long: `Generates a random 32-byte key, hex encoded, for YAWP_SESSION_KEY.
Rotating the key invalidates every outstanding session cookie.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := util.NewAESKey()
		if err != nil {
			return err
		}
		defer util.WipeBytes(key)
		fmt.Println(util.HexEncode(key))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
