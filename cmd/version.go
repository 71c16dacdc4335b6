package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/chatd/internal/meta"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), meta.GetInfo())
	},
}
