package gen

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generators for chatd documentation",
	Long:  `Generators for chatd documentation`,
}

func init() {
	RootCmd.AddCommand(ManPagesCmd)
}
