package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/chatd/cmd/gen"
)

var RootCmd = &cobra.Command{
	Use:   "chatd",
	Short: "A small line based chat server",
	Long: `chatd is a line based chat server. Clients pick nicknames, create public
or invite-only channels and talk in them over TCP or WebSocket.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(StartCmd)
	RootCmd.AddCommand(ConnectCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
