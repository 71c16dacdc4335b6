package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/chatd/client"
)

var (
	// The server to connect to
	addr string
)

func init() {
	flags := ConnectCmd.PersistentFlags()

	flags.StringVar(&addr, "addr", "127.0.0.1:7363", "The chatd server to connect to")
}

var ConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Talk to a chat server from the terminal",
	Long: `Talk to a chat server from the terminal

Every line read from stdin is sent as a request, every line from the server
is printed to stdout.

Usage
	chatd connect --addr 127.0.0.1:7363

`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conn := client.New(zap.NewNop())
		if err := conn.Connect(ctx, addr); err != nil {
			return err
		}
		defer conn.Disconnect()

		go func() {
			if err := pipeLines(cmd.InOrStdin(), conn); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		}()

		return printLines(ctx, cmd.OutOrStdout(), conn)
	},
}

func pipeLines(in io.Reader, conn *client.Conn) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := conn.Send(scanner.Text()); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// printLines copies server lines to out until the server hangs up or ctx
// is cancelled.
func printLines(ctx context.Context, out io.Writer, conn *client.Conn) error {
	for {
		line, err := conn.Next(ctx)
		if err == io.EOF || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, line)
	}
}
