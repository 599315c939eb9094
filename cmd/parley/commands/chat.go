package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"parley/internal/client"
)

// chat connects to the relay and runs the interactive session.
func chatCmd() *cobra.Command {
	var (
		name    string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Connect to a relay and chat interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, err := appCtx.IDs.Load(passphrase)
			if err != nil {
				return fmt.Errorf("loading identity (run 'parley init' first?): %w", err)
			}

			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := client.Dial(appCtx.RelayAddr, id, log)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.WaitWelcome(ctx); err != nil {
				return err
			}
			fmt.Printf("Connected to %s as %s\n", appCtx.RelayAddr, c.ID())

			if name != "" {
				if err := c.Advertise(name); err != nil {
					return err
				}
			} else {
				fmt.Println("No friendly name set (--name); you will not appear on the roster.")
				fmt.Println("Anyone who wants to connect to you needs your uuid. Type 'id' to view it.")
			}

			return c.RunPrompt(ctx, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "friendly name shown to other clients")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	return cmd
}
