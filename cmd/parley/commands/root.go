package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"parley/internal/app"
)

var (
	home       string
	passphrase string
	relayAddr  string

	appCtx *app.Wire
)

// Execute runs the parley CLI.
func Execute() error {
	root := &cobra.Command{
		Use:   "parley",
		Short: "End-to-end encrypted chat over an untrusted relay",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".parley")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			appCtx, err = app.NewWire(app.Config{Home: home, RelayAddr: relayAddr})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.parley)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&relayAddr, "relay", "127.0.0.1:8080", "relay address (host:port)")

	root.AddCommand(initCmd(), fingerprintCmd(), chatCmd())
	return root.Execute()
}
