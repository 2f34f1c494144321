// Package cli implements the gophauth command-line client.
package cli

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
)

const defaultServer = "http://localhost:8080"

type options struct {
	server string
	home   string
}

// app is built once flags are parsed.
type app struct {
	api     *api.Client
	session *session.Store
	in      *bufio.Reader
}

// NewRootCmd creates the root command of the gophauth client.
func NewRootCmd() *cobra.Command {
	opts := &options{server: defaultServer}
	if s := os.Getenv("GOPHAUTH_SERVER"); s != "" {
		opts.server = s
	}

	a := &app{}

	cmd := &cobra.Command{
		Use:           "gophauth",
		Short:         "gophauth account client",
		Long:          `Create an account, log in and inspect the current session of a gophauth server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if opts.home != "" {
				a.session, err = session.NewStore(opts.home)
			} else {
				a.session, err = session.DefaultStore()
			}
			if err != nil {
				return err
			}
			a.api = api.New(opts.server)
			a.in = bufio.NewReader(cmd.InOrStdin())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", opts.server, "server base URL (env GOPHAUTH_SERVER)")
	cmd.PersistentFlags().StringVar(&opts.home, "home", "", "directory holding .gophauth (default: home directory)")

	cmd.AddCommand(newSignupCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newWhoAmICmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newGenSecretCmd())

	return cmd
}
