package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/account"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/config"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/notify"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/remote"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/session"
)

var errNotSignedIn = errors.New("not signed in, run `eventhorizon login` first")

// cli holds flags and the collaborators built from them for one invocation.
type cli struct {
	configPath string
	baseURL    string
	verbose    bool

	cfg      *config.Client
	tokens   *session.TokenStore
	client   *remote.Client
	accounts *account.Service
}

// execute runs one invocation and always releases the session file.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	root, c := newRootCmd()
	defer c.close()

	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "eventhorizon",
		Short: "Browse, create and RSVP to events",
		Long: `eventhorizon talks to an event catalog API.

Sign in once with "eventhorizon login"; the session is kept on disk until
you run "eventhorizon logout". If the server stops accepting it, commands
report the failure and you need to log in again.

Commands:
  login      Sign in
  register   Create an account
  logout     Sign out and clear the stored session
  whoami     Show the signed-in user
  events     List, show, create, export and watch events
  shell      Interactive session with local drafts`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ~/.config/eventhorizon/config.yaml)")
	flags.StringVar(&c.baseURL, "base-url", "", "override the API base URL")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newEventsCmd(c),
		newShellCmd(c),
	)
	return root, c
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		c.configPath = p
	}

	cfg, err := config.LoadClient(c.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
		cfg.Normalize()
	}
	c.cfg = cfg

	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	level, _ := log.ParseLevel(cfg.LogLevel)
	if c.verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	tokens, err := session.Open(cfg.ResolveSessionPath(c.configPath))
	if err != nil {
		return err
	}
	c.tokens = tokens
	c.client = remote.NewClient(cfg.BaseURL, tokens, remote.WithTimeout(cfg.Timeout))
	c.accounts = account.NewService(c.client, tokens)

	log.WithFields(log.Fields{"config": c.configPath, "base_url": cfg.BaseURL}).Debug("client ready")
	return nil
}

func (c *cli) close() {
	if c.tokens != nil {
		if err := c.tokens.Close(); err != nil {
			log.WithError(err).Warn("closing session store")
		}
		c.tokens = nil
	}
}

// newStore builds a catalog bound to the current session.
func (c *cli) newStore(sink notify.Sink) *catalog.Store {
	return catalog.New(c.client, c.tokens, sink)
}

func (c *cli) requireSession() error {
	if !c.tokens.IsAuthenticated() {
		return errNotSignedIn
	}
	return nil
}
