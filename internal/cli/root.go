// Package cli implements the kaneo-automation command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/credential"
	"github.com/nhle/kaneo-automation/internal/logging"
	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
)

// app carries state shared by every command of one invocation.
type app struct {
	configPath string
	jsonOutput bool

	// ring replaces the system keyring when set.
	ring keyring.Keyring

	cfg    *model.AppConfig
	logger *zap.Logger
	store  *store.SQLiteStore
	creds  *credential.Store
}

// Option customises the root command.
type Option func(*app)

// WithKeyring makes commands store credentials in ring instead of the
// system keyring.
func WithKeyring(ring keyring.Keyring) Option {
	return func(a *app) { a.ring = ring }
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "kaneo-automation",
		Short: "Workflow automation for Kaneo boards",
		Long: `kaneo-automation moves tasks across Kaneo board columns when GitHub or
Gitea report issue, pull request and push events, imports open issues as
tasks, and manages typed links between tasks.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return a.teardown() },
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		a.newServeCommand(),
		a.newImportCommand(),
		a.newProjectCommand(),
		a.newIntegrationCommand(),
		a.newRuleCommand(),
		a.newLinkCommand(),
		a.newLabelCommand(),
		a.newNotificationCommand(),
		a.newConfigCommand(),
	)
	return root
}

func (a *app) resolvedConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	return model.DefaultConfigPath()
}

func (a *app) setup() error {
	cfg, err := model.LoadConfig(a.resolvedConfigPath())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logger != nil {
		// Syncing stderr fails on some platforms; that is not worth reporting.
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// openStore opens the database on first use.
func (a *app) openStore() (*store.SQLiteStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.cfg.Database.Path
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// openCredentials opens the keyring on first use.
func (a *app) openCredentials() (*credential.Store, error) {
	if a.creds != nil {
		return a.creds, nil
	}
	if a.ring != nil {
		a.creds = credential.NewStore(a.ring)
		return a.creds, nil
	}

	creds, err := credential.Open(a.cfg.Credentials)
	if err != nil {
		return nil, err
	}
	a.creds = creds
	return creds, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
