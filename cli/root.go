/*
Package cli is the cashdrawer command line.

COMMANDS:
  serve     Run the HTTP API
  session   Open, record, close and inspect sessions from a terminal
  report    Write the daily report as csv, xlsx or pdf

CONFIGURATION:
  Flags override CASHDRAWER_* environment variables, which override the
  config file (--config, or ./cashdrawer.yaml when present), which overrides
  the defaults in config.New.

SEE ALSO:
  - config/config.go: Keys and defaults
  - cmd/cashdrawer/main.go: Entry point
*/
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/warp/cashdrawer/config"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/observability"
	"github.com/warp/cashdrawer/store/sqlite"
)

// app is the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	configFile string

	cfg *config.Config
	log zerolog.Logger
}

// NewRootCommand builds the command tree. Each call gets its own viper
// instance, so commands can be built and run repeatedly in one process.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "cashdrawer",
		Short:         "Cash drawer sessions, movements and end-of-day reconciliation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: ./cashdrawer.yaml if present)")
	flags.String("db", "", "SQLite database path, \":memory:\" for a throwaway store")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.String("timezone", "", "IANA timezone that decides the business day")
	mustBind(a.v, "db_path", flags.Lookup("db"))
	mustBind(a.v, "log_level", flags.Lookup("log-level"))
	mustBind(a.v, "log_format", flags.Lookup("log-format"))
	mustBind(a.v, "timezone", flags.Lookup("timezone"))

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newSessionCommand(a))
	root.AddCommand(newReportCommand(a))
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	log, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// openEngine opens the configured store and an engine over it. The caller
// closes the store.
func (a *app) openEngine(opts ...drawer.Option) (*drawer.Engine, *sqlite.Store, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.New(a.cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	opts = append([]drawer.Option{
		drawer.WithClock(drawer.SystemClock{Location: loc}),
		drawer.WithLogger(a.log),
	}, opts...)
	return drawer.NewEngine(store, opts...), store, nil
}

// mustBind only fails when the flag does not exist.
func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
