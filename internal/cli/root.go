package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/prefs/internal/settings"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Backend    string
	StorePath  string
	LogLevel   string

	// Env is consulted before the process environment when loading config
	// (for testing).
	Env map[string]string

	// DotEnvPath overrides the .env file location (for testing).
	DotEnvPath string

	// IDs allows overriding the account id generator (for testing).
	// If nil, defaults to settings.UUIDv7.
	IDs settings.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the prefs CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "prefs - typed preferences over a key-value store",
		Long: `Inspect and edit typed preferences stored in a plist-compatible
key-value store (SQLite, YAML file, DynamoDB or memory).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config.toml")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend (memory|sqlite|file|dynamo)")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "", "store path for the sqlite and file backends")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewAccountCommand(opts))

	return cmd
}
