package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/prefs/internal/plist"
	"github.com/roach88/prefs/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every entry as YAML",
		Long: `Write every entry of the store as a YAML document.

Dates and byte buffers are tagged (!!timestamp, !!binary) and integral
floats keep a ".0", so the document imports back without loss.

Example:
  prefs export > backup.yaml
  prefs export -o backup.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return exportEntries(s, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func exportEntries(s *session, opts *ExportOptions) error {
	if _, err := s.lister(); err != nil {
		return err
	}
	snapshot, err := store.Snapshot(s.store)
	if err != nil {
		return s.fail(ExitCommandError, CodeStore, "failed to read store", err)
	}
	data, err := store.EncodeYAML(snapshot)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode YAML", err)
	}

	if opts.Output == "" {
		_, err = s.out.Writer.Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0o600); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	slog.Info("exported entries", "count", len(snapshot), "path", opts.Output)
	if s.out.Format == "json" {
		return s.out.Success(map[string]any{"path": opts.Output, "count": len(snapshot)})
	}
	return nil
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Replace bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Load entries from a YAML document",
		Long: `Load entries from a YAML document produced by export.

Entries are written in key order. With --replace, keys missing from the
document are removed from the store first.

Example:
  prefs import backup.yaml
  prefs import --replace - < backup.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return importEntries(s, opts, args[0], cmd.InOrStdin())
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "remove keys not present in the document")

	return cmd
}

// ImportResult summarizes an import.
type ImportResult struct {
	Written []string `json:"written"`
	Removed []string `json:"removed"`
}

func (r ImportResult) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "imported %d entries, removed %d\n", len(r.Written), len(r.Removed))
	return err
}

func importEntries(s *session, opts *ImportOptions, path string, stdin io.Reader) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	entries, err := store.DecodeYAML(data)
	if err != nil {
		return s.fail(ExitCommandError, CodeInvalidValue, "invalid YAML document", err)
	}

	result := ImportResult{Written: []string{}, Removed: []string{}}
	if opts.Replace {
		l, err := s.lister()
		if err != nil {
			return err
		}
		existing, err := l.Keys()
		if err != nil {
			return s.fail(ExitCommandError, CodeStore, "failed to list keys", err)
		}
		for _, k := range existing {
			if _, keep := entries[k]; keep {
				continue
			}
			if err := s.store.Remove(k); err != nil {
				return s.fail(ExitCommandError, CodeStore, fmt.Sprintf("failed to remove %q", k), err)
			}
			result.Removed = append(result.Removed, k)
		}
	}

	for _, k := range sortedKeys(entries) {
		if err := s.store.Set(k, entries[k]); err != nil {
			return s.fail(ExitCommandError, CodeStore, fmt.Sprintf("failed to write %q", k), err)
		}
		result.Written = append(result.Written, k)
	}
	slog.Info("imported entries", "written", len(result.Written), "removed", len(result.Removed))
	return s.out.Success(result)
}

func sortedKeys(m map[string]plist.Value) []string {
	return slices.Sorted(maps.Keys(m))
}
