package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/prefs/internal/manifest"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Overwrite bool
	DryRun    bool
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed [manifest]",
		Short: "Write defaults from a CUE manifest",
		Long: `Write default entries from a CUE manifest into the store.

The manifest is a .cue file or a directory holding one CUE package with a
top-level "defaults" struct. Without an argument, manifest.path from the
config (or PREFS_MANIFEST) is used. Existing keys are left alone unless
--overwrite is given.

Example:
  prefs seed ./defaults.cue
  prefs seed --overwrite ./manifests`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				path := s.cfg.Manifest.Path
				if len(args) == 1 {
					path = args[0]
				}
				return seedStore(s, opts, path)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace existing values")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate the manifest and list its keys without writing")

	return cmd
}

type seedResult struct {
	Source  string   `json:"source"`
	Written []string `json:"written"`
	Skipped []string `json:"skipped"`
	DryRun  bool     `json:"dry_run,omitempty"`
}

func (r seedResult) renderText(w io.Writer) error {
	verb := "seeded"
	if r.DryRun {
		verb = "would seed"
	}
	if _, err := fmt.Fprintf(w, "%s %d keys from %s (%d skipped)\n", verb, len(r.Written), r.Source, len(r.Skipped)); err != nil {
		return err
	}
	for _, k := range r.Written {
		if _, err := fmt.Fprintf(w, "  + %s\n", k); err != nil {
			return err
		}
	}
	for _, k := range r.Skipped {
		if _, err := fmt.Fprintf(w, "  = %s\n", k); err != nil {
			return err
		}
	}
	return nil
}

func seedStore(s *session, opts *SeedOptions, path string) error {
	if path == "" {
		return NewExitError(ExitCommandError, "no manifest given: pass a path or set manifest.path")
	}

	m, err := manifest.Load(path)
	if err != nil {
		return s.fail(ExitCommandError, CodeManifest, "failed to load manifest", err)
	}

	if opts.DryRun {
		return s.out.Success(seedResult{Source: m.Source, Written: m.Keys(), Skipped: []string{}, DryRun: true})
	}

	report, err := m.Seed(s.store, opts.Overwrite)
	if err != nil {
		return s.fail(ExitCommandError, CodeStore, "failed to seed store", err)
	}
	slog.Info("seeded store", "source", m.Source, "written", len(report.Written), "skipped", len(report.Skipped))
	return s.out.Success(seedResult{Source: m.Source, Written: report.Written, Skipped: report.Skipped})
}
