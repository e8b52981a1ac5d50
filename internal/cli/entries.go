package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/store"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored at a key",
		Long: `Print the value stored at a key.

Exits with code 1 when the key is absent.

Example:
  prefs get languageKey
  prefs get --format json some_flag`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return getEntry(s, args[0])
			})
		},
	}
}

// resolveKey normalizes name into a store key. An empty name is an unbound
// key and never reaches the store.
func resolveKey(s *session, name string) (string, error) {
	k, err := key.Fixed(name).Resolve()
	if err != nil {
		return "", s.fail(ExitCommandError, CodeInvalidValue, "invalid key", err)
	}
	return k, nil
}

func getEntry(s *session, name string) error {
	k, err := resolveKey(s, name)
	if err != nil {
		return err
	}
	v, ok, err := s.store.Get(k)
	if err != nil {
		return s.fail(ExitCommandError, CodeStore, "failed to read store", err)
	}
	if !ok {
		return s.fail(ExitFailure, CodeNotFound, fmt.Sprintf("key %q not found", k), nil)
	}
	e, err := newEntry(k, v)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode value", err)
	}
	return s.out.Success(e)
}

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Type string
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value at a key",
		Long: `Store a value at a key.

The value is parsed according to --type. Arrays and dicts are entered as
typed JSON with --type json.

Example:
  prefs set some_flag true --type bool
  prefs set languageKey sv
  prefs set tags '{"type":"array","value":[{"type":"string","value":"a"}]}' --type json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return setEntry(s, opts, args[0], args[1])
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "string", fmt.Sprintf("value type %v", valueTypes))

	return cmd
}

func setEntry(s *session, opts *SetOptions, name, text string) error {
	k, err := resolveKey(s, name)
	if err != nil {
		return err
	}
	v, err := parseValue(opts.Type, text)
	if err != nil {
		return s.fail(ExitCommandError, CodeInvalidValue, "invalid value", err)
	}
	if err := s.store.Set(k, v); err != nil {
		return s.fail(ExitCommandError, CodeStore, "failed to write store", err)
	}
	slog.Debug("value set", "key", k, "kind", v.Kind().String())

	e, err := newEntry(k, v)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode value", err)
	}
	return s.out.Success(e)
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>...",
		Aliases: []string{"remove"},
		Short:   "Remove keys from the store",
		Long: `Remove keys from the store. Removing an absent key is not an error.

Example:
  prefs rm some_flag languageKey`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				keys := make([]string, 0, len(args))
				for _, name := range args {
					k, err := resolveKey(s, name)
					if err != nil {
						return err
					}
					keys = append(keys, k)
				}
				removed := make([]string, 0, len(keys))
				for _, k := range keys {
					if err := s.store.Remove(k); err != nil {
						return s.fail(ExitCommandError, CodeStore, fmt.Sprintf("failed to remove %q", k), err)
					}
					removed = append(removed, k)
				}
				if s.out.Format == "json" {
					return s.out.Success(map[string][]string{"removed": removed})
				}
				for _, k := range removed {
					fmt.Fprintf(s.out.Writer, "removed %s\n", k)
				}
				return nil
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every key with its kind and value",
		Long: `List every key with its kind and value, in ascending key order.

Example:
  prefs list
  prefs list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				entries, err := listEntries(s)
				if err != nil {
					return err
				}
				return s.out.Success(entries)
			})
		},
	}
}

func listEntries(s *session) (entryList, error) {
	if _, err := s.lister(); err != nil {
		return nil, err
	}
	snapshot, err := store.Snapshot(s.store)
	if err != nil {
		return nil, s.fail(ExitCommandError, CodeStore, "failed to read store", err)
	}
	keys := sortedKeys(snapshot)
	entries := make(entryList, 0, len(keys))
	for _, k := range keys {
		e, err := newEntry(k, snapshot[k])
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to encode value", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
