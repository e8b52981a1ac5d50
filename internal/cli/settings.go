package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prefs/internal/settings"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Work with the typed user settings",
		Long: `Work with the typed user settings.

Opening the settings writes the initial values of settings that have one
(flag_with_initial_value=true, languageWithInitialValueKey=fi).`,
	}

	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsLangCommand(rootOpts))
	cmd.AddCommand(newSettingsResetCommand(rootOpts))
	cmd.AddCommand(newSettingsRemoveCommand(rootOpts))

	return cmd
}

// withUser opens a session and builds the user settings over its store.
func withUser(cmd *cobra.Command, opts *RootOptions, fn func(*session, *settings.User) error) error {
	return withSession(cmd, opts, func(s *session) error {
		u, err := settings.NewUser(s.store)
		if err != nil {
			return s.fail(ExitCommandError, CodeStore, "failed to open settings", err)
		}
		return fn(s, u)
	})
}

type settingsView settings.View

func (v settingsView) renderText(w io.Writer) error {
	rows := []struct{ key, value string }{
		{settings.KeySomeFlag, strconv.FormatBool(v.SomeFlag)},
		{settings.KeyFlagWithInitialValue, strconv.FormatBool(v.FlagWithInitialValue)},
		{settings.KeyOptionalFlagDefaultTrue, formatOptionalBool(v.OptionalFlagDefaultTrue)},
		{settings.KeyOptionalFlagDefaultNil, formatOptionalBool(v.OptionalFlagDefaultNil)},
		{settings.KeyBetterOptionalFlag, formatOptionalBool(v.BetterOptionalFlag)},
		{settings.KeyLanguageWithInitialValue, v.LanguageWithInitialValue.Name()},
		{settings.KeyLanguage, v.Language.Name()},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-28s %s\n", r.key, r.value); err != nil {
			return err
		}
	}
	return nil
}

func formatOptionalBool(b *bool) string {
	if b == nil {
		return "(unset)"
	}
	return strconv.FormatBool(*b)
}

func newSettingsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every user setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, rootOpts, func(s *session, u *settings.User) error {
				view, err := u.Read()
				if err != nil {
					return s.fail(ExitCommandError, CodeStore, "failed to read settings", err)
				}
				return s.out.Success(settingsView(view))
			})
		},
	}
}

func newSettingsLangCommand(rootOpts *RootOptions) *cobra.Command {
	var codes []string
	for _, l := range settings.Languages() {
		codes = append(codes, l.RawValue())
	}

	return &cobra.Command{
		Use:   "lang [code]",
		Short: "Print or change the UI language",
		Long: fmt.Sprintf(`Print or change the UI language (languageKey).

Accepted values: %s, or the English language name.

Example:
  prefs settings lang
  prefs settings lang swedish`, strings.Join(codes, ", ")),
		ValidArgs: codes,
		Args:      cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, rootOpts, func(s *session, u *settings.User) error {
				if len(args) == 1 {
					lang, err := settings.ParseLanguage(args[0])
					if err != nil {
						return s.fail(ExitCommandError, CodeInvalidValue, "invalid language", err)
					}
					if err := u.Language.Set(lang); err != nil {
						return s.fail(ExitCommandError, CodeStore, "failed to write language", err)
					}
				}
				lang, err := u.Language.Get()
				if err != nil {
					return s.fail(ExitCommandError, CodeStore, "failed to read language", err)
				}
				if s.out.Format == "json" {
					return s.out.Success(map[string]string{"code": lang.RawValue(), "name": lang.Name()})
				}
				return s.out.Success(fmt.Sprintf("%s (%s)", lang.Name(), lang.RawValue()))
			})
		},
	}
}

func newSettingsResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset every user setting to its initial value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, rootOpts, func(s *session, u *settings.User) error {
				if err := u.ResetAll(); err != nil {
					return s.fail(ExitCommandError, CodeStore, "failed to reset settings", err)
				}
				return s.out.Success(keysResult{Action: "reset", Keys: u.Keys()})
			})
		},
	}
}

func newSettingsRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove every user setting from the store",
		Long: `Remove every user setting from the store.

Settings with an initial value are written again the next time the
settings are opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, rootOpts, func(s *session, u *settings.User) error {
				if err := u.RemoveAll(); err != nil {
					return s.fail(ExitCommandError, CodeStore, "failed to remove settings", err)
				}
				return s.out.Success(keysResult{Action: "removed", Keys: u.Keys()})
			})
		},
	}
}

// keysResult reports a bulk action over a set of keys.
type keysResult struct {
	Action string   `json:"action"`
	Keys   []string `json:"keys"`
}

func (r keysResult) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %d keys\n", r.Action, len(r.Keys))
	return err
}
