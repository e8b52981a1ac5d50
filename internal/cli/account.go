package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prefs/internal/settings"
)

// NewAccountCommand creates the account command group.
func NewAccountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage per-account settings",
		Long: `Manage per-account settings.

Account settings live under account.<id>.<field>. Ids are UUIDv7, so
"account list" prints accounts in creation order.`,
	}

	cmd.AddCommand(newAccountNewCommand(rootOpts))
	cmd.AddCommand(newAccountShowCommand(rootOpts))
	cmd.AddCommand(newAccountListCommand(rootOpts))
	cmd.AddCommand(newAccountDeleteCommand(rootOpts))

	return cmd
}

type accountView settings.AccountView

func (v accountView) renderText(w io.Writer) error {
	name := "(unset)"
	if v.DisplayName != nil {
		name = *v.DisplayName
	}
	login := "(never)"
	if v.LastLogin != nil {
		login = v.LastLogin.UTC().Format(time.RFC3339)
	}
	_, err := fmt.Fprintf(w, "id:            %s\nname:          %s\nlanguage:      %s\nnotifications: %t\nlast login:    %s\ntags:          %s\n",
		v.ID, name, v.Language.Name(), v.Notifications, login, strings.Join(v.Tags, ", "))
	return err
}

// AccountNewOptions holds flags for the account new command.
type AccountNewOptions struct {
	*RootOptions
	Language string
	Name     string
}

func newAccountNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountNewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an account with a fresh id",
		Long: `Create an account with a fresh id.

Without --lang the account starts with the user's current language.

Example:
  prefs account new --name Aino --lang fi`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return createAccount(s, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Language, "lang", "", "initial language (en|fi|sv)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")

	return cmd
}

func createAccount(s *session, opts *AccountNewOptions) error {
	var lang settings.Language
	if opts.Language != "" {
		parsed, err := settings.ParseLanguage(opts.Language)
		if err != nil {
			return s.fail(ExitCommandError, CodeInvalidValue, "invalid language", err)
		}
		lang = parsed
	} else {
		u, err := settings.NewUser(s.store)
		if err != nil {
			return s.fail(ExitCommandError, CodeStore, "failed to open settings", err)
		}
		if lang, err = u.Language.Get(); err != nil {
			return s.fail(ExitCommandError, CodeStore, "failed to read language", err)
		}
	}

	ids := opts.IDs
	if ids == nil {
		ids = settings.UUIDv7{}
	}
	a, err := settings.NewAccount(s.store, ids, lang)
	if err != nil {
		return s.fail(ExitCommandError, CodeStore, "failed to create account", err)
	}
	if opts.Name != "" {
		if err := a.DisplayName.Set(opts.Name); err != nil {
			return s.fail(ExitCommandError, CodeStore, "failed to set display name", err)
		}
	}
	return showAccount(s, a)
}

func newAccountShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an account's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				a, err := openKnownAccount(s, args[0])
				if err != nil {
					return err
				}
				return showAccount(s, a)
			})
		},
	}
}

func newAccountListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List account ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				ids, err := settings.Accounts(s.store)
				if err != nil {
					return s.fail(ExitCommandError, CodeStore, "failed to read accounts", err)
				}
				if s.out.Format == "json" {
					return s.out.Success(ids)
				}
				for _, id := range ids {
					fmt.Fprintln(s.out.Writer, id)
				}
				return nil
			})
		},
	}
}

func newAccountDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an account and all of its settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				a, err := openKnownAccount(s, args[0])
				if err != nil {
					return err
				}
				if err := a.Delete(); err != nil {
					return s.fail(ExitCommandError, CodeStore, "failed to delete account", err)
				}
				return s.out.Success(keysResult{Action: "removed", Keys: a.Keys()})
			})
		},
	}
}

// openKnownAccount opens id if it is registered.
func openKnownAccount(s *session, id string) (*settings.Account, error) {
	ids, err := settings.Accounts(s.store)
	if err != nil {
		return nil, s.fail(ExitCommandError, CodeStore, "failed to read accounts", err)
	}
	if !slices.Contains(ids, id) {
		return nil, s.fail(ExitFailure, CodeNotFound, fmt.Sprintf("account %q not found", id), nil)
	}
	a, err := settings.OpenAccount(s.store, id)
	if err != nil {
		return nil, s.fail(ExitCommandError, CodeStore, "failed to open account", err)
	}
	return a, nil
}

func showAccount(s *session, a *settings.Account) error {
	view, err := a.Read()
	if err != nil {
		return s.fail(ExitCommandError, CodeStore, "failed to read account", err)
	}
	return s.out.Success(accountView(view))
}
