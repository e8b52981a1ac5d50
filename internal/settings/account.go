package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/property"
	"github.com/roach88/prefs/internal/store"
)

// KeyAccounts holds the ids of every account created through NewAccount.
const KeyAccounts = "accounts"

// IDGenerator produces account ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7 generates time-sortable UUIDv7 account ids.
//
// Thread-safety: UUIDv7 is stateless and safe for concurrent use.
type UUIDv7 struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Account holds per-account settings. Its keys embed the account id, which
// is only known after the accessors are built, so every accessor starts
// with a deferred key and is bound once the id is chosen.
type Account struct {
	id string

	DisplayName   *property.Optional[string]
	Language      *property.Raw[Language, string]
	Notifications *property.Property[bool]
	LastLogin     *property.Optional[time.Time]
	Tags          *property.Property[[]string]

	group property.Group
	store store.Store
}

// NewAccount creates an account with a fresh id from ids and registers it
// under KeyAccounts. The account starts with lang as its language and
// notifications enabled; ResetAll returns it to that state.
func NewAccount(s store.Store, ids IDGenerator, lang Language) (*Account, error) {
	a := newAccount(s)

	if _, err := a.Language.WithInitial(lang); err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	if _, err := a.Notifications.WithInitial(true); err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}

	id := ids.Generate()
	if err := a.bind(id); err != nil {
		return nil, err
	}
	if err := register(s, id); err != nil {
		return nil, err
	}
	return a, nil
}

// OpenAccount binds the settings of an existing account. Nothing is written.
// An opened account has no initial values, so ResetAll removes its keys.
func OpenAccount(s store.Store, id string) (*Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("account: empty id")
	}
	a := newAccount(s)
	if err := a.bind(id); err != nil {
		return nil, err
	}
	return a, nil
}

func newAccount(s store.Store) *Account {
	opts := []property.Option{property.WithStore(s)}
	a := &Account{
		DisplayName:   property.NewOptional[string](key.Deferred().Strict(), append(opts, property.WithLabel("display_name"))...),
		Language:      property.NewRaw[Language, string](key.Deferred().Strict(), English, append(opts, property.WithLabel("language"))...),
		Notifications: property.New(key.Deferred().Strict(), false, append(opts, property.WithLabel("notifications"))...),
		LastLogin:     property.NewOptional[time.Time](key.Deferred().Strict(), append(opts, property.WithLabel("last_login"))...),
		Tags:          property.New(key.Deferred().Strict(), []string{}, append(opts, property.WithLabel("tags"))...),
		store:         s,
	}
	a.group = property.Group{a.DisplayName, a.Language, a.Notifications, a.LastLogin, a.Tags}
	return a
}

func (a *Account) bind(id string) error {
	a.id = id
	binds := []struct {
		field string
		bind  func(string) error
	}{
		{"display_name", a.DisplayName.Bind},
		{"language", a.Language.Bind},
		{"notifications", a.Notifications.Bind},
		{"last_login", a.LastLogin.Bind},
		{"tags", a.Tags.Bind},
	}
	for _, b := range binds {
		if err := b.bind(AccountKey(id, b.field)); err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
	}
	return nil
}

// AccountKey returns the store key of field for account id.
func AccountKey(id, field string) string {
	return "account." + id + "." + field
}

// ID returns the account id.
func (a *Account) ID() string {
	return a.id
}

// Keys returns the account's store keys.
func (a *Account) Keys() []string {
	return groupKeys(a.group)
}

// ResetAll returns every account setting to its initial value.
func (a *Account) ResetAll() error {
	return a.group.ResetAll()
}

// Delete removes every account setting and drops the id from KeyAccounts.
func (a *Account) Delete() error {
	if err := a.group.RemoveAll(); err != nil {
		return err
	}
	return unregister(a.store, a.id)
}

// AccountView is a point-in-time read of an account.
type AccountView struct {
	ID            string     `json:"id" yaml:"id"`
	DisplayName   *string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Language      Language   `json:"language" yaml:"language"`
	Notifications bool       `json:"notifications" yaml:"notifications"`
	LastLogin     *time.Time `json:"last_login,omitempty" yaml:"last_login,omitempty"`
	Tags          []string   `json:"tags" yaml:"tags"`
}

// Read loads every account setting.
func (a *Account) Read() (AccountView, error) {
	v := AccountView{ID: a.id}
	var err error
	if v.DisplayName, err = optionalPtr(a.DisplayName); err != nil {
		return AccountView{}, err
	}
	if v.Language, err = a.Language.Get(); err != nil {
		return AccountView{}, err
	}
	if v.Notifications, err = a.Notifications.Get(); err != nil {
		return AccountView{}, err
	}
	if v.LastLogin, err = optionalPtr(a.LastLogin); err != nil {
		return AccountView{}, err
	}
	if v.Tags, err = a.Tags.Get(); err != nil {
		return AccountView{}, err
	}
	return v, nil
}

// Accounts returns the registered account ids in creation order.
func Accounts(s store.Store) ([]string, error) {
	return accountList(s).Get()
}

func accountList(s store.Store) *property.Property[[]string] {
	return property.New(key.Fixed(KeyAccounts), []string{}, property.WithStore(s))
}

func register(s store.Store, id string) error {
	list := accountList(s)
	ids, err := list.Get()
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return list.Set(append(ids, id))
}

func unregister(s store.Store, id string) error {
	list := accountList(s)
	ids, err := list.Get()
	if err != nil {
		return err
	}
	i := slices.Index(ids, id)
	if i < 0 {
		return nil
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		return list.RemoveFromStore()
	}
	return list.Set(ids)
}
