// Package settings defines the application's concrete preferences on top of
// the typed accessors in package property.
package settings

import (
	"fmt"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
	"github.com/roach88/prefs/internal/property"
	"github.com/roach88/prefs/internal/store"
)

// Store keys of the user settings.
const (
	KeySomeFlag                 = "some_flag"
	KeyFlagWithInitialValue     = "flag_with_initial_value"
	KeyOptionalFlagDefaultTrue  = "optional_flag_default_true"
	KeyOptionalFlagDefaultNil   = "optional_flag_default_nil"
	KeyBetterOptionalFlag       = "fixed_optional_flag"
	KeyLanguageWithInitialValue = "languageWithInitialValueKey"
	KeyLanguage                 = "languageKey"
)

// User holds the user-level settings.
type User struct {
	SomeFlag                 *property.Property[bool]
	FlagWithInitialValue     *property.Property[bool]
	OptionalFlagDefaultTrue  *property.Optional[bool]
	OptionalFlagDefaultNil   *property.Optional[bool]
	BetterOptionalFlag       *property.Optional[bool]
	LanguageWithInitialValue *property.Raw[Language, string]
	Language                 *property.Raw[Language, string]

	group property.Group
}

// NewUser builds the user settings over s. Settings with an initial value
// write it to s immediately, so construction fails if s rejects the write.
func NewUser(s store.Store, opts ...property.Option) (*User, error) {
	opts = append([]property.Option{property.WithStore(s)}, opts...)

	flagWithInit, err := property.New(key.Fixed(KeyFlagWithInitialValue), false, opts...).WithInitial(true)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	langWithInit, err := property.NewRaw[Language, string](key.Fixed(KeyLanguageWithInitialValue), English, opts...).WithInitial(Finnish)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	u := &User{
		SomeFlag:                 property.New(key.Fixed(KeySomeFlag), false, opts...),
		FlagWithInitialValue:     flagWithInit,
		OptionalFlagDefaultTrue:  property.NewOptional[bool](key.Fixed(KeyOptionalFlagDefaultTrue), opts...).WithDefault(true),
		OptionalFlagDefaultNil:   property.NewOptional[bool](key.Fixed(KeyOptionalFlagDefaultNil), opts...),
		BetterOptionalFlag:       property.NewOptional[bool](key.Fixed(KeyBetterOptionalFlag), opts...),
		LanguageWithInitialValue: langWithInit,
		Language:                 property.NewRaw[Language, string](key.Fixed(KeyLanguage), English, opts...),
	}
	u.group = property.Group{
		u.SomeFlag,
		u.FlagWithInitialValue,
		u.OptionalFlagDefaultTrue,
		u.OptionalFlagDefaultNil,
		u.BetterOptionalFlag,
		u.LanguageWithInitialValue,
		u.Language,
	}
	return u, nil
}

// ResetAll puts every setting back to its initial value, removing those
// without one.
func (u *User) ResetAll() error {
	return u.group.ResetAll()
}

// RemoveAll deletes every setting from the store.
func (u *User) RemoveAll() error {
	return u.group.RemoveAll()
}

// Keys returns the store keys of every setting in declaration order.
func (u *User) Keys() []string {
	return groupKeys(u.group)
}

// View is a point-in-time read of every user setting. Optional settings that
// are unset with no default are nil.
type View struct {
	SomeFlag                 bool     `json:"some_flag" yaml:"some_flag"`
	FlagWithInitialValue     bool     `json:"flag_with_initial_value" yaml:"flag_with_initial_value"`
	OptionalFlagDefaultTrue  *bool    `json:"optional_flag_default_true" yaml:"optional_flag_default_true"`
	OptionalFlagDefaultNil   *bool    `json:"optional_flag_default_nil" yaml:"optional_flag_default_nil"`
	BetterOptionalFlag       *bool    `json:"fixed_optional_flag" yaml:"fixed_optional_flag"`
	LanguageWithInitialValue Language `json:"language_with_initial_value" yaml:"language_with_initial_value"`
	Language                 Language `json:"language" yaml:"language"`
}

// Read loads every setting.
func (u *User) Read() (View, error) {
	var (
		v   View
		err error
	)
	if v.SomeFlag, err = u.SomeFlag.Get(); err != nil {
		return View{}, err
	}
	if v.FlagWithInitialValue, err = u.FlagWithInitialValue.Get(); err != nil {
		return View{}, err
	}
	if v.OptionalFlagDefaultTrue, err = optionalPtr(u.OptionalFlagDefaultTrue); err != nil {
		return View{}, err
	}
	if v.OptionalFlagDefaultNil, err = optionalPtr(u.OptionalFlagDefaultNil); err != nil {
		return View{}, err
	}
	if v.BetterOptionalFlag, err = optionalPtr(u.BetterOptionalFlag); err != nil {
		return View{}, err
	}
	if v.LanguageWithInitialValue, err = u.LanguageWithInitialValue.Get(); err != nil {
		return View{}, err
	}
	if v.Language, err = u.Language.Get(); err != nil {
		return View{}, err
	}
	return v, nil
}

func optionalPtr[T plist.Storable](o *property.Optional[T]) (*T, error) {
	v, ok, err := o.Get()
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func groupKeys(g property.Group) []string {
	keys := g.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
