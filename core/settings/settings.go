// Package settings holds the school settings and their cached copy in persistent storage.
package settings

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
)

const (
	Path = "/api/settings"

	ThemePremium = "premiumTheme"
	ThemeDark    = "darkTheme"

	DefaultSchoolName = "School Management System"
	DefaultLanguage   = "English"
	DefaultTimezone   = "UTC-5 (Eastern Time)"
)

var ErrSaveFailed = errors.New("failed to save settings")

// saveError is an ErrSaveFailed that keeps the transport error as its cause.
type saveError struct {
	err error
}

func (e *saveError) Error() string        { return ErrSaveFailed.Error() + ": " + e.err.Error() }
func (e *saveError) Cause() error         { return e.err }
func (e *saveError) Unwrap() error        { return e.err }
func (e *saveError) Is(target error) bool { return target == ErrSaveFailed }

// Settings is the flat settings object exchanged with the backend.
type Settings struct {
	SchoolName         string `json:"schoolName" validate:"required"`
	Theme              string `json:"theme" validate:"required,oneof=premiumTheme darkTheme"`
	EmailNotifications bool   `json:"emailNotifications"`
	SMSNotifications   bool   `json:"smsNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	Language           string `json:"language"`
	Timezone           string `json:"timezone"`
	LogoPath           string `json:"logo_path,omitempty"`
}

func Defaults() Settings {
	return Settings{
		SchoolName:         DefaultSchoolName,
		Theme:              ThemePremium,
		EmailNotifications: true,
		PushNotifications:  true,
		Language:           DefaultLanguage,
		Timezone:           DefaultTimezone,
	}
}

func (s *Settings) Validate() error {
	s.SchoolName = core.CleanString(s.SchoolName)
	s.Theme = core.CleanString(s.Theme)
	s.Language = core.FirstNonEmpty(core.CleanString(s.Language), DefaultLanguage)
	s.Timezone = core.FirstNonEmpty(core.CleanString(s.Timezone), DefaultTimezone)
	return core.Validate.Struct(s)
}

// Cached is the read-only part of the settings every page renders from storage.
type Cached struct {
	SchoolName string
	Theme      string
	LogoPath   string
}

// Dark reports whether the dark theme is selected. Anything else renders the premium theme.
func (c Cached) Dark() bool { return c.Theme == ThemeDark }

// ReadCached reads the cached settings, falling back to the defaults for missing keys.
func ReadCached(store core.KeyValueStore) (Cached, error) {
	c := Cached{SchoolName: DefaultSchoolName, Theme: ThemePremium}
	for key, dst := range map[string]*string{
		core.KeySchoolName:     &c.SchoolName,
		core.KeySchoolTheme:    &c.Theme,
		core.KeySchoolLogoPath: &c.LogoPath,
	} {
		v, ok, err := store.Get(key)
		if err != nil {
			return Cached{}, errors.Wrapf(err, "reading %s", key)
		}
		if ok && v != "" {
			*dst = v
		}
	}
	return c, nil
}

// Cache overwrites the cached keys with s. Empty values leave the cached ones alone.
func Cache(store core.KeyValueStore, s Settings) error {
	for key, v := range map[string]string{
		core.KeySchoolName:     s.SchoolName,
		core.KeySchoolTheme:    s.Theme,
		core.KeySchoolLogoPath: s.LogoPath,
	} {
		if v == "" {
			continue
		}
		if err := store.Set(key, v); err != nil {
			return errors.Wrapf(err, "caching %s", key)
		}
	}
	return nil
}

// Sync fetches the settings and refreshes the cache.
func Sync(ctx context.Context, getter client.Getter, store core.KeyValueStore) (Settings, error) {
	env, err := getter.Get(ctx, Path)
	if err != nil {
		return Settings{}, errors.Wrap(err, "fetching settings")
	}
	if !env.Success {
		return Settings{}, errors.New(core.FirstNonEmpty(env.Message, "failed to load settings"))
	}
	s := Defaults()
	if len(env.Data) > 0 {
		if err = json.Unmarshal(env.Data, &s); err != nil {
			return Settings{}, errors.Wrap(client.ErrMalformed, err.Error())
		}
	}
	if err = Cache(store, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save validates and posts s, then refreshes the cache. The cache is only written once the backend accepted s.
func Save(ctx context.Context, poster client.Poster, store core.KeyValueStore, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	env, err := poster.Post(ctx, Path, s)
	if err != nil {
		return &saveError{err: err}
	}
	if !env.Success {
		return errors.Wrap(ErrSaveFailed, core.FirstNonEmpty(env.Message, "rejected by server"))
	}
	return Cache(store, s)
}
