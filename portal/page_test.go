package portal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/loop"
	"github.com/trezcool/masomo-portal/core/refresh"
	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/core/user"
)

type activityFeed struct {
	handlers []func(refresh.Activity)
}

func (a *activityFeed) OnActivity(h func(refresh.Activity)) func() {
	a.handlers = append(a.handlers, h)
	i := len(a.handlers) - 1
	return func() { a.handlers[i] = nil }
}

func (a *activityFeed) emit(act refresh.Activity) {
	for _, h := range a.handlers {
		if h != nil {
			h(act)
		}
	}
}

func newPage(t *testing.T, refreshEnabled bool) (*loop.Fake, *stubBackend, core.KeyValueStore, *activityFeed, *Page) {
	t.Helper()
	layout, err := LayoutFor(user.RoleAdmin)
	require.NoError(t, err)

	f := loop.NewFake(epoch)
	backend := &stubBackend{env: okData(`{"total_students": 10, "user": {"name": "Amani"}}`)}
	store := newStore()
	feed := &activityFeed{}
	id, fields := messageForm()
	p := NewPage(PageOptions{
		Loop:   f,
		Getter: backend,
		Store:  store,
		Layout: layout,
		Poll:   core.PollConfig{Interval: 30 * time.Second, RefreshingTail: time.Second},
		Refresh: core.RefreshConfig{
			Enabled:     refreshEnabled,
			Interval:    90 * time.Second,
			WarningLead: 5 * time.Second,
			CheckEvery:  time.Second,
			ReloadDelay: 500 * time.Millisecond,
		},
		Activity: feed,
		Forms:    []Form{{ID: id, Fields: fields}},
	})
	return f, backend, store, feed, p
}

func TestPage_IdleReloadKeepsForms(t *testing.T) {
	f, backend, store, _, p := newPage(t, true)
	require.NoError(t, store.Set(core.KeySchoolName, "Masomo High"))

	require.NoError(t, p.Load(context.Background()))
	f.Drain()
	assert.Equal(t, 1, p.Loads())
	assert.Equal(t, "Masomo High", p.Settings().SchoolName)
	require.NotNil(t, p.Dashboard().View().Summary)

	p.Document().SetField(0, "subject", "Fees reminder")
	p.Document().SetField(0, "content", "Term 2 fees are due")

	f.AdvanceTo(epoch.Add(85 * time.Second))
	assert.Equal(t, refresh.StateWarning, p.Manager().State())
	assert.Equal(t, "Page will refresh in 5 seconds...", p.Document().Notification())

	f.AdvanceTo(epoch.Add(90 * time.Second))
	assert.Equal(t, refresh.StateReloading, p.Manager().State())
	assert.True(t, p.Document().Overlay())
	_, saved, _ := store.Get(core.KeySavedFormData)
	assert.True(t, saved)

	polls := len(backend.paths)
	f.AdvanceTo(epoch.Add(90*time.Second + 500*time.Millisecond))
	assert.Equal(t, 2, p.Loads())
	assert.Equal(t, 1, p.Document().Reloads())
	assert.Equal(t, 2, p.Restored())
	assert.False(t, p.Document().Overlay())
	assert.Equal(t, refresh.StateIdle, p.Manager().State())
	assert.Greater(t, len(backend.paths), polls, "the new dashboard fetched on load")

	v, _ := p.Document().Value(0, "subject")
	assert.Equal(t, "Fees reminder", v)
	_, saved, _ = store.Get(core.KeySavedFormData)
	assert.False(t, saved, "restored at most once")
}

func TestPage_ActivityPostponesReload(t *testing.T) {
	f, _, _, feed, p := newPage(t, true)
	require.NoError(t, p.Load(context.Background()))

	f.AdvanceTo(epoch.Add(60 * time.Second))
	feed.emit(refresh.Activity{Kind: refresh.ActivityKey, Key: "a"})
	f.AdvanceTo(epoch.Add(140 * time.Second))
	assert.Equal(t, 1, p.Loads())
	assert.Equal(t, refresh.StateIdle, p.Manager().State())

	feed.emit(refresh.Activity{Kind: refresh.ActivityKey, Key: "r", Ctrl: true})
	f.Advance(time.Second)
	assert.Equal(t, 2, p.Loads())
}

func TestPage_RefreshDisabled(t *testing.T) {
	f, backend, _, _, p := newPage(t, false)
	require.NoError(t, p.Load(context.Background()))
	f.Drain()
	assert.Nil(t, p.Manager())

	f.AdvanceTo(epoch.Add(10 * time.Minute))
	assert.Equal(t, 1, p.Loads())
	assert.Len(t, backend.paths, 21, "polls every 30s")

	p.ForceRefresh()
	assert.Equal(t, 2, p.Loads())
	assert.Equal(t, settings.DefaultSchoolName, p.Settings().SchoolName)

	p.Unload()
	f.Advance(time.Hour)
	assert.Equal(t, 2, p.Loads())
}

func TestPage_ReadSettings(t *testing.T) {
	_, _, store, _, p := newPage(t, false)
	var changes int
	p.opts.OnChange = func() { changes++ }
	require.NoError(t, p.Load(context.Background()))
	assert.False(t, p.Settings().Dark())

	require.NoError(t, settings.Cache(store, settings.Settings{SchoolName: "Masomo High", Theme: settings.ThemeDark}))
	before := changes
	require.NoError(t, p.ReadSettings())
	assert.Equal(t, "Masomo High", p.Settings().SchoolName)
	assert.True(t, p.Settings().Dark())
	assert.Equal(t, before+1, changes)
}
