package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

func screenText(s tcell.SimulationScreen) string {
	cells, w, h := s.GetContents()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c := cells[y*w+x]; len(c.Runes) > 0 {
				b.WriteRune(c.Runes[0])
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func mockScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	newScreenFunc = func() (tcell.Screen, error) { return sim, nil }
	t.Cleanup(func() { newScreenFunc = tcell.NewScreen })
	return sim
}

func Test_commandLine_watch(t *testing.T) {
	cli, backend, _ := setup(t)
	cli.conf.Refresh = core.RefreshConfig{
		Enabled:     true,
		Interval:    time.Hour,
		WarningLead: time.Minute,
		CheckEvery:  time.Second,
		ReloadDelay: time.Millisecond,
	}
	sim := mockScreen(t)

	done := make(chan error, 1)
	go func() { done <- cli.run(context.Background(), []string{"portal", "watch", "-role", "admin"}) }()

	shows := func(text string) func() bool {
		return func() bool { return strings.Contains(screenText(sim), text) }
	}
	require.Eventually(t, shows("Welcome back, Amani!"), 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, shows(" Masomo High"), 3*time.Second, 10*time.Millisecond, "settings are synced on start")
	assert.Contains(t, screenText(sim), "Total Students: 10")

	sim.InjectKey(tcell.KeyRune, 'H', tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'i', tcell.ModNone)
	require.Eventually(t, shows("Subject: Hi"), 3*time.Second, 10*time.Millisecond)

	sim.InjectKey(tcell.KeyCtrlR, 0, tcell.ModCtrl)
	require.Eventually(t, func() bool { return backend.getCount("/api/dashboard/") >= 2 }, 3*time.Second, 10*time.Millisecond, "ctrl+r reloads the page")
	require.Eventually(t, shows("Subject: Hi"), 3*time.Second, 10*time.Millisecond, "form values survive the reload")
	_, saved, err := cli.store.Get(core.KeySavedFormData)
	require.NoError(t, err)
	assert.False(t, saved, "the snapshot is consumed on restore")

	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not quit on Esc")
	}
}

func Test_commandLine_watchLoggedInRole(t *testing.T) {
	cli, backend, _ := setup(t)
	require.NoError(t, cli.store.Set(core.KeyUserRole, string(user.RoleParent)))
	sim := mockScreen(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.run(ctx, []string{"portal", "watch"}) }()

	// no parent data: the first load fails with the full page error
	require.Eventually(t, func() bool {
		return strings.Contains(screenText(sim), "Something went wrong")
	}, 3*time.Second, 10*time.Millisecond)
	assert.Contains(t, screenText(sim), "Parent Portal")
	assert.Equal(t, 1, backend.getCount("/api/parents/"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop with its context")
	}
}

func TestFormsFor(t *testing.T) {
	for _, role := range user.AllRoles {
		forms := formsFor(role)
		require.Len(t, forms, 1, role)
		assert.Len(t, forms[0].Fields, 2)
	}
	assert.Nil(t, formsFor("student"))
}

func TestFormTitle(t *testing.T) {
	assert.Equal(t, "Leave Application", formTitle("leave-application"))
	assert.Equal(t, "Announcement", formTitle("announcement"))
}
