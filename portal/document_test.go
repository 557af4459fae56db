package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core/loop"
	"github.com/trezcool/masomo-portal/core/refresh"
)

func messageForm() (string, []Field) {
	return "message", []Field{
		{Name: "subject", Label: "Subject"},
		{Name: "content", Label: "Message"},
		{Label: "Unnamed"},
	}
}

func TestDocument_Forms(t *testing.T) {
	var changes int
	doc := NewDocument(loop.NewFake(epoch), nil, func() { changes++ })
	id, fields := messageForm()
	doc.AddForm(id, fields...)
	doc.AddForm("search", Field{Name: "q"})

	assert.True(t, doc.SetField(0, "subject", "Fees"))
	assert.True(t, doc.SetField(1, "q", "Dalila"))
	assert.False(t, doc.SetField(1, "subject", "x"), "unknown field")
	assert.False(t, doc.SetField(2, "q", "x"), "unknown form")
	assert.Equal(t, []map[string]string{
		{"subject": "Fees", "content": ""},
		{"q": "Dalila"},
	}, doc.FormValues())
	assert.Equal(t, 4, changes)

	snap := refresh.CaptureSnapshot(doc)
	assert.Equal(t, refresh.Snapshot{
		"form_0": {"subject": "Fees", "content": ""},
		"form_1": {"q": "Dalila"},
	}, snap)
}

func TestDocument_Typing(t *testing.T) {
	doc := NewDocument(loop.NewFake(epoch), nil, nil)
	_, _, ok := doc.Focused()
	assert.False(t, ok)
	doc.Type('x') // no field, no-op

	doc.AddForm("empty")
	doc.AddForm("login", Field{Name: "email"}, Field{Name: "password", Secret: true})

	doc.FocusNext()
	form, field, ok := doc.Focused()
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 0}, [2]int{form, field}, "skips forms without fields")

	for _, r := range "ab€" {
		doc.Type(r)
	}
	doc.Backspace()
	v, _ := doc.Value(1, "email")
	assert.Equal(t, "ab", v)

	doc.FocusNext()
	doc.Type('s')
	v, _ = doc.Value(1, "password")
	assert.Equal(t, "s", v)

	doc.FocusNext()
	form, field, _ = doc.Focused()
	assert.Equal(t, [2]int{1, 0}, [2]int{form, field}, "wraps around")

	_, ok = doc.Value(3, "email")
	assert.False(t, ok)
}

func TestDocument_Indicators(t *testing.T) {
	f := loop.NewFake(epoch)
	var reloads int
	doc := NewDocument(f, func() { reloads++ }, nil)

	deadline := epoch.Add(5 * time.Second)
	doc.ShowCountdown(deadline)
	got, shown := doc.Countdown()
	assert.True(t, shown)
	assert.Equal(t, deadline, got)
	doc.HideCountdown()
	_, shown = doc.Countdown()
	assert.False(t, shown)

	doc.ShowNotification("Page will refresh in 5 seconds...")
	doc.ShowNetworkStatus(false)
	assert.Equal(t, "Offline", doc.NetworkStatus())
	f.Advance(2 * time.Second)
	doc.ShowNetworkStatus(true)
	assert.Equal(t, "Online", doc.NetworkStatus())

	f.Advance(time.Second)
	assert.Empty(t, doc.Notification(), "hidden after 3s")
	assert.Equal(t, "Online", doc.NetworkStatus(), "timer restarted")
	f.Advance(2 * time.Second)
	assert.Empty(t, doc.NetworkStatus())
	assert.Zero(t, f.Pending())

	doc.ShowLoadingOverlay()
	assert.True(t, doc.Overlay())
	doc.Reload()
	assert.Equal(t, 1, reloads)
	assert.Equal(t, 1, doc.Reloads())

	doc.AddForm("search", Field{Name: "q"})
	doc.ShowNetworkStatus(true)
	doc.Reset()
	assert.False(t, doc.Overlay())
	assert.Empty(t, doc.Forms())
	assert.Empty(t, doc.NetworkStatus())
	assert.Zero(t, f.Pending())
}
