package portal

import (
	"time"

	"github.com/trezcool/masomo-portal/core/loop"
	"github.com/trezcool/masomo-portal/core/refresh"
)

// StatusTTL is how long the refresh notification and the network status stay up.
const StatusTTL = 3 * time.Second

type Field struct {
	Name   string
	Label  string
	Value  string
	Secret bool
}

type Form struct {
	ID     string
	Fields []Field
}

// Document is the host-neutral model of one loaded page: its forms, in document order, and the indicators
// the refresh manager shows. Its methods must be called on its loop.
type Document struct {
	loop     loop.Loop
	onReload func()
	onChange func()

	forms        []Form
	focusForm    int
	focusField   int
	countdown    time.Time
	notification string
	noteTimer    loop.Timer
	network      string
	netTimer     loop.Timer
	overlay      bool
	reloads      int
}

var (
	_ refresh.Page  = (*Document)(nil)
	_ refresh.Forms = (*Document)(nil)
)

// NewDocument creates an empty page. onReload performs the actual reload; onChange, if set, is called after
// every visible change.
func NewDocument(l loop.Loop, onReload, onChange func()) *Document {
	return &Document{loop: l, onReload: onReload, onChange: onChange}
}

// AddForm appends a form and returns its index.
func (d *Document) AddForm(id string, fields ...Field) int {
	d.forms = append(d.forms, Form{ID: id, Fields: append([]Field(nil), fields...)})
	d.changed()
	return len(d.forms) - 1
}

func (d *Document) Forms() []Form { return d.forms }

func (d *Document) FormValues() []map[string]string {
	out := make([]map[string]string, len(d.forms))
	for i, f := range d.forms {
		vals := make(map[string]string, len(f.Fields))
		for _, fld := range f.Fields {
			if fld.Name != "" {
				vals[fld.Name] = fld.Value
			}
		}
		out[i] = vals
	}
	return out
}

func (d *Document) SetField(form int, name, value string) bool {
	if form < 0 || form >= len(d.forms) {
		return false
	}
	for i := range d.forms[form].Fields {
		if d.forms[form].Fields[i].Name == name {
			d.forms[form].Fields[i].Value = value
			d.changed()
			return true
		}
	}
	return false
}

// Value returns the value of a field, and whether the field exists.
func (d *Document) Value(form int, name string) (string, bool) {
	if form < 0 || form >= len(d.forms) {
		return "", false
	}
	for _, fld := range d.forms[form].Fields {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return "", false
}

// Focused returns the indexes of the focused form and field; ok is false when the page has no fields.
func (d *Document) Focused() (form, field int, ok bool) {
	if d.focusForm >= len(d.forms) || d.focusField >= len(d.forms[d.focusForm].Fields) {
		return 0, 0, false
	}
	return d.focusForm, d.focusField, true
}

// FocusNext moves the focus to the next field, across forms, wrapping around.
func (d *Document) FocusNext() {
	if len(d.forms) == 0 {
		return
	}
	for range d.forms {
		if d.focusField+1 < len(d.forms[d.focusForm].Fields) {
			d.focusField++
			d.changed()
			return
		}
		d.focusForm = (d.focusForm + 1) % len(d.forms)
		d.focusField = 0
		if len(d.forms[d.focusForm].Fields) > 0 {
			d.changed()
			return
		}
	}
}

// Type appends r to the focused field.
func (d *Document) Type(r rune) {
	if fi, fl, ok := d.Focused(); ok {
		d.forms[fi].Fields[fl].Value += string(r)
		d.changed()
	}
}

// Backspace deletes the last character of the focused field.
func (d *Document) Backspace() {
	fi, fl, ok := d.Focused()
	if !ok {
		return
	}
	v := []rune(d.forms[fi].Fields[fl].Value)
	if len(v) > 0 {
		d.forms[fi].Fields[fl].Value = string(v[:len(v)-1])
		d.changed()
	}
}

// Countdown returns the deadline of the refresh warning, and whether it is shown.
func (d *Document) Countdown() (time.Time, bool) { return d.countdown, !d.countdown.IsZero() }

func (d *Document) Notification() string  { return d.notification }
func (d *Document) NetworkStatus() string { return d.network }
func (d *Document) Overlay() bool         { return d.overlay }
func (d *Document) Reloads() int          { return d.reloads }

func (d *Document) ShowCountdown(deadline time.Time) {
	d.countdown = deadline
	d.changed()
}

func (d *Document) HideCountdown() {
	if d.countdown.IsZero() {
		return
	}
	d.countdown = time.Time{}
	d.changed()
}

func (d *Document) ShowNotification(msg string) {
	d.notification = msg
	d.noteTimer = d.rearm(d.noteTimer, d.HideNotification)
	d.changed()
}

func (d *Document) HideNotification() {
	if d.noteTimer != nil {
		d.noteTimer.Stop()
		d.noteTimer = nil
	}
	if d.notification == "" {
		return
	}
	d.notification = ""
	d.changed()
}

func (d *Document) ShowNetworkStatus(online bool) {
	d.network = "Offline"
	if online {
		d.network = "Online"
	}
	d.netTimer = d.rearm(d.netTimer, func() {
		d.netTimer = nil
		d.network = ""
		d.changed()
	})
	d.changed()
}

func (d *Document) ShowLoadingOverlay() {
	d.overlay = true
	d.changed()
}

// Reload clears the page state and calls the reload hook. Forms are kept until the hook rebuilds the page.
func (d *Document) Reload() {
	d.reloads++
	d.countdown = time.Time{}
	d.HideNotification()
	if d.onReload != nil {
		d.onReload()
	}
}

// Reset empties the page for the next load.
func (d *Document) Reset() {
	if d.netTimer != nil {
		d.netTimer.Stop()
		d.netTimer = nil
	}
	if d.noteTimer != nil {
		d.noteTimer.Stop()
		d.noteTimer = nil
	}
	d.forms = nil
	d.focusForm, d.focusField = 0, 0
	d.countdown = time.Time{}
	d.notification, d.network = "", ""
	d.overlay = false
	d.changed()
}

func (d *Document) rearm(t loop.Timer, fn func()) loop.Timer {
	if t != nil {
		t.Stop()
	}
	return d.loop.AfterFunc(StatusTTL, fn)
}

func (d *Document) changed() {
	if d.onChange != nil {
		d.onChange()
	}
}
