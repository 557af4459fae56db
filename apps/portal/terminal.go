package main

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/trezcool/masomo-portal/core/refresh"
)

// feed fans values out to subscribers. It is safe for concurrent use.
type feed struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(interface{})
}

func (f *feed) subscribe(h func(interface{})) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[int]func(interface{}))
	}
	id := f.next
	f.next++
	f.handlers[id] = h
	return func() {
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}
}

func (f *feed) emit(v interface{}) {
	f.mu.Lock()
	hs := make([]func(interface{}), 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(v)
	}
}

// terminal is the event source of the terminal host: keys and mouse are activity, focus is visibility,
// and the network comes from a probe.
type terminal struct {
	activity   feed
	visibility feed
	network    feed
}

var (
	_ refresh.ActivitySource   = (*terminal)(nil)
	_ refresh.VisibilitySource = (*terminal)(nil)
	_ refresh.NetworkSource    = (*terminal)(nil)
)

func (t *terminal) OnActivity(h func(refresh.Activity)) func() {
	return t.activity.subscribe(func(v interface{}) { h(v.(refresh.Activity)) })
}

func (t *terminal) OnVisibility(h func(bool)) func() {
	return t.visibility.subscribe(func(v interface{}) { h(v.(bool)) })
}

func (t *terminal) OnNetwork(h func(bool)) func() {
	return t.network.subscribe(func(v interface{}) { h(v.(bool)) })
}

func (t *terminal) setOnline(online bool) { t.network.emit(online) }

// dispatch forwards ev to the matching feed. It reports whether ev was consumed.
func (t *terminal) dispatch(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventFocus:
		t.visibility.emit(ev.Focused)
	case *tcell.EventKey:
		t.activity.emit(keyActivity(ev))
	case *tcell.EventMouse:
		t.activity.emit(mouseActivity(ev))
	case *tcell.EventPaste:
		t.activity.emit(refresh.Activity{Kind: refresh.ActivityInput})
	default:
		return false
	}
	return true
}

func keyActivity(ev *tcell.EventKey) refresh.Activity {
	a := refresh.Activity{Kind: refresh.ActivityKey, Ctrl: ev.Modifiers()&tcell.ModCtrl != 0}
	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		a.Key = string(ev.Rune())
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ && a.Ctrl, k == tcell.KeyCtrlR:
		a.Key = string(rune('a' + k - tcell.KeyCtrlA))
		a.Ctrl = true
	default:
		a.Key = ev.Name()
	}
	return a
}

func mouseActivity(ev *tcell.EventMouse) refresh.Activity {
	if ev.Buttons()&(tcell.WheelUp|tcell.WheelDown|tcell.WheelLeft|tcell.WheelRight) != 0 {
		return refresh.Activity{Kind: refresh.ActivityScroll}
	}
	return refresh.Activity{Kind: refresh.ActivityPointer}
}
