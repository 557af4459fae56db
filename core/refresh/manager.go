// Package refresh reloads an idle page.
//
// A Manager watches user activity. After Interval-WarningLead without any, it shows a countdown and,
// unless the user comes back within WarningLead, saves the forms and reloads the page.
// A hidden tab or a lost connection pauses it; showing the tab again resumes it.
package refresh

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/loop"
)

const (
	DefaultInterval    = 90 * time.Second
	DefaultWarningLead = 5 * time.Second
	DefaultCheckEvery  = time.Second
	DefaultReloadDelay = 500 * time.Millisecond
)

type State int

const (
	StateIdle State = iota
	StateWarning
	StateReloading
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWarning:
		return "warning"
	case StateReloading:
		return "reloading"
	case StatePaused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	Loop  loop.Loop
	Page  Page
	Forms Forms
	Store core.KeyValueStore

	// optional
	Activity   ActivitySource
	Visibility VisibilitySource
	Network    NetworkSource
	Logger     core.Logger

	Interval    time.Duration
	WarningLead time.Duration
	CheckEvery  time.Duration
	ReloadDelay time.Duration

	// OnStateChange is called on the loop after every transition.
	OnStateChange func(from, to State)
}

// Status is a point-in-time view of the Manager.
type Status struct {
	State          State
	LastActivityAt time.Time
	// NextRefreshIn is the time left before the reload, if no activity happens; nil while paused.
	NextRefreshIn *time.Duration
	IsRefreshing  bool
}

// Manager is the page-wide refresh schedule. Create one per page load.
// Its methods must be called on its loop.
type Manager struct {
	opts   Options
	loop   loop.Loop
	logger core.Logger

	// loop-only
	state          State
	lastActivityAt time.Time
	timer          loop.Timer // the only pending wakeup
	cancels        []func()
	started        bool
	closed         bool
}

func NewManager(opts *Options) (*Manager, error) {
	if opts.Loop == nil || opts.Page == nil || opts.Forms == nil || opts.Store == nil {
		return nil, errors.New("refresh: Loop, Page, Forms and Store are required")
	}
	o := *opts
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.WarningLead <= 0 {
		o.WarningLead = DefaultWarningLead
	}
	if o.WarningLead >= o.Interval {
		return nil, errors.Errorf("refresh: warning lead %s must be shorter than interval %s", o.WarningLead, o.Interval)
	}
	if o.CheckEvery <= 0 {
		o.CheckEvery = DefaultCheckEvery
	}
	if o.ReloadDelay <= 0 {
		o.ReloadDelay = DefaultReloadDelay
	}
	m := &Manager{opts: o, loop: o.Loop, logger: o.Logger}
	if m.logger == nil {
		m.logger = core.NopLogger{}
	}
	return m, nil
}

// Start subscribes to the event sources and begins the idle checks.
func (m *Manager) Start() {
	if m.started || m.closed {
		return
	}
	m.started = true
	m.lastActivityAt = m.loop.Now()

	if src := m.opts.Activity; src != nil {
		m.cancels = append(m.cancels, src.OnActivity(func(a Activity) {
			m.loop.Post(func() { m.handleActivity(a) })
		}))
	}
	if src := m.opts.Visibility; src != nil {
		m.cancels = append(m.cancels, src.OnVisibility(func(visible bool) {
			m.loop.Post(func() { m.handleVisibility(visible) })
		}))
	}
	if src := m.opts.Network; src != nil {
		m.cancels = append(m.cancels, src.OnNetwork(func(online bool) {
			m.loop.Post(func() { m.handleNetwork(online) })
		}))
	}

	m.logger.Info("refresh: started", map[string]interface{}{"interval": m.opts.Interval.String()})
	m.scheduleCheck()
}

// Close unsubscribes and cancels the pending wakeup. The Manager cannot be restarted.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.disarm()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
}

func (m *Manager) State() State { return m.state }

func (m *Manager) Status() Status {
	st := Status{
		State:          m.state,
		LastActivityAt: m.lastActivityAt,
		IsRefreshing:   m.state == StateReloading,
	}
	if m.timer != nil && (m.state == StateIdle || m.state == StateWarning) {
		left := m.opts.Interval - m.loop.Now().Sub(m.lastActivityAt)
		if left < 0 {
			left = 0
		}
		st.NextRefreshIn = &left
	}
	return st
}

// ForceRefresh saves the forms and reloads right away, skipping the warning.
func (m *Manager) ForceRefresh() {
	if m.closed || m.state == StateReloading {
		return
	}
	m.logger.Info("refresh: forced")
	m.reload()
}

// RestoreForms applies the snapshot saved by the previous reload, then deletes it.
// A corrupt snapshot is logged and deleted. It returns the number of fields restored.
func (m *Manager) RestoreForms() (int, error) {
	raw, ok, err := m.opts.Store.Get(core.KeySavedFormData)
	if err != nil {
		return 0, errors.Wrap(err, "reading form snapshot")
	}
	if !ok {
		return 0, nil
	}

	var restored int
	if snap, err := DecodeSnapshot(raw); err != nil {
		m.logger.Warn("refresh: dropping corrupt form snapshot", err)
	} else {
		restored = snap.Apply(m.opts.Forms)
	}
	if err := m.opts.Store.Remove(core.KeySavedFormData); err != nil {
		return restored, errors.Wrap(err, "removing form snapshot")
	}
	return restored, nil
}

func (m *Manager) handleActivity(a Activity) {
	if m.closed {
		return
	}
	if a.isForceRefresh() {
		m.ForceRefresh()
		return
	}
	switch m.state {
	case StateIdle:
		m.lastActivityAt = m.loop.Now()
	case StateWarning:
		m.lastActivityAt = m.loop.Now()
		m.hideWarning()
		m.setState(StateIdle)
		m.scheduleCheck()
	}
}

func (m *Manager) handleVisibility(visible bool) {
	if m.closed || m.state == StateReloading {
		return
	}
	if !visible {
		m.pause()
		return
	}
	if m.state == StatePaused {
		m.lastActivityAt = m.loop.Now()
		m.setState(StateIdle)
		m.scheduleCheck()
	}
}

// handleNetwork never resumes: only visibility does.
func (m *Manager) handleNetwork(online bool) {
	if m.closed || m.state == StateReloading {
		return
	}
	m.opts.Page.ShowNetworkStatus(online)
	if !online {
		m.pause()
	}
}

func (m *Manager) check() {
	if m.state != StateIdle {
		return
	}
	idle := m.loop.Now().Sub(m.lastActivityAt)
	if idle >= m.opts.Interval-m.opts.WarningLead {
		m.warn()
		return
	}
	m.scheduleCheck()
}

func (m *Manager) warn() {
	m.setState(StateWarning)
	m.opts.Page.ShowCountdown(m.loop.Now().Add(m.opts.WarningLead))
	m.opts.Page.ShowNotification(fmt.Sprintf("Page will refresh in %d seconds...", int(m.opts.WarningLead.Round(time.Second)/time.Second)))
	m.arm(m.opts.WarningLead, m.reload)
}

func (m *Manager) reload() {
	m.disarm()
	if m.state == StateWarning {
		m.hideWarning()
	}

	// never reload without the snapshot
	if err := m.saveForms(); err != nil {
		m.logger.Error("refresh: reload aborted, forms could not be saved", err)
		if m.state == StatePaused {
			return // only visibility resumes
		}
		m.lastActivityAt = m.loop.Now()
		m.setState(StateIdle)
		m.scheduleCheck()
		return
	}

	m.setState(StateReloading)
	m.opts.Page.ShowLoadingOverlay()
	m.arm(m.opts.ReloadDelay, func() {
		m.logger.Info("refresh: reloading page")
		m.opts.Page.Reload()
	})
}

func (m *Manager) saveForms() error {
	snap := CaptureSnapshot(m.opts.Forms)
	if snap.Empty() {
		return nil
	}
	raw, err := snap.Encode()
	if err != nil {
		return err
	}
	return errors.Wrap(m.opts.Store.Set(core.KeySavedFormData, raw), "saving form snapshot")
}

func (m *Manager) pause() {
	m.disarm()
	if m.state == StateWarning {
		m.hideWarning()
	}
	m.setState(StatePaused)
}

func (m *Manager) hideWarning() {
	m.opts.Page.HideCountdown()
	m.opts.Page.HideNotification()
}

func (m *Manager) scheduleCheck() {
	m.arm(m.opts.CheckEvery, m.check)
}

// arm replaces the pending wakeup.
func (m *Manager) arm(d time.Duration, fn func()) {
	m.disarm()
	var t loop.Timer
	t = m.loop.AfterFunc(d, func() {
		if m.timer == t {
			m.timer = nil
		}
		fn()
	})
	m.timer = t
}

func (m *Manager) disarm() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) setState(to State) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	m.logger.Debug("refresh: state change", map[string]interface{}{"from": from.String(), "to": to.String()})
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(from, to)
	}
}
