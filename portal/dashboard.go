package portal

import (
	"bytes"
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/loop"
	"github.com/trezcool/masomo-portal/core/poll"
)

// DashboardView is what the host renders for a dashboard.
type DashboardView struct {
	poll.View
	Title       string
	LoadingText string
	// Summary is the last summary that decoded; nil until one did.
	Summary Summary
	// LastUpdated is the age of the last successful fetch, e.g. "12 seconds ago".
	LastUpdated string
}

type DashboardOptions struct {
	Loop   loop.Loop
	Getter client.Getter
	Layout Layout
	Poll   core.PollConfig
	Logger core.Logger
	// OnChange receives the view after every change, on the loop.
	OnChange func(DashboardView)
}

// Dashboard is a mounted dashboard page. It owns the poll session of its summary path.
// Its methods must be called on its loop.
type Dashboard struct {
	opts    DashboardOptions
	logger  core.Logger
	session *poll.Session

	// loop-only
	summary      Summary
	decodedAt    time.Time
	decoded      []byte
	decodeFailed bool
	view         DashboardView
}

func NewDashboard(opts DashboardOptions) *Dashboard {
	d := &Dashboard{opts: opts, logger: opts.Logger}
	if d.logger == nil {
		d.logger = core.NopLogger{}
	}
	d.view = DashboardView{Title: opts.Layout.Title, LoadingText: opts.Layout.LoadingText}
	d.session = poll.NewSession(opts.Loop, opts.Getter, opts.Layout.SummaryPath,
		poll.WithInterval(opts.Poll.Interval),
		poll.WithRefreshingTail(opts.Poll.RefreshingTail),
		poll.WithErrorMessage(opts.Layout.ErrorMessage),
		poll.WithLogger(d.logger),
		poll.WithListener(d.render),
	)
	return d
}

// Mount starts polling.
func (d *Dashboard) Mount(ctx context.Context) { d.session.Start(ctx) }

// Unmount stops polling. No change is reported afterwards.
func (d *Dashboard) Unmount() { d.session.Stop() }

// Refresh fetches the summary now.
func (d *Dashboard) Refresh() { d.session.Refresh() }

func (d *Dashboard) Layout() Layout { return d.opts.Layout }

func (d *Dashboard) View() DashboardView { return d.view }

func (d *Dashboard) render(snap poll.Snapshot) {
	v := DashboardView{
		View:        snap.View(),
		Title:       d.opts.Layout.Title,
		LoadingText: d.opts.Layout.LoadingText,
	}
	// a summary is decoded once per successful fetch
	if v.Data != nil && (!snap.LastSuccessAt.Equal(d.decodedAt) || !bytes.Equal(v.Data, d.decoded)) {
		d.decodedAt, d.decoded = snap.LastSuccessAt, v.Data
		s, err := DecodeSummary(d.opts.Layout.Role, v.Data)
		d.decodeFailed = err != nil
		if err != nil {
			d.logger.Warn("dashboard: undecodable summary", err, map[string]interface{}{"path": snap.ResourcePath})
		} else {
			d.summary = s
		}
	}
	if v.Data != nil && d.decodeFailed && v.InlineError == "" {
		v.InlineError = d.opts.Layout.ErrorMessage
	}
	v.Summary = d.summary
	if !snap.LastSuccessAt.IsZero() {
		v.LastUpdated = humanize.RelTime(snap.LastSuccessAt, d.opts.Loop.Now(), "ago", "from now")
	}
	d.view = v
	if d.opts.OnChange != nil {
		d.opts.OnChange(v)
	}
}
