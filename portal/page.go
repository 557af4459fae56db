package portal

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/loop"
	"github.com/trezcool/masomo-portal/core/refresh"
	"github.com/trezcool/masomo-portal/core/settings"
)

type PageOptions struct {
	Loop   loop.Loop
	Getter client.Getter
	Store  core.KeyValueStore
	Layout Layout
	Poll   core.PollConfig
	// Refresh configures the auto-refresh manager; none is created unless Refresh.Enabled.
	Refresh core.RefreshConfig
	Logger  core.Logger

	Activity   refresh.ActivitySource
	Visibility refresh.VisibilitySource
	Network    refresh.NetworkSource

	// Forms are added to the document on every load.
	Forms []Form
	// OnChange is called on the loop after any visible change.
	OnChange func()
}

// Page is a dashboard page that can be reloaded in place: each load gets a fresh document, dashboard and
// refresh manager. Its methods must be called on its loop.
type Page struct {
	opts   PageOptions
	logger core.Logger

	ctx      context.Context
	doc      *Document
	dash     *Dashboard
	mgr      *refresh.Manager
	settings settings.Cached
	loads    int
	restored int
}

func NewPage(opts PageOptions) *Page {
	p := &Page{opts: opts, logger: opts.Logger}
	if p.logger == nil {
		p.logger = core.NopLogger{}
	}
	p.doc = NewDocument(opts.Loop, p.reload, p.changed)
	return p
}

// Load builds the page: forms, restored form values, dashboard polling and the auto-refresh manager.
func (p *Page) Load(ctx context.Context) error {
	p.ctx = ctx
	p.loads++

	if err := p.readSettings(); err != nil {
		return err
	}

	for _, f := range p.opts.Forms {
		p.doc.AddForm(f.ID, f.Fields...)
	}

	p.dash = NewDashboard(DashboardOptions{
		Loop:     p.opts.Loop,
		Getter:   p.opts.Getter,
		Layout:   p.opts.Layout,
		Poll:     p.opts.Poll,
		Logger:   p.logger,
		OnChange: func(DashboardView) { p.changed() },
	})

	if p.opts.Refresh.Enabled {
		var err error
		p.mgr, err = refresh.NewManager(&refresh.Options{
			Loop:        p.opts.Loop,
			Page:        p.doc,
			Forms:       p.doc,
			Store:       p.opts.Store,
			Activity:    p.opts.Activity,
			Visibility:  p.opts.Visibility,
			Network:     p.opts.Network,
			Logger:      p.logger,
			Interval:    p.opts.Refresh.Interval,
			WarningLead: p.opts.Refresh.WarningLead,
			CheckEvery:  p.opts.Refresh.CheckEvery,
			ReloadDelay: p.opts.Refresh.ReloadDelay,
			OnStateChange: func(from, to refresh.State) {
				p.changed()
			},
		})
		if err != nil {
			return errors.Wrap(err, "creating refresh manager")
		}
		if p.restored, err = p.mgr.RestoreForms(); err != nil {
			p.logger.Warn("page: restoring forms", err)
		}
		p.mgr.Start()
	}

	p.dash.Mount(ctx)
	p.logger.Info("page: loaded", map[string]interface{}{"path": p.opts.Layout.PortalPath, "load": p.loads, "restored": p.restored})
	return nil
}

// Unload stops polling and the refresh manager.
func (p *Page) Unload() {
	if p.dash != nil {
		p.dash.Unmount()
	}
	if p.mgr != nil {
		p.mgr.Close()
	}
}

// ForceRefresh reloads the page now, saving the forms first. Without a refresh manager it reloads directly.
func (p *Page) ForceRefresh() {
	if p.mgr != nil {
		p.mgr.ForceRefresh()
		return
	}
	p.doc.Reload()
}

func (p *Page) Document() *Document { return p.doc }

func (p *Page) Dashboard() *Dashboard { return p.dash }

// Manager returns the refresh manager, or nil when auto-refresh is disabled.
func (p *Page) Manager() *refresh.Manager { return p.mgr }

func (p *Page) Settings() settings.Cached { return p.settings }

// ReadSettings rereads the cached settings, after they were synced with the backend.
func (p *Page) ReadSettings() error {
	if err := p.readSettings(); err != nil {
		return err
	}
	p.changed()
	return nil
}

func (p *Page) readSettings() error {
	cached, err := settings.ReadCached(p.opts.Store)
	if err != nil {
		return err
	}
	p.settings = cached
	return nil
}

func (p *Page) Loads() int { return p.loads }

// Restored returns the number of form fields restored by the last load.
func (p *Page) Restored() int { return p.restored }

func (p *Page) reload() {
	p.Unload()
	p.doc.Reset()
	if err := p.Load(p.ctx); err != nil {
		p.logger.Error("page: reload failed", err)
	}
}

func (p *Page) changed() {
	if p.opts.OnChange != nil {
		p.opts.OnChange()
	}
}
