package main

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-portal/core/loop"
	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/portal"
)

var newScreenFunc = tcell.NewScreen // mockable

// formsFor returns the forms shown under the dashboard of role.
func formsFor(role user.Role) []portal.Form {
	switch role {
	case user.RoleAdmin:
		return []portal.Form{{ID: "announcement", Fields: []portal.Field{
			{Name: "subject", Label: "Subject"},
			{Name: "content", Label: "Message"},
		}}}
	case user.RoleTeacher:
		return []portal.Form{{ID: "attendance-note", Fields: []portal.Field{
			{Name: "class", Label: "Class"},
			{Name: "note", Label: "Note"},
		}}}
	case user.RoleParent:
		return []portal.Form{{ID: "leave-application", Fields: []portal.Field{
			{Name: "student", Label: "Student"},
			{Name: "reason", Label: "Reason"},
		}}}
	}
	return nil
}

func (cli *commandLine) resolveWatchRole(flagRole string) (user.Role, error) {
	if flagRole != "" {
		return user.ResolveRole(flagRole)
	}
	role, err := portal.CurrentRole(cli.store)
	if errors.Is(err, portal.ErrNotLoggedIn) {
		return "", errors.New("not logged in: run `portal login` or pass -role")
	}
	return role, err
}

func (cli *commandLine) watch(ctx context.Context, flagRole string) error {
	role, err := cli.resolveWatchRole(flagRole)
	if err != nil {
		return err
	}
	layout, err := portal.LayoutFor(role)
	if err != nil {
		return err
	}

	screen, err := newScreenFunc()
	if err != nil {
		return errors.Wrap(err, "opening terminal")
	}
	if err = screen.Init(); err != nil {
		return errors.Wrap(err, "initializing terminal")
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnableFocus()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	l := loop.New()
	term := &terminal{}
	r := newRenderer(screen, l)
	page := portal.NewPage(portal.PageOptions{
		Loop:       l,
		Getter:     cli.api,
		Store:      cli.store,
		Layout:     layout,
		Poll:       cli.conf.Poll,
		Refresh:    cli.conf.Refresh,
		Logger:     cli.logger,
		Activity:   term,
		Visibility: term,
		Network:    term,
		Forms:      formsFor(role),
		OnChange:   r.invalidate,
	})
	r.page = page

	g.Go(func() error { return l.Run(gctx) })

	var loadErr error
	l.Do(func() {
		if loadErr = page.Load(gctx); loadErr == nil {
			r.start()
			r.invalidate()
		}
	})
	if loadErr != nil {
		cancel()
		_ = g.Wait()
		return loadErr
	}

	// the backend is the source of truth for the settings; the cached ones render until it answers
	l.Go(func() {
		if _, err := settings.Sync(gctx, cli.api, cli.store); err != nil {
			cli.logger.Warn("watch: settings not synced", err)
			return
		}
		l.Post(func() {
			if err := page.ReadSettings(); err != nil {
				cli.logger.Warn("watch: reading settings", err)
			}
		})
	})

	prb := newProbe(cli.api, settings.Path, cli.logger, term.setOnline)
	g.Go(func() error { return prb.run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		// wakes up the event pump
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
		return nil
	})
	g.Go(func() error {
		pumpEvents(gctx, screen, term, l, page, r)
		l.Do(func() {
			r.stop()
			page.Unload()
		})
		cancel()
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pumpEvents reads terminal events until ctx is done or the user quits.
func pumpEvents(ctx context.Context, screen tcell.Screen, term *terminal, l *loop.EventLoop, page *portal.Page, r *renderer) {
	for {
		ev := screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
			l.Post(r.invalidate)
			continue
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return
			}
			l.Post(func() { edit(page.Document(), ev) })
		}
		term.dispatch(ev)
	}
}

// edit applies a key to the focused form field.
func edit(doc *portal.Document, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyTab:
		doc.FocusNext()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		doc.Backspace()
	case tcell.KeyRune:
		doc.Type(ev.Rune())
	}
}
