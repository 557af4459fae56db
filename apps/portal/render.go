package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/trezcool/masomo-portal/core/loop"
	"github.com/trezcool/masomo-portal/portal"
)

const (
	sidebarWidth = 26
	helpLine     = "Tab: next field  Ctrl+R: refresh  Esc: quit"
)

type theme struct {
	base, header, title, muted, active, errText, ok, warn, field, focused tcell.Style
}

var (
	premiumTheme = theme{
		base:    tcell.StyleDefault,
		header:  tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorSlateBlue).Bold(true),
		title:   tcell.StyleDefault.Foreground(tcell.ColorSlateBlue).Bold(true),
		muted:   tcell.StyleDefault.Foreground(tcell.ColorGray),
		active:  tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorMediumPurple),
		errText: tcell.StyleDefault.Foreground(tcell.ColorRed),
		ok:      tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorGreen),
		warn:    tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorSlateBlue).Bold(true),
		field:   tcell.StyleDefault.Underline(true),
		focused: tcell.StyleDefault.Reverse(true),
	}
	darkTheme = theme{
		base:    tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack),
		header:  tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkSlateGray).Bold(true),
		title:   tcell.StyleDefault.Foreground(tcell.ColorLightSkyBlue).Background(tcell.ColorBlack).Bold(true),
		muted:   tcell.StyleDefault.Foreground(tcell.ColorDarkGray).Background(tcell.ColorBlack),
		active:  tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightSkyBlue),
		errText: tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorBlack),
		ok:      tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen),
		warn:    tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightSkyBlue).Bold(true),
		field:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack).Underline(true),
		focused: tcell.StyleDefault.Reverse(true),
	}
)

// renderer draws a page. All its methods run on the loop; tcell screens are safe to draw from any goroutine.
type renderer struct {
	screen tcell.Screen
	loop   loop.Loop
	page   *portal.Page

	dirty bool
	tick  loop.Timer
}

func newRenderer(screen tcell.Screen, l loop.Loop) *renderer {
	return &renderer{screen: screen, loop: l}
}

// invalidate schedules one redraw, however many times it is called before the redraw runs.
func (r *renderer) invalidate() {
	if r.dirty {
		return
	}
	r.dirty = true
	r.loop.Post(r.draw)
}

// start redraws every second, for the countdown and the "last updated" age.
func (r *renderer) start() {
	r.tick = r.loop.AfterFunc(time.Second, func() {
		r.invalidate()
		r.start()
	})
}

func (r *renderer) stop() {
	if r.tick != nil {
		r.tick.Stop()
		r.tick = nil
	}
}

func (r *renderer) draw() {
	r.dirty = false
	if r.page == nil {
		return
	}
	s := r.screen
	doc := r.page.Document()
	th := premiumTheme
	if r.page.Settings().Dark() {
		th = darkTheme
	}
	w, h := s.Size()
	s.SetStyle(th.base)
	s.Clear()

	if doc.Overlay() {
		msg := "Updating..."
		drawText(s, (w-len(msg))/2, h/2, len(msg), msg, th.title)
		s.Show()
		return
	}

	layout := r.page.Dashboard().Layout()
	drawText(s, 0, 0, w, " "+r.page.Settings().SchoolName, th.header)
	drawRight(s, 0, w, layout.Badge+" ", th.header)

	if status := doc.NetworkStatus(); status != "" {
		st := th.ok
		if status == "Offline" {
			st = th.errText.Reverse(true)
		}
		drawText(s, 0, 1, len(status)+2, " "+status+" ", st)
	}
	if deadline, shown := doc.Countdown(); shown {
		left := int(math.Ceil(deadline.Sub(r.loop.Now()).Seconds()))
		if left < 0 {
			left = 0
		}
		drawRight(s, 1, w, fmt.Sprintf(" Refreshing soon... %ds ", left), th.warn)
	}

	r.drawSidebar(s, layout, th, h)
	y := r.drawDashboard(s, th, w)
	r.drawForms(s, doc, th, y+1, w)

	drawText(s, 0, h-1, w, helpLine, th.muted)
	if note := doc.Notification(); note != "" {
		drawRight(s, h-1, w, " "+note+" ", th.warn)
	}
	s.Show()
}

func (r *renderer) drawSidebar(s tcell.Screen, layout portal.Layout, th theme, h int) {
	y := 2
	for _, sec := range layout.Menu {
		if y >= h-1 {
			return
		}
		drawText(s, 1, y, sidebarWidth-2, strings.ToUpper(sec.Title), th.muted)
		y++
		for _, it := range sec.Items {
			if y >= h-1 {
				return
			}
			st := th.base
			if it.Path == layout.PortalPath {
				st = th.active
			}
			drawText(s, 1, y, sidebarWidth-2, "  "+it.Label, st)
			y++
		}
	}
}

// drawDashboard draws the main column and returns the next free row.
func (r *renderer) drawDashboard(s tcell.Screen, th theme, w int) int {
	x, width := sidebarWidth+1, w-sidebarWidth-2
	v := r.page.Dashboard().View()
	y := 2

	title := v.Title
	if v.Summary != nil {
		for _, b := range v.Summary.Badges() {
			title += "  [" + b + "]"
		}
	}
	drawText(s, x, y, width, title, th.title)
	y += 2

	switch {
	case v.Loading:
		drawText(s, x, y, width, v.LoadingText, th.muted)
		return y + 1
	case v.FullPageError != "":
		drawText(s, x, y, width, v.FullPageError, th.errText)
		return y + 1
	}

	status := ""
	if v.LastUpdated != "" {
		status = "Last updated " + v.LastUpdated
	}
	if v.Refreshing {
		status += "  Updating..."
	}
	drawText(s, x, y-1, width, status, th.muted)

	if v.InlineError != "" {
		drawText(s, x, y, width, v.InlineError, th.errText)
		y++
	}
	if v.Summary == nil {
		return y
	}
	drawText(s, x, y, width, v.Summary.Greeting(), th.base.Bold(true))
	y += 2

	for _, p := range v.Summary.Panels() {
		if p.Title != "" {
			drawText(s, x, y, width, p.Title, th.title)
			y++
		}
		var cards []string
		for _, c := range p.Cards {
			cards = append(cards, c.Title+": "+c.Value)
		}
		if len(cards) > 0 {
			drawText(s, x, y, width, strings.Join(cards, "   "), th.base)
			y++
		}
		for _, line := range p.Lines {
			drawText(s, x, y, width, "- "+line, th.base)
			y++
		}
		if len(p.Cards) == 0 && len(p.Lines) == 0 && p.Empty != "" {
			drawText(s, x, y, width, p.Empty, th.muted)
			y++
		}
		y++
	}
	return y
}

func (r *renderer) drawForms(s tcell.Screen, doc *portal.Document, th theme, y, w int) {
	x, width := sidebarWidth+1, w-sidebarWidth-2
	ff, fl, focused := doc.Focused()
	for i, f := range doc.Forms() {
		drawText(s, x, y, width, formTitle(f.ID), th.title)
		y++
		for j, fld := range f.Fields {
			label := fld.Label + ": "
			drawText(s, x, y, len(label), label, th.base)
			val := fld.Value
			if fld.Secret {
				val = strings.Repeat("*", len([]rune(val)))
			}
			st := th.field
			if focused && i == ff && j == fl {
				st = th.focused
			}
			drawText(s, x+len(label), y, width-len(label), val, st)
			y++
		}
		y++
	}
}

// formTitle turns a form ID into a heading: "leave-application" -> "Leave Application".
func formTitle(id string) string {
	words := strings.Split(id, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// drawText writes text at x,y, padded with blanks or cut to width.
func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	runes := []rune(text)
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(runes) {
			ch = runes[i]
		}
		s.SetContent(x+i, y, ch, nil, style)
	}
}

func drawRight(s tcell.Screen, y, w int, text string, style tcell.Style) {
	n := len([]rune(text))
	drawText(s, w-n, y, n, text, style)
}
