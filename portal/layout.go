// Package portal builds the role-specific pages of the portal: layout, dashboards, login and the page document
// the auto-refresh manager drives.
package portal

import (
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/masomo-portal/core/user"
)

const LoginPath = "/login"

type (
	MenuItem struct {
		Label string `yaml:"label"`
		Path  string `yaml:"path"`
		Icon  string `yaml:"icon"`
	}

	MenuSection struct {
		Title string     `yaml:"title"`
		Items []MenuItem `yaml:"items"`
	}

	// Layout is everything a page needs to know about the logged-in role. It is resolved once per page.
	Layout struct {
		Role        user.Role `yaml:"-"`
		Title       string    `yaml:"title"`
		Badge       string    `yaml:"badge"`
		LoadingText string    `yaml:"loading"`
		// SummaryPath is the endpoint polled by the role's dashboard.
		SummaryPath string `yaml:"summary"`
		// ErrorMessage is shown when the summary endpoint fails without a message.
		ErrorMessage string `yaml:"error"`
		// PortalPath is where the role lands after logging in.
		PortalPath string        `yaml:"portal"`
		Menu       []MenuSection `yaml:"menu"`
	}
)

//go:embed layouts.yaml
var layoutsYAML []byte

var layouts = mustParseLayouts(layoutsYAML)

func parseLayouts(data []byte) (map[user.Role]Layout, error) {
	var raw map[string]Layout
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing layouts")
	}
	out := make(map[user.Role]Layout, len(raw))
	for name, l := range raw {
		role, err := user.ParseRole(name)
		if err != nil {
			return nil, errors.Wrapf(err, "layout %q", name)
		}
		if l.SummaryPath == "" || l.PortalPath == "" {
			return nil, errors.Errorf("layout %q: summary and portal paths are required", name)
		}
		l.Role = role
		out[role] = l
	}
	for _, role := range user.AllRoles {
		if _, ok := out[role]; !ok {
			return nil, errors.Errorf("no layout for role %q", role)
		}
	}
	return out, nil
}

func mustParseLayouts(data []byte) map[user.Role]Layout {
	l, err := parseLayouts(data)
	if err != nil {
		panic(err)
	}
	return l
}

// LayoutFor returns the layout of role, or user.ErrInvalidRole.
func LayoutFor(role user.Role) (Layout, error) {
	l, ok := layouts[role]
	if !ok {
		return Layout{}, user.ErrInvalidRole
	}
	return l, nil
}

// ActiveItem returns the menu item matching path, if any.
func (l Layout) ActiveItem(path string) (MenuItem, bool) {
	for _, sec := range l.Menu {
		for _, it := range sec.Items {
			if it.Path == path {
				return it, true
			}
		}
	}
	return MenuItem{}, false
}
