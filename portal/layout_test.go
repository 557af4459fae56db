package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core/user"
)

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		role        user.Role
		title       string
		summaryPath string
		errMessage  string
		portalPath  string
	}{
		{user.RoleAdmin, "Admin Dashboard", "/api/dashboard/", "Failed to load dashboard data", "/admin"},
		{user.RoleTeacher, "Teacher Portal", "/api/teachers/portal", "Failed to load teacher portal data", "/teachers"},
		{user.RoleParent, "Parent Portal", "/api/parents/", "Failed to load parent data", "/parents"},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			l, err := LayoutFor(tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.role, l.Role)
			assert.Equal(t, tt.title, l.Title)
			assert.Equal(t, tt.summaryPath, l.SummaryPath)
			assert.Equal(t, tt.errMessage, l.ErrorMessage)
			assert.Equal(t, tt.portalPath, l.PortalPath)
			assert.NotEmpty(t, l.Menu)

			home, ok := l.ActiveItem(tt.portalPath)
			assert.True(t, ok)
			assert.Equal(t, "Home", home.Label)
		})
	}

	_, err := LayoutFor("student")
	assert.Equal(t, user.ErrInvalidRole, err)
}

func TestLayout_AdminMenu(t *testing.T) {
	l, err := LayoutFor(user.RoleAdmin)
	require.NoError(t, err)

	var titles []string
	for _, sec := range l.Menu {
		titles = append(titles, sec.Title)
	}
	assert.Equal(t, []string{"Dashboard", "Student Management", "Academic Management", "Finance", "System"}, titles)
	assert.Equal(t, "Admin Portal", l.Badge)

	it, ok := l.ActiveItem("/activity-log")
	assert.True(t, ok)
	assert.Equal(t, "Activity Log", it.Label)

	_, ok = l.ActiveItem("/nowhere")
	assert.False(t, ok)
}

func TestParseLayouts(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "invalid yaml", yaml: "admin: [", wantErr: "parsing layouts"},
		{name: "unknown role", yaml: "student: {summary: /s, portal: /s}", wantErr: `layout "student": invalid role`},
		{name: "missing paths", yaml: "admin: {title: Admin}", wantErr: `layout "admin": summary and portal paths are required`},
		{name: "missing role", yaml: "admin: {summary: /a, portal: /a}", wantErr: `no layout for role "teacher"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLayouts([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
