package portal

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core/user"
)

func cards(p Panel) map[string]string {
	m := make(map[string]string, len(p.Cards))
	for _, c := range p.Cards {
		m[c.Title] = c.Value
	}
	return m
}

func TestDecodeSummary_Admin(t *testing.T) {
	data := json.RawMessage(`{
		"total_students": 1250, "total_teachers": 64, "total_classes": 30, "total_subjects": 18,
		"total_male_students": 640, "total_female_students": 610,
		"total_payments": 1234567.4, "today_payments": 15000, "pending_fees": 42,
		"recent_parent_messages": [{"subject": "Fees", "content": "Paid in cash", "time_ago": 2}],
		"user": {"name": "Amani", "role": "admin", "email": "amani@masomo.test"}
	}`)
	s, err := DecodeSummary(user.RoleAdmin, data)
	require.NoError(t, err)

	assert.Equal(t, "Welcome back, Amani!", s.Greeting())
	assert.Empty(t, s.Badges())

	panels := s.Panels()
	require.Len(t, panels, 4)
	assert.Equal(t, map[string]string{
		"Total Students": "1,250",
		"Total Teachers": "64",
		"Total Classes":  "30",
		"Total Subjects": "18",
	}, cards(panels[0]))
	assert.Equal(t, map[string]string{
		"Total Revenue":  "₹1,234,567",
		"Today Payments": "₹15,000",
		"Pending Fees":   "42",
	}, cards(panels[1]))
	assert.Equal(t, []string{"Fees: Paid in cash (2 days ago)"}, panels[2].Lines)
	assert.Equal(t, "640", cards(panels[3])["Male Students"])
}

func TestDecodeSummary_Teacher(t *testing.T) {
	s, err := DecodeSummary(user.RoleTeacher, json.RawMessage(
		`{"my_classes": 4, "my_students": 120, "assignments": 7, "attendance_rate": 92.5,
		  "is_class_incharge": true, "class_teacher_of": "Form 2B", "user": {"name": "Baraka"}}`))
	require.NoError(t, err)

	assert.Equal(t, "Welcome, Baraka!", s.Greeting())
	assert.Equal(t, []string{"Class Incharge", "Class Teacher: Form 2B"}, s.Badges())
	assert.Equal(t, "92.5%", cards(s.Panels()[0])["Attendance Rate"])

	s, err = DecodeSummary(user.RoleTeacher, json.RawMessage(`{"attendance_rate": 90, "class_teacher_of": null}`))
	require.NoError(t, err)
	assert.Empty(t, s.Badges())
	assert.Equal(t, "90%", cards(s.Panels()[0])["Attendance Rate"])
}

func TestDecodeSummary_Parent(t *testing.T) {
	s, err := DecodeSummary(user.RoleParent, json.RawMessage(
		`{"students_count": 2, "attendance_rate": 97, "user": {"name": "Chausiku"},
		  "children": [{"name": "Dalila", "class": "4A", "roll_no": "12"}]}`))
	require.NoError(t, err)

	panels := s.Panels()
	assert.Equal(t, "2", cards(panels[0])["My Students"])
	assert.Equal(t, []string{"Dalila, class 4A, roll no 12"}, panels[1].Lines)

	s, err = DecodeSummary(user.RoleParent, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, s.Panels()[1].Lines)
	assert.Equal(t, "No children linked to this account", s.Panels()[1].Empty)
}

func TestDecodeSummary_Invalid(t *testing.T) {
	_, err := DecodeSummary(user.RoleAdmin, json.RawMessage(`{"total_students": "many"}`))
	assert.True(t, errors.Is(err, client.ErrMalformed))

	_, err = DecodeSummary("student", json.RawMessage(`{}`))
	assert.Equal(t, user.ErrInvalidRole, err)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "₹0", Money(0))
	assert.Equal(t, "₹1,000", Money(999.5))
	assert.Equal(t, "₹12,345,678", Money(12345678))
}
