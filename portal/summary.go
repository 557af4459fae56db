package portal

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core/user"
)

const currency = "₹"

// StatCard is one number on a dashboard.
type StatCard struct {
	Title string
	Value string
	Icon  string
	Color string
}

// Panel is a titled block of a dashboard: stat cards, list lines, or Empty when there is nothing to list.
type Panel struct {
	Title string
	Cards []StatCard
	Lines []string
	Empty string
}

// Summary is a role's dashboard data, decoded from the summary endpoint.
type Summary interface {
	Greeting() string
	// Badges are short labels shown next to the title.
	Badges() []string
	Panels() []Panel
}

type SummaryUser struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

type ParentMessage struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
	TimeAgo int    `json:"time_ago"` // days
}

type AdminSummary struct {
	TotalStudents        int64           `json:"total_students"`
	TotalTeachers        int64           `json:"total_teachers"`
	TotalClasses         int64           `json:"total_classes"`
	TotalFemaleStudents  int64           `json:"total_female_students"`
	TotalMaleStudents    int64           `json:"total_male_students"`
	TotalSubjects        int64           `json:"total_subjects"`
	TotalPayments        float64         `json:"total_payments"`
	PendingFees          int64           `json:"pending_fees"`
	TodayPayments        float64         `json:"today_payments"`
	RecentParentMessages []ParentMessage `json:"recent_parent_messages"`
	User                 SummaryUser     `json:"user"`
}

func (s AdminSummary) Greeting() string { return "Welcome back, " + s.User.Name + "!" }

func (s AdminSummary) Badges() []string { return nil }

func (s AdminSummary) Panels() []Panel {
	msgs := make([]string, 0, len(s.RecentParentMessages))
	for _, m := range s.RecentParentMessages {
		msgs = append(msgs, fmt.Sprintf("%s: %s (%d days ago)", m.Subject, m.Content, m.TimeAgo))
	}
	return []Panel{
		{
			Cards: []StatCard{
				{Title: "Total Students", Value: humanize.Comma(s.TotalStudents), Icon: "user-graduate", Color: "primary"},
				{Title: "Total Teachers", Value: humanize.Comma(s.TotalTeachers), Icon: "chalkboard-teacher", Color: "success"},
				{Title: "Total Classes", Value: humanize.Comma(s.TotalClasses), Icon: "school", Color: "info"},
				{Title: "Total Subjects", Value: humanize.Comma(s.TotalSubjects), Icon: "book", Color: "warning"},
			},
		},
		{
			Title: "Financial Overview",
			Cards: []StatCard{
				{Title: "Total Revenue", Value: Money(s.TotalPayments), Icon: "chart-line", Color: "success"},
				{Title: "Today Payments", Value: Money(s.TodayPayments), Icon: "credit-card", Color: "primary"},
				{Title: "Pending Fees", Value: humanize.Comma(s.PendingFees), Icon: "exclamation-circle", Color: "danger"},
			},
		},
		{Title: "Recent Parent Messages", Lines: msgs, Empty: "No recent messages"},
		{
			Title: "Gender Distribution",
			Cards: []StatCard{
				{Title: "Male Students", Value: humanize.Comma(s.TotalMaleStudents), Icon: "male", Color: "primary"},
				{Title: "Female Students", Value: humanize.Comma(s.TotalFemaleStudents), Icon: "female", Color: "danger"},
			},
		},
	}
}

type TeacherSummary struct {
	MyClasses       int64       `json:"my_classes"`
	MyStudents      int64       `json:"my_students"`
	Assignments     int64       `json:"assignments"`
	AttendanceRate  float64     `json:"attendance_rate"`
	IsClassIncharge bool        `json:"is_class_incharge"`
	ClassTeacherOf  *string     `json:"class_teacher_of"`
	User            SummaryUser `json:"user"`
}

func (s TeacherSummary) Greeting() string { return "Welcome, " + s.User.Name + "!" }

func (s TeacherSummary) Badges() []string {
	var b []string
	if s.IsClassIncharge {
		b = append(b, "Class Incharge")
	}
	if s.ClassTeacherOf != nil && *s.ClassTeacherOf != "" {
		b = append(b, "Class Teacher: "+*s.ClassTeacherOf)
	}
	return b
}

func (s TeacherSummary) Panels() []Panel {
	return []Panel{
		{
			Cards: []StatCard{
				{Title: "My Classes", Value: humanize.Comma(s.MyClasses), Icon: "chalkboard", Color: "primary"},
				{Title: "My Students", Value: humanize.Comma(s.MyStudents), Icon: "user-graduate", Color: "success"},
				{Title: "Assignments", Value: humanize.Comma(s.Assignments), Icon: "tasks", Color: "info"},
				{Title: "Attendance Rate", Value: Percent(s.AttendanceRate), Icon: "calendar-check", Color: "warning"},
			},
		},
		{Title: "Today's Schedule", Empty: "No classes scheduled for today"},
	}
}

type Child struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	RollNo string `json:"roll_no"`
}

type ParentSummary struct {
	StudentsCount  int64       `json:"students_count"`
	AttendanceRate float64     `json:"attendance_rate"`
	Children       []Child     `json:"children"`
	User           SummaryUser `json:"user"`
}

func (s ParentSummary) Greeting() string { return "Welcome, " + s.User.Name + "!" }

func (s ParentSummary) Badges() []string { return nil }

func (s ParentSummary) Panels() []Panel {
	children := make([]string, 0, len(s.Children))
	for _, c := range s.Children {
		children = append(children, fmt.Sprintf("%s, class %s, roll no %s", c.Name, c.Class, c.RollNo))
	}
	return []Panel{
		{
			Cards: []StatCard{
				{Title: "My Students", Value: humanize.Comma(s.StudentsCount), Icon: "user-graduate", Color: "primary"},
				{Title: "Attendance Rate", Value: Percent(s.AttendanceRate), Icon: "calendar-check", Color: "success"},
			},
		},
		{Title: "My Children", Lines: children, Empty: "No children linked to this account"},
	}
}

// DecodeSummary decodes data into the summary type of role.
// Invalid data gives an error wrapping client.ErrMalformed.
func DecodeSummary(role user.Role, data json.RawMessage) (Summary, error) {
	var s Summary
	var err error
	switch role {
	case user.RoleAdmin:
		var a AdminSummary
		err = json.Unmarshal(data, &a)
		s = a
	case user.RoleTeacher:
		var t TeacherSummary
		err = json.Unmarshal(data, &t)
		s = t
	case user.RoleParent:
		var p ParentSummary
		err = json.Unmarshal(data, &p)
		s = p
	default:
		return nil, user.ErrInvalidRole
	}
	if err != nil {
		return nil, errors.Wrap(client.ErrMalformed, err.Error())
	}
	return s, nil
}

// Money formats an amount in whole rupees with thousands separators.
func Money(v float64) string {
	return currency + humanize.Comma(int64(math.Round(v)))
}

// Percent formats a rate, dropping a zero fraction: 92 -> "92%", 92.5 -> "92.5%".
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
