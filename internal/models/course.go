package models

import (
	"fmt"
	"strings"
)

// CourseStatus is the completion state of a degree requirement.
type CourseStatus string

// Possible course statuses. The values are the labels used in the dataset.
const (
	CourseStatusCompleted  CourseStatus = "Completed units"
	CourseStatusInProgress CourseStatus = "In-progress"
	CourseStatusPlanned    CourseStatus = "Planned"
	CourseStatusRemaining  CourseStatus = "Remaining units"
)

// AllCourseStatuses lists every status in display order.
func AllCourseStatuses() []CourseStatus {
	return []CourseStatus{CourseStatusCompleted, CourseStatusInProgress, CourseStatusPlanned, CourseStatusRemaining}
}

// ParseCourseStatus resolves a status label case-insensitively, ignoring
// surrounding whitespace.
func ParseCourseStatus(raw string) (CourseStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, status := range AllCourseStatuses() {
		if strings.ToLower(string(status)) == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown course status %q", raw)
}

// Valid reports whether s is one of the enumerated statuses.
func (s CourseStatus) Valid() bool {
	for _, status := range AllCourseStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler. Only enumerated statuses
// are written so every encoded value can be read back.
func (s CourseStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown course status %q", string(s))
	}
	return []byte(s), nil
}

// UnmarshalText accepts any casing of a known status.
func (s *CourseStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseCourseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Course is one degree requirement row.
type Course struct {
	CourseCode   string       `db:"course_code" json:"course_code"`
	CourseTitle  string       `db:"course_title" json:"course_title"`
	Credits      float64      `db:"credits" json:"credits"`
	Category     string       `db:"category" json:"category"`
	Day          string       `db:"day" json:"day"`
	Time         string       `db:"time" json:"time"`
	Prerequisite string       `db:"prerequisite" json:"prerequisite,omitempty"`
	Recommended  bool         `db:"recommended" json:"recommended"`
	Status       CourseStatus `db:"status" json:"status"`
	Position     int          `db:"position" json:"-"`

	// Extra holds dataset columns this service does not model so they
	// survive a load/save cycle.
	Extra map[string]string `db:"-" json:"-"`
}

// Normalize trims every text field and collapses inner whitespace in the
// category.
func (c *Course) Normalize() {
	c.CourseCode = strings.TrimSpace(c.CourseCode)
	c.CourseTitle = strings.TrimSpace(c.CourseTitle)
	c.Category = strings.Join(strings.Fields(c.Category), " ")
	c.Day = strings.TrimSpace(c.Day)
	c.Time = strings.TrimSpace(c.Time)
	c.Prerequisite = strings.TrimSpace(c.Prerequisite)
}

// CodeKey is the identity of a course code. Codes that differ only in case
// or surrounding whitespace name the same course.
func CodeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Days splits the comma-joined day field into trimmed weekday names.
func (c Course) Days() []string {
	parts := strings.Split(c.Day, ",")
	days := make([]string, 0, len(parts))
	for _, part := range parts {
		if day := strings.TrimSpace(part); day != "" {
			days = append(days, day)
		}
	}
	return days
}

// CourseFilter captures the list filters a dashboard applies. Empty fields
// do not filter.
type CourseFilter struct {
	Search     string
	Categories []string
	Days       []string
	Times      []string
	Statuses   []CourseStatus
}

// CourseAction names a dashboard transition with a fixed source status.
type CourseAction string

// Supported dashboard actions.
const (
	CourseActionEnroll   CourseAction = "enroll"
	CourseActionPlan     CourseAction = "plan"
	CourseActionUnenroll CourseAction = "unenroll"
	CourseActionRemove   CourseAction = "remove"
)
