package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/degree-pathway-api/internal/models"
)

// CourseDiff describes one course that differs between two stores.
type CourseDiff struct {
	CourseCode string   `json:"course_code"`
	Fields     []string `json:"fields,omitempty"`
	// OnlyIn names the side holding the course when the other lacks it.
	OnlyIn string `json:"only_in,omitempty"`
}

// CopyCourses loads every course from src and saves them to dst, keeping
// dataset order.
func CopyCourses(ctx context.Context, src, dst CourseStore) (int, error) {
	courses, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load source: %w", err)
	}
	for i := range courses {
		courses[i].Position = i
	}
	if err := dst.Save(ctx, courses); err != nil {
		return 0, fmt.Errorf("save destination: %w", err)
	}
	return len(courses), nil
}

// CompareCourses reports every course whose modelled fields differ between
// baseline and candidate, sorted by code. Extra CSV columns are ignored.
func CompareCourses(baseline, candidate []models.Course) []CourseDiff {
	left := indexByCode(baseline)
	right := indexByCode(candidate)

	var diffs []CourseDiff
	for code, a := range left {
		b, ok := right[code]
		if !ok {
			diffs = append(diffs, CourseDiff{CourseCode: code, OnlyIn: "baseline"})
			continue
		}
		if fields := differingFields(a, b); len(fields) > 0 {
			diffs = append(diffs, CourseDiff{CourseCode: code, Fields: fields})
		}
	}
	for code := range right {
		if _, ok := left[code]; !ok {
			diffs = append(diffs, CourseDiff{CourseCode: code, OnlyIn: "candidate"})
		}
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].CourseCode < diffs[j].CourseCode })
	return diffs
}

func indexByCode(courses []models.Course) map[string]models.Course {
	out := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		out[c.CourseCode] = c
	}
	return out
}

func differingFields(a, b models.Course) []string {
	var fields []string
	check := func(name string, equal bool) {
		if !equal {
			fields = append(fields, name)
		}
	}
	check("course_title", a.CourseTitle == b.CourseTitle)
	check("credits", a.Credits == b.Credits)
	check("category", a.Category == b.Category)
	check("day", a.Day == b.Day)
	check("time", a.Time == b.Time)
	check("prerequisite", a.Prerequisite == b.Prerequisite)
	check("recommended", a.Recommended == b.Recommended)
	check("status", a.Status == b.Status)
	return fields
}
