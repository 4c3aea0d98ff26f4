package service

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/degree-pathway-api/internal/models"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
)

// Graduation projection defaults.
const (
	DefaultCreditsPerSemester = 12
	DefaultMonthsPerSemester  = 4
	DefaultRecommendCount     = 4
)

// CompletedCourseCodes returns the codes of every completed course.
func CompletedCourseCodes(courses []models.Course) map[string]struct{} {
	completed := make(map[string]struct{})
	for _, c := range courses {
		if c.Status == models.CourseStatusCompleted {
			completed[c.CourseCode] = struct{}{}
		}
	}
	return completed
}

// IsPrerequisiteMet reports whether the course has no prerequisite or its
// prerequisite is in the completed set.
func IsPrerequisiteMet(course models.Course, completed map[string]struct{}) bool {
	prereq := strings.TrimSpace(course.Prerequisite)
	if prereq == "" {
		return true
	}
	_, ok := completed[prereq]
	return ok
}

// FilterBySearch keeps courses whose code or title contains query, ignoring
// case. A blank query returns the input unchanged.
func FilterBySearch(courses []models.Course, query string) []models.Course {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return courses
	}
	return keep(courses, func(c models.Course) bool {
		return strings.Contains(strings.ToLower(c.CourseCode), needle) ||
			strings.Contains(strings.ToLower(c.CourseTitle), needle)
	})
}

// FilterByCategory keeps courses in one of the selected categories.
func FilterByCategory(courses []models.Course, selections []string) []models.Course {
	set := foldSet(selections)
	if len(set) == 0 {
		return courses
	}
	return keep(courses, func(c models.Course) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(c.Category))]
		return ok
	})
}

// FilterByDay keeps courses meeting on at least one selected day.
func FilterByDay(courses []models.Course, selections []string) []models.Course {
	set := foldSet(selections)
	if len(set) == 0 {
		return courses
	}
	return keep(courses, func(c models.Course) bool {
		for _, day := range c.Days() {
			if _, ok := set[strings.ToLower(day)]; ok {
				return true
			}
		}
		return false
	})
}

// FilterByTime keeps courses in one of the selected time slots.
func FilterByTime(courses []models.Course, selections []string) []models.Course {
	set := foldSet(selections)
	if len(set) == 0 {
		return courses
	}
	return keep(courses, func(c models.Course) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(c.Time))]
		return ok
	})
}

// FilterByStatus keeps courses in one of the selected statuses.
func FilterByStatus(courses []models.Course, statuses []models.CourseStatus) []models.Course {
	if len(statuses) == 0 {
		return courses
	}
	set := make(map[models.CourseStatus]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return keep(courses, func(c models.Course) bool {
		_, ok := set[c.Status]
		return ok
	})
}

// ApplyFilter runs every filter in filter against courses.
func ApplyFilter(courses []models.Course, filter models.CourseFilter) []models.Course {
	out := FilterBySearch(courses, filter.Search)
	out = FilterByCategory(out, filter.Categories)
	out = FilterByDay(out, filter.Days)
	out = FilterByTime(out, filter.Times)
	return FilterByStatus(out, filter.Statuses)
}

// RecommendOptions tunes SelectRecommendations.
type RecommendOptions struct {
	MaxCount int
	Seed     int64
	// Strict excludes courses that are not in Remaining units. Without it a
	// completed or in-progress course can be picked again.
	Strict bool
}

// RecommendationCandidates returns the courses eligible for recommendation
// in dataset order.
func RecommendationCandidates(courses []models.Course, strict bool) []models.Course {
	completed := CompletedCourseCodes(courses)
	return keep(courses, func(c models.Course) bool {
		if !c.Recommended || !IsPrerequisiteMet(c, completed) {
			return false
		}
		return !strict || c.Status == models.CourseStatusRemaining
	})
}

// SelectRecommendations draws up to opts.MaxCount candidates uniformly at
// random without replacement. The same seed over the same records always
// yields the same selection.
func SelectRecommendations(courses []models.Course, opts RecommendOptions) []models.Course {
	maxCount := opts.MaxCount
	if maxCount <= 0 {
		maxCount = DefaultRecommendCount
	}
	candidates := RecommendationCandidates(courses, opts.Strict)
	if len(candidates) == 0 {
		return []models.Course{}
	}

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > maxCount {
		candidates = candidates[:maxCount]
	}
	return candidates
}

// CreditTotals sums credits per status. Every status is present in the
// result, zero when no course has it.
func CreditTotals(courses []models.Course) map[models.CourseStatus]float64 {
	totals := make(map[models.CourseStatus]float64, 4)
	for _, status := range models.AllCourseStatuses() {
		totals[status] = 0
	}
	for _, c := range courses {
		totals[c.Status] += c.Credits
	}
	return totals
}

// maxProjectionMonths bounds graduation projections to a thousand years.
const maxProjectionMonths = 12 * 1000

// SemestersRemaining is the ceiling of remaining/creditsPerSemester.
func SemestersRemaining(remainingCredits, creditsPerSemester float64) (int, error) {
	if creditsPerSemester <= 0 || math.IsNaN(creditsPerSemester) {
		return 0, appErrors.Clone(appErrors.ErrInvalidArgument, "credits per semester must be positive")
	}
	if remainingCredits < 0 || math.IsNaN(remainingCredits) {
		return 0, appErrors.Clone(appErrors.ErrInvalidArgument, "remaining credits must not be negative")
	}
	semesters := math.Ceil(remainingCredits / creditsPerSemester)
	if semesters > maxProjectionMonths {
		return 0, appErrors.Clone(appErrors.ErrInvalidArgument, "projection exceeds the planning horizon")
	}
	return int(semesters), nil
}

// EstimateGraduationDate projects the graduation date from today given the
// remaining credits and the expected semester load.
func EstimateGraduationDate(remainingCredits, creditsPerSemester float64, monthsPerSemester int, today time.Time) (time.Time, error) {
	if monthsPerSemester < 0 {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidArgument, "months per semester must not be negative")
	}
	semesters, err := SemestersRemaining(remainingCredits, creditsPerSemester)
	if err != nil {
		return time.Time{}, err
	}
	if monthsPerSemester > 0 && semesters > maxProjectionMonths/monthsPerSemester {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidArgument, "projection exceeds the planning horizon")
	}
	return AddMonths(today, semesters*monthsPerSemester), nil
}

// AddMonths adds n calendar months, clamping the day to the end of the
// target month instead of overflowing into the next one.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	hour, minute, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// Transition sets the course status. Legality of the move is the caller's
// concern.
func Transition(course *models.Course, status models.CourseStatus) {
	course.Status = status
}

// TransitionForAction returns the required source status and the target
// status of a dashboard action.
func TransitionForAction(action models.CourseAction) (from, to models.CourseStatus, ok bool) {
	switch action {
	case models.CourseActionEnroll:
		return models.CourseStatusRemaining, models.CourseStatusInProgress, true
	case models.CourseActionPlan:
		return models.CourseStatusRemaining, models.CourseStatusPlanned, true
	case models.CourseActionUnenroll:
		return models.CourseStatusInProgress, models.CourseStatusRemaining, true
	case models.CourseActionRemove:
		return models.CourseStatusPlanned, models.CourseStatusRemaining, true
	default:
		return "", "", false
	}
}

// DanglingPrerequisites lists prerequisite codes that match no course,
// sorted and de-duplicated.
func DanglingPrerequisites(courses []models.Course) []string {
	known := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		known[c.CourseCode] = struct{}{}
	}
	seen := make(map[string]struct{})
	var dangling []string
	for _, c := range courses {
		prereq := strings.TrimSpace(c.Prerequisite)
		if prereq == "" {
			continue
		}
		if _, ok := known[prereq]; ok {
			continue
		}
		if _, dup := seen[prereq]; dup {
			continue
		}
		seen[prereq] = struct{}{}
		dangling = append(dangling, prereq)
	}
	sort.Strings(dangling)
	return dangling
}

func keep(courses []models.Course, pred func(models.Course) bool) []models.Course {
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

func foldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[strings.ToLower(v)] = struct{}{}
		}
	}
	return set
}
