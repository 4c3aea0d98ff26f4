package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/degree-pathway-api/internal/models"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
)

func sampleCourses() []models.Course {
	return []models.Course{
		{CourseCode: "ENC1101", CourseTitle: "Writing and Rhetoric I", Credits: 3, Category: "Core", Day: "Monday, Wednesday", Time: "9:00-10:15", Recommended: true, Status: models.CourseStatusCompleted},
		{CourseCode: "MAC2311", CourseTitle: "Calculus I", Credits: 4, Category: "Math", Day: "Tuesday, Thursday", Time: "11:00-12:15", Recommended: true, Status: models.CourseStatusRemaining},
		{CourseCode: "MAC2312", CourseTitle: "Calculus II", Credits: 4, Category: "Math", Day: "Tuesday, Thursday", Time: "14:00-15:15", Prerequisite: "MAC2311", Recommended: true, Status: models.CourseStatusRemaining},
		{CourseCode: "ENC1102", CourseTitle: "Writing and Rhetoric II", Credits: 3, Category: "Core", Day: "Online", Time: "TBA", Prerequisite: " ENC1101 ", Recommended: true, Status: models.CourseStatusRemaining},
		{CourseCode: "COP2210", CourseTitle: "Programming I", Credits: 4, Category: "Major", Day: "Friday", Time: "9:00-10:15", Recommended: false, Status: models.CourseStatusRemaining},
		{CourseCode: "PHY2048", CourseTitle: "Physics I", Credits: 4, Category: "", Day: "Monday", Time: "TBA", Recommended: true, Status: models.CourseStatusInProgress},
		{CourseCode: "STA3033", CourseTitle: "Probability", Credits: 3, Category: "Math", Day: "Online", Time: "TBA", Recommended: true, Status: models.CourseStatusPlanned},
	}
}

func codes(courses []models.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.CourseCode)
	}
	return out
}

func TestCompletedCourseCodes(t *testing.T) {
	completed := CompletedCourseCodes(sampleCourses())
	assert.Equal(t, map[string]struct{}{"ENC1101": {}}, completed)
}

func TestIsPrerequisiteMet(t *testing.T) {
	noPrereq := models.Course{CourseCode: "MAC2311", Recommended: true, Status: models.CourseStatusRemaining}
	assert.True(t, IsPrerequisiteMet(noPrereq, map[string]struct{}{}))
	assert.True(t, IsPrerequisiteMet(noPrereq, nil))
	assert.True(t, IsPrerequisiteMet(models.Course{Prerequisite: "   "}, nil))

	calc2 := models.Course{CourseCode: "MAC2312", Prerequisite: "MAC2311", Recommended: true, Status: models.CourseStatusRemaining}
	assert.False(t, IsPrerequisiteMet(calc2, map[string]struct{}{}))
	assert.True(t, IsPrerequisiteMet(calc2, map[string]struct{}{"MAC2311": {}}))

	padded := models.Course{Prerequisite: " MAC2311\t"}
	assert.True(t, IsPrerequisiteMet(padded, map[string]struct{}{"MAC2311": {}}))
}

func TestRecommendationEligibilityScenario(t *testing.T) {
	calc1 := models.Course{CourseCode: "MAC2311", Recommended: true, Status: models.CourseStatusRemaining}
	calc2 := models.Course{CourseCode: "MAC2312", Prerequisite: "MAC2311", Recommended: true, Status: models.CourseStatusRemaining}

	got := RecommendationCandidates([]models.Course{calc1, calc2}, true)
	assert.Equal(t, []string{"MAC2311"}, codes(got))

	calc1.Status = models.CourseStatusCompleted
	got = RecommendationCandidates([]models.Course{calc1, calc2}, true)
	assert.Equal(t, []string{"MAC2312"}, codes(got))
}

func TestFilterBySearch(t *testing.T) {
	courses := sampleCourses()

	assert.Equal(t, courses, FilterBySearch(courses, ""))
	assert.Equal(t, courses, FilterBySearch(courses, "   "))
	assert.Equal(t, []string{"MAC2311", "MAC2312"}, codes(FilterBySearch(courses, "calculus")))
	assert.Equal(t, []string{"MAC2311", "MAC2312"}, codes(FilterBySearch(courses, "mac23")))
	assert.Empty(t, FilterBySearch(courses, "chemistry"))
}

func TestFilterBySelections(t *testing.T) {
	courses := sampleCourses()

	assert.Equal(t, courses, FilterByCategory(courses, nil))
	assert.Equal(t, courses, FilterByDay(courses, []string{}))
	assert.Equal(t, courses, FilterByTime(courses, nil))
	assert.Equal(t, courses, FilterByStatus(courses, nil))

	assert.Equal(t, []string{"MAC2311", "MAC2312", "STA3033"}, codes(FilterByCategory(courses, []string{"math"})))
	assert.Equal(t, []string{"ENC1101", "PHY2048"}, codes(FilterByDay(courses, []string{"Monday"})))
	assert.Equal(t, []string{"ENC1102", "STA3033"}, codes(FilterByDay(courses, []string{"online"})))
	assert.Equal(t, []string{"ENC1102", "PHY2048", "STA3033"}, codes(FilterByTime(courses, []string{"TBA"})))
	assert.Equal(t, []string{"PHY2048", "STA3033"}, codes(FilterByStatus(courses, []models.CourseStatus{models.CourseStatusInProgress, models.CourseStatusPlanned})))
}

func TestApplyFilterCombines(t *testing.T) {
	got := ApplyFilter(sampleCourses(), models.CourseFilter{
		Search:     "calc",
		Categories: []string{"Math"},
		Days:       []string{"Thursday"},
		Times:      []string{"14:00-15:15"},
		Statuses:   []models.CourseStatus{models.CourseStatusRemaining},
	})
	assert.Equal(t, []string{"MAC2312"}, codes(got))
}

func TestRecommendationCandidatesStrictness(t *testing.T) {
	courses := sampleCourses()

	strict := RecommendationCandidates(courses, true)
	assert.Equal(t, []string{"MAC2311", "ENC1102"}, codes(strict))

	literal := RecommendationCandidates(courses, false)
	assert.Equal(t, []string{"ENC1101", "MAC2311", "ENC1102", "PHY2048", "STA3033"}, codes(literal))
}

func TestSelectRecommendationsBoundedAndEligible(t *testing.T) {
	courses := sampleCourses()
	completed := CompletedCourseCodes(courses)

	for seed := int64(0); seed < 50; seed++ {
		for _, limit := range []int{1, 2, 3, 4} {
			got := SelectRecommendations(courses, RecommendOptions{MaxCount: limit, Seed: seed, Strict: false})
			assert.LessOrEqual(t, len(got), limit)
			seen := map[string]bool{}
			for _, c := range got {
				assert.True(t, c.Recommended)
				assert.True(t, IsPrerequisiteMet(c, completed))
				assert.False(t, seen[c.CourseCode], "sampled twice: %s", c.CourseCode)
				seen[c.CourseCode] = true
			}
		}
	}
}

func TestSelectRecommendationsDeterministicPerSeed(t *testing.T) {
	courses := sampleCourses()
	opts := RecommendOptions{MaxCount: 3, Seed: 7}

	first := SelectRecommendations(courses, opts)
	second := SelectRecommendations(courses, opts)
	assert.Equal(t, codes(first), codes(second))
	assert.Equal(t, sampleCourses(), courses, "input order must not change")
}

func TestSelectRecommendationsDefaultsAndEmpty(t *testing.T) {
	many := make([]models.Course, 0, 10)
	for i := 0; i < 10; i++ {
		many = append(many, models.Course{CourseCode: string(rune('A' + i)), Recommended: true, Status: models.CourseStatusRemaining})
	}
	assert.Len(t, SelectRecommendations(many, RecommendOptions{Strict: true}), DefaultRecommendCount)

	none := SelectRecommendations([]models.Course{{CourseCode: "X", Recommended: false}}, RecommendOptions{MaxCount: 4})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCreditTotals(t *testing.T) {
	courses := sampleCourses()
	totals := CreditTotals(courses)

	assert.Equal(t, 3.0, totals[models.CourseStatusCompleted])
	assert.Equal(t, 4.0, totals[models.CourseStatusInProgress])
	assert.Equal(t, 3.0, totals[models.CourseStatusPlanned])
	assert.Equal(t, 15.0, totals[models.CourseStatusRemaining])

	var sum, want float64
	for _, v := range totals {
		sum += v
	}
	for _, c := range courses {
		want += c.Credits
	}
	assert.Equal(t, want, sum)
}

func TestCreditTotalsHasEveryStatus(t *testing.T) {
	totals := CreditTotals(nil)
	require.Len(t, totals, 4)
	for _, status := range models.AllCourseStatuses() {
		v, ok := totals[status]
		assert.True(t, ok, status)
		assert.Zero(t, v)
	}
}

func TestEstimateGraduationDate(t *testing.T) {
	today := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	got, err := EstimateGraduationDate(13, 12, 4, today)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = EstimateGraduationDate(12, 12, 4, today)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = EstimateGraduationDate(0, 12, 4, today)
	require.NoError(t, err)
	assert.Equal(t, today, got)

	got, err = EstimateGraduationDate(0.5, 12, 4, today)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestEstimateGraduationDateInvalidArguments(t *testing.T) {
	today := time.Now()

	_, err := EstimateGraduationDate(30, 0, 4, today)
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = EstimateGraduationDate(30, -12, 4, today)
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = EstimateGraduationDate(-1, 12, 4, today)
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = EstimateGraduationDate(30, 12, -1, today)
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)
}

func TestEstimateGraduationDateRejectsHugeProjections(t *testing.T) {
	today := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)

	_, err := EstimateGraduationDate(13, 12, 1<<62, today)
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = EstimateGraduationDate(1e300, 1e-300, 4, today)
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = SemestersRemaining(1e12, 1)
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	got, err := EstimateGraduationDate(13, 12, 6000, today)
	require.NoError(t, err)
	assert.Equal(t, today.AddDate(1000, 0, 0), got)
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	oct31 := time.Date(2024, time.October, 31, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 8, 30, 0, 0, time.UTC), AddMonths(oct31, 4))

	aug31 := time.Date(2023, time.August, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), AddMonths(aug31, 6))

	assert.Equal(t, time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC), 20))
}

func TestTransitionAndActions(t *testing.T) {
	course := models.Course{CourseCode: "MAC2311", Status: models.CourseStatusCompleted}
	Transition(&course, models.CourseStatusRemaining)
	assert.Equal(t, models.CourseStatusRemaining, course.Status)

	from, to, ok := TransitionForAction(models.CourseActionPlan)
	require.True(t, ok)
	assert.Equal(t, models.CourseStatusRemaining, from)
	assert.Equal(t, models.CourseStatusPlanned, to)

	from, to, ok = TransitionForAction(models.CourseActionRemove)
	require.True(t, ok)
	assert.Equal(t, models.CourseStatusPlanned, from)
	assert.Equal(t, models.CourseStatusRemaining, to)

	_, _, ok = TransitionForAction("graduate")
	assert.False(t, ok)
}

func TestDanglingPrerequisites(t *testing.T) {
	courses := append(sampleCourses(),
		models.Course{CourseCode: "COP3530", Prerequisite: "COP3337"},
		models.Course{CourseCode: "COP4338", Prerequisite: "COP3337"},
		models.Course{CourseCode: "CDA3102", Prerequisite: "CDA2000"},
	)
	assert.Equal(t, []string{"CDA2000", "COP3337"}, DanglingPrerequisites(courses))
	assert.Empty(t, DanglingPrerequisites(sampleCourses()))
}
