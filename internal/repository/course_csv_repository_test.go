package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/degree-pathway-api/internal/models"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
)

func copyFixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "ClassRequirements.csv"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ClassRequirements.csv")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courses.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCourseCSVRepositoryLoadNormalizes(t *testing.T) {
	repo, err := NewCourseCSVRepository(copyFixture(t))
	require.NoError(t, err)

	courses, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 5)

	enc := courses[0]
	assert.Equal(t, "ENC1101", enc.CourseCode)
	assert.Equal(t, models.CourseStatusCompleted, enc.Status)
	assert.Equal(t, "UCC Core", enc.Category)
	assert.Equal(t, []string{"Monday", "Wednesday"}, enc.Days())
	assert.True(t, enc.Recommended)

	calc := courses[1]
	assert.Equal(t, "Calculus I", calc.CourseTitle)
	assert.Equal(t, 4.0, calc.Credits)
	assert.Equal(t, models.CourseStatusRemaining, calc.Status)
	assert.Equal(t, "placement test", calc.Extra["Notes"])
	assert.Equal(t, 1, calc.Position)

	assert.Equal(t, "MAC2311", courses[2].Prerequisite)
	assert.Equal(t, models.CourseStatusInProgress, courses[3].Status)
	assert.False(t, courses[3].Recommended)
	assert.Equal(t, models.CourseStatusPlanned, courses[4].Status)
	assert.Equal(t, "", courses[4].Category)
}

func TestCourseCSVRepositoryRoundTrip(t *testing.T) {
	path := copyFixture(t)
	repo, err := NewCourseCSVRepository(path)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	fresh, err := NewCourseCSVRepository(path)
	require.NoError(t, err)
	second, err := fresh.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Course Code,Course Title,Credits,Category,Day,Time,Pre-requisite,Recommended,Completed,Notes\n")
}

func TestCourseCSVRepositorySavePersistsTransition(t *testing.T) {
	path := copyFixture(t)
	repo, err := NewCourseCSVRepository(path)
	require.NoError(t, err)
	ctx := context.Background()

	courses, err := repo.Load(ctx)
	require.NoError(t, err)
	courses[1].Status = models.CourseStatusInProgress
	require.NoError(t, repo.Save(ctx, courses))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusInProgress, reloaded[1].Status)
	assert.Equal(t, courses[1].Credits, reloaded[1].Credits)
}

func TestCourseCSVRepositoryMissingColumn(t *testing.T) {
	path := writeCSV(t, "Course Code,Course Title,Credits,Category,Day,Time,Recommended,Completed\nMAC2311,Calculus I,4,Math,Monday,TBA,Yes,Planned\n")
	repo, err := NewCourseCSVRepository(path)
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	require.ErrorIs(t, err, appErrors.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "Pre-requisite")
}

func TestCourseCSVRepositoryMalformedRows(t *testing.T) {
	header := "Course Code,Course Title,Credits,Category,Day,Time,Pre-requisite,Recommended,Completed\n"
	cases := map[string]string{
		"non numeric credits":   "MAC2311,Calculus I,four,Math,Monday,TBA,,Yes,Planned\n",
		"negative credits":      "MAC2311,Calculus I,-3,Math,Monday,TBA,,Yes,Planned\n",
		"unknown status":        "MAC2311,Calculus I,4,Math,Monday,TBA,,Yes,Dropped\n",
		"empty code":            " ,Calculus I,4,Math,Monday,TBA,,Yes,Planned\n",
		"duplicate code":        "MAC2311,Calculus I,4,Math,Monday,TBA,,Yes,Planned\nMAC2311,Calculus I,4,Math,Monday,TBA,,Yes,Planned\n",
		"case folded duplicate": "mac2311,Calculus I,4,Math,Monday,TBA,,Yes,Planned\nMAC2311,Calculus I,4,Math,Monday,TBA,,Yes,Planned\n",
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			repo, err := NewCourseCSVRepository(writeCSV(t, header+rows))
			require.NoError(t, err)
			_, err = repo.Load(context.Background())
			assert.ErrorIs(t, err, appErrors.ErrMalformedRecord)
		})
	}
}

func TestCourseCSVRepositoryMissingFile(t *testing.T) {
	repo, err := NewCourseCSVRepository(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCourseCSVRepositorySaveWithoutLoadUsesCanonicalHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.csv")
	repo, err := NewCourseCSVRepository(path)
	require.NoError(t, err)
	ctx := context.Background()

	in := []models.Course{{CourseCode: "MAC2311", CourseTitle: "Calculus I", Credits: 4.5, Day: "Online", Time: "TBA", Recommended: true, Status: models.CourseStatusPlanned}}
	require.NoError(t, repo.Save(ctx, in))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 4.5, out[0].Credits)
	assert.Equal(t, models.CourseStatusPlanned, out[0].Status)
	assert.True(t, out[0].Recommended)
}
