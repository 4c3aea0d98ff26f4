package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/degree-pathway-api/internal/models"
)

func TestCopyCourses(t *testing.T) {
	src := &courseStoreStub{courses: fixtureCourses()}
	dst := &courseStoreStub{}

	n, err := CopyCourses(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, len(fixtureCourses()), n)
	require.Len(t, dst.lastSaved, n)
	for i, c := range dst.lastSaved {
		assert.Equal(t, i, c.Position)
	}
	assert.Empty(t, CompareCourses(src.courses, dst.courses))
}

func TestCopyCoursesFailures(t *testing.T) {
	_, err := CopyCourses(context.Background(), &courseStoreStub{loadErr: errors.New("gone")}, &courseStoreStub{})
	assert.ErrorContains(t, err, "load source")

	_, err = CopyCourses(context.Background(), &courseStoreStub{courses: fixtureCourses()}, &courseStoreStub{saveErr: errors.New("locked")})
	assert.ErrorContains(t, err, "save destination")
}

func TestCompareCourses(t *testing.T) {
	baseline := fixtureCourses()
	candidate := fixtureCourses()[1:]
	candidate[0].Status = models.CourseStatusInProgress
	candidate[0].Credits = 4
	candidate = append(candidate, models.Course{CourseCode: "NEW100"})

	diffs := CompareCourses(baseline, candidate)
	require.Len(t, diffs, 3)
	assert.Equal(t, CourseDiff{CourseCode: "CS101", OnlyIn: "baseline"}, diffs[0])
	assert.Equal(t, CourseDiff{CourseCode: "CS201", Fields: []string{"credits", "status"}}, diffs[1])
	assert.Equal(t, CourseDiff{CourseCode: "NEW100", OnlyIn: "candidate"}, diffs[2])
}
