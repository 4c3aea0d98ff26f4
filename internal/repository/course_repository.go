package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/degree-pathway-api/internal/models"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
)

// CourseRepository keeps course records in the PostgreSQL courses table.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Load returns every course in dataset order.
func (r *CourseRepository) Load(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT course_code, course_title, credits, category, day, time, prerequisite, recommended, status, position FROM courses ORDER BY position, course_code`

	var rows []models.Course
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrIO, fmt.Errorf("list courses: %w", err), "failed to read course store")
	}

	courses := make([]models.Course, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, course := range rows {
		course.Normalize()
		if course.CourseCode == "" {
			return nil, appErrors.Clone(appErrors.ErrMalformedRecord, fmt.Sprintf("course at position %d has an empty code", course.Position))
		}
		status, err := models.ParseCourseStatus(string(course.Status))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrMalformedRecord, fmt.Sprintf("course %s: %v", course.CourseCode, err))
		}
		if course.Credits < 0 {
			return nil, appErrors.Clone(appErrors.ErrMalformedRecord, fmt.Sprintf("course %s: credits must not be negative", course.CourseCode))
		}
		key := models.CodeKey(course.CourseCode)
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrMalformedRecord, fmt.Sprintf("course %s is duplicated", course.CourseCode))
		}
		seen[key] = struct{}{}
		course.Status = status
		courses = append(courses, course)
	}
	return courses, nil
}

// Save upserts every course in a single transaction.
func (r *CourseRepository) Save(ctx context.Context, courses []models.Course) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrIO, fmt.Errorf("begin save courses: %w", err), "failed to write course store")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO courses (course_code, course_title, credits, category, day, time, prerequisite, recommended, status, position)
VALUES (:course_code, :course_title, :credits, :category, :day, :time, :prerequisite, :recommended, :status, :position)
ON CONFLICT (course_code) DO UPDATE SET course_title = EXCLUDED.course_title, credits = EXCLUDED.credits, category = EXCLUDED.category, day = EXCLUDED.day, time = EXCLUDED.time, prerequisite = EXCLUDED.prerequisite, recommended = EXCLUDED.recommended, status = EXCLUDED.status, position = EXCLUDED.position`

	for i := range courses {
		if _, err = tx.NamedExecContext(ctx, query, &courses[i]); err != nil {
			return appErrors.WrapAs(appErrors.ErrIO, fmt.Errorf("save course %s: %w", courses[i].CourseCode, err), "failed to write course store")
		}
	}

	if err = tx.Commit(); err != nil {
		return appErrors.WrapAs(appErrors.ErrIO, fmt.Errorf("commit save courses: %w", err), "failed to write course store")
	}
	return nil
}
