package repository

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/noah-isme/degree-pathway-api/internal/models"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
	"github.com/noah-isme/degree-pathway-api/pkg/export"
	"github.com/noah-isme/degree-pathway-api/pkg/storage"
)

// Dataset column headers.
const (
	ColumnCourseCode   = "Course Code"
	ColumnCourseTitle  = "Course Title"
	ColumnCredits      = "Credits"
	ColumnCategory     = "Category"
	ColumnDay          = "Day"
	ColumnTime         = "Time"
	ColumnPrerequisite = "Pre-requisite"
	ColumnRecommended  = "Recommended"
	ColumnStatus       = "Completed"
)

// CourseColumns lists the required columns in their canonical order.
var CourseColumns = []string{
	ColumnCourseCode,
	ColumnCourseTitle,
	ColumnCredits,
	ColumnCategory,
	ColumnDay,
	ColumnTime,
	ColumnPrerequisite,
	ColumnRecommended,
	ColumnStatus,
}

// CourseCSVRepository keeps course records in a flat CSV file. The whole
// file is read on Load and rewritten on Save.
type CourseCSVRepository struct {
	storage  *storage.LocalStorage
	filename string
	exporter *export.CSVExporter

	mu      sync.Mutex
	headers []string
}

// NewCourseCSVRepository returns a repository for the CSV file at path.
func NewCourseCSVRepository(path string) (*CourseCSVRepository, error) {
	store, err := storage.NewLocalStorage(filepath.Dir(path))
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrIO, err, "failed to prepare course store")
	}
	return &CourseCSVRepository{
		storage:  store,
		filename: filepath.Base(path),
		exporter: export.NewCSVExporter(),
	}, nil
}

// Path returns the location of the backing file.
func (r *CourseCSVRepository) Path() string {
	return r.storage.Path(r.filename)
}

// Load reads and normalizes every course in the file.
func (r *CourseCSVRepository) Load(ctx context.Context) ([]models.Course, error) {
	raw, err := r.storage.Read(r.filename)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrIO, err, "failed to read course store")
	}

	data, err := export.ParseCSV(bytes.NewReader(raw))
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrMalformedRecord, err, "course store is not valid csv")
	}

	courses, err := decodeCourses(data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.headers = data.Headers
	r.mu.Unlock()
	return courses, nil
}

// Save rewrites the whole file with courses, keeping the column order and
// any extra columns seen on the last Load.
func (r *CourseCSVRepository) Save(ctx context.Context, courses []models.Course) error {
	r.mu.Lock()
	headers := mergeHeaders(r.headers, courses)
	r.mu.Unlock()

	data := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(courses))}
	for _, c := range courses {
		data.Rows = append(data.Rows, encodeCourse(c))
	}

	body, err := r.exporter.Render(data)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrIO, err, "failed to encode course store")
	}
	if _, err := r.storage.Save(r.filename, body); err != nil {
		return appErrors.WrapAs(appErrors.ErrIO, err, "failed to write course store")
	}

	r.mu.Lock()
	r.headers = headers
	r.mu.Unlock()
	return nil
}

func decodeCourses(data export.Dataset) ([]models.Course, error) {
	present := make(map[string]struct{}, len(data.Headers))
	for _, h := range data.Headers {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range CourseColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrMalformedRecord, fmt.Sprintf("course store is missing columns: %s", strings.Join(missing, ", ")))
	}

	known := make(map[string]struct{}, len(CourseColumns))
	for _, col := range CourseColumns {
		known[col] = struct{}{}
	}

	courses := make([]models.Course, 0, len(data.Rows))
	seen := make(map[string]int, len(data.Rows))
	for i, row := range data.Rows {
		// Row numbers are 1-based and count the header line.
		line := i + 2
		course, err := decodeCourse(row, line)
		if err != nil {
			return nil, err
		}
		key := models.CodeKey(course.CourseCode)
		if first, dup := seen[key]; dup {
			return nil, malformed(line, "course code %s duplicates row %d", course.CourseCode, first)
		}
		seen[key] = line
		course.Position = i

		for header, value := range row {
			if _, ok := known[header]; ok {
				continue
			}
			if course.Extra == nil {
				course.Extra = make(map[string]string)
			}
			course.Extra[header] = strings.TrimSpace(value)
		}
		courses = append(courses, course)
	}
	return courses, nil
}

func decodeCourse(row map[string]string, line int) (models.Course, error) {
	field := func(name string) string { return strings.TrimSpace(row[name]) }

	code := field(ColumnCourseCode)
	if code == "" {
		return models.Course{}, malformed(line, "course code is empty")
	}

	rawCredits := field(ColumnCredits)
	credits, err := strconv.ParseFloat(rawCredits, 64)
	if err != nil || math.IsNaN(credits) || math.IsInf(credits, 0) {
		return models.Course{}, malformed(line, "credits %q for %s is not a number", rawCredits, code)
	}
	if credits < 0 {
		return models.Course{}, malformed(line, "credits for %s must not be negative", code)
	}

	status, err := models.ParseCourseStatus(row[ColumnStatus])
	if err != nil {
		return models.Course{}, malformed(line, "%s: %v", code, err)
	}

	course := models.Course{
		CourseCode:   code,
		CourseTitle:  row[ColumnCourseTitle],
		Credits:      credits,
		Category:     row[ColumnCategory],
		Day:          row[ColumnDay],
		Time:         row[ColumnTime],
		Prerequisite: row[ColumnPrerequisite],
		Recommended:  strings.EqualFold(field(ColumnRecommended), "yes"),
		Status:       status,
	}
	course.Normalize()
	return course, nil
}

func encodeCourse(c models.Course) map[string]string {
	row := make(map[string]string, len(CourseColumns)+len(c.Extra))
	for k, v := range c.Extra {
		row[k] = v
	}
	recommended := "No"
	if c.Recommended {
		recommended = "Yes"
	}
	row[ColumnCourseCode] = c.CourseCode
	row[ColumnCourseTitle] = c.CourseTitle
	row[ColumnCredits] = strconv.FormatFloat(c.Credits, 'f', -1, 64)
	row[ColumnCategory] = c.Category
	row[ColumnDay] = c.Day
	row[ColumnTime] = c.Time
	row[ColumnPrerequisite] = c.Prerequisite
	row[ColumnRecommended] = recommended
	row[ColumnStatus] = string(c.Status)
	return row
}

// mergeHeaders keeps the loaded column order and appends any required or
// extra column that is not in it yet.
func mergeHeaders(loaded []string, courses []models.Course) []string {
	headers := make([]string, 0, len(loaded)+len(CourseColumns))
	seen := make(map[string]struct{}, cap(headers))
	add := func(h string) {
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		headers = append(headers, h)
	}
	for _, h := range loaded {
		add(h)
	}
	for _, h := range CourseColumns {
		add(h)
	}
	for _, c := range courses {
		for _, h := range sortedKeys(c.Extra) {
			add(h)
		}
	}
	return headers
}

func malformed(line int, format string, args ...interface{}) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrMalformedRecord, fmt.Sprintf("row %d: %s", line, fmt.Sprintf(format, args...)))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
