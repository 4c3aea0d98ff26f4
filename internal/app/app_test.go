package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/degree-pathway-api/internal/models"
	"github.com/noah-isme/degree-pathway-api/internal/repository"
	"github.com/noah-isme/degree-pathway-api/pkg/config"
)

const fixture = `Course Code,Course Title,Credits,Category,Day,Time,Pre-requisite,Recommended,Completed
MAC2311,Calculus I,4,Math,"Tuesday, Thursday",11:00-12:15,,Yes,Remaining units
MAC2312,Calculus II,4,Math,"Tuesday, Thursday",14:00-15:15,MAC2311,Yes,Remaining units
ENC1101,Writing I,3,UCC Core,Monday,9:00-10:15,,No,Completed units
`

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newTestContainer(t *testing.T) (*Container, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	path := filepath.Join(dir, "ClassRequirements.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	cfg := &config.Config{
		Env:        config.EnvDevelopment,
		APIPrefix:  "/api/v1",
		Store:      config.StoreConfig{Backend: config.StoreBackendCSV, CSVPath: path},
		Cache:      config.CacheConfig{TTL: time.Minute},
		Recommend:  config.RecommendConfig{MaxCount: 4, Strict: true},
		Graduation: config.GraduationConfig{CreditsPerSemester: 12, MonthsPerSemester: 4},
		Reports:    config.ReportsConfig{StorageDir: filepath.Join(dir, "exports")},
		Metrics:    config.MetricsConfig{Enabled: true},
	}
	c, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, path
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestPrerequisiteUnlocksAfterCompletion(t *testing.T) {
	c, path := newTestContainer(t)
	r := c.Router()

	seed := `{"max_count":4,"seed":1}`
	w, env := do(t, r, http.MethodPost, "/api/v1/recommendations", seed)
	require.Equal(t, http.StatusOK, w.Code)
	var first struct {
		Courses []models.Course `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &first))
	require.Len(t, first.Courses, 1)
	assert.Equal(t, "MAC2311", first.Courses[0].CourseCode)

	w, _ = do(t, r, http.MethodPatch, "/api/v1/courses/MAC2311/status", `{"status":"Completed units"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/recommendations", seed)
	require.Equal(t, http.StatusOK, w.Code)
	var second struct {
		Courses []models.Course `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &second))
	require.Len(t, second.Courses, 1)
	assert.Equal(t, "MAC2312", second.Courses[0].CourseCode)

	repo, err := repository.NewCourseCSVRepository(path)
	require.NoError(t, err)
	courses, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusCompleted, courses[0].Status)
	assert.Equal(t, models.CourseStatusInProgress, courses[1].Status)
}

func TestRouterCoursesAndAudit(t *testing.T) {
	c, _ := newTestContainer(t)
	r := c.Router()

	w, env := do(t, r, http.MethodGet, "/api/v1/courses?category=math", "")
	require.Equal(t, http.StatusOK, w.Code)
	var courses []models.Course
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	assert.Len(t, courses, 2)

	w, _ = do(t, r, http.MethodPost, "/api/v1/courses/MAC2312/enroll", "")
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/courses/MAC2311/plan", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/v1/audit/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Total     float64 `json:"total_credits"`
		Remaining float64 `json:"remaining_credits"`
		Planned   float64 `json:"planned_credits"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 11.0, summary.Total)
	assert.Equal(t, 4.0, summary.Remaining)
	assert.Equal(t, 4.0, summary.Planned)

	w, env = do(t, r, http.MethodGet, "/api/v1/audit/summary?credits_per_semester=0", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", env.Error["code"])

	w, _ = do(t, r, http.MethodGet, "/api/v1/audit/export?format=csv&store=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "MAC2311")
	stored := w.Header().Get("X-Audit-Stored-Path")
	require.NotEmpty(t, stored)
	_, err := os.Stat(filepath.Join(c.Config.Reports.StorageDir, stored))
	assert.NoError(t, err)
}

func TestRouterProbesAndUnknownRoutes(t *testing.T) {
	c, _ := newTestContainer(t)
	r := c.Router()

	w, _ := do(t, r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/v1/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error["code"])
}

func TestBuildFailsOnUnreadableStoreDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := &config.Config{Store: config.StoreConfig{Backend: config.StoreBackendCSV, CSVPath: filepath.Join(blocker, "nested", "courses.csv")}}
	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}
