package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/degree-pathway-api/internal/dto"
	"github.com/noah-isme/degree-pathway-api/internal/models"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
)

const summaryCachePrefix = "summary"

// CourseStore loads and saves the full course dataset.
type CourseStore interface {
	Load(ctx context.Context) ([]models.Course, error)
	Save(ctx context.Context, courses []models.Course) error
}

// SetStatusRequest moves a course to any status.
type SetStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required"`
}

// RecommendRequest asks the recommender to enroll up to MaxCount courses.
type RecommendRequest struct {
	MaxCount int    `json:"max_count" validate:"omitempty,min=1,max=50"`
	Seed     *int64 `json:"seed"`
}

// GraduationRequest overrides the configured semester load. Nil fields use
// the defaults.
type GraduationRequest struct {
	CreditsPerSemester *float64 `json:"credits_per_semester" form:"credits_per_semester"`
	MonthsPerSemester  *int     `json:"months_per_semester" form:"months_per_semester"`
}

// CourseServiceConfig tunes recommendation and projection defaults.
type CourseServiceConfig struct {
	RecommendMaxCount  int
	RecommendSeed      int64
	RecommendStrict    bool
	CreditsPerSemester float64
	MonthsPerSemester  int
	CacheTTL           time.Duration
}

// CourseServiceParams groups constructor dependencies.
type CourseServiceParams struct {
	Store     CourseStore
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    CourseServiceConfig
	// AfterSave runs after every successful save. It must not block.
	AfterSave func()
}

// CourseService runs every course workflow as load, mutate in memory, save.
type CourseService struct {
	store     CourseStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CourseServiceConfig
	afterSave func()
	now       func() time.Time

	// mu serialises read-modify-write cycles against the store.
	mu sync.Mutex
}

// NewCourseService constructs a CourseService with sane defaults.
func NewCourseService(params CourseServiceParams) *CourseService {
	cfg := params.Config
	if cfg.RecommendMaxCount <= 0 {
		cfg.RecommendMaxCount = DefaultRecommendCount
	}
	if cfg.CreditsPerSemester <= 0 {
		cfg.CreditsPerSemester = DefaultCreditsPerSemester
	}
	if cfg.MonthsPerSemester <= 0 {
		cfg.MonthsPerSemester = DefaultMonthsPerSemester
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		store:     params.Store,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		afterSave: params.AfterSave,
		now:       time.Now,
	}
}

// All returns every course in dataset order.
func (s *CourseService) All(ctx context.Context) ([]models.Course, error) {
	return s.load(ctx)
}

// List returns the courses matching filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(courses, filter), nil
}

// Get returns a course by code.
func (s *CourseService) Get(ctx context.Context, code string) (*models.Course, error) {
	courses, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(courses, code)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", code))
	}
	course := courses[idx]
	return &course, nil
}

// SetStatus moves a course to the requested status without checking the
// source status.
func (s *CourseService) SetStatus(ctx context.Context, code string, req SetStatusRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}
	return s.mutate(ctx, code, func(course *models.Course, _ []models.Course) error {
		Transition(course, req.Status)
		return nil
	})
}

// ApplyAction performs a dashboard action. The course must be in the
// action's source status, and enrolling requires the prerequisite.
func (s *CourseService) ApplyAction(ctx context.Context, code string, action models.CourseAction) (*models.Course, error) {
	from, to, ok := TransitionForAction(action)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action %q", action))
	}
	return s.mutate(ctx, code, func(course *models.Course, all []models.Course) error {
		if course.Status != from {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("cannot %s %s: status is %s, expected %s", action, course.CourseCode, course.Status, from))
		}
		if action == models.CourseActionEnroll && !IsPrerequisiteMet(*course, CompletedCourseCodes(all)) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("cannot enroll in %s: prerequisite %s is not completed", course.CourseCode, strings.TrimSpace(course.Prerequisite)))
		}
		Transition(course, to)
		return nil
	})
}

// Recommend picks eligible recommended courses, moves them all to
// In-progress and saves once.
func (s *CourseService) Recommend(ctx context.Context, req RecommendRequest) (*dto.RecommendationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recommendation payload")
	}
	opts := RecommendOptions{MaxCount: req.MaxCount, Seed: s.seed(req.Seed), Strict: s.cfg.RecommendStrict}
	if opts.MaxCount == 0 {
		opts.MaxCount = s.cfg.RecommendMaxCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	picked := SelectRecommendations(courses, opts)
	for i := range picked {
		idx := indexOf(courses, picked[i].CourseCode)
		Transition(&courses[idx], models.CourseStatusInProgress)
		picked[i] = courses[idx]
	}

	if len(picked) > 0 {
		if err := s.save(ctx, courses); err != nil {
			return nil, err
		}
		for range picked {
			s.metrics.RecordTransition(models.CourseStatusInProgress)
		}
		s.metrics.RecordRecommendations(len(picked))
	}

	s.logger.Info("courses recommended",
		zap.Int64("seed", opts.Seed),
		zap.Int("requested", opts.MaxCount),
		zap.Int("picked", len(picked)),
		zap.Bool("strict", opts.Strict),
	)
	return &dto.RecommendationResponse{Seed: opts.Seed, Courses: picked}, nil
}

// Summary returns credit totals and the graduation projection. The second
// return value reports a cache hit.
func (s *CourseService) Summary(ctx context.Context, req GraduationRequest) (*dto.AuditSummaryResponse, bool, error) {
	creditsPerSemester, monthsPerSemester := s.projection(req)
	today := s.now()
	key := fmt.Sprintf("%s:%g:%d:%s", summaryCachePrefix, creditsPerSemester, monthsPerSemester, today.Format("2006-01-02"))
	var cached dto.AuditSummaryResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	// Held until the cache write so a concurrent save cannot be overtaken
	// by a stale summary.
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	summary, err := BuildSummary(courses, creditsPerSemester, monthsPerSemester, today)
	if err != nil {
		return nil, false, err
	}

	s.metrics.SetCreditTotals(summary.CreditsByStatus)
	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

// Snapshot returns every course together with the summary built from that
// same load, so the two always agree.
func (s *CourseService) Snapshot(ctx context.Context, req GraduationRequest) ([]models.Course, *dto.AuditSummaryResponse, error) {
	creditsPerSemester, monthsPerSemester := s.projection(req)

	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	summary, err := BuildSummary(courses, creditsPerSemester, monthsPerSemester, s.now())
	if err != nil {
		return nil, nil, err
	}
	return courses, summary, nil
}

func (s *CourseService) projection(req GraduationRequest) (float64, int) {
	creditsPerSemester := s.cfg.CreditsPerSemester
	if req.CreditsPerSemester != nil {
		creditsPerSemester = *req.CreditsPerSemester
	}
	monthsPerSemester := s.cfg.MonthsPerSemester
	if req.MonthsPerSemester != nil {
		monthsPerSemester = *req.MonthsPerSemester
	}
	return creditsPerSemester, monthsPerSemester
}

// BuildSummary aggregates courses into an audit summary.
func BuildSummary(courses []models.Course, creditsPerSemester float64, monthsPerSemester int, today time.Time) (*dto.AuditSummaryResponse, error) {
	totals := CreditTotals(courses)
	remaining := totals[models.CourseStatusRemaining]

	graduation, err := EstimateGraduationDate(remaining, creditsPerSemester, monthsPerSemester, today)
	if err != nil {
		return nil, err
	}
	semesters, err := SemestersRemaining(remaining, creditsPerSemester)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, credits := range totals {
		total += credits
	}
	var percent float64
	if total > 0 {
		percent = math.Round(totals[models.CourseStatusCompleted]/total*1000) / 10
	}

	return &dto.AuditSummaryResponse{
		TotalCredits:      total,
		CompletedCredits:  totals[models.CourseStatusCompleted],
		InProgressCredits: totals[models.CourseStatusInProgress],
		PlannedCredits:    totals[models.CourseStatusPlanned],
		RemainingCredits:  remaining,
		CreditsByStatus:   totals,
		PercentComplete:   percent,
		Graduation: dto.GraduationEstimate{
			CreditsPerSemester: creditsPerSemester,
			MonthsPerSemester:  monthsPerSemester,
			SemestersRemaining: semesters,
			Date:               graduation.Format("2006-01-02"),
			Label:              graduation.Format("January 2006"),
		},
		DanglingPrereqs: DanglingPrerequisites(courses),
	}, nil
}

func (s *CourseService) mutate(ctx context.Context, code string, apply func(course *models.Course, all []models.Course) error) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(courses, code)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", code))
	}

	previous := courses[idx].Status
	if err := apply(&courses[idx], courses); err != nil {
		return nil, err
	}
	if err := s.save(ctx, courses); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(courses[idx].Status)
	s.logger.Info("course status changed",
		zap.String("course_code", courses[idx].CourseCode),
		zap.String("from", string(previous)),
		zap.String("to", string(courses[idx].Status)),
	)
	course := courses[idx]
	return &course, nil
}

func (s *CourseService) load(ctx context.Context) ([]models.Course, error) {
	start := time.Now()
	courses, err := s.store.Load(ctx)
	s.metrics.ObserveStore("load", err, time.Since(start))
	if err != nil {
		s.logger.Error("course store load failed", zap.Error(err))
		return nil, appErrors.FromError(err)
	}
	if dangling := DanglingPrerequisites(courses); len(dangling) > 0 {
		s.logger.Debug("prerequisites reference unknown courses", zap.Strings("codes", dangling))
	}
	return courses, nil
}

func (s *CourseService) save(ctx context.Context, courses []models.Course) error {
	start := time.Now()
	err := s.store.Save(ctx, courses)
	s.metrics.ObserveStore("save", err, time.Since(start))
	if err != nil {
		s.logger.Error("course store save failed", zap.Error(err))
		return appErrors.FromError(err)
	}
	s.cache.Invalidate(ctx, summaryCachePrefix+":*")
	if s.afterSave != nil {
		s.afterSave()
	}
	return nil
}

func (s *CourseService) seed(requested *int64) int64 {
	switch {
	case requested != nil:
		return *requested
	case s.cfg.RecommendSeed != 0:
		return s.cfg.RecommendSeed
	default:
		return s.now().UnixNano()
	}
}

// indexOf prefers an exact code match and falls back to a case-insensitive
// one. Stores reject codes that collide case-insensitively.
func indexOf(courses []models.Course, code string) int {
	code = strings.TrimSpace(code)
	folded := -1
	for i := range courses {
		if courses[i].CourseCode == code {
			return i
		}
		if folded < 0 && models.CodeKey(courses[i].CourseCode) == models.CodeKey(code) {
			folded = i
		}
	}
	return folded
}
