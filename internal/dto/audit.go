package dto

import "github.com/noah-isme/degree-pathway-api/internal/models"

// AuditSummaryResponse is the credit breakdown and graduation projection of
// the degree audit.
type AuditSummaryResponse struct {
	TotalCredits      float64                         `json:"total_credits"`
	CompletedCredits  float64                         `json:"completed_credits"`
	InProgressCredits float64                         `json:"in_progress_credits"`
	PlannedCredits    float64                         `json:"planned_credits"`
	RemainingCredits  float64                         `json:"remaining_credits"`
	CreditsByStatus   map[models.CourseStatus]float64 `json:"credits_by_status"`
	PercentComplete   float64                         `json:"percent_complete"`
	Graduation        GraduationEstimate              `json:"graduation"`
	DanglingPrereqs   []string                        `json:"dangling_prerequisites,omitempty"`
}

// GraduationEstimate describes the projected graduation date.
type GraduationEstimate struct {
	CreditsPerSemester float64 `json:"credits_per_semester"`
	MonthsPerSemester  int     `json:"months_per_semester"`
	SemestersRemaining int     `json:"semesters_remaining"`
	// Date is formatted as YYYY-MM-DD; Label as "January 2006".
	Date  string `json:"date"`
	Label string `json:"label"`
}

// RecommendationResponse lists the courses moved to In-progress.
type RecommendationResponse struct {
	Seed    int64           `json:"seed"`
	Courses []models.Course `json:"courses"`
}
