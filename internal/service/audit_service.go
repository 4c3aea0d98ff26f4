package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/degree-pathway-api/internal/dto"
	"github.com/noah-isme/degree-pathway-api/internal/models"
	"github.com/noah-isme/degree-pathway-api/internal/repository"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
	"github.com/noah-isme/degree-pathway-api/pkg/export"
)

// AuditFormat enumerates supported export formats.
type AuditFormat string

const (
	AuditFormatCSV AuditFormat = "csv"
	AuditFormatPDF AuditFormat = "pdf"
)

// ParseAuditFormat resolves a format name, defaulting to CSV when blank.
func ParseAuditFormat(raw string) (AuditFormat, error) {
	switch AuditFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", AuditFormatCSV:
		return AuditFormatCSV, nil
	case AuditFormatPDF:
		return AuditFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

type auditSource interface {
	Snapshot(ctx context.Context, req GraduationRequest) ([]models.Course, *dto.AuditSummaryResponse, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, summary []string) ([]byte, error)
}

// AuditExport is a rendered degree audit.
type AuditExport struct {
	Filename    string
	ContentType string
	Format      AuditFormat
	Body        []byte
	// StoredPath is set when the export was also written to storage.
	StoredPath string
}

// AuditService renders the degree audit and optionally persists it.
type AuditService struct {
	source  auditSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService constructs an AuditService. storage may be nil, in which
// case exports are only returned to the caller.
func NewAuditService(source auditSource, storage fileStorage, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &AuditService{
		source:  source,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		now:     time.Now,
	}
}

// Export renders every course plus the credit summary in the requested
// format.
func (s *AuditService) Export(ctx context.Context, format AuditFormat, req GraduationRequest, persist bool) (*AuditExport, error) {
	courses, summary, err := s.source.Snapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	dataset := buildAuditDataset(courses)
	result := &AuditExport{Format: format}
	switch format {
	case AuditFormatCSV:
		result.Body, err = s.csv.Render(dataset)
		result.ContentType = "text/csv"
	case AuditFormatPDF:
		result.Body, err = s.pdf.Render(dataset, "Degree Audit", summaryLines(summary))
		result.ContentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit")
	}

	result.Filename = fmt.Sprintf("degree_audit_%s.%s", s.now().UTC().Format("20060102_150405"), format)

	if persist && s.storage != nil {
		name := fmt.Sprintf("%s_%s", uuid.NewString(), result.Filename)
		path, err := s.storage.Save(name, result.Body)
		if err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrIO, err, "failed to store audit export")
		}
		result.StoredPath = path
		s.logger.Info("audit export stored", zap.String("path", path), zap.String("format", string(format)))
	}
	return result, nil
}

func buildAuditDataset(courses []models.Course) export.Dataset {
	headers := []string{
		repository.ColumnCourseCode,
		repository.ColumnCourseTitle,
		repository.ColumnCredits,
		repository.ColumnCategory,
		repository.ColumnPrerequisite,
		"Status",
	}
	rows := make([]map[string]string, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, map[string]string{
			repository.ColumnCourseCode:   c.CourseCode,
			repository.ColumnCourseTitle:  c.CourseTitle,
			repository.ColumnCredits:      strconv.FormatFloat(c.Credits, 'f', -1, 64),
			repository.ColumnCategory:     c.Category,
			repository.ColumnPrerequisite: c.Prerequisite,
			"Status":                      string(c.Status),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func summaryLines(summary *dto.AuditSummaryResponse) []string {
	if summary == nil {
		return nil
	}
	lines := make([]string, 0, 6)
	for _, status := range models.AllCourseStatuses() {
		lines = append(lines, fmt.Sprintf("%s: %g credits", status, summary.CreditsByStatus[status]))
	}
	lines = append(lines,
		fmt.Sprintf("Completion: %.1f%% of %g credits", summary.PercentComplete, summary.TotalCredits),
		fmt.Sprintf("Estimated graduation: %s (%d semesters)", summary.Graduation.Label, summary.Graduation.SemestersRemaining),
	)
	return lines
}
