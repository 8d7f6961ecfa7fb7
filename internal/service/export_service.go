package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/models"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportService renders attendance reports as CSV or PDF.
type ExportService struct {
	attendance AttendanceRepo
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService creates the service.
func NewExportService(attendance AttendanceRepo, logger *zap.Logger) *ExportService {
	return &ExportService{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// ExportResult is a rendered report ready to stream.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Attendance exports records matching the filter in the requested format.
func (s *ExportService) Attendance(ctx context.Context, filter models.AttendanceFilter, format string) (*ExportResult, error) {
	filter.Page = 1
	filter.PerPage = 10000
	records, _, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Class", "Date", "Marked At", "Source", "Confidence"},
	}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": record.StudentID,
			"Name":       record.FullName,
			"Class":      record.ClassName,
			"Date":       record.AttendedOn.Format("2006-01-02"),
			"Marked At":  record.MarkedAt.Format("15:04:05"),
			"Source":     record.Source,
			"Confidence": fmt.Sprintf("%.2f", record.Confidence),
		})
	}

	return s.render(dataset, "Attendance Report", "attendance", format)
}

// DayRoster exports the present/absent roster for one day. An empty date
// means today.
func (s *ExportService) DayRoster(ctx context.Context, date, format string) (*ExportResult, error) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
		}
		day = parsed
	}
	roster, err := s.attendance.DayRoster(ctx, day)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Class", "Status", "Marked At"},
	}
	for _, entry := range roster {
		status := "absent"
		markedAt := ""
		if entry.Present {
			status = "present"
			if entry.MarkedAt != nil {
				markedAt = entry.MarkedAt.Format("15:04:05")
			}
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": entry.StudentID,
			"Name":       entry.FullName,
			"Class":      entry.ClassName,
			"Status":     status,
			"Marked At":  markedAt,
		})
	}
	title := "Daily Roster " + day.Format("2006-01-02")
	return s.render(dataset, title, "roster-"+day.Format("2006-01-02"), format)
}

func (s *ExportService) render(dataset export.Dataset, title, basename, format string) (*ExportResult, error) {
	switch format {
	case FormatCSV, "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
		return &ExportResult{ContentType: "text/csv", Filename: basename + ".csv", Data: data}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
		return &ExportResult{ContentType: "application/pdf", Filename: basename + ".pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
