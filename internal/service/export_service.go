package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// ExportFormat enumerates supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Day", "Slot", "Time", "Subject", "Teacher", "Notes"}

// ExportResult is a rendered timetable ready to be downloaded.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportService renders class timetables as CSV or PDF with display names.
type ExportService struct {
	*timetableCore
	csv tableRenderer
	pdf tableRenderer
}

// NewExportService constructs an ExportService. Nil renderers use the default exporters.
func NewExportService(deps TimetableDeps, csv, pdf tableRenderer) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{timetableCore: newTimetableCore(deps), csv: csv, pdf: pdf}
}

// Export renders the merged grid of a class.
func (s *ExportService) Export(ctx context.Context, yearRaw, classID, format string) (*ExportResult, error) {
	exportFormat := ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if exportFormat == "" {
		exportFormat = ExportFormatCSV
	}
	var (
		renderer    tableRenderer
		contentType string
	)
	switch exportFormat {
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, err
	}
	class, err := s.ensureClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx, nil, year.ID)
	if err != nil {
		return nil, err
	}

	view := timetable.MergeView(year.ID, classID, state.variants, state.grid, state.classSessions(classID))
	table := s.buildTable(ctx, year, class, view)

	payload, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}
	s.logger.Info("timetable exported",
		zap.String("academic_year_id", year.ID),
		zap.String("class_section_id", classID),
		zap.String("format", string(exportFormat)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		Filename:    buildExportFilename(year, class, exportFormat),
		ContentType: contentType,
		Content:     payload,
	}, nil
}

func (s *ExportService) buildTable(ctx context.Context, year *models.AcademicYear, class *models.ClassSection, view timetable.View) export.Table {
	teacherIDs := []string{}
	subjectIDs := []string{}
	collect := func(teacherID, subjectID string) {
		teacherIDs = append(teacherIDs, teacherID)
		subjectIDs = append(subjectIDs, subjectID)
	}
	for _, day := range view.Days {
		for _, cell := range day.Cells {
			if cell.Entry != nil {
				collect(cell.Entry.TeacherID, cell.Entry.SubjectID)
			}
			for _, session := range cell.ExtraSessions {
				collect(session.TeacherID, session.SubjectID)
			}
		}
		for _, session := range day.Standalone {
			collect(session.TeacherID, session.SubjectID)
		}
	}
	teachers := s.lookupNames(ctx, "teacher", teacherIDs, s.directoryTeachers)
	subjects := s.lookupNames(ctx, "subject", subjectIDs, s.directorySubjects)

	sessionNote := func(session models.ExtraSession) string {
		note := fmt.Sprintf("Extra %s-%s %s (%s)", session.StartTime, session.EndTime,
			displayName(subjects[session.SubjectID], session.SubjectID),
			displayName(teachers[session.TeacherID], session.TeacherID))
		if session.SessionDate != nil {
			note += " on " + session.SessionDate.Format(dateLayout)
		}
		return note
	}

	rows := [][]string{}
	for _, day := range view.Days {
		for _, cell := range day.Cells {
			row := []string{string(day.Day), cell.Slot.Label, fmt.Sprintf("%s-%s", cell.Slot.StartTime, cell.Slot.EndTime), "", "", ""}
			if cell.Entry != nil {
				row[3] = displayName(subjects[cell.Entry.SubjectID], cell.Entry.SubjectID)
				row[4] = displayName(teachers[cell.Entry.TeacherID], cell.Entry.TeacherID)
			}
			notes := make([]string, 0, len(cell.ExtraSessions))
			for _, session := range cell.ExtraSessions {
				notes = append(notes, sessionNote(session))
			}
			row[5] = strings.Join(notes, "; ")
			rows = append(rows, row)
		}
		for _, session := range day.Standalone {
			reason := ""
			if session.Reason != nil {
				reason = *session.Reason
			}
			if session.SessionDate != nil {
				reason = strings.TrimSpace(session.SessionDate.Format(dateLayout) + " " + reason)
			}
			rows = append(rows, []string{
				string(day.Day),
				"Extra session",
				fmt.Sprintf("%s-%s", session.StartTime, session.EndTime),
				displayName(subjects[session.SubjectID], session.SubjectID),
				displayName(teachers[session.TeacherID], session.TeacherID),
				reason,
			})
		}
	}

	return export.Table{
		Title:    fmt.Sprintf("Timetable %s", displayName(class.Name, class.ID)),
		Subtitle: fmt.Sprintf("Academic year %s, generated %s", displayName(year.Name, year.ID), time.Now().UTC().Format("2006-01-02 15:04 MST")),
		Headers:  exportHeaders,
		Rows:     rows,
	}
}

func buildExportFilename(year *models.AcademicYear, class *models.ClassSection, format ExportFormat) string {
	return fmt.Sprintf("timetable_%s_%s.%s",
		sanitizeFilename(displayName(class.Name, class.ID)),
		sanitizeFilename(displayName(year.Name, year.ID)),
		format,
	)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
