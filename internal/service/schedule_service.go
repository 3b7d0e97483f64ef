package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
)

// Timetable file formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	FindBySlot(ctx context.Context, key models.SlotKey) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	ReplaceAll(ctx context.Context, entries []models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

// ScheduleService coordinates the weekly timetable.
type ScheduleService struct {
	repo      scheduleRepository
	csv       *export.CSVExporter
	xlsx      *export.XLSXExporter
	pdf       *export.PDFExporter
	gridPDF   *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerScheduleValidations(validate)
	return &ScheduleService{
		repo:      repo,
		csv:       export.NewCSVExporter(),
		xlsx:      export.NewXLSXExporter(),
		pdf:       export.NewPDFExporter(),
		gridPDF:   export.NewLandscapePDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns timetable rows matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read schedule")
	}
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	return entries, nil
}

// Create adds one lesson unless the teacher already holds that day and period.
func (s *ScheduleService) Create(ctx context.Context, req dto.ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput(s.validator, err, "invalid schedule payload")
	}
	entry := entryFromRequest(req)

	existing, err := s.repo.FindBySlot(ctx, entry.Key())
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read schedule")
	}
	if len(existing) > 0 {
		classes := make([]string, 0, len(existing)+1)
		for _, e := range existing {
			classes = append(classes, e.ClassName)
		}
		classes = append(classes, entry.ClassName)
		return nil, s.wrapConflict("teacher already assigned to another class at this hour", []models.ScheduleConflict{{SlotKey: entry.Key(), ClassNames: classes}})
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, appErrors.Storage(err, "unable to write schedule")
	}
	s.logger.Info("schedule entry created", zap.String("teacher", entry.Teacher), zap.String("day", string(entry.Day)), zap.String("period", string(entry.Period)))
	return &entry, nil
}

// ReplaceAll swaps the whole timetable for the edited grid. Every duplicate
// (teacher, day, period) is reported and nothing is written.
func (s *ScheduleService) ReplaceAll(ctx context.Context, req dto.ReplaceScheduleRequest) ([]models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput(s.validator, err, "invalid schedule payload")
	}
	entries := make([]models.ScheduleEntry, 0, len(req.Entries))
	for _, item := range req.Entries {
		entries = append(entries, entryFromRequest(item))
	}
	if err := s.replace(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes a timetable row.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Storage(err, "unable to read schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Storage(err, "unable to write schedule")
	}
	return nil
}

// Import replaces the timetable with an uploaded CSV or XLSX file.
func (s *ScheduleService) Import(ctx context.Context, filename string, data []byte) (*dto.ImportScheduleResponse, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = export.ReadCSV(data)
	case FormatXLSX:
		records, err = readTimetableSheet(data)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable file must be .csv or .xlsx")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read timetable file")
	}

	entries, err := ParseScheduleTable(records)
	if err != nil {
		return nil, err
	}
	if err := s.replace(ctx, entries); err != nil {
		return nil, err
	}
	s.logger.Info("schedule imported", zap.String("format", format), zap.Int("rows", len(entries)))
	return &dto.ImportScheduleResponse{Format: format, Imported: len(entries)}, nil
}

// Export renders the timetable with the six columns in order.
func (s *ScheduleService) Export(ctx context.Context, format string) (*dto.ScheduleFile, error) {
	entries, err := s.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, err
	}
	SortScheduleEntries(entries)
	data := ScheduleDataset(entries)

	var (
		body        []byte
		contentType string
	)
	switch strings.ToLower(format) {
	case "", FormatCSV:
		format, contentType = FormatCSV, contentTypeCSV
		body, err = s.csv.Render(data)
	case FormatXLSX:
		contentType = contentTypeXLSX
		body, err = s.xlsx.Render(export.Sheet{Name: "orario", Data: data})
	case FormatPDF:
		contentType = contentTypePDF
		body, err = s.pdf.Render(data, "Orario docenti")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, xlsx or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &dto.ScheduleFile{Filename: "orario." + strings.ToLower(format), ContentType: contentType, Body: body}, nil
}

// Pivot renders the grid view for the given mode.
func (s *ScheduleService) Pivot(ctx context.Context, mode string) (*models.PivotTable, error) {
	entries, err := s.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, err
	}
	var table models.PivotTable
	switch mode {
	case "", PivotTeachers:
		table = TeacherPivot(entries)
	case PivotClasses:
		table = ClassPivot(entries)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "mode must be teachers or classes")
	}
	return &table, nil
}

// PivotPDF renders a grid view on a landscape page.
func (s *ScheduleService) PivotPDF(ctx context.Context, mode string) (*dto.ScheduleFile, error) {
	table, err := s.Pivot(ctx, mode)
	if err != nil {
		return nil, err
	}
	title := "Orario per ora e giorno"
	if table.Mode == PivotClasses {
		title = "Orario per classe"
	}
	body, err := s.gridPDF.Render(PivotDataset(*table), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable grid")
	}
	return &dto.ScheduleFile{Filename: "orario_" + table.Mode + ".pdf", ContentType: contentTypePDF, Body: body}, nil
}

// Teachers lists the distinct teacher names.
func (s *ScheduleService) Teachers(ctx context.Context) ([]string, error) {
	entries, err := s.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, err
	}
	return TeacherNames(entries), nil
}

// Classes lists the distinct class names in natural order.
func (s *ScheduleService) Classes(ctx context.Context) ([]string, error) {
	entries, err := s.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, err
	}
	return ClassNames(entries), nil
}

func (s *ScheduleService) replace(ctx context.Context, entries []models.ScheduleEntry) error {
	if conflicts := DetectScheduleConflicts(entries); len(conflicts) > 0 {
		return s.wrapConflict(fmt.Sprintf("%d duplicate teacher assignments", len(conflicts)), conflicts)
	}
	if err := s.repo.ReplaceAll(ctx, entries); err != nil {
		return appErrors.Storage(err, "unable to write schedule")
	}
	return nil
}

func (s *ScheduleService) wrapConflict(message string, conflicts []models.ScheduleConflict) error {
	domainErr := &models.ScheduleConflictError{Message: message, Conflicts: conflicts}
	appErr := appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("schedule conflict: %s", message))
	return appErrors.WithDetails(appErr, domainErr)
}

// SortScheduleEntries orders rows by teacher, week day, period then class.
func SortScheduleEntries(entries []models.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Teacher != b.Teacher {
			return a.Teacher < b.Teacher
		}
		if a.Day.Index() != b.Day.Index() {
			return a.Day.Index() < b.Day.Index()
		}
		if a.Period.Ordinal() != b.Period.Ordinal() {
			return a.Period.Ordinal() < b.Period.Ordinal()
		}
		return NaturalClassLess(a.ClassName, b.ClassName)
	})
}

func entryFromRequest(req dto.ScheduleEntryRequest) models.ScheduleEntry {
	day, _ := models.ParseDay(req.Day)
	period, _ := models.ParsePeriod(req.Period)
	lessonType, _ := models.ParseLessonType(req.LessonType)
	return models.ScheduleEntry{
		Teacher:    strings.TrimSpace(req.Teacher),
		Day:        day,
		Period:     period,
		ClassName:  strings.TrimSpace(req.ClassName),
		LessonType: lessonType,
		Exclude:    req.Exclude,
	}
}

// readTimetableSheet prefers the "orario" sheet of a backup workbook and
// falls back to the first worksheet.
func readTimetableSheet(data []byte) ([][]string, error) {
	if rows, err := export.ReadXLSXSheet(data, SheetSchedule); err == nil && len(rows) > 0 {
		return rows, nil
	}
	return export.ReadXLSX(data)
}
