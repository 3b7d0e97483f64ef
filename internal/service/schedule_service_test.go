package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
)

type mockScheduleStore struct {
	entries    []models.ScheduleEntry
	replaced   bool
	writeErr   error
	nextID     int
	deletedIDs []string
}

func (m *mockScheduleStore) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	return (&fakeScheduleRepo{entries: m.entries}).List(ctx, filter)
}

func (m *mockScheduleStore) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleStore) FindBySlot(ctx context.Context, key models.SlotKey) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, e := range m.entries {
		if e.Key() == key {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockScheduleStore) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.nextID++
	entry.ID = fmt.Sprintf("e%d", m.nextID)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockScheduleStore) ReplaceAll(ctx context.Context, entries []models.ScheduleEntry) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.replaced = true
	m.entries = append([]models.ScheduleEntry(nil), entries...)
	return nil
}

func (m *mockScheduleStore) Delete(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func newTestScheduleService(store *mockScheduleStore) *ScheduleService {
	return NewScheduleService(store, nil, zap.NewNop())
}

func TestScheduleServiceCreate(t *testing.T) {
	store := &mockScheduleStore{entries: []models.ScheduleEntry{row("Rossi", models.DayMonday, models.PeriodI, "1A", models.LessonTypeLesson)}}
	svc := newTestScheduleService(store)

	entry, err := svc.Create(context.Background(), dto.ScheduleEntryRequest{Teacher: " Bianchi ", Day: "lunedi", Period: "2", ClassName: "1A", LessonType: "Sostegno", Exclude: true})
	require.NoError(t, err)
	assert.Equal(t, "Bianchi", entry.Teacher)
	assert.Equal(t, models.DayMonday, entry.Day)
	assert.Equal(t, models.PeriodII, entry.Period)
	assert.Equal(t, models.LessonTypeSupport, entry.LessonType)
	assert.True(t, entry.Exclude)
	assert.NotEmpty(t, entry.ID)
}

func TestScheduleServiceCreateRejectsDuplicateSlot(t *testing.T) {
	store := &mockScheduleStore{entries: []models.ScheduleEntry{row("Rossi", models.DayMonday, models.PeriodI, "1A", models.LessonTypeLesson)}}
	svc := newTestScheduleService(store)

	_, err := svc.Create(context.Background(), dto.ScheduleEntryRequest{Teacher: "Rossi", Day: "Lunedì", Period: "I", ClassName: "2B", LessonType: "Lezione"})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"1A", "2B"}, conflict.Conflicts[0].ClassNames)
	assert.Len(t, store.entries, 1)
}

func TestScheduleServiceCreateValidation(t *testing.T) {
	svc := newTestScheduleService(&mockScheduleStore{})

	cases := []dto.ScheduleEntryRequest{
		{Teacher: "Rossi", Day: "Sabato", Period: "I", ClassName: "1A", LessonType: "Lezione"},
		{Teacher: "Rossi", Day: "Lunedì", Period: "VII", ClassName: "1A", LessonType: "Lezione"},
		{Teacher: "Rossi", Day: "Lunedì", Period: "I", ClassName: "1A", LessonType: "Laboratorio"},
		{Day: "Lunedì", Period: "I", ClassName: "1A", LessonType: "Lezione"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, "%+v", req)
	}
}

func TestScheduleServiceValidationDetailsUseJSONNames(t *testing.T) {
	svc := newTestScheduleService(&mockScheduleStore{})

	_, err := svc.Create(context.Background(), dto.ScheduleEntryRequest{Teacher: "Rossi", Day: "Sabato", Period: "VII", ClassName: "1A", LessonType: "Lezione"})
	require.Error(t, err)
	details, ok := appErrors.FromError(err).Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "day must be a school day from Lunedì to Venerdì", details["day"])
	assert.Equal(t, "period must be one of I, II, III, IV, V, VI", details["period"])

	_, err = svc.ReplaceAll(context.Background(), dto.ReplaceScheduleRequest{Entries: []dto.ScheduleEntryRequest{
		{Day: "Lunedì", Period: "I", ClassName: "1A", LessonType: "Lezione"},
	}})
	require.Error(t, err)
	details, ok = appErrors.FromError(err).Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "teacher is a required field", details["entries[0].teacher"])
}

func TestScheduleServiceReplaceAllReportsEveryDuplicate(t *testing.T) {
	store := &mockScheduleStore{}
	svc := newTestScheduleService(store)

	_, err := svc.ReplaceAll(context.Background(), dto.ReplaceScheduleRequest{Entries: []dto.ScheduleEntryRequest{
		{Teacher: "Rossi", Day: "Lunedì", Period: "I", ClassName: "1A", LessonType: "Lezione"},
		{Teacher: "Rossi", Day: "Lunedì", Period: "I", ClassName: "2A", LessonType: "Lezione"},
		{Teacher: "Verdi", Day: "Martedì", Period: "III", ClassName: "3C", LessonType: "Lezione"},
		{Teacher: "Verdi", Day: "Martedì", Period: "III", ClassName: "3D", LessonType: "Sostegno"},
		{Teacher: "Verdi", Day: "Martedì", Period: "IV", ClassName: "3D", LessonType: "Lezione"},
	}})
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	require.Len(t, conflict.Conflicts, 2)
	assert.Equal(t, "Rossi", conflict.Conflicts[0].Teacher)
	assert.Equal(t, "Verdi", conflict.Conflicts[1].Teacher)
	assert.False(t, store.replaced)
}

func TestScheduleServiceReplaceAllStorageFailure(t *testing.T) {
	svc := newTestScheduleService(&mockScheduleStore{writeErr: errors.New("sheet locked")})

	_, err := svc.ReplaceAll(context.Background(), dto.ReplaceScheduleRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, appErr.Code)
	assert.Equal(t, "unable to write schedule", appErr.Message)
}

func TestScheduleServiceDelete(t *testing.T) {
	entry := row("Rossi", models.DayMonday, models.PeriodI, "1A", models.LessonTypeLesson)
	entry.ID = "e1"
	store := &mockScheduleStore{entries: []models.ScheduleEntry{entry}}
	svc := newTestScheduleService(store)

	require.NoError(t, svc.Delete(context.Background(), "e1"))
	assert.Equal(t, []string{"e1"}, store.deletedIDs)

	err := svc.Delete(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceImportCSV(t *testing.T) {
	store := &mockScheduleStore{entries: []models.ScheduleEntry{row("Old", models.DayFriday, models.PeriodVI, "5E", models.LessonTypeLesson)}}
	svc := newTestScheduleService(store)

	csv := "Docente,Giorno,Ora,Classe,Tipo,Escludi,Note\n" +
		"Rossi,Lunedì,I,1A,Lezione,False,\n" +
		",,,,,,\n" +
		"Mario,Martedì,II,2B,Sostegno,True,part time\n"
	resp, err := svc.Import(context.Background(), "orario.CSV", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, FormatCSV, resp.Format)
	require.Len(t, store.entries, 2)
	assert.Equal(t, models.ScheduleEntry{Teacher: "Mario", Day: models.DayTuesday, Period: models.PeriodII, ClassName: "2B", LessonType: models.LessonTypeSupport, Exclude: true}, store.entries[1])
}

func TestScheduleServiceImportRejectsMissingColumn(t *testing.T) {
	store := &mockScheduleStore{entries: []models.ScheduleEntry{row("Old", models.DayFriday, models.PeriodVI, "5E", models.LessonTypeLesson)}}
	svc := newTestScheduleService(store)

	csv := "Docente,Giorno,Ora,Classe,Tipo\nRossi,Lunedì,I,1A,Lezione\n"
	_, err := svc.Import(context.Background(), "orario.csv", []byte(csv))
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Docente, Giorno, Ora, Classe, Tipo, Escludi")
	assert.Equal(t, map[string][]string{"required": ScheduleColumns, "missing": {"Escludi"}}, appErr.Details)
	assert.False(t, store.replaced)
	assert.Len(t, store.entries, 1)
}

func TestScheduleServiceImportRowErrors(t *testing.T) {
	svc := newTestScheduleService(&mockScheduleStore{})

	csv := "Docente,Giorno,Ora,Classe,Tipo,Escludi\nRossi,Lunedì,I,1A,Lezione,forse\n"
	_, err := svc.Import(context.Background(), "orario.csv", []byte(csv))
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "row 2")

	_, err = svc.Import(context.Background(), "orario.ods", []byte(csv))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceExportRoundTrip(t *testing.T) {
	entries := []models.ScheduleEntry{
		row("Verdi", models.DayTuesday, models.PeriodIII, "10C", models.LessonTypeOther),
		row("Rossi", models.DayMonday, models.PeriodI, "1A", models.LessonTypeLesson),
		excludedRow("Bianchi", models.DayMonday, models.PeriodII, "2B", models.LessonTypeLesson),
	}
	svc := newTestScheduleService(&mockScheduleStore{entries: entries})

	for _, format := range []string{FormatCSV, FormatXLSX} {
		file, err := svc.Export(context.Background(), format)
		require.NoError(t, err)
		assert.Equal(t, "orario."+format, file.Filename)

		var records [][]string
		if format == FormatCSV {
			records, err = export.ReadCSV(file.Body)
		} else {
			records, err = export.ReadXLSX(file.Body)
		}
		require.NoError(t, err)
		assert.Equal(t, ScheduleColumns, records[0])

		parsed, err := ParseScheduleTable(records)
		require.NoError(t, err)
		require.Len(t, parsed, 3)
		assert.Equal(t, "Bianchi", parsed[0].Teacher)
		assert.True(t, parsed[0].Exclude)
		assert.Equal(t, models.LessonTypeOther, parsed[2].LessonType)
	}

	file, err := svc.Export(context.Background(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)

	_, err = svc.Export(context.Background(), "docx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherPivot(t *testing.T) {
	table := TeacherPivot([]models.ScheduleEntry{
		row("Rossi", models.DayMonday, models.PeriodI, "1A", models.LessonTypeLesson),
		row("Bianchi", models.DayMonday, models.PeriodI, "2B", models.LessonTypeSupport),
		row("Verdi", models.DayFriday, models.PeriodVI, "3C", models.LessonTypeLesson),
	})

	assert.Equal(t, []string{"Lunedì", "Martedì", "Mercoledì", "Giovedì", "Venerdì"}, table.Columns)
	require.Len(t, table.Rows, 6)
	assert.Equal(t, models.PeriodI, table.Rows[0].Period)
	assert.Equal(t, "[S] Bianchi (2B) / Rossi (1A)", table.Rows[0].Cells[0])
	assert.Equal(t, "", table.Rows[0].Cells[1])
	assert.Equal(t, "Verdi (3C)", table.Rows[5].Cells[4])
}

func TestClassPivot(t *testing.T) {
	table := ClassPivot([]models.ScheduleEntry{
		row("Rossi", models.DayMonday, models.PeriodI, "10C", models.LessonTypeLesson),
		row("Bianchi", models.DayMonday, models.PeriodI, "2B", models.LessonTypeLesson),
		row("Sara", models.DayMonday, models.PeriodI, "2B", models.LessonTypeSupport),
		row("Verdi", models.DayTuesday, models.PeriodII, "1A", models.LessonTypeLesson),
	})

	assert.Equal(t, []string{"1A", "2B", "10C"}, table.Columns)
	require.Len(t, table.Rows, 30)
	first := table.Rows[0]
	assert.Equal(t, models.DayMonday, first.Day)
	assert.Equal(t, models.PeriodI, first.Period)
	assert.Equal(t, []string{"-", "Bianchi / Sara", "Rossi"}, first.Cells)
	assert.Equal(t, []string{"Verdi", "-", "-"}, table.Rows[7].Cells)
}

func TestNaturalClassLess(t *testing.T) {
	assert.True(t, NaturalClassLess("1A", "2B"))
	assert.True(t, NaturalClassLess("2B", "10C"))
	assert.True(t, NaturalClassLess("3a", "3B"))
	assert.True(t, NaturalClassLess("5E", "Aula magna"))
	assert.False(t, NaturalClassLess("10C", "2B"))
}

func TestScheduleServiceListsAndPivotMode(t *testing.T) {
	svc := newTestScheduleService(&mockScheduleStore{entries: []models.ScheduleEntry{
		row("Verdi", models.DayMonday, models.PeriodI, "10C", models.LessonTypeLesson),
		row("Rossi", models.DayMonday, models.PeriodII, "2B", models.LessonTypeLesson),
		row("Rossi", models.DayTuesday, models.PeriodII, "10C", models.LessonTypeLesson),
	}})

	teachers, err := svc.Teachers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Rossi", "Verdi"}, teachers)

	classes, err := svc.Classes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2B", "10C"}, classes)

	_, err = svc.Pivot(context.Background(), "rooms")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	file, err := svc.PivotPDF(context.Background(), PivotClasses)
	require.NoError(t, err)
	assert.Equal(t, "orario_classes.pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestPivotDatasetLeadsWithSlotColumns(t *testing.T) {
	table := ClassPivot([]models.ScheduleEntry{
		row("Rossi", models.DayMonday, models.PeriodI, "1A", models.LessonTypeLesson),
	})
	data := PivotDataset(table)
	assert.Equal(t, []string{"Giorno", "Ora", "1A"}, data.Headers)
	assert.Equal(t, map[string]string{"Giorno": "Lunedì", "Ora": "I", "1A": "Rossi"}, data.Rows[0])

	data = PivotDataset(TeacherPivot(nil))
	assert.Equal(t, []string{"Ora", "Lunedì", "Martedì", "Mercoledì", "Giovedì", "Venerdì"}, data.Headers)
	assert.Len(t, data.Rows, 6)
}

func TestScheduleServiceImportsBackupWorkbook(t *testing.T) {
	store := &mockScheduleStore{}
	svc := newTestScheduleService(store)
	workbook, err := export.NewXLSXExporter().Render(
		export.Sheet{Name: "leggimi", Data: export.Dataset{Headers: []string{"nota"}, Rows: []map[string]string{{"nota": "backup"}}}},
		export.Sheet{Name: SheetSchedule, Data: ScheduleDataset([]models.ScheduleEntry{
			row("Rossi", models.DayMonday, models.PeriodI, "1A", models.LessonTypeLesson),
		})},
	)
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), "backup.xlsx", workbook)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}
