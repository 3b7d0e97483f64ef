package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
)

// ScheduleColumns is the column order of timetable files.
var ScheduleColumns = []string{"Docente", "Giorno", "Ora", "Classe", "Tipo", "Escludi"}

// ParseScheduleTable turns uploaded rows (header first) into timetable entries.
// Every required column must be present; extra columns are ignored and
// completely blank rows are skipped.
func ParseScheduleTable(records [][]string) ([]models.ScheduleEntry, error) {
	if len(records) == 0 {
		return nil, missingColumnsError(ScheduleColumns)
	}
	index := make(map[string]int, len(records[0]))
	for i, header := range records[0] {
		index[strings.TrimSpace(header)] = i
	}
	missing := make([]string, 0)
	for _, col := range ScheduleColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, missingColumnsError(missing)
	}

	cell := func(record []string, col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	entries := make([]models.ScheduleEntry, 0, len(records)-1)
	for n, record := range records[1:] {
		line := n + 2
		if blankRecord(record) {
			continue
		}
		teacher := cell(record, "Docente")
		className := cell(record, "Classe")
		if teacher == "" || className == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: Docente and Classe are required", line))
		}
		day, err := models.ParseDay(cell(record, "Giorno"))
		if err != nil || !day.IsSchoolDay() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: invalid Giorno %q", line, cell(record, "Giorno")))
		}
		period, err := models.ParsePeriod(cell(record, "Ora"))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: invalid Ora %q", line, cell(record, "Ora")))
		}
		lessonType, err := models.ParseLessonType(cell(record, "Tipo"))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: invalid Tipo %q", line, cell(record, "Tipo")))
		}
		exclude, err := parseExclude(cell(record, "Escludi"))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: invalid Escludi %q", line, cell(record, "Escludi")))
		}
		entries = append(entries, models.ScheduleEntry{
			Teacher:    teacher,
			Day:        day,
			Period:     period,
			ClassName:  className,
			LessonType: lessonType,
			Exclude:    exclude,
		})
	}
	return entries, nil
}

// ScheduleDataset renders entries with the six timetable columns in order.
func ScheduleDataset(entries []models.ScheduleEntry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Docente": e.Teacher,
			"Giorno":  string(e.Day),
			"Ora":     string(e.Period),
			"Classe":  e.ClassName,
			"Tipo":    string(e.LessonType),
			"Escludi": strconv.FormatBool(e.Exclude),
		})
	}
	return export.Dataset{Headers: ScheduleColumns, Rows: rows}
}

// DetectScheduleConflicts reports every (teacher, day, period) held more than once.
func DetectScheduleConflicts(entries []models.ScheduleEntry) []models.ScheduleConflict {
	classes := make(map[models.SlotKey][]string)
	order := make([]models.SlotKey, 0)
	for _, e := range entries {
		key := e.Key()
		if _, ok := classes[key]; !ok {
			order = append(order, key)
		}
		classes[key] = append(classes[key], e.ClassName)
	}
	conflicts := make([]models.ScheduleConflict, 0)
	for _, key := range order {
		if len(classes[key]) > 1 {
			conflicts = append(conflicts, models.ScheduleConflict{SlotKey: key, ClassNames: classes[key]})
		}
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Teacher != b.Teacher {
			return a.Teacher < b.Teacher
		}
		if a.Day.Index() != b.Day.Index() {
			return a.Day.Index() < b.Day.Index()
		}
		return a.Period.Ordinal() < b.Period.Ordinal()
	})
	return conflicts
}

func missingColumnsError(missing []string) *appErrors.Error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid timetable file: it must contain the columns %s", strings.Join(ScheduleColumns, ", "))),
		map[string][]string{"required": ScheduleColumns, "missing": missing},
	)
}

func parseExclude(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "false", "falso", "no", "n", "0":
		return false, nil
	case "true", "vero", "si", "sì", "yes", "y", "x", "1":
		return true, nil
	}
	return false, fmt.Errorf("invalid boolean %q", raw)
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
