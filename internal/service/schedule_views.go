package service

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
)

// Pivot view modes.
const (
	PivotTeachers = "teachers"
	PivotClasses  = "classes"
)

// TeacherPivot lays the timetable out as periods × days; each cell lists
// "Name (Class)" entries joined by " / ", support duties prefixed with "[S]".
func TeacherPivot(entries []models.ScheduleEntry) models.PivotTable {
	sorted := append([]models.ScheduleEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Teacher != sorted[j].Teacher {
			return sorted[i].Teacher < sorted[j].Teacher
		}
		return NaturalClassLess(sorted[i].ClassName, sorted[j].ClassName)
	})

	cells := make(map[models.Period]map[models.Day][]string)
	for _, e := range sorted {
		if !e.Day.IsSchoolDay() {
			continue
		}
		label := e.Teacher + " (" + e.ClassName + ")"
		if e.IsSupport() {
			label = supportLabelPrefix + label
		}
		if cells[e.Period] == nil {
			cells[e.Period] = make(map[models.Day][]string)
		}
		cells[e.Period][e.Day] = append(cells[e.Period][e.Day], label)
	}

	table := models.PivotTable{Mode: PivotTeachers, Columns: make([]string, 0, len(models.SchoolDays))}
	for _, d := range models.SchoolDays {
		table.Columns = append(table.Columns, string(d))
	}
	for _, p := range models.Periods {
		row := models.PivotRow{Period: p, Cells: make([]string, len(models.SchoolDays))}
		for i, d := range models.SchoolDays {
			row.Cells[i] = strings.Join(cells[p][d], " / ")
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// PivotDataset flattens a grid into an exportable table.
func PivotDataset(table models.PivotTable) export.Dataset {
	lead := []string{"Ora"}
	if table.Mode == PivotClasses {
		lead = []string{"Giorno", "Ora"}
	}
	data := export.Dataset{Headers: append(lead, table.Columns...)}
	for _, row := range table.Rows {
		record := map[string]string{"Ora": string(row.Period)}
		if table.Mode == PivotClasses {
			record["Giorno"] = string(row.Day)
		}
		for i, column := range table.Columns {
			record[column] = row.Cells[i]
		}
		data.Rows = append(data.Rows, record)
	}
	return data
}

// ClassPivot lays the timetable out as (day, period) × classes in natural
// class order; cells hold the distinct teachers, "-" when empty.
func ClassPivot(entries []models.ScheduleEntry) models.PivotTable {
	type slot struct {
		day    models.Day
		period models.Period
	}
	cells := make(map[slot]map[string][]string)
	for _, e := range entries {
		key := slot{day: e.Day, period: e.Period}
		if cells[key] == nil {
			cells[key] = make(map[string][]string)
		}
		teachers := cells[key][e.ClassName]
		if !containsString(teachers, e.Teacher) {
			cells[key][e.ClassName] = append(teachers, e.Teacher)
		}
	}

	classes := ClassNames(entries)
	table := models.PivotTable{Mode: PivotClasses, Columns: classes}
	for _, d := range models.SchoolDays {
		for _, p := range models.Periods {
			row := models.PivotRow{Day: d, Period: p, Cells: make([]string, len(classes))}
			for i, className := range classes {
				teachers := cells[slot{day: d, period: p}][className]
				if len(teachers) == 0 {
					row.Cells[i] = "-"
					continue
				}
				row.Cells[i] = strings.Join(teachers, " / ")
			}
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

// TeacherNames returns the distinct teachers, sorted.
func TeacherNames(entries []models.ScheduleEntry) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, e := range entries {
		if _, ok := seen[e.Teacher]; ok {
			continue
		}
		seen[e.Teacher] = struct{}{}
		names = append(names, e.Teacher)
	}
	sort.Strings(names)
	return names
}

// ClassNames returns the distinct classes in natural order.
func ClassNames(entries []models.ScheduleEntry) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, e := range entries {
		if _, ok := seen[e.ClassName]; ok {
			continue
		}
		seen[e.ClassName] = struct{}{}
		names = append(names, e.ClassName)
	}
	sort.SliceStable(names, func(i, j int) bool { return NaturalClassLess(names[i], names[j]) })
	return names
}

// NaturalClassLess orders class names by grade number then section, so
// "2B" sorts before "10C". Names without a leading number go last.
func NaturalClassLess(a, b string) bool {
	na, sa, oka := splitClassName(a)
	nb, sb, okb := splitClassName(b)
	switch {
	case oka && !okb:
		return true
	case !oka && okb:
		return false
	case !oka && !okb:
		return a < b
	}
	if na != nb {
		return na < nb
	}
	return sa < sb
}

func splitClassName(name string) (int, string, bool) {
	name = strings.TrimSpace(name)
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, name, false
	}
	grade, err := strconv.Atoi(name[:end])
	if err != nil {
		return 0, name, false
	}
	section := strings.TrimLeftFunc(name[end:], unicode.IsSpace)
	return grade, strings.ToUpper(section), true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
