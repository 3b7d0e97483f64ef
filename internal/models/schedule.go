package models

import (
	"fmt"
	"strings"
	"time"
)

// Day is a localized weekday name as stored in the timetable ("Giorno").
type Day string

const (
	DayMonday    Day = "Lunedì"
	DayTuesday   Day = "Martedì"
	DayWednesday Day = "Mercoledì"
	DayThursday  Day = "Giovedì"
	DayFriday    Day = "Venerdì"
	DaySaturday  Day = "Sabato"
	DaySunday    Day = "Domenica"
)

// SchoolDays lists the days a timetable row may use, in week order.
var SchoolDays = []Day{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

var dayAliases = map[string]Day{
	"lunedì": DayMonday, "lunedi": DayMonday, "monday": DayMonday, "mon": DayMonday,
	"martedì": DayTuesday, "martedi": DayTuesday, "tuesday": DayTuesday, "tue": DayTuesday,
	"mercoledì": DayWednesday, "mercoledi": DayWednesday, "wednesday": DayWednesday, "wed": DayWednesday,
	"giovedì": DayThursday, "giovedi": DayThursday, "thursday": DayThursday, "thu": DayThursday,
	"venerdì": DayFriday, "venerdi": DayFriday, "friday": DayFriday, "fri": DayFriday,
	"sabato": DaySaturday, "saturday": DaySaturday, "sat": DaySaturday,
	"domenica": DaySunday, "sunday": DaySunday, "sun": DaySunday,
}

// ParseDay accepts Italian names (with or without accent) and English names.
func ParseDay(raw string) (Day, error) {
	if d, ok := dayAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("invalid day %q", raw)
}

// DayOf maps a calendar date to its localized weekday. Weekend days map
// through but never match timetable rows.
func DayOf(date time.Time) Day {
	switch date.Weekday() {
	case time.Monday:
		return DayMonday
	case time.Tuesday:
		return DayTuesday
	case time.Wednesday:
		return DayWednesday
	case time.Thursday:
		return DayThursday
	case time.Friday:
		return DayFriday
	case time.Saturday:
		return DaySaturday
	default:
		return DaySunday
	}
}

// IsSchoolDay reports whether timetable rows can exist on d.
func (d Day) IsSchoolDay() bool {
	for _, s := range SchoolDays {
		if s == d {
			return true
		}
	}
	return false
}

// Index returns the week position of d (Monday = 1), or 0 when unknown.
func (d Day) Index() int {
	switch d {
	case DayMonday:
		return 1
	case DayTuesday:
		return 2
	case DayWednesday:
		return 3
	case DayThursday:
		return 4
	case DayFriday:
		return 5
	case DaySaturday:
		return 6
	case DaySunday:
		return 7
	}
	return 0
}

// Period is a teaching hour ("Ora") written as a roman numeral I..VI.
type Period string

const (
	PeriodI   Period = "I"
	PeriodII  Period = "II"
	PeriodIII Period = "III"
	PeriodIV  Period = "IV"
	PeriodV   Period = "V"
	PeriodVI  Period = "VI"
)

// Periods lists all teaching hours in order.
var Periods = []Period{PeriodI, PeriodII, PeriodIII, PeriodIV, PeriodV, PeriodVI}

// ParsePeriod accepts roman numerals (any case) and the digits 1..6.
func ParsePeriod(raw string) (Period, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	for i, p := range Periods {
		if value == string(p) || value == fmt.Sprintf("%d", i+1) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid period %q", raw)
}

// Ordinal returns 1..6 for valid periods and 0 otherwise.
func (p Period) Ordinal() int {
	for i, candidate := range Periods {
		if candidate == p {
			return i + 1
		}
	}
	return 0
}

// LessonType is the kind of duty a row describes ("Tipo").
type LessonType string

const (
	LessonTypeLesson  LessonType = "Lezione"
	LessonTypeSupport LessonType = "Sostegno"
	LessonTypeOther   LessonType = "Altro"
)

// ParseLessonType matches the stored labels case-insensitively.
func ParseLessonType(raw string) (LessonType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lezione", "lesson":
		return LessonTypeLesson, nil
	case "sostegno", "support":
		return LessonTypeSupport, nil
	case "altro", "other":
		return LessonTypeOther, nil
	}
	return "", fmt.Errorf("invalid lesson type %q", raw)
}

// ScheduleEntry is one teacher's lesson slot in the weekly timetable.
type ScheduleEntry struct {
	ID         string     `db:"id" json:"id"`
	Teacher    string     `db:"teacher" json:"teacher"`
	Day        Day        `db:"day" json:"day"`
	Period     Period     `db:"period" json:"period"`
	ClassName  string     `db:"class_name" json:"class_name"`
	LessonType LessonType `db:"lesson_type" json:"lesson_type"`
	Exclude    bool       `db:"exclude_from_substitution" json:"exclude_from_substitution"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// IsSupport reports whether the row is a special-needs support duty.
func (e ScheduleEntry) IsSupport() bool {
	return e.LessonType == LessonTypeSupport
}

// SlotKey identifies the (teacher, day, period) triple that must be unique.
type SlotKey struct {
	Teacher string `json:"teacher"`
	Day     Day    `json:"day"`
	Period  Period `json:"period"`
}

// Key returns the uniqueness key of the entry.
func (e ScheduleEntry) Key() SlotKey {
	return SlotKey{Teacher: e.Teacher, Day: e.Day, Period: e.Period}
}

// ScheduleFilter describes query params for listing timetable rows.
type ScheduleFilter struct {
	Teacher   string
	Day       Day
	ClassName string
}

// ScheduleConflict describes a (teacher, day, period) already taken.
type ScheduleConflict struct {
	SlotKey
	ClassNames []string `json:"class_names"`
}

// ScheduleConflictError is returned when rows collide on (teacher, day, period).
type ScheduleConflictError struct {
	Message   string             `json:"message"`
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// PivotTable is a rendered grid view of the timetable.
type PivotTable struct {
	Mode    string     `json:"mode"`
	Columns []string   `json:"columns"`
	Rows    []PivotRow `json:"rows"`
}

// PivotRow is one grid line; Cells align with PivotTable.Columns.
type PivotRow struct {
	Day    Day      `json:"day,omitempty"`
	Period Period   `json:"period"`
	Cells  []string `json:"cells"`
}
