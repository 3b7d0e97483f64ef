package models

// CommittedSubstitution is one row of the substitution history ("storico").
type CommittedSubstitution struct {
	ID      int64  `db:"id" json:"id"`
	Date    string `db:"date" json:"data"`
	Day     Day    `db:"day" json:"giorno"`
	Teacher string `db:"teacher" json:"docente"`
	Hours   int    `db:"hours" json:"ore"`
}

// AbsenceRecord is one row of the absence history ("assenze").
type AbsenceRecord struct {
	ID        int64  `db:"id" json:"id"`
	Date      string `db:"date" json:"data"`
	Day       Day    `db:"day" json:"giorno"`
	Teacher   string `db:"teacher" json:"docente"`
	Period    Period `db:"period" json:"ora"`
	ClassName string `db:"class_name" json:"classe"`
}

// HistoryTable names a history table for reset operations.
type HistoryTable string

const (
	HistorySubstitutions HistoryTable = "storico"
	HistoryAbsences      HistoryTable = "assenze"
)

// HistoryFilter narrows history listings.
type HistoryFilter struct {
	Teacher  string
	DateFrom string
	DateTo   string
	Page     int
	PageSize int
}

// TeacherTotal aggregates hours per teacher.
type TeacherTotal struct {
	Teacher string `db:"teacher" json:"teacher"`
	Total   int    `db:"total" json:"total"`
}

// HistoryStatistics groups the per-teacher aggregates shown to administrators.
type HistoryStatistics struct {
	SubstitutionHours []TeacherTotal `json:"substitution_hours"`
	AbsenceHours      []TeacherTotal `json:"absence_hours"`
}
