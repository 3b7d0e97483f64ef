package models

import "time"

// Criticality is the predefined reason of a behaviour report.
type Criticality string

const (
	CriticalityHomework    Criticality = "Non ha portato i compiti"
	CriticalityMaterials   Criticality = "Non ha il materiale didattico"
	CriticalityDisturbance Criticality = "Disturbo in classe"
	CriticalityOther       Criticality = "Altro"
)

// Criticalities lists the accepted criticality labels.
var Criticalities = []Criticality{CriticalityHomework, CriticalityMaterials, CriticalityDisturbance, CriticalityOther}

// BehaviorReport captures a note about a student written by a teacher.
type BehaviorReport struct {
	ID          string      `db:"id" json:"id"`
	StudentName string      `db:"student_name" json:"student_name"`
	Subject     string      `db:"subject" json:"subject"`
	Criticality Criticality `db:"criticality" json:"criticality"`
	ReportDate  time.Time   `db:"report_date" json:"report_date"`
	Teacher     string      `db:"teacher" json:"teacher"`
	Notes       string      `db:"notes" json:"notes"`
	CreatedBy   string      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// BehaviorReportFilter allows listing reports.
type BehaviorReportFilter struct {
	StudentName   string
	Subject       string
	Criticalities []Criticality
	Page          int
	PageSize      int
}

// BehaviorCount is a number of reports grouped by a key.
type BehaviorCount struct {
	Key   string `db:"key" json:"key"`
	Total int    `db:"total" json:"total"`
}

// BehaviorStatistics aggregates report counts.
type BehaviorStatistics struct {
	ByStudent []BehaviorCount `json:"by_student"`
	BySubject []BehaviorCount `json:"by_subject"`
}
