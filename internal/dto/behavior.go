package dto

// CreateBehaviorReportRequest records a note about a student.
type CreateBehaviorReportRequest struct {
	StudentName string `json:"studentName" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Criticality string `json:"criticality" validate:"required,criticality"`
	ReportDate  string `json:"reportDate" validate:"omitempty,datetime=2006-01-02"`
	Teacher     string `json:"teacher"`
	Notes       string `json:"notes" validate:"max=2000"`
}

// BehaviorReportListRequest filters the report list and its CSV export.
type BehaviorReportListRequest struct {
	StudentName   string   `form:"student"`
	Subject       string   `form:"subject"`
	Criticalities []string `form:"criticality" validate:"omitempty,dive,criticality"`
	Page          int      `form:"page" validate:"omitempty,min=1"`
	PageSize      int      `form:"page_size" validate:"omitempty,min=1,max=200"`
}
