package dto

import "github.com/noah-isme/sma-substitute-api/internal/models"

// ProposeSubstitutionsRequest opens a review session for an absence date.
type ProposeSubstitutionsRequest struct {
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	AbsentTeachers []string `json:"absentTeachers" validate:"omitempty,dive,required"`
}

// AssignmentOverride replaces the substitute chosen for one slot. Substitute
// accepts dropdown labels such as "[S] Rossi"; an empty value leaves the
// slot uncovered.
type AssignmentOverride struct {
	Period        string `json:"period" validate:"required,period"`
	ClassName     string `json:"className" validate:"required"`
	AbsentTeacher string `json:"absentTeacher" validate:"required"`
	Substitute    string `json:"substitute"`
}

// UpdateAssignmentsRequest carries reviewer edits to a draft.
type UpdateAssignmentsRequest struct {
	Assignments []AssignmentOverride `json:"assignments" validate:"required,min=1,dive"`
}

// CommitSubstitutionsRequest selects how existing history for the date is treated.
type CommitSubstitutionsRequest struct {
	Mode string `json:"mode" validate:"omitempty,write_mode"`
}

// DraftResponse is a draft plus its rendered announcement.
type DraftResponse struct {
	models.SubstitutionDraft
	Announcement string `json:"announcement"`
}

// ValidationFailure is returned with CONFLICT when a draft cannot be validated.
type ValidationFailure struct {
	DraftID    string             `json:"draftId"`
	Violations []models.Violation `json:"violations"`
}
