package models

import "time"

// NoSubstitute marks a slot left without a replacement.
const NoSubstitute = "None"

// AbsenceRequest lists the teachers absent on a date.
type AbsenceRequest struct {
	AbsentTeachers []string  `json:"absent_teachers"`
	Date           time.Time `json:"date"`
	Day            Day       `json:"day"`
}

// NewAbsenceRequest derives the weekday from date.
func NewAbsenceRequest(date time.Time, absent []string) AbsenceRequest {
	return AbsenceRequest{AbsentTeachers: absent, Date: date, Day: DayOf(date)}
}

// IsAbsent reports whether teacher is part of the request.
func (r AbsenceRequest) IsAbsent(teacher string) bool {
	for _, t := range r.AbsentTeachers {
		if t == teacher {
			return true
		}
	}
	return false
}

// DateKey is the ISO date string used by the history tables.
func (r AbsenceRequest) DateKey() string {
	return r.Date.Format(DateLayout)
}

// DateLayout is the "data" column format of the history tables.
const DateLayout = "2006-01-02"

// UncoveredSlot is a class period whose regular teacher is absent.
type UncoveredSlot struct {
	Day           Day        `json:"day"`
	Period        Period     `json:"period"`
	ClassName     string     `json:"class_name"`
	AbsentTeacher string     `json:"absent_teacher"`
	LessonType    LessonType `json:"lesson_type"`
}

// Tier is the priority bucket a candidate was found in.
type Tier int

const (
	TierNone Tier = iota
	TierSameClassSupport
	TierOtherSupport
	TierFreeTeacher
	TierExcluded
)

// String returns a stable label for logs and metrics.
func (t Tier) String() string {
	switch t {
	case TierSameClassSupport:
		return "same_class_support"
	case TierOtherSupport:
		return "other_support"
	case TierFreeTeacher:
		return "free_teacher"
	case TierExcluded:
		return "excluded"
	}
	return "none"
}

// Candidate is one eligible substitute for a slot.
type Candidate struct {
	Teacher     string `json:"teacher"`
	Tier        Tier   `json:"tier"`
	IsSupport   bool   `json:"is_support"`
	NotProposed bool   `json:"not_proposed"`
	Load        int    `json:"load"`
	Label       string `json:"label"`
}

// SubstitutionProposal is the recommendation for one uncovered slot.
type SubstitutionProposal struct {
	Slot           UncoveredSlot `json:"slot"`
	Candidate      string        `json:"candidate"`
	RankTier       Tier          `json:"rank_tier"`
	IsSupportMatch bool          `json:"is_support_match"`
	Alternatives   []Candidate   `json:"alternatives"`
}

// Assignment is a reviewer-confirmed choice for one slot.
type Assignment struct {
	Period        Period `json:"period"`
	ClassName     string `json:"class_name"`
	AbsentTeacher string `json:"absent_teacher"`
	Substitute    string `json:"substitute"`
}

// Filled reports whether a real teacher was chosen.
func (a Assignment) Filled() bool {
	return a.Substitute != "" && a.Substitute != NoSubstitute
}

// ViolationKind classifies assignment problems found before commit.
type ViolationKind string

const (
	ViolationDuplicateAssignment ViolationKind = "duplicate_assignment"
	ViolationAlreadyBusy         ViolationKind = "already_busy"
	ViolationAbsentSubstitute    ViolationKind = "absent_substitute"
)

// Violation is one problem reported by the assignment validator.
type Violation struct {
	Period    Period        `json:"period"`
	Teachers  []string      `json:"teachers"`
	Kind      ViolationKind `json:"violation_kind"`
	ClassName string        `json:"class_name,omitempty"`
}

// ValidationResult is the outcome of validating an assignment set.
type ValidationResult struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations"`
}

// DraftStatus is the lifecycle state of a substitution session.
type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusValidated DraftStatus = "validated"
	DraftStatusCommitted DraftStatus = "committed"
)

// CanTransition enforces the one-way draft → validated → committed flow.
func (s DraftStatus) CanTransition(next DraftStatus) bool {
	switch s {
	case DraftStatusDraft:
		return next == DraftStatusValidated
	case DraftStatusValidated:
		return next == DraftStatusCommitted
	}
	return false
}

// SubstitutionDraft holds a review session between proposal and commit.
type SubstitutionDraft struct {
	ID          string                 `json:"id"`
	Status      DraftStatus            `json:"status"`
	Request     AbsenceRequest         `json:"request"`
	Slots       []UncoveredSlot        `json:"slots"`
	Proposals   []SubstitutionProposal `json:"proposals"`
	Assignments []Assignment           `json:"assignments"`
	Violations  []Violation            `json:"violations,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// HistoryWriteMode selects how a commit treats rows already stored for the date.
type HistoryWriteMode string

const (
	HistoryWriteAppend  HistoryWriteMode = "append"
	HistoryWriteReplace HistoryWriteMode = "replace"
)

// AbsencePolicy decides which uncovered slots produce absence rows.
type AbsencePolicy string

const (
	AbsencePolicyAll    AbsencePolicy = "all"
	AbsencePolicyFilled AbsencePolicy = "filled"
)

// CommitResult summarises rows written by a commit.
type CommitResult struct {
	DraftID               string           `json:"draft_id"`
	Date                  string           `json:"date"`
	Mode                  HistoryWriteMode `json:"mode"`
	SubstitutionRows      int              `json:"substitution_rows"`
	AbsenceRows           int              `json:"absence_rows"`
	ReplacedExistingDay   bool             `json:"replaced_existing_day"`
	AnnouncementPublished bool             `json:"announcement_published"`
}
