package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
)

type substitutionScheduleReader interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
}

type substitutionHistoryWriter interface {
	SubstitutionTotals(ctx context.Context) ([]models.TeacherTotal, error)
	ExistsForDate(ctx context.Context, date string) (bool, error)
	Append(ctx context.Context, date string, replace bool, substitutions []models.CommittedSubstitution, absences []models.AbsenceRecord) error
}

// SubstitutionConfig tunes the proposal, validation and commit steps.
type SubstitutionConfig struct {
	Proposer      ProposerOptions
	Validator     ValidatorOptions
	AbsencePolicy models.AbsencePolicy
}

type announcementPublisher interface {
	Publish(ctx context.Context, text string) error
}

// SubstitutionService drives a review session from absence to committed history.
type SubstitutionService struct {
	schedule  substitutionScheduleReader
	history   substitutionHistoryWriter
	drafts    DraftStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubstitutionConfig
	pdf       *export.PDFExporter
	announcer announcementPublisher
	autoPost  bool
	now       func() time.Time
}

// NewSubstitutionService wires the substitution workflow.
func NewSubstitutionService(
	schedule substitutionScheduleReader,
	history substitutionHistoryWriter,
	drafts DraftStore,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SubstitutionConfig,
) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if drafts == nil {
		drafts = NewMemoryDraftStore(0)
	}
	if cfg.AbsencePolicy == "" {
		cfg.AbsencePolicy = models.AbsencePolicyAll
	}
	registerSubstitutionValidations(validate)
	return &SubstitutionService{
		schedule:  schedule,
		history:   history,
		drafts:    drafts,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		pdf:       export.NewPDFExporter(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithAnnouncer enables PublishAnnouncement. With onCommit set, Commit also
// posts the announcement of every committed draft.
func (s *SubstitutionService) WithAnnouncer(p announcementPublisher, onCommit bool) *SubstitutionService {
	s.announcer = p
	s.autoPost = onCommit
	return s
}

// Propose computes ranked substitutes for every uncovered slot and opens a draft.
func (s *SubstitutionService) Propose(ctx context.Context, req dto.ProposeSubstitutionsRequest, createdBy string) (*dto.DraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput(s.validator, err, "invalid absence request")
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	absence := models.NewAbsenceRequest(date, normalizeTeachers(req.AbsentTeachers))

	schedule, err := s.schedule.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read schedule")
	}

	var loads map[string]int
	if s.cfg.Proposer.LoadBalancing && len(absence.AbsentTeachers) > 0 {
		totals, err := s.history.SubstitutionTotals(ctx)
		if err != nil {
			return nil, appErrors.Storage(err, "unable to read history")
		}
		loads = make(map[string]int, len(totals))
		for _, t := range totals {
			loads[t.Teacher] = t.Total
		}
	}

	proposals := ProposeSubstitutes(schedule, absence, loads, s.cfg.Proposer)
	slots := make([]models.UncoveredSlot, 0, len(proposals))
	for _, p := range proposals {
		slots = append(slots, p.Slot)
	}

	now := s.now()
	draft := models.SubstitutionDraft{
		ID:          uuid.NewString(),
		Status:      models.DraftStatusDraft,
		Request:     absence,
		Slots:       slots,
		Proposals:   proposals,
		Assignments: AssignmentsFromProposals(proposals),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Storage(err, "unable to store draft")
	}
	s.metrics.RecordProposals(proposals)

	s.logger.Info("substitutions proposed",
		zap.String("draft_id", draft.ID),
		zap.String("date", absence.DateKey()),
		zap.String("day", string(absence.Day)),
		zap.Int("absent_teachers", len(absence.AbsentTeachers)),
		zap.Int("uncovered_slots", len(slots)),
	)
	return s.render(draft), nil
}

// Get returns a draft with its current announcement text.
func (s *SubstitutionService) Get(ctx context.Context, id string) (*dto.DraftResponse, error) {
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(draft), nil
}

// UpdateAssignments applies reviewer overrides to a draft that has not been validated yet.
func (s *SubstitutionService) UpdateAssignments(ctx context.Context, id string, req dto.UpdateAssignmentsRequest) (*dto.DraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput(s.validator, err, "invalid assignments payload")
	}
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("draft is %s and can no longer be edited", draft.Status))
	}
	draft.Assignments = append([]models.Assignment(nil), draft.Assignments...)

	var timetable []string
	for _, override := range req.Assignments {
		period, err := models.ParsePeriod(override.Period)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period")
		}
		idx := -1
		for i, a := range draft.Assignments {
			if a.Period == period && a.ClassName == override.ClassName && a.AbsentTeacher == override.AbsentTeacher {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no uncovered slot for class %s, period %s, absent teacher %s", override.ClassName, period, override.AbsentTeacher))
		}
		substitute := StripCandidateLabel(override.Substitute)
		if isNoSubstitute(substitute) {
			draft.Assignments[idx].Substitute = models.NoSubstitute
			continue
		}
		name, ok := matchTeacher(substitute, alternativesFor(draft, draft.Assignments[idx]))
		if !ok {
			if timetable == nil {
				entries, err := s.schedule.List(ctx, models.ScheduleFilter{})
				if err != nil {
					return nil, appErrors.Storage(err, "unable to read schedule")
				}
				timetable = TeacherNames(entries)
			}
			name, ok = matchTeacher(substitute, timetable)
		}
		if !ok {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("substitute %q is not a teacher in the timetable", substitute)),
				map[string]any{"period": period, "class_name": override.ClassName, "substitute": substitute},
			)
		}
		draft.Assignments[idx].Substitute = name
	}

	draft.Violations = nil
	draft.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Storage(err, "unable to store draft")
	}
	return s.render(draft), nil
}

// Validate checks the draft for double booking. On success the draft moves
// to validated; on failure it stays editable and the violations are
// returned inside a CONFLICT error.
func (s *SubstitutionService) Validate(ctx context.Context, id string) (*dto.DraftResponse, error) {
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch draft.Status {
	case models.DraftStatusValidated:
		return s.render(draft), nil
	case models.DraftStatusCommitted:
		return nil, appErrors.Clone(appErrors.ErrConflict, "draft already committed")
	}

	schedule, err := s.schedule.List(ctx, models.ScheduleFilter{Day: draft.Request.Day})
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read schedule")
	}
	result := ValidateAssignments(schedule, draft.Request.Day, draft.Request.AbsentTeachers, draft.Assignments, s.cfg.Validator)
	s.metrics.RecordViolations(result.Violations)

	draft.UpdatedAt = s.now()
	if !result.OK {
		draft.Violations = result.Violations
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, appErrors.Storage(err, "unable to store draft")
		}
		s.logger.Info("substitution conflicts found", zap.String("draft_id", draft.ID), zap.Int("violations", len(result.Violations)))
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrConflict, "substitute assignments conflict"),
			dto.ValidationFailure{DraftID: draft.ID, Violations: result.Violations},
		)
	}

	draft.Status = models.DraftStatusValidated
	draft.Violations = nil
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Storage(err, "unable to store draft")
	}
	return s.render(draft), nil
}

// Commit appends a validated draft to history. When rows already exist for
// the date the caller must choose append or replace explicitly.
func (s *SubstitutionService) Commit(ctx context.Context, id string, req dto.CommitSubstitutionsRequest) (*models.CommitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput(s.validator, err, "invalid commit payload")
	}
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !draft.Status.CanTransition(models.DraftStatusCommitted) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("draft is %s; only validated drafts can be committed", draft.Status))
	}

	date := draft.Request.DateKey()
	exists, err := s.history.ExistsForDate(ctx, date)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read history")
	}
	mode := models.HistoryWriteMode(req.Mode)
	if exists && mode == "" {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("history already holds rows for %s; choose append or replace", date)),
			map[string]any{"date": date, "modes": []models.HistoryWriteMode{models.HistoryWriteAppend, models.HistoryWriteReplace}},
		)
	}
	if mode == "" {
		mode = models.HistoryWriteAppend
	}

	substitutions, absences := s.historyRows(draft)
	if err := s.history.Append(ctx, date, mode == models.HistoryWriteReplace, substitutions, absences); err != nil {
		return nil, appErrors.Storage(err, "unable to append history")
	}

	if err := s.cache.Invalidate(ctx, statisticsCachePattern); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}
	s.metrics.RecordCommit(mode)

	result := &models.CommitResult{
		DraftID:             draft.ID,
		Date:                date,
		Mode:                mode,
		SubstitutionRows:    len(substitutions),
		AbsenceRows:         len(absences),
		ReplacedExistingDay: exists && mode == models.HistoryWriteReplace,
	}

	draft.Status = models.DraftStatusCommitted
	draft.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, draft); err != nil {
		// History is written. Drop the validated draft so it cannot be committed twice.
		if delErr := s.drafts.Delete(ctx, draft.ID); delErr != nil {
			s.logger.Error("committed draft left in validated state", zap.String("draft_id", draft.ID), zap.Error(delErr))
		}
		s.logger.Warn("failed to mark draft committed", zap.String("draft_id", draft.ID), zap.Error(err))
		return nil, appErrors.WithDetails(
			appErrors.Storage(err, "history appended but draft state could not be saved; do not commit again"),
			result,
		)
	}
	if s.announcer != nil && s.autoPost {
		if err := s.publish(ctx, draft); err != nil {
			s.logger.Warn("failed to publish announcement", zap.String("draft_id", draft.ID), zap.Error(err))
		} else {
			result.AnnouncementPublished = true
		}
	}
	s.logger.Info("substitutions committed",
		zap.String("draft_id", draft.ID),
		zap.String("date", date),
		zap.String("mode", string(mode)),
		zap.Int("substitution_rows", result.SubstitutionRows),
		zap.Int("absence_rows", result.AbsenceRows),
	)
	return result, nil
}

// Announcement renders the message shared with staff for a draft.
func (s *SubstitutionService) Announcement(ctx context.Context, id string) (string, error) {
	draft, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	return FormatAnnouncement(draft.Request.Date, draft.Assignments), nil
}

// PublishAnnouncement resends the announcement of a committed draft.
func (s *SubstitutionService) PublishAnnouncement(ctx context.Context, id string) error {
	if s.announcer == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "announcement publishing is not configured")
	}
	draft, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if draft.Status != models.DraftStatusCommitted {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("draft is %s; only committed drafts are announced", draft.Status))
	}
	if err := s.publish(ctx, draft); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusBadGateway, "unable to publish announcement")
	}
	return nil
}

func (s *SubstitutionService) publish(ctx context.Context, draft models.SubstitutionDraft) error {
	err := s.announcer.Publish(ctx, FormatAnnouncement(draft.Request.Date, draft.Assignments))
	s.metrics.RecordAnnouncement(err)
	return err
}

// ExportPDF renders the printable substitution sheet of a draft.
func (s *SubstitutionService) ExportPDF(ctx context.Context, id string) (*dto.ScheduleFile, error) {
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"Ora", "Classe", "Assente", "Sostituto"}}
	for _, a := range draft.Assignments {
		substitute := a.Substitute
		if !a.Filled() {
			substitute = "-"
		}
		data.Rows = append(data.Rows, map[string]string{
			"Ora":       string(a.Period),
			"Classe":    a.ClassName,
			"Assente":   a.AbsentTeacher,
			"Sostituto": substitute,
		})
	}
	date := draft.Request.DateKey()
	title := fmt.Sprintf("Sostituzioni per %s (%s)", date, draft.Request.Day)
	body, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render substitution sheet")
	}
	return &dto.ScheduleFile{Filename: "sostituzioni_" + date + ".pdf", ContentType: contentTypePDF, Body: body}, nil
}

// Draft returns the raw draft for exporters.
func (s *SubstitutionService) Draft(ctx context.Context, id string) (*models.SubstitutionDraft, error) {
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *SubstitutionService) historyRows(draft models.SubstitutionDraft) ([]models.CommittedSubstitution, []models.AbsenceRecord) {
	date := draft.Request.DateKey()
	substitutions := make([]models.CommittedSubstitution, 0, len(draft.Assignments))
	absences := make([]models.AbsenceRecord, 0, len(draft.Assignments))
	for _, a := range draft.Assignments {
		if a.Filled() {
			substitutions = append(substitutions, models.CommittedSubstitution{
				Date:    date,
				Day:     draft.Request.Day,
				Teacher: a.Substitute,
				Hours:   1,
			})
		}
		if s.cfg.AbsencePolicy == models.AbsencePolicyAll || a.Filled() {
			absences = append(absences, models.AbsenceRecord{
				Date:      date,
				Day:       draft.Request.Day,
				Teacher:   a.AbsentTeacher,
				Period:    a.Period,
				ClassName: a.ClassName,
			})
		}
	}
	return substitutions, absences
}

func (s *SubstitutionService) load(ctx context.Context, id string) (models.SubstitutionDraft, error) {
	draft, ok, err := s.drafts.Get(ctx, id)
	if err != nil {
		return models.SubstitutionDraft{}, appErrors.Storage(err, "unable to read draft")
	}
	if !ok {
		return models.SubstitutionDraft{}, appErrors.Clone(appErrors.ErrNotFound, "substitution draft not found or expired")
	}
	return draft, nil
}

func (s *SubstitutionService) render(draft models.SubstitutionDraft) *dto.DraftResponse {
	return &dto.DraftResponse{
		SubstitutionDraft: draft,
		Announcement:      FormatAnnouncement(draft.Request.Date, draft.Assignments),
	}
}

// isNoSubstitute accepts the empty choice and the English or Italian "none".
func isNoSubstitute(value string) bool {
	return value == "" || strings.EqualFold(value, models.NoSubstitute) || strings.EqualFold(value, "Nessuno")
}

// alternativesFor lists the proposed candidates of the slot an assignment covers.
func alternativesFor(draft models.SubstitutionDraft, a models.Assignment) []string {
	for _, p := range draft.Proposals {
		if p.Slot.Period != a.Period || p.Slot.ClassName != a.ClassName || p.Slot.AbsentTeacher != a.AbsentTeacher {
			continue
		}
		names := make([]string, 0, len(p.Alternatives))
		for _, c := range p.Alternatives {
			names = append(names, c.Teacher)
		}
		return names
	}
	return nil
}

// matchTeacher returns the known spelling of name, ignoring case.
func matchTeacher(name string, known []string) (string, bool) {
	for _, k := range known {
		if k == name {
			return k, true
		}
	}
	for _, k := range known {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

func normalizeTeachers(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
