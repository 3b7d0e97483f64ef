package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// ProposerOptions tunes candidate ranking.
type ProposerOptions struct {
	// LoadBalancing orders free teachers by cumulative substitution hours.
	LoadBalancing bool
	// SkipExcludedSlots drops uncovered rows flagged Escludi.
	SkipExcludedSlots bool
	// RequireDayPresence limits free and excluded candidates to teachers
	// with at least one row on the absence day.
	RequireDayPresence bool
	// SupportBusyElsewhere treats a support teacher scheduled in another
	// class at the slot hour as busy, mirroring ValidatorOptions.
	SupportBusyElsewhere bool
}

// ValidatorOptions tunes commit-time conflict checks.
type ValidatorOptions struct {
	// SupportBusyIsConflict treats a support duty in another class at the
	// same hour as an already-busy conflict.
	SupportBusyIsConflict bool
}

const (
	supportLabelPrefix     = "[S] "
	notProposedLabelPrefix = "[NP] "
)

type hourKey struct {
	day    models.Day
	period models.Period
}

// timetableIndex is a read-only view of the schedule keyed the way the
// proposer and validator query it.
type timetableIndex struct {
	teachers []string
	support  map[string]bool
	excluded map[string]bool
	byHour   map[hourKey][]models.ScheduleEntry
	byDay    map[models.Day]map[string]bool
}

func newTimetableIndex(schedule []models.ScheduleEntry) *timetableIndex {
	idx := &timetableIndex{
		support:  make(map[string]bool),
		excluded: make(map[string]bool),
		byHour:   make(map[hourKey][]models.ScheduleEntry),
		byDay:    make(map[models.Day]map[string]bool),
	}
	seen := make(map[string]struct{})
	for _, entry := range schedule {
		if entry.Teacher == "" {
			continue
		}
		if _, ok := seen[entry.Teacher]; !ok {
			seen[entry.Teacher] = struct{}{}
			idx.teachers = append(idx.teachers, entry.Teacher)
		}
		if entry.IsSupport() {
			idx.support[entry.Teacher] = true
		}
		if entry.Exclude || isLegacyExcludedName(entry.Teacher) {
			idx.excluded[entry.Teacher] = true
		}
		key := hourKey{day: entry.Day, period: entry.Period}
		idx.byHour[key] = append(idx.byHour[key], entry)
		if idx.byDay[entry.Day] == nil {
			idx.byDay[entry.Day] = make(map[string]bool)
		}
		idx.byDay[entry.Day][entry.Teacher] = true
	}
	sort.Strings(idx.teachers)
	return idx
}

// Older timetables flagged excluded teachers with a "*" in the name.
func isLegacyExcludedName(name string) bool {
	return strings.Contains(name, "*")
}

// busyAt returns teachers holding a non-support row at the hour. With
// supportElsewhere set, support rows in a class other than className count too.
func (idx *timetableIndex) busyAt(day models.Day, period models.Period, className string, supportElsewhere bool) map[string]bool {
	busy := make(map[string]bool)
	for _, entry := range idx.byHour[hourKey{day: day, period: period}] {
		if !entry.IsSupport() || (supportElsewhere && entry.ClassName != className) {
			busy[entry.Teacher] = true
		}
	}
	return busy
}

// UncoveredSlots lists the rows of absent teachers on the absence day,
// ordered by period, class and teacher.
func UncoveredSlots(schedule []models.ScheduleEntry, absence models.AbsenceRequest, opts ProposerOptions) []models.UncoveredSlot {
	if len(absence.AbsentTeachers) == 0 {
		return nil
	}
	slots := make([]models.UncoveredSlot, 0)
	for _, entry := range schedule {
		if entry.Day != absence.Day || !absence.IsAbsent(entry.Teacher) {
			continue
		}
		if opts.SkipExcludedSlots && entry.Exclude {
			continue
		}
		slots = append(slots, models.UncoveredSlot{
			Day:           entry.Day,
			Period:        entry.Period,
			ClassName:     entry.ClassName,
			AbsentTeacher: entry.Teacher,
			LessonType:    entry.LessonType,
		})
	}
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Period.Ordinal() != b.Period.Ordinal() {
			return a.Period.Ordinal() < b.Period.Ordinal()
		}
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		return a.AbsentTeacher < b.AbsentTeacher
	})
	return slots
}

// ProposeSubstitutes returns one ranked proposal per uncovered slot. loads
// holds cumulative substitution hours per teacher and may be nil.
func ProposeSubstitutes(schedule []models.ScheduleEntry, absence models.AbsenceRequest, loads map[string]int, opts ProposerOptions) []models.SubstitutionProposal {
	slots := UncoveredSlots(schedule, absence, opts)
	if len(slots) == 0 {
		return []models.SubstitutionProposal{}
	}
	idx := newTimetableIndex(schedule)
	proposals := make([]models.SubstitutionProposal, 0, len(slots))
	for _, slot := range slots {
		proposals = append(proposals, idx.propose(slot, absence, loads, opts))
	}
	return proposals
}

func (idx *timetableIndex) propose(slot models.UncoveredSlot, absence models.AbsenceRequest, loads map[string]int, opts ProposerOptions) models.SubstitutionProposal {
	busy := idx.busyAt(slot.Day, slot.Period, slot.ClassName, opts.SupportBusyElsewhere)
	assigned := make(map[string]bool)
	available := func(teacher string) bool {
		return !assigned[teacher] && !absence.IsAbsent(teacher) && !busy[teacher]
	}
	present := func(teacher string) bool {
		return !opts.RequireDayPresence || idx.byDay[slot.Day][teacher]
	}

	var sameClass, otherSupport, free, excluded []models.Candidate
	hour := idx.byHour[hourKey{day: slot.Day, period: slot.Period}]

	for _, entry := range hour {
		if !entry.IsSupport() || entry.ClassName != slot.ClassName {
			continue
		}
		if available(entry.Teacher) && !idx.excluded[entry.Teacher] {
			assigned[entry.Teacher] = true
			sameClass = append(sameClass, idx.candidate(entry.Teacher, models.TierSameClassSupport, loads))
		}
	}
	for _, entry := range hour {
		if !entry.IsSupport() {
			continue
		}
		if available(entry.Teacher) && !idx.excluded[entry.Teacher] {
			assigned[entry.Teacher] = true
			otherSupport = append(otherSupport, idx.candidate(entry.Teacher, models.TierOtherSupport, loads))
		}
	}
	for _, teacher := range idx.teachers {
		if !available(teacher) || !present(teacher) {
			continue
		}
		assigned[teacher] = true
		if idx.excluded[teacher] {
			excluded = append(excluded, idx.candidate(teacher, models.TierExcluded, loads))
		} else {
			free = append(free, idx.candidate(teacher, models.TierFreeTeacher, loads))
		}
	}

	sortByName(sameClass)
	sortByName(otherSupport)
	sortByName(excluded)
	if opts.LoadBalancing {
		sortByLoad(free)
	} else {
		sortByName(free)
	}

	proposal := models.SubstitutionProposal{
		Slot:      slot,
		Candidate: models.NoSubstitute,
		RankTier:  models.TierNone,
	}
	proposal.Alternatives = make([]models.Candidate, 0, len(sameClass)+len(otherSupport)+len(free)+len(excluded))
	for _, tier := range [][]models.Candidate{sameClass, otherSupport, free, excluded} {
		proposal.Alternatives = append(proposal.Alternatives, tier...)
	}
	if len(proposal.Alternatives) > 0 {
		best := proposal.Alternatives[0]
		proposal.Candidate = best.Teacher
		proposal.RankTier = best.Tier
		proposal.IsSupportMatch = best.IsSupport
	}
	return proposal
}

func (idx *timetableIndex) candidate(teacher string, tier models.Tier, loads map[string]int) models.Candidate {
	c := models.Candidate{
		Teacher:     teacher,
		Tier:        tier,
		IsSupport:   idx.support[teacher],
		NotProposed: tier == models.TierExcluded,
		Load:        loads[teacher],
	}
	c.Label = CandidateLabel(c)
	return c
}

// CandidateLabel renders the dropdown text of a candidate, e.g. "[NP] [S] Rossi".
func CandidateLabel(c models.Candidate) string {
	label := c.Teacher
	if c.IsSupport {
		label = supportLabelPrefix + label
	}
	if c.NotProposed {
		label = notProposedLabelPrefix + label
	}
	return label
}

// StripCandidateLabel removes display prefixes from a dropdown choice.
func StripCandidateLabel(label string) string {
	value := strings.TrimSpace(label)
	for {
		switch {
		case strings.HasPrefix(value, notProposedLabelPrefix):
			value = strings.TrimPrefix(value, notProposedLabelPrefix)
		case strings.HasPrefix(value, supportLabelPrefix):
			value = strings.TrimPrefix(value, supportLabelPrefix)
		default:
			return value
		}
	}
}

func sortByName(items []models.Candidate) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Teacher < items[j].Teacher })
}

func sortByLoad(items []models.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Load != items[j].Load {
			return items[i].Load < items[j].Load
		}
		return items[i].Teacher < items[j].Teacher
	})
}

// AssignmentsFromProposals turns proposals into the editable assignment list.
func AssignmentsFromProposals(proposals []models.SubstitutionProposal) []models.Assignment {
	out := make([]models.Assignment, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, models.Assignment{
			Period:        p.Slot.Period,
			ClassName:     p.Slot.ClassName,
			AbsentTeacher: p.Slot.AbsentTeacher,
			Substitute:    p.Candidate,
		})
	}
	return out
}

// ValidateAssignments checks a finalized assignment set for double booking.
// It is pure: the same input always yields the same violations.
func ValidateAssignments(schedule []models.ScheduleEntry, day models.Day, absent []string, assignments []models.Assignment, opts ValidatorOptions) models.ValidationResult {
	idx := newTimetableIndex(schedule)
	absentSet := make(map[string]bool, len(absent))
	for _, t := range absent {
		absentSet[t] = true
	}

	byPeriod := make(map[models.Period][]models.Assignment)
	periods := make([]models.Period, 0)
	for _, a := range assignments {
		if _, ok := byPeriod[a.Period]; !ok {
			periods = append(periods, a.Period)
		}
		byPeriod[a.Period] = append(byPeriod[a.Period], a)
	}
	sort.SliceStable(periods, func(i, j int) bool {
		oi, oj := periods[i].Ordinal(), periods[j].Ordinal()
		if oi != oj {
			if oi == 0 {
				return false
			}
			if oj == 0 {
				return true
			}
			return oi < oj
		}
		return periods[i] < periods[j]
	})

	violations := make([]models.Violation, 0)
	for _, period := range periods {
		group := append([]models.Assignment(nil), byPeriod[period]...)
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].ClassName != group[j].ClassName {
				return group[i].ClassName < group[j].ClassName
			}
			return group[i].Substitute < group[j].Substitute
		})

		counts := make(map[string]int)
		for _, a := range group {
			if a.Filled() {
				counts[a.Substitute]++
			}
		}
		duplicates := make([]string, 0)
		for teacher, n := range counts {
			if n > 1 {
				duplicates = append(duplicates, teacher)
			}
		}
		if len(duplicates) > 0 {
			sort.Strings(duplicates)
			violations = append(violations, models.Violation{
				Period:   period,
				Teachers: duplicates,
				Kind:     models.ViolationDuplicateAssignment,
			})
		}

		hour := idx.byHour[hourKey{day: day, period: period}]
		for _, a := range group {
			if !a.Filled() {
				continue
			}
			for _, entry := range hour {
				if entry.Teacher != a.Substitute {
					continue
				}
				if !entry.IsSupport() || (opts.SupportBusyIsConflict && entry.ClassName != a.ClassName) {
					violations = append(violations, models.Violation{
						Period:    period,
						Teachers:  []string{a.Substitute},
						Kind:      models.ViolationAlreadyBusy,
						ClassName: a.ClassName,
					})
					break
				}
			}
		}

		for _, a := range group {
			if a.Filled() && absentSet[a.Substitute] {
				violations = append(violations, models.Violation{
					Period:    period,
					Teachers:  []string{a.Substitute},
					Kind:      models.ViolationAbsentSubstitute,
					ClassName: a.ClassName,
				})
			}
		}
	}

	return models.ValidationResult{OK: len(violations) == 0, Violations: violations}
}
