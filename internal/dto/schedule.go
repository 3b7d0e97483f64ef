package dto

// ScheduleEntryRequest is one timetable row as entered in the add form or the edit grid.
type ScheduleEntryRequest struct {
	Teacher    string `json:"teacher" validate:"required"`
	Day        string `json:"day" validate:"required,day"`
	Period     string `json:"period" validate:"required,period"`
	ClassName  string `json:"className" validate:"required"`
	LessonType string `json:"lessonType" validate:"required,lesson_type"`
	Exclude    bool   `json:"exclude"`
}

// ReplaceScheduleRequest carries the whole edited timetable.
type ReplaceScheduleRequest struct {
	Entries []ScheduleEntryRequest `json:"entries" validate:"dive"`
}

// ImportScheduleResponse summarises an uploaded timetable.
type ImportScheduleResponse struct {
	Format   string `json:"format"`
	Imported int    `json:"imported"`
}

// ScheduleFile is a rendered timetable download.
type ScheduleFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
