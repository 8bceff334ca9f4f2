package attendance

import "time"

// DateLayout is the wire format for attendance dates.
const DateLayout = "2006-01-02"

// Status is a per-period attendance mark.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusOnDuty  Status = "on_duty"
)

// Valid reports whether the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusOnDuty:
		return true
	default:
		return false
	}
}

// CountsAsPresent reports whether the status counts toward the attendance
// percentage. On-duty students are away on college business and are not
// penalized.
func (s Status) CountsAsPresent() bool {
	return s == StatusPresent || s == StatusOnDuty
}

// Student is an enrolled student. Rows are maintained elsewhere; this
// subsystem only reads them.
type Student struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RollNumber  string `json:"roll_number"`
	ClassID     string `json:"class_id"`
	ParentPhone string `json:"parent_phone,omitempty"`
}

// Faculty is an instructor.
type Faculty struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
	Email       string `json:"email,omitempty"`
}

// Period is a scheduled teaching slot owned by one faculty member.
type Period struct {
	ID        string `json:"id"`
	FacultyID string `json:"faculty_id"`
	ClassID   string `json:"class_id"`
	Name      string `json:"name"`
	TimeSlot  string `json:"time_slot"`
	Weekday   string `json:"weekday"`
}

// Record is one student's mark for one period on one date. The pair
// (Date, PeriodID) identifies a marking session for dedup purposes.
type Record struct {
	ID        string `json:"id"`
	PeriodID  string `json:"period_id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Status    Status `json:"status"`
}

// JoinedRecord is a record joined with its period and instructor metadata,
// as fetched for analytics. Rows whose join targets are missing are
// treated as orphaned and dropped during reconciliation.
type JoinedRecord struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Status  Status  `json:"status"`
	Period  Period  `json:"period"`
	Faculty Faculty `json:"faculty"`
}

// parsedDate returns the record date, or the zero time when malformed.
func (r JoinedRecord) parsedDate() time.Time {
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SubjectSummary aggregates a student's records under one instructor.
type SubjectSummary struct {
	FacultyID          string  `json:"faculty_id"`
	FacultyName        string  `json:"faculty_name"`
	FacultyDesignation string  `json:"faculty_designation"`
	FacultyDepartment  string  `json:"faculty_department"`
	TotalClasses       int     `json:"total_classes"`
	PresentCount       int     `json:"present_count"`
	AbsentCount        int     `json:"absent_count"`
	OnDutyCount        int     `json:"on_duty_count"`
	Percentage         float64 `json:"percentage"`
}

// MonthlySummary aggregates records over one calendar month.
type MonthlySummary struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	TotalClasses int     `json:"total_classes"`
	PresentCount int     `json:"present_count"`
	AbsentCount  int     `json:"absent_count"`
	OnDutyCount  int     `json:"on_duty_count"`
	Percentage   float64 `json:"percentage"`
}

// Analytics is the full dashboard view computed for one student.
type Analytics struct {
	OverallPercentage float64          `json:"overall_percentage"`
	TotalClasses      int              `json:"total_classes"`
	TotalPresent      int              `json:"total_present"`
	TotalAbsent       int              `json:"total_absent"`
	TotalOnDuty       int              `json:"total_on_duty"`
	SubjectWise       []SubjectSummary `json:"subject_wise"`
	Monthly           []MonthlySummary `json:"monthly"`
	RecentRecords     []JoinedRecord   `json:"recent_records"`
}

// StudentStats is the compact per-student view shown to faculty.
type StudentStats struct {
	TotalClasses int     `json:"total_classes"`
	PresentCount int     `json:"present_count"`
	Percentage   float64 `json:"percentage"`
}
