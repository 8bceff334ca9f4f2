package attendance

// Session is the in-memory record store for one period open for marking on
// one date. It moves through NotInitialized -> Draft -> Submitted; Submitted
// is terminal and the records become read-only.
type Session struct {
	Period    Period
	Date      string
	Submitted bool

	records  []Record
	students map[string]Student
	stats    map[string]StudentStats
}

func newSession(period Period, date string, students []Student, records []Record, submitted bool) *Session {
	byID := make(map[string]Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}
	return &Session{
		Period:    period,
		Date:      date,
		Submitted: submitted,
		records:   records,
		students:  byID,
		stats:     make(map[string]StudentStats),
	}
}

// Records returns a copy of the current record set.
func (s *Session) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// StatusFor returns the current mark for a student. Students with no record
// yet read as present, matching the default used when drafts are created.
func (s *Session) StatusFor(studentID string) Status {
	for _, r := range s.records {
		if r.StudentID == studentID {
			return r.Status
		}
	}
	return StatusPresent
}

// setStatus mutates the draft record for a student. It reports whether a
// matching record existed.
func (s *Session) setStatus(studentID string, status Status) bool {
	for i := range s.records {
		if s.records[i].StudentID == studentID {
			s.records[i].Status = status
			return true
		}
	}
	return false
}

// student looks up roster metadata loaded at initialization.
func (s *Session) student(studentID string) (Student, bool) {
	st, ok := s.students[studentID]
	return st, ok
}

// CachedStats returns stats previously stored for a student this session.
func (s *Session) CachedStats(studentID string) (StudentStats, bool) {
	st, ok := s.stats[studentID]
	return st, ok
}

// CacheStats stores stats so repeated roster clicks for the same student do
// not refetch and reaggregate.
func (s *Session) CacheStats(studentID string, st StudentStats) {
	s.stats[studentID] = st
}
