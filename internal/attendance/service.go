package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"classattend/internal/notify"
)

// Store is the persistence surface the service needs. *Repository satisfies
// it; tests substitute an in-memory fake.
type Store interface {
	PeriodByID(ctx context.Context, periodID string) (Period, error)
	StudentsByClass(ctx context.Context, classID string) ([]Student, error)
	RecordsForPeriod(ctx context.Context, periodID, date string) ([]Record, error)
	HasArchive(ctx context.Context, periodID, date string) (bool, error)
	UpsertRecords(ctx context.Context, recs []Record) error
	ArchiveRecords(ctx context.Context, recs []Record) error
	StudentRecords(ctx context.Context, studentID, facultyID string) (live, archive []JoinedRecord, err error)
}

// AlertSink receives best-effort absence alerts. Delivery happens out of
// band; the marking flow never waits on it.
type AlertSink interface {
	PublishAbsence(ctx context.Context, alert notify.AbsenceAlert) error
}

// Service owns the marking sessions and enforces the at-most-one-submission
// rule per period per day. Only the session map is guarded: a session itself
// assumes the strictly sequential interaction a single faculty UI produces,
// with the archive uniqueness constraint backstopping rapid double-submits.
type Service struct {
	store          Store
	alerts         AlertSink
	archiveRetries int

	mu       sync.Mutex
	sessions map[string]*Session

	nowFunc func() time.Time // swapped in tests
}

// NewService creates a service over a store and an alert sink.
func NewService(store Store, alerts AlertSink) *Service {
	return &Service{
		store:          store,
		alerts:         alerts,
		archiveRetries: 3,
		sessions:       make(map[string]*Session),
		nowFunc:        time.Now,
	}
}

func (s *Service) today() string {
	return s.nowFunc().UTC().Format(DateLayout)
}

func sessionKey(periodID, date string) string {
	return periodID + "|" + date
}

func (s *Service) session(periodID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionKey(periodID, s.today())]
	return sess, ok
}

// CheckSubmissionStatus reports whether attendance for the period has been
// finalized today. Submission is what populates the archive table, so
// archive rows for (period, today) are the durable signal. Query failures
// are logged and read as not submitted.
func (s *Service) CheckSubmissionStatus(ctx context.Context, periodID string) bool {
	submitted, err := s.store.HasArchive(ctx, periodID, s.today())
	if err != nil {
		log.Printf("submission status check failed for period %s: %v", periodID, err)
		return false
	}
	return submitted
}

// InitializeAttendance opens a marking session for a period. If today's
// attendance is already finalized the session loads read-only; otherwise an
// existing draft is loaded, or a fresh one is fabricated with every enrolled
// student marked present.
func (s *Service) InitializeAttendance(ctx context.Context, periodID, classID string) (*Session, error) {
	date := s.today()

	period, err := s.store.PeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("load period %s: %w", periodID, err)
	}

	students, err := s.store.StudentsByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("load class %s roster: %w", classID, err)
	}
	if len(students) == 0 {
		return nil, fmt.Errorf("class %s: %w", classID, ErrNotFound)
	}

	submitted := s.CheckSubmissionStatus(ctx, periodID)

	records, err := s.store.RecordsForPeriod(ctx, periodID, date)
	if err != nil {
		return nil, fmt.Errorf("load records for period %s: %w", periodID, err)
	}

	if !submitted && len(records) == 0 {
		records = make([]Record, 0, len(students))
		for _, st := range students {
			records = append(records, Record{
				ID:        uuid.NewString(),
				PeriodID:  periodID,
				StudentID: st.ID,
				Date:      date,
				Status:    StatusPresent,
			})
		}
	}

	sess := newSession(period, date, students, records, submitted)

	s.mu.Lock()
	// Sessions from previous dates are stale; drop them while we hold the lock.
	for k, old := range s.sessions {
		if old.Date != date {
			delete(s.sessions, k)
		}
	}
	s.sessions[sessionKey(periodID, date)] = sess
	s.mu.Unlock()

	return sess, nil
}

// MarkAttendance sets a student's draft status. Marking after finalization
// is a silent conflict (ErrAlreadySubmitted), not a failure. A transition to
// absent publishes one parent notification; a failed publish is logged and
// the mark stands.
func (s *Service) MarkAttendance(ctx context.Context, periodID, studentID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	sess, ok := s.session(periodID)
	if !ok {
		return ErrNotInitialized
	}
	if sess.Submitted {
		return ErrAlreadySubmitted
	}
	prev := sess.StatusFor(studentID)
	if !sess.setStatus(studentID, status) {
		return fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}

	// Alert only on the transition into absent, not on re-marks.
	if status == StatusAbsent && prev != StatusAbsent {
		s.publishAbsence(ctx, sess, studentID)
	}
	return nil
}

func (s *Service) publishAbsence(ctx context.Context, sess *Session, studentID string) {
	st, ok := sess.student(studentID)
	if !ok || st.ParentPhone == "" {
		return
	}
	alert := notify.AbsenceAlert{
		StudentName: st.Name,
		PeriodName:  sess.Period.Name,
		ParentPhone: st.ParentPhone,
	}
	if err := s.alerts.PublishAbsence(ctx, alert); err != nil {
		log.Printf("absence alert publish failed for student %s: %v", studentID, err)
		return
	}
	absenceAlertsQueued.Inc()
}

// SubmitAttendance finalizes today's marks for a period. The live upsert
// must be acknowledged before the archive copy is attempted; the archive
// write is retried a bounded number of times and its failure never rolls
// back the submission. A second call returns false with ErrAlreadySubmitted
// and leaves the record set untouched.
func (s *Service) SubmitAttendance(ctx context.Context, periodID string) (bool, error) {
	sess, ok := s.session(periodID)
	if !ok {
		return false, ErrNotInitialized
	}
	if sess.Submitted {
		submissionConflicts.Inc()
		return false, ErrAlreadySubmitted
	}

	records := sess.Records()
	if err := s.store.UpsertRecords(ctx, records); err != nil {
		return false, fmt.Errorf("save attendance: %w", err)
	}

	if conflict := s.archive(ctx, records); conflict {
		// The archive table's uniqueness constraint is the authoritative
		// conflict signal: a competing finalization already landed.
		sess.Submitted = true
		submissionConflicts.Inc()
		return false, ErrAlreadySubmitted
	}

	sess.Submitted = true
	submissionsTotal.Inc()
	return true, nil
}

// archive writes the best-effort history copy. Each archive row gets a
// fresh identity so it never collides with the live row it mirrors. It
// reports whether the store rejected the copy as a duplicate finalization;
// any other failure is retried, then logged and counted, never surfaced.
func (s *Service) archive(ctx context.Context, records []Record) bool {
	copies := make([]Record, len(records))
	for i, r := range records {
		r.ID = uuid.NewString()
		copies[i] = r
	}

	var err error
	for attempt := 1; attempt <= s.archiveRetries; attempt++ {
		err = s.store.ArchiveRecords(ctx, copies)
		if err == nil {
			return false
		}
		if errors.Is(err, ErrAlreadySubmitted) {
			return true
		}
		log.Printf("archive write attempt %d/%d failed: %v", attempt, s.archiveRetries, err)
		if attempt < s.archiveRetries {
			time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
		}
	}
	archiveWriteFailures.Inc()
	log.Printf("archive copy lost after %d attempts: %v", s.archiveRetries, err)
	return false
}

// StudentStats computes the compact roster view for one student, scoped to
// the session's instructor. Results are cached per session so repeated
// clicks on the same student do not refetch. Failures degrade to zero stats.
func (s *Service) StudentStats(ctx context.Context, periodID, studentID string) StudentStats {
	sess, ok := s.session(periodID)
	if !ok {
		return StudentStats{}
	}
	if cached, hit := sess.CachedStats(studentID); hit {
		return cached
	}

	live, archive, err := s.store.StudentRecords(ctx, studentID, sess.Period.FacultyID)
	if err != nil {
		log.Printf("stats fetch failed for student %s: %v", studentID, err)
		return StudentStats{}
	}

	stats := ComputeStats(Reconcile(live, archive))
	sess.CacheStats(studentID, stats)
	return stats
}

// StudentAnalytics builds the full dashboard for a student across all
// instructors: both tables fetched, reconciled, then aggregated.
func (s *Service) StudentAnalytics(ctx context.Context, studentID string) (Analytics, error) {
	live, archive, err := s.store.StudentRecords(ctx, studentID, "")
	if err != nil {
		return Analytics{}, fmt.Errorf("fetch records for student %s: %w", studentID, err)
	}
	return ComputeAnalytics(Reconcile(live, archive)), nil
}
