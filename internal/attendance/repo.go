package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance data in Postgres. The live table
// (attendance_records) is the editable surface before submission; the
// archive table (attendance_history) is additive-only and populated at
// submission time. attendance_history carries a uniqueness constraint on
// (period_id, student_id, date) which doubles as the finalization guard.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PeriodByID returns one period.
func (r *Repository) PeriodByID(ctx context.Context, periodID string) (Period, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, faculty_id, class_id, name, time_slot, weekday
		FROM periods WHERE id = $1
	`, periodID)
	var p Period
	if err := row.Scan(&p.ID, &p.FacultyID, &p.ClassID, &p.Name, &p.TimeSlot, &p.Weekday); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Period{}, fmt.Errorf("period %s: %w", periodID, ErrNotFound)
		}
		return Period{}, err
	}
	return p, nil
}

// PeriodsByFaculty returns an instructor's timetable.
func (r *Repository) PeriodsByFaculty(ctx context.Context, facultyID string) ([]Period, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, faculty_id, class_id, name, time_slot, weekday
		FROM periods
		WHERE faculty_id = $1
		ORDER BY weekday, time_slot
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.FacultyID, &p.ClassID, &p.Name, &p.TimeSlot, &p.Weekday); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// StudentsByClass returns the roster for a class, ordered by roll number.
func (r *Repository) StudentsByClass(ctx context.Context, classID string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, roll_number, class_id, COALESCE(parent_phone, '')
		FROM students
		WHERE class_id = $1
		ORDER BY roll_number
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber, &s.ClassID, &s.ParentPhone); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// RecordsForPeriod returns the live rows for one period on one date.
func (r *Repository) RecordsForPeriod(ctx context.Context, periodID, date string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, period_id, student_id, to_char(date, 'YYYY-MM-DD'), status
		FROM attendance_records
		WHERE period_id = $1 AND date = $2::date
	`, periodID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.PeriodID, &rec.StudentID, &rec.Date, &rec.Status); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// HasArchive reports whether archive rows exist for (period, date) — the
// durable signal that the period was finalized on that date.
func (r *Repository) HasArchive(ctx context.Context, periodID, date string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_history
			WHERE period_id = $1 AND date = $2::date
		)
	`, periodID, date)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertRecords writes the live record set, keyed by (period, student,
// date); re-running it with the same drafts updates statuses in place.
func (r *Repository) UpsertRecords(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records (id, period_id, student_id, date, status)
			VALUES ($1, $2, $3, $4::date, $5)
			ON CONFLICT (period_id, student_id, date)
			DO UPDATE SET status = EXCLUDED.status
		`, rec.ID, rec.PeriodID, rec.StudentID, rec.Date, rec.Status); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ArchiveRecords inserts the history copy. A uniqueness violation means a
// competing submission already archived this (period, date) and is reported
// as ErrAlreadySubmitted.
func (r *Repository) ArchiveRecords(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_history (id, period_id, student_id, date, status)
			VALUES ($1, $2, $3, $4::date, $5)
		`, rec.ID, rec.PeriodID, rec.StudentID, rec.Date, rec.Status); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadySubmitted
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadySubmitted
		}
		return err
	}
	return nil
}

const joinedRecordColumns = `
	a.id, to_char(a.date, 'YYYY-MM-DD'), a.status,
	p.id, p.faculty_id, p.class_id, p.name, p.time_slot, p.weekday,
	f.id, f.name, f.designation, f.department`

// StudentRecords fetches a student's rows from both tables, each joined
// with period and instructor metadata. facultyID narrows the result to one
// instructor's periods; empty means all. Both sets come back newest first.
func (r *Repository) StudentRecords(ctx context.Context, studentID, facultyID string) ([]JoinedRecord, []JoinedRecord, error) {
	live, err := r.joinedRecords(ctx, "attendance_records", studentID, facultyID)
	if err != nil {
		return nil, nil, fmt.Errorf("live records: %w", err)
	}
	archive, err := r.joinedRecords(ctx, "attendance_history", studentID, facultyID)
	if err != nil {
		return nil, nil, fmt.Errorf("archive records: %w", err)
	}
	return live, archive, nil
}

func (r *Repository) joinedRecords(ctx context.Context, table, studentID, facultyID string) ([]JoinedRecord, error) {
	query := `
		SELECT ` + joinedRecordColumns + `
		FROM ` + table + ` a
		JOIN periods p ON p.id = a.period_id
		JOIN faculty f ON f.id = p.faculty_id
		WHERE a.student_id = $1`
	args := []any{studentID}
	if facultyID != "" {
		query += ` AND p.faculty_id = $2`
		args = append(args, facultyID)
	}
	query += ` ORDER BY a.date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []JoinedRecord
	for rows.Next() {
		var rec JoinedRecord
		if err := rows.Scan(
			&rec.ID, &rec.Date, &rec.Status,
			&rec.Period.ID, &rec.Period.FacultyID, &rec.Period.ClassID,
			&rec.Period.Name, &rec.Period.TimeSlot, &rec.Period.Weekday,
			&rec.Faculty.ID, &rec.Faculty.Name, &rec.Faculty.Designation, &rec.Faculty.Department,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// FacultyByEmail returns a faculty member and their password hash for login.
func (r *Repository) FacultyByEmail(ctx context.Context, email string) (Faculty, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, designation, department, email, password_hash
		FROM faculty WHERE email = $1
	`, email)
	var f Faculty
	var hash string
	if err := row.Scan(&f.ID, &f.Name, &f.Designation, &f.Department, &f.Email, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Faculty{}, "", ErrNotFound
		}
		return Faculty{}, "", err
	}
	return f, hash, nil
}

// StudentByRoll returns a student and their password hash for login.
func (r *Repository) StudentByRoll(ctx context.Context, rollNumber string) (Student, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, roll_number, class_id, COALESCE(parent_phone, ''), password_hash
		FROM students WHERE roll_number = $1
	`, rollNumber)
	var s Student
	var hash string
	if err := row.Scan(&s.ID, &s.Name, &s.RollNumber, &s.ClassID, &s.ParentPhone, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, "", ErrNotFound
		}
		return Student{}, "", err
	}
	return s, hash, nil
}
