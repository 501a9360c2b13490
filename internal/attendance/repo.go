package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a class, session or record does not exist.
var ErrNotFound = errors.New("attendance: not found")

// ErrInvalidStatus is returned for statuses outside the known set.
var ErrInvalidStatus = errors.New("attendance: invalid status")

// Repository persists sessions and attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ClassExists verifies the class id references a real class.
func (r *Repository) ClassExists(ctx context.Context, classID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1)`, classID).Scan(&exists)
	return exists, err
}

// SessionByClassDate looks up the session scheduled for a class on a date.
func (r *Repository) SessionByClassDate(ctx context.Context, classID int64, date time.Time) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, date, start_time, end_time, room_id
		FROM sessions
		WHERE class_id = $1 AND date = $2
	`, classID, date)
	return scanSession(row, fmt.Sprintf("session for class %d on %s", classID, date.Format("2006-01-02")))
}

// SessionByID returns a session by its surrogate id.
func (r *Repository) SessionByID(ctx context.Context, id int64) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, date, start_time, end_time, room_id
		FROM sessions WHERE id = $1
	`, id)
	return scanSession(row, fmt.Sprintf("session %d", id))
}

func scanSession(row *sql.Row, what string) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ClassID, &s.Date, &s.StartTime, &s.EndTime, &s.RoomID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return s, err
}

// ListClassSessions returns the scheduled sessions of a class in date order.
func (r *Repository) ListClassSessions(ctx context.Context, classID int64) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_id, date, start_time, end_time, room_id
		FROM sessions
		WHERE class_id = $1
		ORDER BY date
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.ClassID, &s.Date, &s.StartTime, &s.EndTime, &s.RoomID); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// FindRecord looks up an attendance record by its natural key.
func (r *Repository) FindRecord(ctx context.Context, sessionID, studentID int64) (Record, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, session_id, student_id, session_date, status
		FROM attendance
		WHERE session_id = $1 AND student_id = $2
	`, sessionID, studentID)
	var rec Record
	err := row.Scan(&rec.ID, &rec.ClassID, &rec.SessionID, &rec.StudentID, &rec.SessionDate, &rec.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// UpdateStatus rewrites the status (and denormalized date) of a record.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string, sessionDate time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET status = $2, session_date = $3 WHERE id = $1
	`, id, status, sessionDate)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: attendance record %d", ErrNotFound, id)
	}
	return nil
}

// UpsertRecord inserts a record, falling back to an update when another
// request won the race for the same (session_id, student_id). The table's
// unique constraint on that pair is what makes concurrent marking collapse
// to a single row.
func (r *Repository) UpsertRecord(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (class_id, session_id, student_id, session_date, status)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (session_id, student_id) DO UPDATE
		SET status = EXCLUDED.status, session_date = EXCLUDED.session_date
		RETURNING id
	`, rec.ClassID, rec.SessionID, rec.StudentID, rec.SessionDate, rec.Status)
	if err := row.Scan(&rec.ID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListSessionRecords returns a session's records with student identity.
func (r *Repository) ListSessionRecords(ctx context.Context, sessionID int64) ([]RecordDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.class_id, a.session_id, a.student_id, a.session_date, a.status,
		       s.full_name, s.email
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		WHERE a.session_id = $1
		ORDER BY s.full_name
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordDetail
	for rows.Next() {
		var d RecordDetail
		if err := rows.Scan(&d.ID, &d.ClassID, &d.SessionID, &d.StudentID, &d.SessionDate, &d.Status,
			&d.StudentFullName, &d.StudentEmail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Info assembles the session detail view, including the attendance rate.
func (r *Repository) Info(ctx context.Context, sessionID int64) (SessionInfo, error) {
	sess, err := r.SessionByID(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	info := SessionInfo{Session: sess}

	row := r.db.QueryRowContext(ctx, `
		SELECT c.class_code, r.room_name
		FROM classes c
		LEFT JOIN rooms r ON r.id = $2
		WHERE c.id = $1
	`, sess.ClassID, sess.RoomID)
	if err := row.Scan(&info.ClassCode, &info.RoomName); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, err
	}

	row = r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM class_students WHERE class_id = $1),
			(SELECT COUNT(*) FROM attendance WHERE session_id = $2 AND status = 'Present')
	`, sess.ClassID, sessionID)
	if err := row.Scan(&info.TotalStudents, &info.PresentCount); err != nil {
		return SessionInfo{}, err
	}
	if info.TotalStudents > 0 {
		info.AttendanceRate = float64(info.PresentCount) / float64(info.TotalStudents) * 100
	}
	return info, nil
}

// SeedAbsences creates Absent records for a student across a class's future
// sessions, skipping pairs that already have a row. Used when a student is
// enrolled into a class.
func (r *Repository) SeedAbsences(ctx context.Context, classID, studentID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (class_id, session_id, student_id, session_date, status)
		SELECT s.class_id, s.id, $2, s.date, 'Absent'
		FROM sessions s
		WHERE s.class_id = $1 AND s.date >= CURRENT_DATE
		ON CONFLICT (session_id, student_id) DO NOTHING
	`, classID, studentID)
	return err
}
