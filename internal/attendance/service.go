package attendance

import (
	"context"
	"fmt"
	"time"
)

// Store is the persistence surface the reconciler needs. *Repository
// implements it; tests substitute an in-memory fake.
type Store interface {
	ClassExists(ctx context.Context, classID int64) (bool, error)
	SessionByClassDate(ctx context.Context, classID int64, date time.Time) (Session, error)
	SessionByID(ctx context.Context, id int64) (Session, error)
	FindRecord(ctx context.Context, sessionID, studentID int64) (Record, bool, error)
	UpdateStatus(ctx context.Context, id int64, status string, sessionDate time.Time) error
	UpsertRecord(ctx context.Context, rec Record) (Record, error)
	SeedAbsences(ctx context.Context, classID, studentID int64) error
}

// Service reconciles resolved identities against attendance state.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RecordPresence marks a student Present for the class session on the given
// date. The session must already exist; attendance is never the session
// creator. Calling this twice for the same student and session updates the
// one existing row rather than inserting a duplicate.
func (s *Service) RecordPresence(ctx context.Context, classID int64, date time.Time, studentID int64) (Record, error) {
	ok, err := s.store.ClassExists(ctx, classID)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: class %d", ErrNotFound, classID)
	}

	sess, err := s.store.SessionByClassDate(ctx, classID, date)
	if err != nil {
		return Record{}, err
	}

	return s.mark(ctx, sess, studentID, StatusPresent)
}

// EnrollStudent seeds Absent records for a student across the class's future
// sessions, the starting state every later marking updates in place. Pairs
// that already carry a record keep their status.
func (s *Service) EnrollStudent(ctx context.Context, classID, studentID int64) error {
	ok, err := s.store.ClassExists(ctx, classID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: class %d", ErrNotFound, classID)
	}
	return s.store.SeedAbsences(ctx, classID, studentID)
}

// MarkRoster applies a bulk manual marking for a session, one
// check-then-insert-or-update per (session, student) pair.
func (s *Service) MarkRoster(ctx context.Context, sessionID int64, marks []Mark) ([]Record, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(marks))
	for _, m := range marks {
		if !ValidStatus(m.Status) {
			return nil, fmt.Errorf("%w: %q for student %d", ErrInvalidStatus, m.Status, m.StudentID)
		}
		rec, err := s.mark(ctx, sess, m.StudentID, m.Status)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// mark is the shared check-then-insert-or-update step. The update branch
// handles the common re-mark; the upsert branch relies on the storage
// uniqueness of (session_id, student_id) so two concurrent first marks
// still produce exactly one row.
func (s *Service) mark(ctx context.Context, sess Session, studentID int64, status string) (Record, error) {
	existing, found, err := s.store.FindRecord(ctx, sess.ID, studentID)
	if err != nil {
		return Record{}, err
	}
	if found {
		if existing.Status == status && existing.SessionDate.Equal(sess.Date) {
			return existing, nil
		}
		if err := s.store.UpdateStatus(ctx, existing.ID, status, sess.Date); err != nil {
			return Record{}, err
		}
		existing.Status = status
		existing.SessionDate = sess.Date
		return existing, nil
	}

	return s.store.UpsertRecord(ctx, Record{
		ClassID:     sess.ClassID,
		SessionID:   sess.ID,
		StudentID:   studentID,
		SessionDate: sess.Date,
		Status:      status,
	})
}
