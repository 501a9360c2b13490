package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"schoolattend/internal/store"
)

// ErrNotFound is returned when a student or class does not exist.
var ErrNotFound = errors.New("roster: not found")

// ErrEmailTaken is returned when creating a student with an existing email.
var ErrEmailTaken = errors.New("roster: email already registered")

// Repository persists roster data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const studentCols = `id, full_name, email, phone_number, address, date_of_birth, admission_year, status, image_url, face_enrolled, created_at`

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.PhoneNumber, &s.Address,
		&s.DateOfBirth, &s.AdmissionYear, &s.Status, &s.ImageURL, &s.FaceEnrolled, &s.CreatedAt)
	return s, err
}

// ListStudents returns all students ordered by name.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+studentCols+` FROM students ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetStudent returns a single student by id.
func (r *Repository) GetStudent(ctx context.Context, id int64) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, fmt.Errorf("%w: student %d", ErrNotFound, id)
	}
	return s, err
}

// CreateStudent inserts a new student.
func (r *Repository) CreateStudent(ctx context.Context, s Student) (Student, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE email = $1)`, s.Email).Scan(&exists); err != nil {
		return Student{}, err
	}
	if exists {
		return Student{}, ErrEmailTaken
	}
	if s.AdmissionYear == 0 {
		s.AdmissionYear = time.Now().Year()
	}
	if s.Status == "" {
		s.Status = "active"
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (full_name, email, phone_number, address, date_of_birth, admission_year, status, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`, s.FullName, s.Email, s.PhoneNumber, s.Address, s.DateOfBirth, s.AdmissionYear, s.Status, s.ImageURL)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return Student{}, err
	}
	return s, nil
}

// UpdateStudent updates mutable fields and returns the updated row.
// The caller compares the previous image URL to decide on re-enrollment.
func (r *Repository) UpdateStudent(ctx context.Context, s Student) (Student, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET full_name = $2, email = $3, phone_number = $4, address = $5,
		    date_of_birth = $6, admission_year = $7, status = $8, image_url = $9
		WHERE id = $1
	`, s.ID, s.FullName, s.Email, s.PhoneNumber, s.Address, s.DateOfBirth, s.AdmissionYear, s.Status, s.ImageURL)
	if err != nil {
		return Student{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Student{}, fmt.Errorf("%w: student %d", ErrNotFound, s.ID)
	}
	return r.GetStudent(ctx, s.ID)
}

// DeleteStudent removes a student along with embeddings, class links and
// attendance in one transaction.
func (r *Repository) DeleteStudent(ctx context.Context, id int64) error {
	return store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM face_embeddings WHERE student_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE student_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_students WHERE student_id = $1`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: student %d", ErrNotFound, id)
		}
		return nil
	})
}

// GetClass returns a class by id.
func (r *Repository) GetClass(ctx context.Context, id int64) (Class, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, class_code, subject, teacher_id, created_at FROM classes WHERE id = $1`, id)
	var c Class
	err := row.Scan(&c.ID, &c.ClassCode, &c.Subject, &c.TeacherID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Class{}, fmt.Errorf("%w: class %d", ErrNotFound, id)
	}
	return c, err
}

// ListStudentClasses returns the classes a student participates in.
func (r *Repository) ListStudentClasses(ctx context.Context, studentID int64) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.class_code, c.subject, c.teacher_id, c.created_at
		FROM classes c
		JOIN class_students cs ON cs.class_id = c.id
		WHERE cs.student_id = $1
		ORDER BY c.class_code
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.ClassCode, &c.Subject, &c.TeacherID, &c.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// AddClassStudent links a student to a class. Linking twice is a no-op.
func (r *Repository) AddClassStudent(ctx context.Context, classID, studentID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_students (class_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (class_id, student_id) DO NOTHING
	`, classID, studentID)
	return err
}

// ListClassEmbeddings returns the current enrolled embeddings for every
// student of a class, the candidate set for a face-attendance scan.
func (r *Repository) ListClassEmbeddings(ctx context.Context, classID int64) ([]EnrolledEmbedding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fe.student_id, fe.embedding
		FROM face_embeddings fe
		JOIN class_students cs ON cs.student_id = fe.student_id
		WHERE cs.class_id = $1
		ORDER BY fe.student_id
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrolledEmbedding
	for rows.Next() {
		var e EnrolledEmbedding
		if err := rows.Scan(&e.StudentID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceEmbedding deletes any prior embeddings for the student and inserts
// the new payload, in one transaction, then flips face_enrolled. The delete
// and insert must commit together so a student never ends up with zero or
// two current embeddings.
func (r *Repository) ReplaceEmbedding(ctx context.Context, studentID int64, payload string) (FaceEmbedding, error) {
	var emb FaceEmbedding
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM face_embeddings WHERE student_id = $1`, studentID); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, `
			INSERT INTO face_embeddings (student_id, embedding)
			VALUES ($1, $2)
			RETURNING id, created_at
		`, studentID, payload)
		if err := row.Scan(&emb.ID, &emb.CreatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE students SET face_enrolled = TRUE WHERE id = $1`, studentID)
		return err
	})
	if err != nil {
		return FaceEmbedding{}, err
	}
	emb.StudentID = studentID
	emb.Payload = payload
	return emb, nil
}
