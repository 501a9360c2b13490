package roster

import "time"

// Student is one enrolled student.
type Student struct {
	ID            int64      `json:"id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	PhoneNumber   *string    `json:"phone_number,omitempty"`
	Address       *string    `json:"address,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	AdmissionYear int        `json:"admission_year"`
	Status        string     `json:"status"`
	ImageURL      *string    `json:"image_url,omitempty"`
	FaceEnrolled  bool       `json:"face_enrolled"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Class is a taught class students enroll into.
type Class struct {
	ID        int64     `json:"id"`
	ClassCode string    `json:"class_code"`
	Subject   string    `json:"subject"`
	TeacherID *int64    `json:"teacher_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FaceEmbedding is one student's stored facial signature. A student logically
// owns at most one current embedding; ReplaceEmbedding enforces that.
type FaceEmbedding struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Payload   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// EnrolledEmbedding is the slim candidate view consumed by the matcher.
type EnrolledEmbedding struct {
	StudentID int64
	Payload   string
}
