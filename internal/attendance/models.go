package attendance

import "time"

// Attendance statuses. Every write path validates against this set.
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
	StatusExcused = "Excused"
)

// ValidStatus reports whether s is a known attendance status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Session is one dated occurrence of a class meeting. Sessions are created
// when a class is scheduled; attendance never creates them.
type Session struct {
	ID        int64     `json:"id"`
	ClassID   int64     `json:"class_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	RoomID    *int64    `json:"room_id,omitempty"`
}

// Record is one student's presence status for one session. The natural key
// is (session_id, student_id); the storage layer enforces it uniquely.
type Record struct {
	ID          int64     `json:"id"`
	ClassID     int64     `json:"class_id"`
	SessionID   int64     `json:"session_id"`
	StudentID   int64     `json:"student_id"`
	SessionDate time.Time `json:"session_date"`
	Status      string    `json:"status"`
}

// RecordDetail is a record joined with student identity for roster views.
type RecordDetail struct {
	Record
	StudentFullName string `json:"student_full_name"`
	StudentEmail    string `json:"student_email"`
}

// SessionInfo is the session detail view with the attendance rate.
type SessionInfo struct {
	Session
	ClassCode      string  `json:"class_code"`
	RoomName       *string `json:"room_name,omitempty"`
	TotalStudents  int     `json:"total_students"`
	PresentCount   int     `json:"present_count"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// Mark is one entry of a bulk manual marking request.
type Mark struct {
	StudentID int64  `json:"student_id"`
	Status    string `json:"status"`
}
