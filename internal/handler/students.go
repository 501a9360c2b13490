package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/enroll"
	"schoolattend/internal/queue"
	"schoolattend/internal/roster"
)

type studentRequest struct {
	FullName      string  `json:"full_name" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	PhoneNumber   *string `json:"phone_number"`
	Address       *string `json:"address"`
	DateOfBirth   *string `json:"date_of_birth"`
	AdmissionYear int     `json:"admission_year"`
	Status        string  `json:"status"`
	ImageURL      *string `json:"image_url"`
}

func (r studentRequest) toModel() (roster.Student, error) {
	s := roster.Student{
		FullName:      r.FullName,
		Email:         r.Email,
		PhoneNumber:   r.PhoneNumber,
		Address:       r.Address,
		AdmissionYear: r.AdmissionYear,
		Status:        r.Status,
		ImageURL:      r.ImageURL,
	}
	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", *r.DateOfBirth)
		if err != nil {
			return roster.Student{}, err
		}
		s.DateOfBirth = &dob
	}
	return s, nil
}

// ListStudents returns all students.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.roster.ListStudents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// GetStudent returns one student.
func (h *Handler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	student, err := h.roster.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// CreateStudent inserts a student and, when a photo was supplied, queues the
// enrollment job. The student row commits regardless of how enrollment goes;
// a failed enrollment is logged by the worker, never rolled back here.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	s, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "date_of_birth must be YYYY-MM-DD"})
		return
	}

	created, err := h.roster.CreateStudent(c.Request.Context(), s)
	if err != nil {
		writeError(c, err)
		return
	}

	if enroll.NeedsEnrollment(nil, created.ImageURL) {
		h.queueEnrollment(c, created.ID, *created.ImageURL)
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateStudent updates a student and re-queues enrollment only when the
// image URL actually changed.
func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	s, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "date_of_birth must be YYYY-MM-DD"})
		return
	}
	s.ID = id

	prev, err := h.roster.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if s.ImageURL == nil {
		s.ImageURL = prev.ImageURL
	}

	updated, err := h.roster.UpdateStudent(c.Request.Context(), s)
	if err != nil {
		writeError(c, err)
		return
	}

	if enroll.NeedsEnrollment(prev.ImageURL, updated.ImageURL) {
		h.queueEnrollment(c, updated.ID, *updated.ImageURL)
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteStudent removes a student and everything owned by them.
func (h *Handler) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.roster.DeleteStudent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// StudentClasses lists the classes a student participates in.
func (h *Handler) StudentClasses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	classes, err := h.roster.ListStudentClasses(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *Handler) queueEnrollment(c *gin.Context, studentID int64, imageURL string) {
	job := queue.NewEnrollJob(studentID, imageURL)
	if err := h.jobs.Publish(c.Request.Context(), job); err != nil {
		log.Printf("queue publish failed for student %d: %v", studentID, err)
	}
}
