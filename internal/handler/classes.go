package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addClassStudentRequest struct {
	StudentID int64 `json:"student_id" binding:"required,gt=0"`
}

// ClassAddStudent enrolls a student into a class and seeds Absent records
// for the class's upcoming sessions, the baseline later marking overwrites.
// Enrolling an already-linked student is a no-op.
func (h *Handler) ClassAddStudent(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addClassStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	if _, err := h.roster.GetClass(ctx, classID); err != nil {
		writeError(c, err)
		return
	}
	student, err := h.roster.GetStudent(ctx, req.StudentID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.roster.AddClassStudent(ctx, classID, student.ID); err != nil {
		writeError(c, err)
		return
	}
	if err := h.reconciler.EnrollStudent(ctx, classID, student.ID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"class_id":   classID,
		"student_id": student.ID,
		"full_name":  student.FullName,
	})
}
