package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/attendance"
)

// SessionAttendance lists a session's attendance records with student names.
func (h *Handler) SessionAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.attendance.SessionByID(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	records, err := h.attendance.ListSessionRecords(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": records})
}

type markRosterRequest struct {
	Marks []attendance.Mark `json:"marks" binding:"required,min=1,dive"`
}

// MarkRoster applies a teacher's bulk manual marking for a session.
func (h *Handler) MarkRoster(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req markRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	records, err := h.reconciler.MarkRoster(c.Request.Context(), id, req.Marks)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidStatus) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": records})
}

// SessionInfo returns session details including the attendance rate.
func (h *Handler) SessionInfo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	info, err := h.attendance.Info(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// ClassSessions lists the scheduled sessions of a class.
func (h *Handler) ClassSessions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if exists, err := h.attendance.ClassExists(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	} else if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
		return
	}
	sessions, err := h.attendance.ListClassSessions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
