package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/facematch"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/metrics"
)

type faceAttendanceRequest struct {
	Image       string `json:"image" binding:"required,min=10"`
	ClassID     int64  `json:"class_id" binding:"required,gt=0"`
	SessionDate string `json:"session_date" binding:"required"`
}

// FaceAttendance resolves a captured face against the class roster and
// marks the matched student Present for the session on the given date.
func (h *Handler) FaceAttendance(c *gin.Context) {
	var req faceAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "session_date must be YYYY-MM-DD"})
		return
	}
	ctx := c.Request.Context()

	// Resolve the class before any embedding work so an unknown class
	// surfaces as not-found instead of an empty-roster no-match.
	if _, err := h.roster.GetClass(ctx, req.ClassID); err != nil {
		writeError(c, err)
		return
	}

	probe, err := h.face.EmbedImage(ctx, req.Image)
	if err != nil {
		if errors.Is(err, faceclient.ErrNoFace) {
			metrics.RecognitionTotal.WithLabelValues("no_face").Inc()
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no face detected in image"})
			return
		}
		// Transport/model failure: the client should retry, so don't mask
		// it as a no-match.
		metrics.RecognitionTotal.WithLabelValues("upstream_error").Inc()
		log.Printf("face embed failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "face service unavailable, retry later"})
		return
	}

	enrolled, err := h.roster.ListClassEmbeddings(ctx, req.ClassID)
	if err != nil {
		writeError(c, err)
		return
	}
	candidates := make([]facematch.Candidate, len(enrolled))
	for i, e := range enrolled {
		candidates[i] = facematch.Candidate{StudentID: e.StudentID, Payload: e.Payload}
	}

	start := time.Now()
	result, ok := h.matcher.Match(probe.Embedding, candidates)
	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	metrics.MatchCandidates.Observe(float64(len(candidates)))
	if !ok {
		metrics.RecognitionTotal.WithLabelValues("no_match").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "no enrolled student matched the face"})
		return
	}

	rec, err := h.reconciler.RecordPresence(ctx, req.ClassID, date, result.StudentID)
	if err != nil {
		writeError(c, err)
		return
	}

	student, err := h.roster.GetStudent(ctx, result.StudentID)
	if err != nil {
		writeError(c, err)
		return
	}

	metrics.RecognitionTotal.WithLabelValues("matched").Inc()
	c.JSON(http.StatusOK, gin.H{
		"student_id": student.ID,
		"full_name":  student.FullName,
		"status":     rec.Status,
		"session_id": rec.SessionID,
		"distance":   result.Distance,
	})
}
