package handler

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Upload stores a student photo (multipart file or base64 data URL) in
// Cloudinary and returns the public URL for use in student create/update.
func (h *Handler) Upload(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	var (
		url string
		err error
	)
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(file)
		if ferr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		result, uerr := h.cloud.UploadBytes(c.Request.Context(), data, header.Filename)
		if uerr == nil {
			url = result.SecureURL
		}
		err = uerr
	} else {
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		result, uerr := h.cloud.UploadBase64(c.Request.Context(), body.Data)
		if uerr == nil {
			url = result.SecureURL
		}
		err = uerr
	}

	if err != nil {
		log.Printf("cloudinary upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
