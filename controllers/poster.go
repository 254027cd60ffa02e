// controllers/poster.go - Poster upload/download
package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// UploadPoster stores a poster file for a submission. Accepted only while
// the call accepts posters and the submission is still editable.
func UploadPoster(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	fileUpload, err := posterService.Upload(c.Request.Context(), submissionID, header, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Poster uploaded successfully",
		"file":    fileUpload,
	})
}

// DownloadPoster streams the poster inline.
func DownloadPoster(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	reader, fileUpload, err := posterService.Open(c.Request.Context(), submissionID, user)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `inline; filename="`+fileUpload.OriginalName+`"`)
	c.Header("Content-Type", fileUpload.MimeType)
	c.Header("Content-Length", strconv.FormatInt(fileUpload.FileSize, 10))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// headers already sent; nothing useful left to answer
		return
	}
}
