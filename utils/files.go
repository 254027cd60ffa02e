// utils/files.go - Upload validation helpers
package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Poster uploads accept documents and plain images only.
var posterMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
}

var posterExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ValidatePosterFile checks the upload against the MIME/extension
// allow-list. Both must match so a renamed executable cannot slip through
// on Content-Type alone.
func ValidatePosterFile(header *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !posterExtensions[ext] {
		return fmt.Errorf("file extension %s is not allowed", ext)
	}
	mimeType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !posterMimeTypes[mimeType] {
		return fmt.Errorf("file type %s is not allowed", mimeType)
	}
	return nil
}

// GenerateStoredFilename builds a collision-free stored name that keeps the
// original extension.
func GenerateStoredFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.NewString() + ext
}
