package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"submission-review-api/models"
	"submission-review-api/storage"
	"submission-review-api/utils"

	"gorm.io/gorm"
)

// Poster uploads are capped well below the store limits.
const maxPosterSize = 10 * 1024 * 1024

// PosterService stores poster files content-addressed in the configured
// blob store and keeps the submission's file reference current.
type PosterService struct {
	db            *gorm.DB
	store         storage.Store
	notifications *NotificationService
}

func NewPosterService(db *gorm.DB, store storage.Store, notifications *NotificationService) *PosterService {
	return &PosterService{db: db, store: store, notifications: notifications}
}

// Upload accepts a poster while the call accepts posters, the deadline is
// open and the submission is still editable. The caller blocks until the
// file is persisted and hashed.
func (s *PosterService) Upload(ctx context.Context, submissionID int, header *multipart.FileHeader, caller *models.User) (*models.FileUpload, error) {
	var submission models.Submission
	if err := s.db.Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("submission")
		}
		return nil, storageError("submission lookup", err)
	}
	if submission.UserID != caller.UserID && !isAdminUser(caller) {
		return nil, authorizationErrorf("Only the author or an administrator can upload the poster")
	}

	var call models.Call
	if err := s.db.Where("call_id = ?", submission.CallID).First(&call).Error; err != nil {
		return nil, storageError("call lookup", err)
	}
	if !call.AcceptsPoster {
		return nil, stateConflictf("This call does not accept posters")
	}
	if !call.IsOpen(time.Now()) {
		return nil, stateConflictf("Submissions after this deadline are not accepted")
	}
	if !submission.IsEditable() {
		return nil, stateConflictf("This submission can no longer be modified in status %q", submission.Status)
	}

	if header.Size > maxPosterSize {
		return nil, validationErrorf("Poster exceeds the %dMB size limit", maxPosterSize/(1024*1024))
	}
	if err := utils.ValidatePosterFile(header); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	src, err := header.Open()
	if err != nil {
		return nil, storageError("poster open", err)
	}
	defer src.Close()

	logicalPath := fmt.Sprintf("posters/call-%d/submission-%d/%s",
		submission.CallID, submissionID, utils.GenerateStoredFilename(header.Filename))

	saved, err := s.store.Save(ctx, logicalPath, src)
	if err != nil {
		return nil, storageError("poster save", err)
	}

	now := time.Now()
	fileUpload := models.FileUpload{
		OriginalName: header.Filename,
		StoredPath:   saved.StoredPath,
		FileSize:     saved.Size,
		MimeType:     header.Header.Get("Content-Type"),
		FileHash:     saved.Hash,
		UploadedBy:   caller.UserID,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}

	previousFileID := submission.PosterFileID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&fileUpload).Error; err != nil {
			return err
		}
		if previousFileID != nil {
			if err := tx.Model(&models.FileUpload{}).
				Where("file_id = ?", *previousFileID).
				Update("delete_at", now).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Update("poster_file_id", fileUpload.FileID).Error
	})
	if err != nil {
		// best effort: do not leave an orphaned blob behind
		_ = s.store.Remove(ctx, saved.StoredPath)
		return nil, storageError("poster record", err)
	}

	s.notifications.Notify(submission.UserID, NotifyPosterUpdated,
		"Poster updated", "The poster of \""+submission.Title+"\" was updated.",
		&submissionID)

	return &fileUpload, nil
}

// Open streams the current poster of a submission. Access is gated by the
// caller: the author, an actively assigned evaluator, or an admin.
func (s *PosterService) Open(ctx context.Context, submissionID int, caller *models.User) (io.ReadCloser, *models.FileUpload, error) {
	var submission models.Submission
	if err := s.db.Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, notFound("submission")
		}
		return nil, nil, storageError("submission lookup", err)
	}

	if submission.UserID != caller.UserID {
		allowed, err := CanReviewOrView(s.db, caller, submissionID)
		if err != nil {
			return nil, nil, err
		}
		if !allowed {
			return nil, nil, authorizationErrorf("You cannot access this poster")
		}
	}

	if submission.PosterFileID == nil {
		return nil, nil, notFound("poster")
	}

	var fileUpload models.FileUpload
	if err := s.db.Where("file_id = ? AND delete_at IS NULL", *submission.PosterFileID).
		First(&fileUpload).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, notFound("poster")
		}
		return nil, nil, storageError("file lookup", err)
	}

	reader, err := s.store.Open(ctx, fileUpload.StoredPath)
	if err != nil {
		return nil, nil, storageError("poster open", err)
	}
	return reader, &fileUpload, nil
}
