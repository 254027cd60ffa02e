package services

import (
	"time"

	"submission-review-api/models"
	"submission-review-api/utils"

	"gorm.io/gorm"
)

// SubmissionInput is the author payload for creating or updating a
// submission. Submit=true validates against the full rule set and lands in
// `submitted`; otherwise the row stays a draft.
type SubmissionInput struct {
	Title           string `json:"title" binding:"required"`
	ExperienceStart string `json:"experience_start" binding:"required"`
	LineID          int    `json:"line_id" binding:"required"`
	Introduction    string `json:"introduction"`
	Objectives      string `json:"objectives"`
	Method          string `json:"method"`
	Results         string `json:"results"`
	Conclusions     string `json:"conclusions"`
	Bibliography    string `json:"bibliography"`
	CoauthorIDs     []int  `json:"coauthor_ids"`
	Submit          bool   `json:"submit"`
}

// SubmissionService enforces the submission state machine and the
// author/admin mutation gates.
type SubmissionService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewSubmissionService(db *gorm.DB, notifications *NotificationService) *SubmissionService {
	return &SubmissionService{db: db, notifications: notifications}
}

// validateSubmissionFields runs the field rules against the parent call.
// Drafts only need a title and a well-formed experience start; submitting
// requires every long-text field non-empty, within limits, and the
// experience start inside the call window.
func validateSubmissionFields(call *models.Call, in *SubmissionInput, forSubmit bool) error {
	if err := utils.CheckRequired("title", in.Title); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if err := utils.CheckLimit("title", in.Title, call.LimitTitle); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if !utils.ValidYearMonth(in.ExperienceStart) {
		return validationErrorf("Experience start must be in YYYY-MM form")
	}

	fields := []struct {
		name  string
		value string
		limit int
	}{
		{"introduction", in.Introduction, call.LimitIntroduction},
		{"objectives", in.Objectives, call.LimitObjectives},
		{"method", in.Method, call.LimitMethod},
		{"results", in.Results, call.LimitResults},
		{"conclusions", in.Conclusions, call.LimitConclusion},
	}
	for _, field := range fields {
		if err := utils.CheckLimit(field.name, field.value, field.limit); err != nil {
			return &ValidationError{Message: err.Error()}
		}
	}

	if !forSubmit {
		return nil
	}

	for _, field := range fields {
		if err := utils.CheckRequired(field.name, field.value); err != nil {
			return &ValidationError{Message: err.Error()}
		}
	}
	if err := utils.CheckRequired("bibliography", in.Bibliography); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if !utils.YearMonthInWindow(in.ExperienceStart, call.ExperienceStart, call.ExperienceEnd) {
		return validationErrorf("Experience start must fall within the call window (%s to %s)",
			call.ExperienceStart, call.ExperienceEnd)
	}
	return nil
}

func validateCoauthors(call *models.Call, authorID int, coauthorIDs []int) error {
	if len(coauthorIDs) > call.MaxCoauthors {
		return validationErrorf("This call accepts at most %d coauthors", call.MaxCoauthors)
	}
	seen := make(map[int]bool, len(coauthorIDs))
	for _, id := range coauthorIDs {
		if id == authorID {
			return validationErrorf("The submission owner cannot be listed as a coauthor")
		}
		if seen[id] {
			return validationErrorf("Duplicate coauthor in list")
		}
		seen[id] = true
	}
	return nil
}

func (s *SubmissionService) lineBelongsToCall(callID, lineID int) error {
	var count int64
	if err := s.db.Model(&models.ThematicLine{}).
		Where("line_id = ? AND call_id = ?", lineID, callID).
		Count(&count).Error; err != nil {
		return storageError("thematic line lookup", err)
	}
	if count == 0 {
		return notFound("thematic line")
	}
	return nil
}

func applyInput(submission *models.Submission, in *SubmissionInput) {
	submission.Title = in.Title
	submission.ExperienceStart = in.ExperienceStart
	submission.LineID = in.LineID
	submission.Introduction = in.Introduction
	submission.Objectives = in.Objectives
	submission.Method = in.Method
	submission.Results = in.Results
	submission.Conclusions = in.Conclusions
	submission.Bibliography = in.Bibliography
}

func buildCoauthorRows(submissionID int, coauthorIDs []int, now time.Time) []models.SubmissionCoauthor {
	rows := make([]models.SubmissionCoauthor, 0, len(coauthorIDs))
	for i, userID := range coauthorIDs {
		rows = append(rows, models.SubmissionCoauthor{
			SubmissionID: submissionID,
			UserID:       userID,
			DisplayOrder: i + 1,
			CreatedAt:    now,
		})
	}
	return rows
}

func recordTransition(tx *gorm.DB, submissionID int, oldStatus *string, newStatus string, changedBy int, reason *string) error {
	return tx.Create(&models.SubmissionStatusHistory{
		SubmissionID: submissionID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		ChangedBy:    changedBy,
		Reason:       reason,
		CreatedAt:    time.Now(),
	}).Error
}

// Create inserts a submission (plus coauthors) against a published, open
// call. The deadline is read against the current time of this request.
func (s *SubmissionService) Create(callID int, in *SubmissionInput, author *models.User) (*models.Submission, error) {
	var call models.Call
	if err := s.db.Where("call_id = ? AND delete_at IS NULL", callID).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("call")
		}
		return nil, storageError("call lookup", err)
	}
	if !call.Published {
		return nil, stateConflictf("This call is not open for submissions")
	}
	if !call.IsOpen(time.Now()) {
		return nil, stateConflictf("Submissions after this deadline are not accepted")
	}

	if err := validateSubmissionFields(&call, in, in.Submit); err != nil {
		return nil, err
	}
	if err := s.lineBelongsToCall(callID, in.LineID); err != nil {
		return nil, err
	}
	if err := validateCoauthors(&call, author.UserID, in.CoauthorIDs); err != nil {
		return nil, err
	}

	status := models.StatusDraft
	if in.Submit {
		status = models.StatusSubmitted
	}

	now := time.Now()
	submission := models.Submission{
		CallID:    callID,
		UserID:    author.UserID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(&submission, in)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		if rows := buildCoauthorRows(submission.SubmissionID, in.CoauthorIDs, now); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return recordTransition(tx, submission.SubmissionID, nil, status, author.UserID, nil)
	})
	if err != nil {
		return nil, storageError("submission create", err)
	}

	s.notifications.Notify(author.UserID, NotifySubmissionCreated,
		"Submission received", "Your work \""+submission.Title+"\" was registered for the call \""+call.Title+"\".",
		&submission.SubmissionID)
	if status == models.StatusSubmitted {
		s.notifications.Notify(author.UserID, NotifyStatusChanged,
			"Submission status updated", "Your work \""+submission.Title+"\" is now submitted for review.",
			&submission.SubmissionID)
	}

	return s.Get(submission.SubmissionID)
}

// checkMutable gates author/admin edits: editable status and open deadline.
func (s *SubmissionService) checkMutable(submission *models.Submission, call *models.Call, caller *models.User, requireOpenDeadline bool) error {
	if submission.UserID != caller.UserID && !isAdminUser(caller) {
		return authorizationErrorf("Only the author or an administrator can modify this submission")
	}
	if !submission.IsEditable() {
		return stateConflictf("This submission can no longer be modified in status %q", submission.Status)
	}
	if requireOpenDeadline && (call == nil || !call.IsOpen(time.Now())) {
		return stateConflictf("Submissions after this deadline are not accepted")
	}
	return nil
}

// Update re-runs the field validations and replaces the coauthor set
// atomically. A draft can be promoted to submitted here.
func (s *SubmissionService) Update(submissionID int, in *SubmissionInput, caller *models.User) (*models.Submission, error) {
	submission, err := s.Get(submissionID)
	if err != nil {
		return nil, err
	}
	var call models.Call
	if err := s.db.Where("call_id = ?", submission.CallID).First(&call).Error; err != nil {
		return nil, storageError("call lookup", err)
	}

	if err := s.checkMutable(submission, &call, caller, true); err != nil {
		return nil, err
	}

	forSubmit := in.Submit || submission.Status == models.StatusSubmitted
	if err := validateSubmissionFields(&call, in, forSubmit); err != nil {
		return nil, err
	}
	if err := s.lineBelongsToCall(submission.CallID, in.LineID); err != nil {
		return nil, err
	}
	if err := validateCoauthors(&call, submission.UserID, in.CoauthorIDs); err != nil {
		return nil, err
	}

	oldStatus := submission.Status
	newStatus := oldStatus
	if in.Submit && oldStatus == models.StatusDraft {
		newStatus = models.StatusSubmitted
	}

	now := time.Now()
	applyInput(submission, in)
	submission.Status = newStatus
	submission.UpdatedAt = now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Call", "Line", "Coauthors", "PosterFile").Save(submission).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id = ?", submissionID).
			Delete(&models.SubmissionCoauthor{}).Error; err != nil {
			return err
		}
		if rows := buildCoauthorRows(submissionID, in.CoauthorIDs, now); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if newStatus != oldStatus {
			return recordTransition(tx, submissionID, &oldStatus, newStatus, caller.UserID, nil)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("submission update", err)
	}

	if newStatus != oldStatus {
		s.notifications.Notify(submission.UserID, NotifyStatusChanged,
			"Submission status updated", "Your work \""+submission.Title+"\" is now submitted for review.",
			&submission.SubmissionID)
	}

	return s.Get(submissionID)
}

// Delete removes a submission in an editable state. Unlike editing, the
// call deadline does not gate deletion.
func (s *SubmissionService) Delete(submissionID int, caller *models.User) error {
	submission, err := s.Get(submissionID)
	if err != nil {
		return err
	}
	if err := s.checkMutable(submission, nil, caller, false); err != nil {
		return err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", submissionID).
			Delete(&models.SubmissionCoauthor{}).Error; err != nil {
			return err
		}
		if submission.PosterFileID != nil {
			if err := tx.Model(&models.FileUpload{}).
				Where("file_id = ?", *submission.PosterFileID).
				Update("delete_at", now).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Update("deleted_at", now).Error
	})
	if err != nil {
		return storageError("submission delete", err)
	}
	return nil
}

// Get loads one submission with its relations.
func (s *SubmissionService) Get(submissionID int) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.Preload("User").
		Preload("Line").
		Preload("Coauthors", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("Coauthors.User").
		Preload("PosterFile").
		Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&submission).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("submission")
		}
		return nil, storageError("submission lookup", err)
	}
	return &submission, nil
}

// ListForAuthor returns the caller's own submissions, newest first.
func (s *SubmissionService) ListForAuthor(authorID int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := s.db.Preload("Line").Preload("Coauthors.User").
		Where("user_id = ? AND deleted_at IS NULL", authorID).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, storageError("submission list", err)
	}
	return submissions, nil
}

// ListAll is the admin listing with optional call and status filters.
func (s *SubmissionService) ListAll(callID int, status string) ([]models.Submission, error) {
	var submissions []models.Submission
	query := s.db.Preload("User").Preload("Line").
		Where("deleted_at IS NULL")
	if callID > 0 {
		query = query.Where("call_id = ?", callID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, storageError("submission list", err)
	}
	return submissions, nil
}
