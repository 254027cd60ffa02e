package services

import (
	"time"
	"unicode/utf8"

	"submission-review-api/models"
	"submission-review-api/utils"

	"gorm.io/gorm"
)

// Bounds every configurable per-field character limit must respect.
const (
	minFieldLimit = 10
	maxFieldLimit = 50000
	maxCallTitle  = 255
)

// ThematicLineInput describes one thematic line of a call.
type ThematicLineInput struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CriterionInput describes one scoring criterion.
type CriterionInput struct {
	Title    string  `json:"title" binding:"required"`
	ScaleMin float64 `json:"scale_min"`
	ScaleMax float64 `json:"scale_max"`
	Weight   float64 `json:"weight"`
}

// CallLimits carries the per-field character limits of a call.
type CallLimits struct {
	Title        int `json:"title"`
	Introduction int `json:"introduction"`
	Objectives   int `json:"objectives"`
	Method       int `json:"method"`
	Results      int `json:"results"`
	Conclusion   int `json:"conclusion"`
}

// CallInput is the create payload for a call.
type CallInput struct {
	Title              string              `json:"title" binding:"required"`
	Description        string              `json:"description"`
	SubmissionDeadline *time.Time          `json:"submission_deadline"`
	ExperienceStart    string              `json:"experience_start"`
	ExperienceEnd      string              `json:"experience_end"`
	AcceptsPoster      bool                `json:"accepts_poster"`
	MaxCoauthors       int                 `json:"max_coauthors"`
	Limits             CallLimits          `json:"limits"`
	ThematicLines      []ThematicLineInput `json:"thematic_lines"`
	WrittenCriteria    []CriterionInput    `json:"written_criteria"`
	OralCriteria       []CriterionInput    `json:"oral_criteria"`
}

// CallUpdateInput is the partial update payload; nil fields keep the stored
// value, non-nil slices replace the stored set wholesale.
type CallUpdateInput struct {
	Title              *string             `json:"title"`
	Description        *string             `json:"description"`
	SubmissionDeadline *time.Time          `json:"submission_deadline"`
	ExperienceStart    *string             `json:"experience_start"`
	ExperienceEnd      *string             `json:"experience_end"`
	AcceptsPoster      *bool               `json:"accepts_poster"`
	MaxCoauthors       *int                `json:"max_coauthors"`
	Limits             *CallLimits         `json:"limits"`
	ThematicLines      []ThematicLineInput `json:"thematic_lines"`
	WrittenCriteria    []CriterionInput    `json:"written_criteria"`
	OralCriteria       []CriterionInput    `json:"oral_criteria"`
}

// CallService owns call definitions: deadlines, thematic lines, scoring
// criteria and field limits. Everything else validates against it.
type CallService struct {
	db *gorm.DB
}

func NewCallService(db *gorm.DB) *CallService {
	return &CallService{db: db}
}

func validateCallTitle(title string) error {
	if title == "" {
		return validationErrorf("Call title is required")
	}
	if utf8.RuneCountInString(title) > maxCallTitle {
		return validationErrorf("Call title exceeds the limit of %d characters", maxCallTitle)
	}
	return nil
}

func validateExperienceWindow(start, end string) error {
	if start != "" && !utils.ValidYearMonth(start) {
		return validationErrorf("Experience window start must be in YYYY-MM form")
	}
	if end != "" && !utils.ValidYearMonth(end) {
		return validationErrorf("Experience window end must be in YYYY-MM form")
	}
	if start != "" && end != "" && !utils.YearMonthLTE(start, end) {
		return validationErrorf("Experience window start must not be after its end")
	}
	return nil
}

func validateLimits(limits CallLimits) error {
	checks := []struct {
		name  string
		value int
	}{
		{"title", limits.Title},
		{"introduction", limits.Introduction},
		{"objectives", limits.Objectives},
		{"method", limits.Method},
		{"results", limits.Results},
		{"conclusion", limits.Conclusion},
	}
	for _, check := range checks {
		if check.value < minFieldLimit || check.value > maxFieldLimit {
			return validationErrorf("Limit for %s must be between %d and %d characters",
				check.name, minFieldLimit, maxFieldLimit)
		}
	}
	return nil
}

func validateCriteria(kind string, criteria []CriterionInput) error {
	for _, criterion := range criteria {
		if criterion.Title == "" {
			return validationErrorf("Every %s criterion needs a title", kind)
		}
		if criterion.ScaleMin >= criterion.ScaleMax {
			return validationErrorf("Criterion %q must have scale_min below scale_max", criterion.Title)
		}
		if criterion.Weight <= 0 {
			return validationErrorf("Criterion %q must have a positive weight", criterion.Title)
		}
	}
	return nil
}

func validateCallInput(in *CallInput) error {
	if err := validateCallTitle(in.Title); err != nil {
		return err
	}
	if in.SubmissionDeadline == nil {
		return validationErrorf("A submission deadline is required")
	}
	if err := validateExperienceWindow(in.ExperienceStart, in.ExperienceEnd); err != nil {
		return err
	}
	if err := validateLimits(in.Limits); err != nil {
		return err
	}
	if in.MaxCoauthors < 0 {
		return validationErrorf("max_coauthors cannot be negative")
	}
	if err := validateCriteria(models.CriterionKindWritten, in.WrittenCriteria); err != nil {
		return err
	}
	return validateCriteria(models.CriterionKindOral, in.OralCriteria)
}

func buildLines(callID int, lines []ThematicLineInput) []models.ThematicLine {
	rows := make([]models.ThematicLine, 0, len(lines))
	for i, line := range lines {
		rows = append(rows, models.ThematicLine{
			CallID:       callID,
			Code:         line.Code,
			Name:         line.Name,
			Description:  line.Description,
			DisplayOrder: i + 1,
		})
	}
	return rows
}

func buildCriteria(callID int, kind string, criteria []CriterionInput) []models.CallCriterion {
	rows := make([]models.CallCriterion, 0, len(criteria))
	for i, criterion := range criteria {
		rows = append(rows, models.CallCriterion{
			CallID:       callID,
			Kind:         kind,
			Title:        criterion.Title,
			ScaleMin:     criterion.ScaleMin,
			ScaleMax:     criterion.ScaleMax,
			Weight:       criterion.Weight,
			DisplayOrder: i + 1,
		})
	}
	return rows
}

// Create validates and inserts a new call with its lines and criteria in
// one transaction. Calls start unpublished.
func (s *CallService) Create(in *CallInput) (*models.Call, error) {
	if err := validateCallInput(in); err != nil {
		return nil, err
	}

	now := time.Now()
	call := models.Call{
		Title:              in.Title,
		Description:        in.Description,
		SubmissionDeadline: in.SubmissionDeadline,
		ExperienceStart:    in.ExperienceStart,
		ExperienceEnd:      in.ExperienceEnd,
		Published:          false,
		AcceptsPoster:      in.AcceptsPoster,
		MaxCoauthors:       in.MaxCoauthors,
		LimitTitle:         in.Limits.Title,
		LimitIntroduction:  in.Limits.Introduction,
		LimitObjectives:    in.Limits.Objectives,
		LimitMethod:        in.Limits.Method,
		LimitResults:       in.Limits.Results,
		LimitConclusion:    in.Limits.Conclusion,
		CreateAt:           &now,
		UpdateAt:           &now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&call).Error; err != nil {
			return err
		}
		if lines := buildLines(call.CallID, in.ThematicLines); len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		written := buildCriteria(call.CallID, models.CriterionKindWritten, in.WrittenCriteria)
		oral := buildCriteria(call.CallID, models.CriterionKindOral, in.OralCriteria)
		if criteria := append(written, oral...); len(criteria) > 0 {
			if err := tx.Create(&criteria).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageError("call create", err)
	}

	return s.Get(call.CallID, true)
}

// Update applies a partial update. Thematic lines and criteria, when
// supplied, are fully replaced (delete-then-insert) in the same
// transaction.
func (s *CallService) Update(callID int, in *CallUpdateInput) (*models.Call, error) {
	call, err := s.Get(callID, true)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err := validateCallTitle(*in.Title); err != nil {
			return nil, err
		}
		call.Title = *in.Title
	}
	if in.Description != nil {
		call.Description = *in.Description
	}
	if in.SubmissionDeadline != nil {
		call.SubmissionDeadline = in.SubmissionDeadline
	}
	if in.ExperienceStart != nil {
		call.ExperienceStart = *in.ExperienceStart
	}
	if in.ExperienceEnd != nil {
		call.ExperienceEnd = *in.ExperienceEnd
	}
	if err := validateExperienceWindow(call.ExperienceStart, call.ExperienceEnd); err != nil {
		return nil, err
	}
	if in.AcceptsPoster != nil {
		call.AcceptsPoster = *in.AcceptsPoster
	}
	if in.MaxCoauthors != nil {
		if *in.MaxCoauthors < 0 {
			return nil, validationErrorf("max_coauthors cannot be negative")
		}
		call.MaxCoauthors = *in.MaxCoauthors
	}
	if in.Limits != nil {
		if err := validateLimits(*in.Limits); err != nil {
			return nil, err
		}
		call.LimitTitle = in.Limits.Title
		call.LimitIntroduction = in.Limits.Introduction
		call.LimitObjectives = in.Limits.Objectives
		call.LimitMethod = in.Limits.Method
		call.LimitResults = in.Limits.Results
		call.LimitConclusion = in.Limits.Conclusion
	}
	if in.WrittenCriteria != nil {
		if err := validateCriteria(models.CriterionKindWritten, in.WrittenCriteria); err != nil {
			return nil, err
		}
	}
	if in.OralCriteria != nil {
		if err := validateCriteria(models.CriterionKindOral, in.OralCriteria); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	call.UpdateAt = &now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("ThematicLines", "Criteria").Save(call).Error; err != nil {
			return err
		}

		if in.ThematicLines != nil {
			if err := tx.Where("call_id = ?", callID).Delete(&models.ThematicLine{}).Error; err != nil {
				return err
			}
			if lines := buildLines(callID, in.ThematicLines); len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return err
				}
			}
		}

		replaceCriteria := func(kind string, criteria []CriterionInput) error {
			if criteria == nil {
				return nil
			}
			if err := tx.Where("call_id = ? AND kind = ?", callID, kind).
				Delete(&models.CallCriterion{}).Error; err != nil {
				return err
			}
			if rows := buildCriteria(callID, kind, criteria); len(rows) > 0 {
				return tx.Create(&rows).Error
			}
			return nil
		}
		if err := replaceCriteria(models.CriterionKindWritten, in.WrittenCriteria); err != nil {
			return err
		}
		return replaceCriteria(models.CriterionKindOral, in.OralCriteria)
	})
	if err != nil {
		return nil, storageError("call update", err)
	}

	return s.Get(callID, true)
}

// SetPublished toggles publication. Turning it on requires at least one
// thematic line, one written criterion and a deadline.
func (s *CallService) SetPublished(callID int, desired bool) (*models.Call, error) {
	call, err := s.Get(callID, true)
	if err != nil {
		return nil, err
	}

	if desired {
		if call.SubmissionDeadline == nil {
			return nil, validationErrorf("Cannot publish a call without a submission deadline")
		}
		if len(call.ThematicLines) == 0 {
			return nil, validationErrorf("Cannot publish a call without thematic lines")
		}
		written := 0
		for _, criterion := range call.Criteria {
			if criterion.Kind == models.CriterionKindWritten {
				written++
			}
		}
		if written == 0 {
			return nil, validationErrorf("Cannot publish a call without written criteria")
		}
	}

	now := time.Now()
	updates := map[string]interface{}{"published": desired, "update_at": now}
	if err := s.db.Model(&models.Call{}).Where("call_id = ?", callID).Updates(updates).Error; err != nil {
		return nil, storageError("call publish", err)
	}
	call.Published = desired
	call.UpdateAt = &now
	return call, nil
}

// Delete soft-deletes the call and cascades its lines and criteria.
func (s *CallService) Delete(callID int) error {
	call, err := s.Get(callID, true)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("call_id = ?", callID).Delete(&models.ThematicLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("call_id = ?", callID).Delete(&models.CallCriterion{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Call{}).Where("call_id = ?", call.CallID).
			Updates(map[string]interface{}{"delete_at": now, "published": false}).Error
	})
	if err != nil {
		return storageError("call delete", err)
	}
	return nil
}

// Get loads one call with its lines and criteria. Unpublished calls are
// only visible when includeUnpublished is set (admin paths).
func (s *CallService) Get(callID int, includeUnpublished bool) (*models.Call, error) {
	var call models.Call
	query := s.db.Preload("ThematicLines", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order ASC")
	}).Preload("Criteria", func(db *gorm.DB) *gorm.DB {
		return db.Order("kind ASC, display_order ASC")
	}).Where("call_id = ? AND delete_at IS NULL", callID)

	if !includeUnpublished {
		query = query.Where("published = ?", true)
	}

	if err := query.First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("call")
		}
		return nil, storageError("call lookup", err)
	}
	return &call, nil
}

// List returns calls ordered newest first. Non-admin callers only see
// published ones.
func (s *CallService) List(includeUnpublished bool) ([]models.Call, error) {
	var calls []models.Call
	query := s.db.Preload("ThematicLines").Where("delete_at IS NULL")
	if !includeUnpublished {
		query = query.Where("published = ?", true)
	}
	if err := query.Order("create_at DESC").Find(&calls).Error; err != nil {
		return nil, storageError("call list", err)
	}
	return calls, nil
}
