package services

import (
	"fmt"
	"sort"

	"submission-review-api/models"

	"gorm.io/gorm"
)

// Tier sizes for consolidation.
const (
	ExhibitionTierSize  = 40
	OralTierPerLineSize = 6
)

// rankedSubmission is the minimal view the ranking works on.
type rankedSubmission struct {
	SubmissionID    int
	LineID          int
	ExperienceStart string
	Total           float64
}

// rankSubmissions orders by total descending, ties broken by more recent
// experience start, then lower submission id.
func rankSubmissions(entries []rankedSubmission) []rankedSubmission {
	ranked := make([]rankedSubmission, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		if ranked[i].ExperienceStart != ranked[j].ExperienceStart {
			return ranked[i].ExperienceStart > ranked[j].ExperienceStart
		}
		return ranked[i].SubmissionID < ranked[j].SubmissionID
	})
	return ranked
}

// selectTiers picks the overall exhibition tier and the per-line oral tier
// from already computed totals. A submission can appear in both; the oral
// outcome supersedes the stored status.
func selectTiers(entries []rankedSubmission) (exhibition []int, oralByLine map[int][]int) {
	ranked := rankSubmissions(entries)

	limit := ExhibitionTierSize
	if len(ranked) < limit {
		limit = len(ranked)
	}
	for _, entry := range ranked[:limit] {
		exhibition = append(exhibition, entry.SubmissionID)
	}

	oralByLine = make(map[int][]int)
	for _, entry := range ranked {
		if len(oralByLine[entry.LineID]) >= OralTierPerLineSize {
			continue
		}
		oralByLine[entry.LineID] = append(oralByLine[entry.LineID], entry.SubmissionID)
	}
	return exhibition, oralByLine
}

// ClassificationResult summarizes one consolidation run.
type ClassificationResult struct {
	CallID     int           `json:"call_id"`
	Scored     int           `json:"scored_submissions"`
	Exhibition []int         `json:"exhibition"`
	OralByLine map[int][]int `json:"oral_by_line"`
}

// ClassificationService runs the per-call consolidation that assigns
// exhibition and oral outcomes, plus the admin final-status override.
type ClassificationService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewClassificationService(db *gorm.DB, notifications *NotificationService) *ClassificationService {
	return &ClassificationService{db: db, notifications: notifications}
}

// Classify ranks every scored submission of the call and persists the tier
// outcomes in one transaction. Submissions outside both tiers keep their
// status. Emits a single classification notification for the call.
func (s *ClassificationService) Classify(callID int, admin *models.User) (*ClassificationResult, error) {
	var call models.Call
	if err := s.db.Where("call_id = ? AND delete_at IS NULL", callID).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("call")
		}
		return nil, storageError("call lookup", err)
	}

	var criteria []models.CallCriterion
	if err := s.db.Where("call_id = ? AND kind = ?", callID, models.CriterionKindWritten).
		Find(&criteria).Error; err != nil {
		return nil, storageError("criteria lookup", err)
	}
	if len(criteria) == 0 {
		return nil, stateConflictf("This call has no written criteria to classify against")
	}

	var submissions []models.Submission
	if err := s.db.Where("call_id = ? AND deleted_at IS NULL", callID).
		Find(&submissions).Error; err != nil {
		return nil, storageError("submission list", err)
	}

	submissionIDs := make([]int, 0, len(submissions))
	for _, submission := range submissions {
		submissionIDs = append(submissionIDs, submission.SubmissionID)
	}

	var items []models.ScoreItem
	if len(submissionIDs) > 0 {
		if err := s.db.Where("submission_id IN ?", submissionIDs).
			Find(&items).Error; err != nil {
			return nil, storageError("score lookup", err)
		}
	}
	itemsBySubmission := make(map[int][]models.ScoreItem)
	for _, item := range items {
		itemsBySubmission[item.SubmissionID] = append(itemsBySubmission[item.SubmissionID], item)
	}

	// Only submissions with at least one written score participate.
	entries := make([]rankedSubmission, 0, len(submissions))
	for _, submission := range submissions {
		aggregate := computeAggregate(submission.SubmissionID, criteria, itemsBySubmission[submission.SubmissionID])
		if aggregate.EvaluatorCount == 0 {
			continue
		}
		entries = append(entries, rankedSubmission{
			SubmissionID:    submission.SubmissionID,
			LineID:          submission.LineID,
			ExperienceStart: submission.ExperienceStart,
			Total:           aggregate.Total,
		})
	}

	exhibition, oralByLine := selectTiers(entries)

	statusBySubmission := make(map[int]string)
	for _, id := range exhibition {
		statusBySubmission[id] = models.StatusApprovedExhibition
	}
	for _, ids := range oralByLine {
		for _, id := range ids {
			statusBySubmission[id] = models.StatusApprovedOral
		}
	}

	currentStatus := make(map[int]string, len(submissions))
	for _, submission := range submissions {
		currentStatus[submission.SubmissionID] = submission.Status
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for submissionID, newStatus := range statusBySubmission {
			oldStatus := currentStatus[submissionID]
			if oldStatus == newStatus {
				continue
			}
			if err := tx.Model(&models.Submission{}).
				Where("submission_id = ?", submissionID).
				Update("status", newStatus).Error; err != nil {
				return err
			}
			if err := recordTransition(tx, submissionID, &oldStatus, newStatus, admin.UserID, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageError("classification", err)
	}

	// One notification per call, not per submission.
	s.notifications.NotifyAdmins(NotifyClassification,
		"Classification completed",
		fmt.Sprintf("Call %q was consolidated: %d submissions in the exhibition tier.", call.Title, len(exhibition)))

	return &ClassificationResult{
		CallID:     callID,
		Scored:     len(entries),
		Exhibition: exhibition,
		OralByLine: oralByLine,
	}, nil
}

var finalStatuses = map[string]bool{
	models.StatusRejected:           true,
	models.StatusApprovedExhibition: true,
	models.StatusApprovedOral:       true,
}

// SetFinalStatus is the unconditional admin override: persists the final
// status and remarks and notifies the author.
func (s *ClassificationService) SetFinalStatus(submissionID int, status string, remarks string, admin *models.User) (*models.Submission, error) {
	if !finalStatuses[status] {
		return nil, validationErrorf("Status must be one of rejected, approved_exhibition or approved_oral")
	}

	var submission models.Submission
	if err := s.db.Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("submission")
		}
		return nil, storageError("submission lookup", err)
	}

	oldStatus := submission.Status
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": status}
		if remarks != "" {
			updates["admin_remarks"] = remarks
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return err
		}
		var reason *string
		if remarks != "" {
			reason = &remarks
		}
		return recordTransition(tx, submissionID, &oldStatus, status, admin.UserID, reason)
	})
	if err != nil {
		return nil, storageError("final status", err)
	}

	submission.Status = status
	if remarks != "" {
		submission.AdminRemarks = &remarks
	}

	s.notifications.Notify(submission.UserID, NotifyStatusChanged,
		"Submission status updated",
		fmt.Sprintf("Your work %q received the final status %q.", submission.Title, status),
		&submissionID)

	return &submission, nil
}
