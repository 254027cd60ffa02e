package services

import (
	"time"

	"submission-review-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Assignment modes.
const (
	AssignModeMerge   = "merge"
	AssignModeReplace = "replace"
)

// assignmentPlan is the computed outcome of an assign call: which
// evaluators to add (insert-or-reactivate), which active ones to revoke,
// and the resulting active set.
type assignmentPlan struct {
	toAdd    []int
	toRevoke []int
	active   []int
}

// planAssignment resolves the incoming evaluator set against the currently
// active one. merge unions (capped at models.MaxActiveEvaluators); replace
// revokes whatever is not in the incoming set.
func planAssignment(active, incoming []int, mode string) (*assignmentPlan, error) {
	if len(incoming) == 0 {
		return nil, validationErrorf("At least one evaluator is required")
	}
	if len(incoming) > models.MaxActiveEvaluators {
		return nil, validationErrorf("A submission takes at most %d evaluators", models.MaxActiveEvaluators)
	}
	incomingSet := make(map[int]bool, len(incoming))
	for _, id := range incoming {
		if incomingSet[id] {
			return nil, validationErrorf("Duplicate evaluator in request")
		}
		incomingSet[id] = true
	}
	activeSet := make(map[int]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	plan := &assignmentPlan{}
	switch mode {
	case AssignModeMerge, "":
		for _, id := range incoming {
			if !activeSet[id] {
				plan.toAdd = append(plan.toAdd, id)
			}
		}
		if len(active)+len(plan.toAdd) > models.MaxActiveEvaluators {
			return nil, validationErrorf("A submission takes at most %d active evaluators; use replace to swap them",
				models.MaxActiveEvaluators)
		}
		plan.active = append(plan.active, active...)
		plan.active = append(plan.active, plan.toAdd...)
	case AssignModeReplace:
		for _, id := range active {
			if !incomingSet[id] {
				plan.toRevoke = append(plan.toRevoke, id)
			}
		}
		for _, id := range incoming {
			if !activeSet[id] {
				plan.toAdd = append(plan.toAdd, id)
			}
		}
		plan.active = append(plan.active, incoming...)
	default:
		return nil, validationErrorf("Unknown assignment mode %q", mode)
	}

	return plan, nil
}

// AssignmentService attaches evaluators to submissions and advances the
// lifecycle once the two-evaluator quorum is reached.
type AssignmentService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewAssignmentService(db *gorm.DB, notifications *NotificationService) *AssignmentService {
	return &AssignmentService{db: db, notifications: notifications}
}

// Assign applies the requested evaluator set. The submission row is locked
// for the whole transaction, so concurrent assigns serialize and the cap
// and quorum checks read a stable active set. Returns the active evaluator
// count.
func (s *AssignmentService) Assign(submissionID int, evaluatorIDs []int, mode string, assignedBy *models.User) (int, error) {
	var submission models.Submission
	activeCount := 0
	quorumReached := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("submission_id = ? AND deleted_at IS NULL", submissionID).
			First(&submission).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("submission")
			}
			return err
		}

		var activeRows []models.EvaluatorAssignment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("submission_id = ? AND revoked_at IS NULL", submissionID).
			Find(&activeRows).Error; err != nil {
			return err
		}
		active := make([]int, 0, len(activeRows))
		for _, row := range activeRows {
			active = append(active, row.EvaluatorID)
		}

		plan, err := planAssignment(active, evaluatorIDs, mode)
		if err != nil {
			return err
		}

		// Only newly added evaluators are role-checked; evaluators that
		// were already active are grandfathered in.
		for _, evaluatorID := range plan.toAdd {
			var evaluator models.User
			if err := tx.Where("user_id = ? AND delete_at IS NULL", evaluatorID).
				First(&evaluator).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return notFound("evaluator")
				}
				return err
			}
			if !isEvaluatorUser(&evaluator) {
				return validationErrorf("User %d does not hold an evaluator role", evaluatorID)
			}
		}

		now := time.Now()
		if len(plan.toRevoke) > 0 {
			if err := tx.Model(&models.EvaluatorAssignment{}).
				Where("submission_id = ? AND evaluator_id IN ? AND revoked_at IS NULL", submissionID, plan.toRevoke).
				Update("revoked_at", now).Error; err != nil {
				return err
			}
		}

		for _, evaluatorID := range plan.toAdd {
			// Insert-or-reactivate keeps the operation idempotent under
			// concurrent assigns on the same submission.
			var existing models.EvaluatorAssignment
			err := tx.Where("submission_id = ? AND evaluator_id = ?", submissionID, evaluatorID).
				Order("assigned_at DESC").
				First(&existing).Error
			switch {
			case err == nil && existing.RevokedAt != nil:
				if err := tx.Model(&models.EvaluatorAssignment{}).
					Where("assignment_id = ?", existing.AssignmentID).
					Updates(map[string]interface{}{
						"revoked_at":  nil,
						"assigned_by": assignedBy.UserID,
						"assigned_at": now,
					}).Error; err != nil {
					return err
				}
			case err == nil:
				// already active, nothing to do
			case err == gorm.ErrRecordNotFound:
				if err := tx.Create(&models.EvaluatorAssignment{
					SubmissionID: submissionID,
					EvaluatorID:  evaluatorID,
					AssignedBy:   assignedBy.UserID,
					AssignedAt:   now,
				}).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}

		// Quorum check inside the same transaction as the upserts.
		var count int64
		if err := tx.Model(&models.EvaluatorAssignment{}).
			Where("submission_id = ? AND revoked_at IS NULL", submissionID).
			Count(&count).Error; err != nil {
			return err
		}
		activeCount = int(count)

		if activeCount == models.MaxActiveEvaluators && submission.Status == models.StatusSubmitted {
			oldStatus := submission.Status
			result := tx.Model(&models.Submission{}).
				Where("submission_id = ? AND status = ?", submissionID, models.StatusSubmitted).
				Update("status", models.StatusUnderReview)
			if result.Error != nil {
				return result.Error
			}
			// A no-op update must not record a transition.
			if result.RowsAffected > 0 {
				quorumReached = true
				if err := recordTransition(tx, submissionID, &oldStatus, models.StatusUnderReview, assignedBy.UserID, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		switch err.(type) {
		case *ValidationError, *NotFoundError, *AuthorizationError, *StateConflictError:
			return 0, err
		}
		return 0, storageError("evaluator assignment", err)
	}

	if quorumReached {
		s.notifications.Notify(submission.UserID, NotifyStatusChanged,
			"Submission under review", "Your work \""+submission.Title+"\" is now under review.",
			&submissionID)
	}

	return activeCount, nil
}

// ListActive returns the non-revoked evaluators of a submission.
func (s *AssignmentService) ListActive(submissionID int) ([]models.EvaluatorAssignment, error) {
	var assignments []models.EvaluatorAssignment
	err := s.db.Preload("Evaluator").
		Where("submission_id = ? AND revoked_at IS NULL", submissionID).
		Order("assigned_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, storageError("assignment list", err)
	}
	return assignments, nil
}
