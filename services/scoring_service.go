package services

import (
	"sort"
	"time"

	"submission-review-api/models"

	"gorm.io/gorm"
)

// ScoreItemInput is one criterion score from an evaluator.
type ScoreItemInput struct {
	CriterionID int     `json:"criterion_id" binding:"required"`
	Score       float64 `json:"score"`
	Comments    *string `json:"comments"`
}

// EvaluatorSubtotal is the raw per-evaluator sum over criteria.
type EvaluatorSubtotal struct {
	EvaluatorID int     `json:"evaluator_id"`
	Subtotal    float64 `json:"subtotal"`
}

// AggregateResult is the canonical per-submission total: per-evaluator raw
// subtotals averaged across evaluators and restated per criterion, i.e. the
// mean score on a fixed denominator. One evaluator scoring 5 and another 4
// on a single criterion yields 4.5.
type AggregateResult struct {
	SubmissionID   int                 `json:"submission_id"`
	CriteriaCount  int                 `json:"criteria_count"`
	EvaluatorCount int                 `json:"evaluator_count"`
	Subtotals      []EvaluatorSubtotal `json:"subtotals"`
	Total          float64             `json:"total"`
}

// WeightedResult is the min-max normalized weighted composite on a 0-10
// scale, for calls whose criteria use heterogeneous scales.
type WeightedResult struct {
	SubmissionID   int     `json:"submission_id"`
	EvaluatorCount int     `json:"evaluator_count"`
	Composite      float64 `json:"composite"`
}

// validateScores checks every item against its criterion's scale.
func validateScores(criteria map[int]models.CallCriterion, items []ScoreItemInput) error {
	if len(items) == 0 {
		return validationErrorf("At least one score is required")
	}
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		criterion, ok := criteria[item.CriterionID]
		if !ok {
			return notFound("criterion")
		}
		if seen[item.CriterionID] {
			return validationErrorf("Criterion %q scored twice in one request", criterion.Title)
		}
		seen[item.CriterionID] = true
		if item.Score < criterion.ScaleMin || item.Score > criterion.ScaleMax {
			return validationErrorf("Score for %q must be between %g and %g",
				criterion.Title, criterion.ScaleMin, criterion.ScaleMax)
		}
	}
	return nil
}

// computeAggregate folds score items into per-evaluator subtotals and the
// canonical total. Items for criteria outside the given set are ignored.
func computeAggregate(submissionID int, criteria []models.CallCriterion, items []models.ScoreItem) AggregateResult {
	known := make(map[int]bool, len(criteria))
	for _, criterion := range criteria {
		known[criterion.CriterionID] = true
	}

	subtotals := make(map[int]float64)
	for _, item := range items {
		if !known[item.CriterionID] {
			continue
		}
		subtotals[item.EvaluatorID] += item.Score
	}

	result := AggregateResult{
		SubmissionID:  submissionID,
		CriteriaCount: len(criteria),
	}
	evaluatorIDs := make([]int, 0, len(subtotals))
	for evaluatorID := range subtotals {
		evaluatorIDs = append(evaluatorIDs, evaluatorID)
	}
	sort.Ints(evaluatorIDs)

	var sum float64
	for _, evaluatorID := range evaluatorIDs {
		result.Subtotals = append(result.Subtotals, EvaluatorSubtotal{
			EvaluatorID: evaluatorID,
			Subtotal:    subtotals[evaluatorID],
		})
		sum += subtotals[evaluatorID]
	}
	result.EvaluatorCount = len(evaluatorIDs)
	if result.CriteriaCount > 0 && result.EvaluatorCount > 0 {
		result.Total = sum / float64(result.EvaluatorCount) / float64(result.CriteriaCount)
	}
	return result
}

// computeWeightedComposite rescales each score into [0,1] via
// (score-min)/(max-min), applies the criterion weight, and reports the
// evaluator-averaged composite on a 0-10 scale.
func computeWeightedComposite(submissionID int, criteria []models.CallCriterion, items []models.ScoreItem) WeightedResult {
	byID := make(map[int]models.CallCriterion, len(criteria))
	for _, criterion := range criteria {
		byID[criterion.CriterionID] = criterion
	}

	type evaluatorAcc struct {
		weighted float64
		weight   float64
	}
	perEvaluator := make(map[int]*evaluatorAcc)
	for _, item := range items {
		criterion, ok := byID[item.CriterionID]
		if !ok || criterion.ScaleMax <= criterion.ScaleMin {
			continue
		}
		normalized := (item.Score - criterion.ScaleMin) / (criterion.ScaleMax - criterion.ScaleMin)
		acc := perEvaluator[item.EvaluatorID]
		if acc == nil {
			acc = &evaluatorAcc{}
			perEvaluator[item.EvaluatorID] = acc
		}
		acc.weighted += normalized * criterion.Weight
		acc.weight += criterion.Weight
	}

	result := WeightedResult{SubmissionID: submissionID, EvaluatorCount: len(perEvaluator)}
	if len(perEvaluator) == 0 {
		return result
	}

	var sum float64
	for _, acc := range perEvaluator {
		if acc.weight > 0 {
			sum += acc.weighted / acc.weight * 10
		}
	}
	result.Composite = sum / float64(len(perEvaluator))
	return result
}

// ScoringService records per-criterion scores and computes per-submission
// totals.
type ScoringService struct {
	db *gorm.DB
}

func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{db: db}
}

func (s *ScoringService) loadSubmission(submissionID int) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("submission")
		}
		return nil, storageError("submission lookup", err)
	}
	return &submission, nil
}

func (s *ScoringService) loadCriteria(callID int, kind string) ([]models.CallCriterion, error) {
	var criteria []models.CallCriterion
	if err := s.db.Where("call_id = ? AND kind = ?", callID, kind).
		Find(&criteria).Error; err != nil {
		return nil, storageError("criteria lookup", err)
	}
	return criteria, nil
}

// Record upserts scores for one evaluator. Admins may record on behalf of
// any evaluator; everyone else needs an active assignment and can only
// score as themselves. The first written score moves a submitted
// submission to under_review in the same transaction.
func (s *ScoringService) Record(submissionID, evaluatorID int, kind string, items []ScoreItemInput, caller *models.User) error {
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return err
	}

	if !isAdminUser(caller) {
		if caller.UserID != evaluatorID {
			return authorizationErrorf("Evaluators can only record their own scores")
		}
		allowed, err := CanReviewOrView(s.db, caller, submissionID)
		if err != nil {
			return err
		}
		if !allowed {
			return authorizationErrorf("You are not assigned to this submission")
		}
	}

	criteria, err := s.loadCriteria(submission.CallID, kind)
	if err != nil {
		return err
	}
	byID := make(map[int]models.CallCriterion, len(criteria))
	for _, criterion := range criteria {
		byID[criterion.CriterionID] = criterion
	}
	if err := validateScores(byID, items); err != nil {
		return err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.upsertScoreItems(tx, submissionID, evaluatorID, items, now); err != nil {
			return err
		}

		if kind == models.CriterionKindWritten && submission.Status == models.StatusSubmitted {
			oldStatus := submission.Status
			if err := tx.Model(&models.Submission{}).
				Where("submission_id = ? AND status = ?", submissionID, models.StatusSubmitted).
				Update("status", models.StatusUnderReview).Error; err != nil {
				return err
			}
			return recordTransition(tx, submissionID, &oldStatus, models.StatusUnderReview, caller.UserID, nil)
		}
		return nil
	})
	if err != nil {
		return storageError("score record", err)
	}
	return nil
}

// upsertScoreItems updates the existing row for each (evaluator, criterion)
// pair, creating one only when no row exists yet.
func (s *ScoringService) upsertScoreItems(tx *gorm.DB, submissionID, evaluatorID int, items []ScoreItemInput, now time.Time) error {
	for _, item := range items {
		var existing models.ScoreItem
		err := tx.Where("submission_id = ? AND evaluator_id = ? AND criterion_id = ?",
			submissionID, evaluatorID, item.CriterionID).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&models.ScoreItem{}).
				Where("score_id = ?", existing.ScoreID).
				Updates(map[string]interface{}{
					"score":      item.Score,
					"comments":   item.Comments,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		case err == gorm.ErrRecordNotFound:
			if err := tx.Create(&models.ScoreItem{
				SubmissionID: submissionID,
				EvaluatorID:  evaluatorID,
				CriterionID:  item.CriterionID,
				Score:        item.Score,
				Comments:     item.Comments,
				UpdatedAt:    now,
			}).Error; err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

// Aggregate computes the canonical written-score total.
func (s *ScoringService) Aggregate(submissionID int) (*AggregateResult, error) {
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	criteria, err := s.loadCriteria(submission.CallID, models.CriterionKindWritten)
	if err != nil {
		return nil, err
	}

	var items []models.ScoreItem
	if err := s.db.Where("submission_id = ?", submissionID).Find(&items).Error; err != nil {
		return nil, storageError("score lookup", err)
	}

	result := computeAggregate(submissionID, criteria, items)
	return &result, nil
}

// AggregateWeighted computes the 0-10 min-max weighted composite.
func (s *ScoringService) AggregateWeighted(submissionID int) (*WeightedResult, error) {
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	criteria, err := s.loadCriteria(submission.CallID, models.CriterionKindWritten)
	if err != nil {
		return nil, err
	}

	var items []models.ScoreItem
	if err := s.db.Where("submission_id = ?", submissionID).Find(&items).Error; err != nil {
		return nil, storageError("score lookup", err)
	}

	result := computeWeightedComposite(submissionID, criteria, items)
	return &result, nil
}

// SetVisibility toggles whether the author can see the aggregate.
func (s *ScoringService) SetVisibility(submissionID int, visible bool) error {
	result := s.db.Model(&models.Submission{}).
		Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		Update("score_visible", visible)
	if result.Error != nil {
		return storageError("score visibility", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("submission")
	}
	return nil
}

// ListScores returns the raw score rows of a submission with criterion and
// evaluator detail, for the admin scores view.
func (s *ScoringService) ListScores(submissionID int) ([]models.ScoreItem, error) {
	var items []models.ScoreItem
	err := s.db.Preload("Criterion").Preload("Evaluator").
		Where("submission_id = ?", submissionID).
		Order("evaluator_id ASC, criterion_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, storageError("score lookup", err)
	}
	return items, nil
}
