package models

import "time"

// ScoreItem is one evaluator's score for one criterion of a submission.
// Unique on (submission, evaluator, criterion); later writes overwrite.
type ScoreItem struct {
	ScoreID      int       `gorm:"primaryKey;column:score_id" json:"score_id"`
	SubmissionID int       `gorm:"column:submission_id;uniqueIndex:uq_score_item" json:"submission_id"`
	EvaluatorID  int       `gorm:"column:evaluator_id;uniqueIndex:uq_score_item" json:"evaluator_id"`
	CriterionID  int       `gorm:"column:criterion_id;uniqueIndex:uq_score_item" json:"criterion_id"`
	Score        float64   `gorm:"column:score" json:"score"`
	Comments     *string   `gorm:"column:comments" json:"comments,omitempty"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`

	Evaluator *User          `gorm:"foreignKey:EvaluatorID" json:"evaluator,omitempty"`
	Criterion *CallCriterion `gorm:"foreignKey:CriterionID" json:"criterion,omitempty"`
}

func (ScoreItem) TableName() string {
	return "score_items"
}
