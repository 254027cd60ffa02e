package models

import "time"

// MaxActiveEvaluators is the quorum size: a submission moves to
// under_review once this many evaluators are concurrently active.
const MaxActiveEvaluators = 2

// EvaluatorAssignment links a submission to an evaluator permitted to score
// it. Revoked rows keep their revoked_at for audit and are never deleted.
type EvaluatorAssignment struct {
	AssignmentID int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	SubmissionID int        `gorm:"column:submission_id" json:"submission_id"`
	EvaluatorID  int        `gorm:"column:evaluator_id" json:"evaluator_id"`
	AssignedBy   int        `gorm:"column:assigned_by" json:"assigned_by"`
	AssignedAt   time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
	RevokedAt    *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`

	Evaluator *User `gorm:"foreignKey:EvaluatorID" json:"evaluator,omitempty"`
}

func (EvaluatorAssignment) TableName() string {
	return "evaluator_assignments"
}

// IsActive reports whether the assignment has not been revoked.
func (a *EvaluatorAssignment) IsActive() bool {
	return a.RevokedAt == nil
}
