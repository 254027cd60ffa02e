package models

import "time"

// Submission statuses. The editable set is draft+submitted; everything past
// under_review is a final classification outcome.
const (
	StatusDraft              = "draft"
	StatusSubmitted          = "submitted"
	StatusUnderReview        = "under_review"
	StatusApprovedExhibition = "approved_exhibition"
	StatusApprovedOral       = "approved_oral"
	StatusRejected           = "rejected"
)

// Submission is one author's entry against a call.
type Submission struct {
	SubmissionID    int    `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	CallID          int    `gorm:"column:call_id" json:"call_id"`
	UserID          int    `gorm:"column:user_id" json:"user_id"`
	Title           string `gorm:"column:title" json:"title"`
	ExperienceStart string `gorm:"column:experience_start" json:"experience_start"` // YYYY-MM
	LineID          int    `gorm:"column:line_id" json:"line_id"`

	Introduction string `gorm:"column:introduction" json:"introduction"`
	Objectives   string `gorm:"column:objectives" json:"objectives"`
	Method       string `gorm:"column:method" json:"method"`
	Results      string `gorm:"column:results" json:"results"`
	Conclusions  string `gorm:"column:conclusions" json:"conclusions"`
	Bibliography string `gorm:"column:bibliography" json:"bibliography"`

	Status       string  `gorm:"column:status" json:"status"`
	AdminRemarks *string `gorm:"column:admin_remarks" json:"admin_remarks,omitempty"`
	ScoreVisible bool    `gorm:"column:score_visible" json:"score_visible"`
	PosterFileID *int    `gorm:"column:poster_file_id" json:"poster_file_id,omitempty"`

	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	User       *User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Call       *Call                `gorm:"foreignKey:CallID" json:"call,omitempty"`
	Line       *ThematicLine        `gorm:"foreignKey:LineID" json:"thematic_line,omitempty"`
	Coauthors  []SubmissionCoauthor `gorm:"foreignKey:SubmissionID" json:"coauthors,omitempty"`
	PosterFile *FileUpload          `gorm:"foreignKey:PosterFileID" json:"poster_file,omitempty"`
}

// SubmissionCoauthor links additional authors to a submission.
type SubmissionCoauthor struct {
	ID           int       `gorm:"primaryKey;column:coauthor_id" json:"coauthor_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	UserID       int       `gorm:"column:user_id" json:"user_id"`
	DisplayOrder int       `gorm:"column:display_order" json:"display_order"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// SubmissionStatusHistory tracks every status transition for audit.
type SubmissionStatusHistory struct {
	HistoryID    int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	OldStatus    *string   `gorm:"column:old_status" json:"old_status"`
	NewStatus    string    `gorm:"column:new_status" json:"new_status"`
	ChangedBy    int       `gorm:"column:changed_by" json:"changed_by"`
	Reason       *string   `gorm:"column:reason" json:"reason"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides
func (Submission) TableName() string {
	return "submissions"
}

func (SubmissionCoauthor) TableName() string {
	return "submission_coauthors"
}

func (SubmissionStatusHistory) TableName() string {
	return "submission_status_history"
}

// IsEditable reports whether the submission is still in an author-editable
// state. Deadline gating is checked separately against the parent call.
func (s *Submission) IsEditable() bool {
	return s.Status == StatusDraft || s.Status == StatusSubmitted
}

// IsFinal reports whether the submission carries a classification outcome.
func (s *Submission) IsFinal() bool {
	switch s.Status {
	case StatusApprovedExhibition, StatusApprovedOral, StatusRejected:
		return true
	}
	return false
}
