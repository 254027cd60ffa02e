package models

import "time"

// Criterion kinds mirror call_criteria.kind.
const (
	CriterionKindWritten = "written"
	CriterionKindOral    = "oral"
)

// Call represents a call for submissions: deadline, thematic lines,
// scoring criteria and the per-field character limits submissions are
// validated against.
type Call struct {
	CallID             int        `gorm:"primaryKey;column:call_id" json:"call_id"`
	Title              string     `gorm:"column:title" json:"title"`
	Description        string     `gorm:"column:description" json:"description"` // markdown
	SubmissionDeadline *time.Time `gorm:"column:submission_deadline" json:"submission_deadline"`
	ExperienceStart    string     `gorm:"column:experience_start" json:"experience_start"` // YYYY-MM
	ExperienceEnd      string     `gorm:"column:experience_end" json:"experience_end"`     // YYYY-MM
	Published          bool       `gorm:"column:published" json:"published"`
	AcceptsPoster      bool       `gorm:"column:accepts_poster" json:"accepts_poster"`
	MaxCoauthors       int        `gorm:"column:max_coauthors" json:"max_coauthors"`

	LimitTitle        int `gorm:"column:limit_title" json:"limit_title"`
	LimitIntroduction int `gorm:"column:limit_introduction" json:"limit_introduction"`
	LimitObjectives   int `gorm:"column:limit_objectives" json:"limit_objectives"`
	LimitMethod       int `gorm:"column:limit_method" json:"limit_method"`
	LimitResults      int `gorm:"column:limit_results" json:"limit_results"`
	LimitConclusion   int `gorm:"column:limit_conclusion" json:"limit_conclusion"`

	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	ThematicLines []ThematicLine  `gorm:"foreignKey:CallID" json:"thematic_lines,omitempty"`
	Criteria      []CallCriterion `gorm:"foreignKey:CallID" json:"criteria,omitempty"`
}

// ThematicLine is a category a submission declares membership in.
type ThematicLine struct {
	LineID       int    `gorm:"primaryKey;column:line_id" json:"line_id"`
	CallID       int    `gorm:"column:call_id" json:"call_id"`
	Code         string `gorm:"column:code" json:"code"`
	Name         string `gorm:"column:name" json:"name"`
	Description  string `gorm:"column:description" json:"description"`
	DisplayOrder int    `gorm:"column:display_order" json:"display_order"`
}

// CallCriterion is one scored dimension of a call, written or oral.
type CallCriterion struct {
	CriterionID  int     `gorm:"primaryKey;column:criterion_id" json:"criterion_id"`
	CallID       int     `gorm:"column:call_id" json:"call_id"`
	Kind         string  `gorm:"column:kind" json:"kind"` // written|oral
	Title        string  `gorm:"column:title" json:"title"`
	ScaleMin     float64 `gorm:"column:scale_min" json:"scale_min"`
	ScaleMax     float64 `gorm:"column:scale_max" json:"scale_max"`
	Weight       float64 `gorm:"column:weight" json:"weight"`
	DisplayOrder int     `gorm:"column:display_order" json:"display_order"`
}

// TableName overrides
func (Call) TableName() string {
	return "calls"
}

func (ThematicLine) TableName() string {
	return "call_thematic_lines"
}

func (CallCriterion) TableName() string {
	return "call_criteria"
}

// IsOpen reports whether the call still accepts submissions at the given
// moment. A call without a deadline is never open for submission.
func (c *Call) IsOpen(now time.Time) bool {
	if c.SubmissionDeadline == nil {
		return false
	}
	return now.Before(*c.SubmissionDeadline) || now.Equal(*c.SubmissionDeadline)
}
