// controllers/admin_submission.go - Admin review workflow: evaluator
// assignment, scoring, classification and final status.
package controllers

import (
	"net/http"
	"strconv"

	"submission-review-api/models"
	"submission-review-api/services"

	"github.com/gin-gonic/gin"
)

// GetAllSubmissions is the admin listing with call/status filters.
func GetAllSubmissions(c *gin.Context) {
	callID, _ := strconv.Atoi(c.Query("call_id"))
	status := c.Query("status")

	submissions, err := submissionService.ListAll(callID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// GetEvaluators lists the active evaluators of a submission.
func GetEvaluators(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	assignments, err := assignmentService.ListActive(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"evaluators": assignments,
		"total":      len(assignments),
	})
}

// AssignEvaluators attaches up to two evaluators; mode merge unions with
// the active set, replace swaps it.
func AssignEvaluators(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		EvaluatorIDs []int  `json:"evaluator_ids" binding:"required"`
		Mode         string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activeCount, err := assignmentService.Assign(submissionID, req.EvaluatorIDs, req.Mode, admin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Evaluators assigned",
		"active_count": activeCount,
	})
}

type evaluateRequest struct {
	EvaluatorID int                       `json:"evaluator_id"`
	Items       []services.ScoreItemInput `json:"items" binding:"required"`
}

func recordScores(c *gin.Context, kind string) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	evaluatorID := req.EvaluatorID
	if evaluatorID == 0 {
		evaluatorID = caller.UserID
	}

	if err := scoringService.Record(submissionID, evaluatorID, kind, req.Items, caller); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scores recorded",
	})
}

// EvaluateWritten records written-criteria scores for one evaluator.
func EvaluateWritten(c *gin.Context) {
	recordScores(c, models.CriterionKindWritten)
}

// EvaluateOral records oral-criteria scores for one evaluator.
func EvaluateOral(c *gin.Context) {
	recordScores(c, models.CriterionKindOral)
}

// GetScores returns the raw score rows plus both aggregate views.
func GetScores(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	items, err := scoringService.ListScores(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}
	aggregate, err := scoringService.Aggregate(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}
	weighted, err := scoringService.AggregateWeighted(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"scores":    items,
		"aggregate": aggregate,
		"weighted":  weighted,
	})
}

// SetScoreVisibility toggles whether the author can see the aggregate.
func SetScoreVisibility(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Visible bool `json:"visible"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := scoringService.SetVisibility(submissionID, req.Visible); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Score visibility updated",
	})
}

// ClassifyCall runs the consolidation for one call.
func ClassifyCall(c *gin.Context) {
	callID, ok := paramID(c, "id")
	if !ok {
		return
	}
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := classificationService.Classify(callID, admin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Classification completed",
		"classification": result,
	})
}

// SetFinalStatus is the unconditional admin override for one submission.
func SetFinalStatus(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Status  string `json:"status" binding:"required"`
		Remarks string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := classificationService.SetFinalStatus(submissionID, req.Status, req.Remarks, admin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Final status recorded",
		"submission": submission,
	})
}
