// controllers/submission.go - Author submission lifecycle
package controllers

import (
	"net/http"

	"submission-review-api/config"
	"submission-review-api/services"
	"submission-review-api/utils"

	"github.com/gin-gonic/gin"
)

// CreateSubmission registers a new submission against a call.
func CreateSubmission(c *gin.Context) {
	callID, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.SubmissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := submissionService.Create(callID, &req, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Submission created successfully",
		"submission": submission,
	})
}

// GetMySubmissions returns the caller's own submissions.
func GetMySubmissions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	submissions, err := submissionService.ListForAuthor(user.UserID)
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

// GetSubmission returns one submission. Authors see their own; admins and
// actively assigned evaluators see everything else.
func GetSubmission(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	submission, err := submissionService.Get(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	if submission.UserID != user.UserID {
		allowed, err := services.CanReviewOrView(config.DB, user, submissionID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !allowed {
			// Uniform 404 so unauthorized callers cannot enumerate ids.
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// UpdateSubmission edits a submission while it is still editable and the
// call deadline is open.
func UpdateSubmission(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.SubmissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := submissionService.Update(submissionID, &req, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Submission updated successfully",
		"submission": submission,
	})
}

// DeleteSubmission removes an editable submission. The call deadline does
// not gate deletion.
func DeleteSubmission(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := submissionService.Delete(submissionID, user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission deleted successfully",
	})
}

// GetMySubmissionScores shows the author their aggregate, but only after
// an admin made it visible.
func GetMySubmissionScores(c *gin.Context) {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	submission, err := submissionService.Get(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if submission.UserID != user.UserID && !utils.IsAdmin(user.RoleID, user.Roles) {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	if !submission.ScoreVisible && !utils.IsAdmin(user.RoleID, user.Roles) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Scores are not visible yet"})
		return
	}

	aggregate, err := scoringService.Aggregate(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"aggregate": aggregate,
	})
}
