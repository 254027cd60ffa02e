// controllers/admin_call.go - Admin call management
package controllers

import (
	"net/http"

	"submission-review-api/services"

	"github.com/gin-gonic/gin"
)

// GetAdminCalls lists every call, published or not.
func GetAdminCalls(c *gin.Context) {
	calls, err := callService.List(true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"calls":   calls,
		"total":   len(calls),
	})
}

// GetAdminCall returns one call regardless of publication.
func GetAdminCall(c *gin.Context) {
	callID, ok := paramID(c, "id")
	if !ok {
		return
	}

	call, err := callService.Get(callID, true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "call": call})
}

// CreateCall creates a new (unpublished) call.
func CreateCall(c *gin.Context) {
	var req services.CallInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	call, err := callService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Call created successfully",
		"call":    call,
	})
}

// UpdateCall applies a partial update; supplied thematic lines and
// criteria replace the stored sets.
func UpdateCall(c *gin.Context) {
	callID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.CallUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	call, err := callService.Update(callID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Call updated successfully",
		"call":    call,
	})
}

// PublishCall toggles call publication.
func PublishCall(c *gin.Context) {
	callID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	call, err := callService.SetPublished(callID, req.Published)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Call publication updated",
		"call":    call,
	})
}

// DeleteCall removes a call and its lines/criteria.
func DeleteCall(c *gin.Context) {
	callID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := callService.Delete(callID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Call deleted successfully",
	})
}
