// controllers/call.go - Public call-for-submissions reads
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCalls lists published calls.
func GetCalls(c *gin.Context) {
	calls, err := callService.List(false)
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

// GetCall returns one published call with its lines, criteria and limits.
func GetCall(c *gin.Context) {
	callID, ok := paramID(c, "id")
	if !ok {
		return
	}

	call, err := callService.Get(callID, false)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"call":    call,
	})
}
