package api

import (
	"errors"
	"net/http"

	"order-lookup/internal/ingest"
	"order-lookup/internal/models"
	"order-lookup/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{ingest.ErrEmptyQuery, http.StatusBadRequest, "Please enter a nickname"},
	{models.ErrUnknownTab, http.StatusBadRequest, "Unknown tab"},
	{models.ErrUnknownDeliveryFilter, http.StatusBadRequest, "Unknown delivery filter"},
	{service.ErrRowSourceUnavailable, http.StatusBadGateway, service.ErrRowSourceUnavailable.Error()},
	{service.ErrSessionNotFound, http.StatusNotFound, "Session not found"},
	{service.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{service.ErrEntryNotFound, http.StatusNotFound, "Entry not found"},
	{service.ErrSearchSuperseded, http.StatusConflict, "A newer search replaced this one"},
	{service.ErrOrderNotVisible, http.StatusConflict, "Order is not in the current view"},
	{service.ErrAlreadyLiked, http.StatusConflict, "Already liked"},
	{service.ErrNothingSelected, http.StatusUnprocessableEntity, "No orders selected"},
	{service.ErrNoBatchAction, http.StatusUnprocessableEntity, "This tab has no batch payment"},
	{service.ErrInvalidLike, http.StatusBadRequest, "Invalid like"},
	{service.ErrInvalidEntry, http.StatusBadRequest, "Invalid entry"},
	{service.ErrUnknownLockField, http.StatusBadRequest, "Field cannot be locked"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "Invalid admin password"},
	{service.ErrAdminDisabled, http.StatusForbidden, "Admin console is disabled"},
}

// respondError writes err with the status its sentinel maps to
func (h *Handler) respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status == http.StatusBadGateway {
			c.JSON(m.status, gin.H{"error": m.message})
			return
		}
		c.JSON(m.status, gin.H{
			"error":   m.message,
			"details": err.Error(),
		})
		return
	}

	h.logger.Error("Unhandled request error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
