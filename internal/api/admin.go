package api

import (
	"net/http"

	"order-lookup/internal/service"

	"github.com/gin-gonic/gin"
)

type lockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// adminAuth rejects requests without the admin password
func (h *Handler) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.services.Admin.CheckPassword(c.GetHeader(headerAdminPassword)); err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) adminDraft(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"draft": h.services.Admin.Draft(),
		"locks": h.services.Admin.Locks(),
	})
}

func (h *Handler) submitEntry(c *gin.Context) {
	var form service.EntryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	entry, next, err := h.services.Admin.Submit(form)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry": entry,
		"next":  next,
	})
}

func (h *Handler) listEntries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"entries": h.services.Admin.Entries(),
		"locks":   h.services.Admin.Locks(),
	})
}

func (h *Handler) deleteEntry(c *gin.Context) {
	if err := h.services.Admin.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportEntries(c *gin.Context) {
	out, err := h.services.Admin.ExportTSV()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/tab-separated-values; charset=utf-8", []byte(out))
}

func (h *Handler) setLock(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.services.Admin.SetLock(service.LockField(c.Param("field")), *req.Locked); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locks": h.services.Admin.Locks()})
}
