package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listAnnouncements(c *gin.Context) {
	list, err := h.services.Announcements.List(c.Request.Context(), c.GetHeader(headerVisitorID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": list})
}

func (h *Handler) likeAnnouncement(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Announcements.Like(c.Request.Context(), id, c.GetHeader(headerVisitorID)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "liked",
		"announcement_id": id,
	})
}
