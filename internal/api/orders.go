package api

import (
	"net/http"

	"order-lookup/internal/classifier"
	"order-lookup/internal/handoff"
	"order-lookup/internal/models"
	"order-lookup/internal/service"

	"github.com/gin-gonic/gin"
)

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

type tabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

type cargoFilterRequest struct {
	Status string `json:"status" binding:"required"`
}

type deliveryFilterRequest struct {
	Filter string `json:"filter" binding:"required"`
}

// lookupOrders searches and classifies without keeping any state
func (h *Handler) lookupOrders(c *gin.Context) {
	query := c.Query("nickname")

	tab, explicit, err := h.parseTab(c.Query("tab"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	delivery, err := models.ParseDeliveryFilter(c.Query("delivery"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	cargo := c.QueryArray("cargo")

	orders, err := h.services.Lookup.Search(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !explicit {
		tab = classifier.DefaultTab(orders)
	}
	visible := classifier.Classify(orders, tab, cargo, delivery)

	rows := make([]service.OrderView, 0, len(visible))
	for i := range visible {
		o := visible[i]
		rows = append(rows, service.OrderView{
			Order:         o,
			DisplayAmount: classifier.DisplayAmount(&o, tab),
			Arrived:       o.HasArrived(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"query":        query,
		"tab":          tab,
		"orders":       rows,
		"total":        len(orders),
		"tab_counts":   classifier.CountByTab(orders),
		"batch_action": classifier.BatchActionAvailable(tab),
	})
}

// createSession starts a view session
func (h *Handler) createSession(c *gin.Context) {
	s := h.services.Sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": s.ID})
}

// session loads the session named in the path, or writes the error
func (h *Handler) session(c *gin.Context) (*service.Session, bool) {
	s, err := h.services.Sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) searchSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.Search(c.Request.Context(), req.Query, h.services.Lookup.Search); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) setTab(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tab, _, err := h.parseTab(req.Tab)
	if err != nil {
		h.respondError(c, err)
		return
	}

	s.SetTab(tab)
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) toggleCargoFilter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req cargoFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s.ToggleCargoFilter(req.Status)
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) toggleDeliveryFilter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req deliveryFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	f, err := models.ParseDeliveryFilter(req.Filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if f == nil {
		h.respondError(c, models.ErrUnknownDeliveryFilter)
		return
	}

	s.ToggleDeliveryFilter(*f)
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) toggleSelection(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.ToggleSelection(c.Param("orderId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) toggleSelectAll(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	s.ToggleSelectAll()
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) getOrderDetail(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	o, err := s.Order(c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":    o,
		"arrived":  o.HasArrived(),
		"text":     handoff.OrderDetailText(o),
		"chat_url": h.links.For(handoff.KindDeposit),
	})
}

func (h *Handler) checkout(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	result, err := h.services.Checkout.Checkout(c.Request.Context(), s)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
