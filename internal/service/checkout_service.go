package service

import (
	"context"
	"errors"

	"order-lookup/internal/classifier"
	"order-lookup/internal/handoff"
	"order-lookup/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrNothingSelected is returned when checking out an empty selection
	ErrNothingSelected = errors.New("no orders selected")
	// ErrNoBatchAction is returned when the active tab offers no batch payment
	ErrNoBatchAction = errors.New("this tab has no batch payment")
)

// Handoff is what the visitor takes to the chat app or the marketplace
type Handoff struct {
	Kind     handoff.Kind    `json:"kind"`
	URL      string          `json:"url"`
	Message  string          `json:"message"`
	Total    decimal.Decimal `json:"total"`
	OrderIDs []string        `json:"order_ids"`
}

// CheckoutService turns a session's selection into a payment hand-off
type CheckoutService struct {
	links  handoff.Links
	logger *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(links handoff.Links) *CheckoutService {
	return &CheckoutService{
		links:  links,
		logger: util.GetLogger(),
	}
}

// Checkout builds the hand-off for the selected visible orders of a session
func (s *CheckoutService) Checkout(ctx context.Context, session *Session) (*Handoff, error) {
	_, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	tab, selected := session.Checkout()

	kind, ok := handoff.KindForTab(tab)
	if !ok {
		return nil, ErrNoBatchAction
	}
	if len(selected) == 0 {
		return nil, ErrNothingSelected
	}

	total := decimal.Zero
	ids := make([]string, 0, len(selected))
	for i := range selected {
		total = total.Add(classifier.DisplayAmount(&selected[i], tab))
		ids = append(ids, selected[i].ID)
	}

	util.CheckoutsTotal.WithLabelValues(string(kind)).Inc()
	s.logger.Info("Checkout prepared",
		zap.String("session_id", session.ID),
		zap.String("kind", string(kind)),
		zap.Int("orders", len(ids)),
		zap.String("total", total.String()),
	)

	return &Handoff{
		Kind:     kind,
		URL:      s.links.For(kind),
		Message:  handoff.PaymentMessage(kind, selected),
		Total:    total,
		OrderIDs: ids,
	}, nil
}
