package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// WebhookService routes verified webhook deliveries to the order and product
// services. It owns payload parsing; transport concerns (signature, body
// limits, status codes) stay in the HTTP layer.
type WebhookService struct {
	documents *DocumentService
	products  *ProductPushService
	logger    *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(documents *DocumentService, products *ProductPushService, logger *zap.Logger) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		documents: documents,
		products:  products,
		logger:    logger.Named("webhooks"),
	}
}

// Handle processes one verified webhook delivery. Unknown topics are
// acknowledged without action so the platform does not redeliver events the
// bridge deliberately ignores.
func (s *WebhookService) Handle(ctx context.Context, topic syncdomain.Topic, payload []byte) error {
	if !topic.IsValid() {
		s.logger.Info("ignoring unhandled webhook topic", zap.String("topic", topic.String()))
		return nil
	}

	switch {
	case topic.IsOrderTopic():
		return s.handleOrder(ctx, topic, payload)
	case topic.IsProductTopic():
		return s.handleProduct(ctx, topic, payload)
	default:
		s.logger.Info("ignoring unhandled webhook topic", zap.String("topic", topic.String()))
		return nil
	}
}

func (s *WebhookService) handleOrder(ctx context.Context, topic syncdomain.Topic, payload []byte) error {
	var order syncdomain.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrInvalidPayload, err)
	}
	if err := order.Validate(); err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrInvalidPayload, err)
	}

	switch topic {
	case syncdomain.TopicOrderCancelled:
		return s.documents.VoidDocument(ctx, &order)

	case syncdomain.TopicOrderPaid:
		_, err := s.documents.EnsureDocument(ctx, &order)
		return err

	case syncdomain.TopicOrderCreated, syncdomain.TopicOrderUpdated:
		// Create and update deliveries only matter once payment lands;
		// some platform configurations never send a dedicated paid event
		if !order.IsPaid() {
			s.logger.Debug("order not paid yet, nothing to do",
				zap.String("order_id", order.OrderID()),
				zap.String("financial_status", order.FinancialStatus))
			return nil
		}
		_, err := s.documents.EnsureDocument(ctx, &order)
		return err

	default:
		return nil
	}
}

func (s *WebhookService) handleProduct(ctx context.Context, topic syncdomain.Topic, payload []byte) error {
	var product syncdomain.Product
	if err := json.Unmarshal(payload, &product); err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrInvalidPayload, err)
	}

	switch topic {
	case syncdomain.TopicProductDeleted:
		_, err := s.products.DeactivateProduct(ctx, &product)
		return err
	default:
		_, err := s.products.PushProduct(ctx, &product)
		return err
	}
}
