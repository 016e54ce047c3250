package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"airport_manager/internal/models"
)

// NotificationService tells customers about order progress over WhatsApp.
type NotificationService interface {
	// OrderStatusChanged sends the message for the new status when there is
	// one. Delivery failures are logged, never returned.
	OrderStatusChanged(ctx context.Context, order *models.Order, phone string)
}

type whatsappService struct {
	sender MessageSender
}

// NewWhatsAppService returns a no-op notifier when sender is nil.
func NewWhatsAppService(sender MessageSender) NotificationService {
	return &whatsappService{sender: sender}
}

func (s *whatsappService) OrderStatusChanged(ctx context.Context, order *models.Order, phone string) {
	if s.sender == nil || order == nil {
		return
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return
	}
	msg, ok := statusMessage(order)
	if !ok {
		return
	}
	if err := s.sender.SendTextMessage(ctx, phone, msg); err != nil {
		slog.WarnContext(ctx, "order notification failed",
			"order_id", order.ID, "status", order.Status, "err", err)
	}
}

func statusMessage(order *models.Order) (string, bool) {
	switch order.Status {
	case models.StatusReady:
		name := strings.TrimSpace(order.CustomerName)
		if name == "" {
			name = "cliente"
		}
		return fmt.Sprintf("Hola %s, tu pedido %s está listo para entregar. Total: %s €.",
			name, order.OrderNumber, order.Total.StringFixed(2)), true
	}
	return "", false
}
