package notify

import (
	"context"
	"fmt"
	"time"

	"peelojuice/internal/logger"
	"peelojuice/internal/models"
)

type UserLayer interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	ListBranchStaffWithTokens(ctx context.Context, branchID string) ([]models.User, error)
}

type EmailLayer interface {
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order, qrBase64 string) error
}

type PushLayer interface {
	SendPush(ctx context.Context, token, title, body string) error
}

// Notifier fans out the side effects a placed (or freshly paid) order
// triggers. The buyer email goes out when the order is placed regardless of
// payment method; the staff push is held back for gateway orders until the
// payment settles. All of it is fire and forget; the order is already
// committed.
type Notifier struct {
	Users  UserLayer
	Email  EmailLayer
	Push   PushLayer
	Logger *logger.Logger
}

func NewNotifier(users UserLayer, email EmailLayer, push PushLayer, log *logger.Logger) *Notifier {
	return &Notifier{Users: users, Email: email, Push: push, Logger: log}
}

// background runs fn against a snapshot of the order with its own deadline
// so a slow SMTP server or FCM endpoint cannot hold up the request that
// triggered it.
func (n *Notifier) background(order *models.Order, fn func(ctx context.Context, order *models.Order)) {
	snapshot := *order
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fn(bg, &snapshot)
	}()
}

// OrderPlaced emails the buyer an order confirmation with the pickup QR.
func (n *Notifier) OrderPlaced(ctx context.Context, order *models.Order) {
	n.background(order, n.emailBuyer)
}

// AlertBranchStaff pushes a new-order alert to every staff member of the
// order's branch that has a registered device token.
func (n *Notifier) AlertBranchStaff(ctx context.Context, order *models.Order) {
	n.background(order, n.pushStaff)
}

func (n *Notifier) emailBuyer(ctx context.Context, order *models.Order) {
	user, err := n.Users.GetUserByID(ctx, order.UserID)
	if err != nil || user == nil {
		n.Logger.Warn("NOTIFY", fmt.Sprintf("buyer lookup failed for order %s: %v", order.ID, err))
		return
	}
	if n.Email == nil {
		return
	}
	qr, err := PickupQR(order.OrderNumber)
	if err != nil {
		n.Logger.Warn("NOTIFY", fmt.Sprintf("qr generation failed for order %s: %v", order.ID, err))
	}
	if err := n.Email.SendOrderConfirmation(ctx, user.Email, order, qr); err != nil {
		n.Logger.Warn("NOTIFY", fmt.Sprintf("confirmation email failed for order %s: %v", order.ID, err))
		return
	}
	n.Logger.Info("NOTIFY", fmt.Sprintf("confirmation email sent for order %s", order.ID))
}

func (n *Notifier) pushStaff(ctx context.Context, order *models.Order) {
	if n.Push == nil {
		return
	}
	staff, err := n.Users.ListBranchStaffWithTokens(ctx, order.BranchID)
	if err != nil {
		n.Logger.Warn("NOTIFY", fmt.Sprintf("staff lookup failed for branch %s: %v", order.BranchID, err))
		return
	}

	title := "New order received"
	body := fmt.Sprintf("Order #%d, total ₹%s", order.OrderNumber, order.TotalAmount.StringFixed(2))
	for _, member := range staff {
		if err := n.Push.SendPush(ctx, member.FCMToken, title, body); err != nil {
			n.Logger.Warn("NOTIFY", fmt.Sprintf("push to staff %s failed: %v", member.ID, err))
		}
	}
}
