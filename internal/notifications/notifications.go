package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/padimart/padimart-backend/pkg/logger"
)

// Kind tags a message with the event that produced it.
type Kind string

const (
	KindOrderSettled       Kind = "order_settled"
	KindDeliveryConfirmed  Kind = "delivery_confirmed"
	KindWithdrawalApproved Kind = "withdrawal_approved"
	KindWithdrawalRejected Kind = "withdrawal_rejected"
	KindRefundApproved     Kind = "refund_approved"
	KindRefundRejected     Kind = "refund_rejected"
	KindReferralPoints     Kind = "referral_points"
	KindLeaderboardReset   Kind = "leaderboard_reset"
	KindRewardExpired      Kind = "reward_expired"
)

// Message is a typed notification payload. Data carries the kind-specific
// fields; the set of keys is fixed by the constructor that built the message.
type Message struct {
	Kind        Kind
	RecipientID uuid.UUID
	Title       string
	Body        string
	Data        map[string]any
}

func OrderSettled(vendorID, orderID uuid.UUID, earnings float64) Message {
	return Message{
		Kind:        KindOrderSettled,
		RecipientID: vendorID,
		Title:       "New order",
		Body:        fmt.Sprintf("An order worth %.2f was placed with you.", earnings),
		Data:        map[string]any{"orderId": orderID.String(), "earnings": earnings},
	}
}

func DeliveryConfirmed(vendorID, orderID uuid.UUID, released float64) Message {
	return Message{
		Kind:        KindDeliveryConfirmed,
		RecipientID: vendorID,
		Title:       "Delivery confirmed",
		Body:        fmt.Sprintf("%.2f is now eligible for withdrawal.", released),
		Data:        map[string]any{"orderId": orderID.String(), "released": released},
	}
}

func WithdrawalApproved(vendorID uuid.UUID, amount float64, reference string) Message {
	return Message{
		Kind:        KindWithdrawalApproved,
		RecipientID: vendorID,
		Title:       "Withdrawal approved",
		Body:        fmt.Sprintf("Your withdrawal of %.2f has been paid out.", amount),
		Data:        map[string]any{"amount": amount, "reference": reference},
	}
}

func WithdrawalRejected(vendorID uuid.UUID, amount float64, reason string) Message {
	return Message{
		Kind:        KindWithdrawalRejected,
		RecipientID: vendorID,
		Title:       "Withdrawal rejected",
		Body:        fmt.Sprintf("Your withdrawal of %.2f was rejected: %s", amount, reason),
		Data:        map[string]any{"amount": amount, "reason": reason},
	}
}

func RefundApproved(customerID, orderID uuid.UUID, amount float64) Message {
	return Message{
		Kind:        KindRefundApproved,
		RecipientID: customerID,
		Title:       "Refund approved",
		Body:        fmt.Sprintf("Your refund of %.2f is on its way.", amount),
		Data:        map[string]any{"orderId": orderID.String(), "amount": amount},
	}
}

func RefundRejected(customerID, orderID uuid.UUID, reason string) Message {
	return Message{
		Kind:        KindRefundRejected,
		RecipientID: customerID,
		Title:       "Refund rejected",
		Body:        fmt.Sprintf("Your refund request was rejected: %s", reason),
		Data:        map[string]any{"orderId": orderID.String(), "reason": reason},
	}
}

func ReferralPoints(vendorID uuid.UUID, points int64, event string) Message {
	return Message{
		Kind:        KindReferralPoints,
		RecipientID: vendorID,
		Title:       "Referral points earned",
		Body:        fmt.Sprintf("You earned %d points for a referral %s.", points, event),
		Data:        map[string]any{"points": points, "event": event},
	}
}

func LeaderboardReset(vendorID uuid.UUID, finalWeekly int64) Message {
	return Message{
		Kind:        KindLeaderboardReset,
		RecipientID: vendorID,
		Title:       "Weekly leaderboard reset",
		Body:        fmt.Sprintf("The weekly leaderboard has been reset. You finished with %d points.", finalWeekly),
		Data:        map[string]any{"finalWeeklyPoints": finalWeekly},
	}
}

func RewardExpired(userID, rewardID uuid.UUID, discount float64) Message {
	return Message{
		Kind:        KindRewardExpired,
		RecipientID: userID,
		Title:       "Reward expired",
		Body:        fmt.Sprintf("Your reward worth %.2f has expired.", discount),
		Data:        map[string]any{"rewardId": rewardID.String(), "discount": discount},
	}
}

// Notifier delivers one message to one recipient.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes notifications to the structured log. It stands in for
// push/email channels in environments that have none configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) (*LogNotifier, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogNotifier{log: log}, nil
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	ctx = n.log.WithFields(ctx, map[string]any{
		"kind":      string(msg.Kind),
		"recipient": msg.RecipientID.String(),
		"title":     msg.Title,
	})
	n.log.Info(ctx, msg.Body)
	return nil
}

// Multi fans a message out to every configured channel and reports the
// combined failures. Delivery to later channels is attempted even when an
// earlier one fails.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs error
	for _, n := range m {
		errs = multierr.Append(errs, n.Notify(ctx, msg))
	}
	return errs
}

// Dispatch sends best-effort: a failed notification is logged and swallowed
// so ledger writes that already committed are never failed retroactively.
func Dispatch(ctx context.Context, log *logger.Logger, n Notifier, msg Message) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, msg); err != nil && log != nil {
		ctx = log.WithField(ctx, "kind", string(msg.Kind))
		log.Error(ctx, "notification delivery failed", err)
	}
}
