package notify

import (
	"context"
	"fmt"

	"github.com/promptguard/promptguard/pkg/helpers"
	"github.com/promptguard/promptguard/pkg/mailer"
)

// QueueNotifier publishes reset mail jobs onto the email queue; the worker
// binary picks them up and sends through Mailgun. Publishing is best-effort
// from the caller's point of view.
type QueueNotifier struct {
	Pub *helpers.RabbitPublisher
}

func NewQueueNotifier(pub *helpers.RabbitPublisher) *QueueNotifier {
	return &QueueNotifier{Pub: pub}
}

func (n *QueueNotifier) SendPasswordReset(ctx context.Context, email, name, link string) error {
	if n.Pub == nil {
		return fmt.Errorf("email queue not configured")
	}
	job := mailer.EmailJob{
		To:      email,
		Subject: "Reset your password",
		Text: fmt.Sprintf(
			"Hi %s,\n\nWe received a request to reset your password. Open the link below to choose a new one:\n\n%s\n\nThe link expires in one hour and can be used once. If you didn't ask for this, you can ignore this email.\n",
			name, link),
	}
	return n.Pub.PublishJSON(ctx, job)
}
