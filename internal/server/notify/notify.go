// Package notify delivers the out-of-band confirmation message sent at
// registration. Delivery is pass/fail: an error aborts the registration.
package notify

import (
	"context"

	"github.com/wesley950/coisando-coisas/internal/logging"
)

// Notifier sends a confirmation link to a newly registered address.
type Notifier interface {
	SendConfirmation(ctx context.Context, to, nickname, link string) error
}

// LogNotifier writes the link to the log instead of mailing it. It is used
// when no SMTP host is configured.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendConfirmation(ctx context.Context, to, nickname, link string) error {
	n.log.Info(ctx, "confirmation link (smtp disabled)", "nickname", nickname, "link", link)
	return nil
}
