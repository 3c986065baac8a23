package services

import (
	"context"
	"log"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
)

// LogEmailSender records outgoing email in the server log. It stands in for
// a real mail transport, which lives outside this service.
type LogEmailSender struct{}

// Send logs msg and always succeeds.
func (LogEmailSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("📧 EMAIL ACTION TRIGGERED: To=%s Subject=%q Template=%q", msg.To, msg.Subject, msg.Template)
	return nil
}
