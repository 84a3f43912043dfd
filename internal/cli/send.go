package cli

import (
	"context"
	"errors"

	"mailctl/internal/registry"
	"mailctl/internal/smtp"
)

// runSend collects credentials, resolves the provider's SMTP server and
// sends one message. Delivery failures are printed and do not fail the
// command.
func runSend(ctx context.Context, a *app) error {
	creds, err := a.prompt.Credentials(ctx)
	if err != nil {
		return err
	}

	host, err := a.lookup(creds.Email, registry.KindSMTP)
	if err != nil {
		if errors.Is(err, registry.ErrUnsupportedProvider) {
			a.println("Error: Email provider not supported.")
			return nil
		}
		return err
	}

	recipient, err := a.prompt.Email(ctx, "To: ")
	if err != nil {
		return err
	}
	subject, err := a.prompt.Line(ctx, "Subject: ")
	if err != nil {
		return err
	}
	body, err := a.prompt.Line(ctx, "Message: ")
	if err != nil {
		return err
	}

	msg := smtp.Message{To: recipient, Subject: subject, Body: body}
	if err := a.sender.Send(ctx, creds, host, msg); err != nil {
		a.logger.Debug("send failed", "host", host, "error", err)
		a.println(err)
		return nil
	}

	a.println("Sent.")
	return nil
}
