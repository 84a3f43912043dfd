package cli

import (
	"context"
	"errors"

	"mailctl/internal/email"
	"mailctl/internal/imap"
	"mailctl/internal/registry"
)

// runView logs in (re-prompting until it succeeds), asks how many messages
// to load and renders them newest first.
func runView(ctx context.Context, a *app) error {
	box := a.newMailbox()

	err := a.prompt.Policy().Do(ctx, func(int) (bool, error) {
		creds, err := a.prompt.Credentials(ctx)
		if err != nil {
			return false, err
		}
		host, err := a.lookup(creds.Email, registry.KindIMAP)
		if err != nil {
			if errors.Is(err, registry.ErrUnsupportedProvider) {
				a.println("Error: Email provider not supported.")
				return false, nil
			}
			return false, err
		}
		if err := box.Login(creds, host); err != nil {
			if errors.Is(err, imap.ErrAuthentication) {
				a.println("Error: Incorrect credentials.")
			} else {
				a.println("Error:", err)
			}
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := box.Close(); err != nil {
			a.logger.Warn("close imap session", "error", err)
		}
	}()

	total, err := box.SelectInbox()
	if err != nil {
		return err
	}
	a.logger.Info("inbox selected", "messages", total)

	count, err := a.prompt.PositiveInt(ctx, "Select a number of emails to load: ")
	if err != nil {
		return err
	}

	return box.FetchRecent(ctx, count, func(seq uint32, raw []byte) error {
		return renderMessage(ctx, a, seq, raw)
	})
}

func renderMessage(ctx context.Context, a *app, seq uint32, raw []byte) error {
	defer a.println(email.Separator)

	view, err := email.Parse(raw)
	if err != nil {
		a.logger.Warn("skipping unreadable message", "seq", seq, "error", err)
		a.println("Error:", err)
		return nil
	}
	for _, decodeErr := range view.DecodeErrors {
		a.logger.Debug("body omitted", "seq", seq, "subject", view.Subject, "error", decodeErr)
	}

	email.WriteHeaders(a.out, view)
	email.WriteBody(a.out, view)

	saved, err := view.SaveAttachments(a.cfg.OutputDir)
	for _, path := range saved {
		a.logger.Info("attachment saved", "seq", seq, "path", path)
	}
	if err != nil {
		a.println("Error:", err)
	}

	if !view.HasHTML {
		return nil
	}
	if !view.HasText {
		if text, err := email.HTMLText(view.HTML); err == nil && text != "" {
			a.println(text)
		}
	}

	open, err := a.prompt.Confirm(ctx, "The following email contains HTML. Would you like to open it (y/n)?: ")
	if err != nil {
		return err
	}
	if !open {
		return nil
	}
	path, err := view.WriteHTML(a.cfg.OutputDir)
	if err != nil {
		a.println("Error:", err)
		return nil
	}
	if err := a.openBrowser(path); err != nil {
		a.println("Error:", err)
	}
	return nil
}
