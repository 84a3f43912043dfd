package cli

import (
	"context"
	"fmt"
)

// Action is one of the five things mailctl can do.
type Action int

const (
	ActionView Action = iota + 1
	ActionSend
	ActionAdd
	ActionEdit
	ActionRemove
)

var Actions = []Action{ActionView, ActionSend, ActionAdd, ActionEdit, ActionRemove}

func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionSend:
		return "send"
	case ActionAdd:
		return "add"
	case ActionEdit:
		return "edit"
	case ActionRemove:
		return "remove"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

func (a Action) Short() string {
	switch a {
	case ActionView:
		return "Log in over IMAP and show the most recent messages"
	case ActionSend:
		return "Send a plain-text message over SMTP"
	case ActionAdd:
		return "Add an SMTP or IMAP server for a provider"
	case ActionEdit:
		return "Change an existing SMTP or IMAP server"
	case ActionRemove:
		return "Remove a provider and both of its servers"
	default:
		return ""
	}
}

// Run dispatches to the handler bound to a.
func (a Action) Run(ctx context.Context, app *app) error {
	var err error
	switch a {
	case ActionView:
		err = runView(ctx, app)
	case ActionSend:
		err = runSend(ctx, app)
	case ActionAdd:
		err = runAdd(ctx, app)
	case ActionEdit:
		err = runEdit(ctx, app)
	case ActionRemove:
		err = runRemove(ctx, app)
	default:
		return fmt.Errorf("unknown action %s", a)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a, err)
	}
	return nil
}
