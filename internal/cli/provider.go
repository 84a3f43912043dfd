package cli

import (
	"context"

	"mailctl/internal/registry"
)

func askProvider(ctx context.Context, a *app) (string, error) {
	return a.prompt.NonEmpty(ctx, "Email provider: ", "Error: Email provider can't be empty.")
}

func runAdd(ctx context.Context, a *app) error {
	kind, err := a.prompt.Kind(ctx)
	if err != nil {
		return err
	}
	name, err := askProvider(ctx, a)
	if err != nil {
		return err
	}

	return a.withRegistry(func(reg *registry.Registry) error {
		if reg.Has(name, kind) {
			a.println("Error: This provider already exists. You can try editing it.")
			return nil
		}
		host, err := a.prompt.NonEmpty(ctx, "Email server: ", "Error: Email server can't be empty.")
		if err != nil {
			return err
		}
		if err := reg.Add(name, kind, host); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		a.println("Added.")
		return nil
	})
}

func runEdit(ctx context.Context, a *app) error {
	kind, err := a.prompt.Kind(ctx)
	if err != nil {
		return err
	}
	name, err := askProvider(ctx, a)
	if err != nil {
		return err
	}

	return a.withRegistry(func(reg *registry.Registry) error {
		if !reg.Has(name, kind) {
			a.println("Error: This provider doesn't exist. You can try adding it.")
			return nil
		}
		host, err := a.prompt.NonEmpty(ctx, "Email server: ", "Error: Email server can't be empty. You can try removing it.")
		if err != nil {
			return err
		}
		if err := reg.Edit(name, kind, host); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		a.println("Updated.")
		return nil
	})
}

// runRemove asks until an existing provider is named, then deletes it after
// confirmation.
func runRemove(ctx context.Context, a *app) error {
	return a.withRegistry(func(reg *registry.Registry) error {
		var name string
		err := a.prompt.Policy().Do(ctx, func(int) (bool, error) {
			var err error
			name, err = askProvider(ctx, a)
			if err != nil {
				return false, err
			}
			if _, ok := reg.Entry(name); !ok {
				a.println("Error: This provider doesn't exist.")
				return false, nil
			}
			return true, nil
		})
		if err != nil {
			return err
		}

		ok, err := a.prompt.Confirm(ctx, "Are you sure (y/n)?: ")
		if err != nil || !ok {
			return err
		}
		if err := reg.Remove(name); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		a.println("Removed.")
		return nil
	})
}
