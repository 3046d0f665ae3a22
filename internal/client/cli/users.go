package cli

import (
	"context"
	"fmt"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/guard"
)

// Users navigates to the admin users screen. The role guard runs first, so a
// non-admin is redirected without the admin-only call ever leaving the
// process.
func (a *App) Users(ctx context.Context) error {
	if !a.navigate(guard.RouteUsers) {
		return nil
	}

	users, err := a.client.ListUsers(ctx)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	for _, u := range users {
		printlnFn(fmt.Sprintf("%s  %s %s  %s  (%s)",
			u.ID, u.Details.FirstName, u.Details.LastName, u.Email, u.Role))
	}
	printlnFn(fmt.Sprintf("%d user(s)", len(users)))
	return nil
}
