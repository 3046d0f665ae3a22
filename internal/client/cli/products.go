package cli

import (
	"context"
	"fmt"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/guard"
)

// Products navigates to the landing catalog screen and prints the first
// page of listings.
func (a *App) Products(ctx context.Context) error {
	if !a.navigate(guard.RouteProducts) {
		return nil
	}

	page, err := a.client.ListProducts(ctx, 1, 20)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	for _, p := range page.Items {
		printlnFn(fmt.Sprintf("%s  %-30s %10.2f", p.ID, p.Name, p.Price))
	}
	printlnFn(fmt.Sprintf("%d of %d product(s)", len(page.Items), page.Total))
	return nil
}
