package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/api"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/guard"
)

// Profile navigates to the profile screen, fetching the current record.
func (a *App) Profile(ctx context.Context) error {
	if !a.navigate(guard.RouteProfile) {
		return nil
	}

	if err := a.editor.Load(ctx); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	a.printProfile(a.editor.Current())
	return nil
}

// Edit enters edit mode on the loaded profile.
func (a *App) Edit(ctx context.Context) error {
	if !a.navigate(guard.RouteProfile) {
		return nil
	}
	if a.editor.Current() == nil {
		if err := a.editor.Load(ctx); err != nil {
			printlnFn("Error:", err.Error())
			return err
		}
	}
	if err := a.editor.Begin(); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Editing profile. Use 'set <field> <value>', then 'save' or 'cancel'.")
	return nil
}

// Set updates one field of the draft. Supported fields: firstName, lastName,
// dateOfBirth, phone, address.line, address.city, address.postalCode,
// address.country.
func (a *App) Set(ctx context.Context, field, value string) error {
	form := a.editor.Form()

	switch strings.ToLower(field) {
	case "firstname":
		form.FirstName = value
	case "lastname":
		form.LastName = value
	case "dateofbirth", "dob":
		form.DateOfBirth = value
	case "phone":
		form.Phone = value
	case "address.line":
		form.Address.Line = value
	case "address.city":
		form.Address.City = value
	case "address.postalcode":
		form.Address.PostalCode = value
	case "address.country":
		form.Address.Country = value
	default:
		printlnFn("Unknown field:", field)
		return fmt.Errorf("unknown field %q", field)
	}

	if err := a.editor.SetForm(form); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	return nil
}

// Save submits the draft.
func (a *App) Save(ctx context.Context) error {
	if err := a.editor.Save(ctx); err != nil {
		printlnFn("Save failed:", err.Error())
		return err
	}
	printlnFn("Profile saved")
	a.printProfile(a.editor.Current())
	return nil
}

// Cancel leaves edit mode, dropping the draft.
func (a *App) Cancel(ctx context.Context) error {
	if err := a.editor.Discard(); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Edit cancelled")
	return nil
}

func (a *App) printProfile(user *api.User) {
	if user == nil {
		return
	}
	printlnFn(fmt.Sprintf("%s (%s)", user.Email, user.Role))
	d := user.Details
	printlnFn(fmt.Sprintf("  Name:  %s %s", d.FirstName, d.LastName))
	if d.DateOfBirth != "" {
		printlnFn("  Born:  " + d.DateOfBirth)
	}
	if d.Phone != "" {
		printlnFn("  Phone: " + d.Phone)
	}
	if d.Address != nil {
		printlnFn(fmt.Sprintf("  Addr:  %s, %s %s, %s",
			d.Address.Line, d.Address.City, d.Address.PostalCode, d.Address.Country))
	}
	if d.PhotoPath != "" {
		printlnFn("  Photo: " + d.PhotoPath)
	}
}
