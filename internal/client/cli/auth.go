package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/guard"
	"github.com/ADRPUR/event-driven-marketplace/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, password, and name and creates an account.
// The session is not changed; the user logs in afterwards.
func (a *App) Register(ctx context.Context) error {
	if !a.navigate(guard.RouteRegister) {
		return nil
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	firstName, err := getSimpleText(a.reader, "Enter first name", os.Stdout)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Enter last name", os.Stdout)
	if err != nil {
		return err
	}

	id, err := a.client.Register(ctx, email, string(password), firstName, lastName)
	if err != nil {
		printlnFn("Registration failed:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Account %s created, you can log in now", id))
	return nil
}

// Login prompts for credentials, authenticates, and installs the session.
// On success navigation lands on the default products screen.
func (a *App) Login(ctx context.Context) error {
	if !a.navigate(guard.RouteLogin) {
		return nil
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}

	if err := a.session.Login(ctx, res.User, res.AccessToken); err != nil {
		return err
	}

	printlnFn("Logged in as", res.User.Email)
	a.route = guard.RouteProducts
	return nil
}

// Password changes the account password after re-prompting the current one.
// The session and tokens stay as they are.
func (a *App) Password(ctx context.Context) error {
	if !a.navigate(guard.RouteProfile) {
		return nil
	}

	printlnFn("Current password")
	oldPassword, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	printlnFn("New password")
	newPassword, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	if err := a.client.ChangePassword(ctx, string(oldPassword), string(newPassword)); err != nil {
		printlnFn("Password change failed:", err.Error())
		return err
	}

	printlnFn("Password changed")
	return nil
}

// Logout revokes the refresh token, clears the session, and returns to the
// login screen. The session is cleared even when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		printlnFn("Logout warning:", err.Error())
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.route = guard.RouteLogin
	printlnFn("Logged out")
	return nil
}
