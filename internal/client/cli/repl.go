package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Products(ctx context.Context) error
	Profile(ctx context.Context) error
	Password(ctx context.Context) error
	Edit(ctx context.Context) error
	Set(ctx context.Context, field, value string) error
	Save(ctx context.Context) error
	Cancel(ctx context.Context) error
	Photo(ctx context.Context, path string) error
	Region(ctx context.Context, args []string) error
	Zoom(ctx context.Context, arg string) error
	CropSave(ctx context.Context) error
	CropCancel(ctx context.Context) error
	Users(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the marketplace CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                    — show available commands
//	  - register                — create an account
//	  - login                   — authenticate
//	  - exit | quit             — leave the program
//
//	Logged in:
//	  - help                    — show available commands
//	  - products                — show the catalog screen
//	  - profile                 — show the profile screen
//	  - password                — change the account password
//	  - edit                    — enter edit mode
//	  - set <field> <value>     — change a draft field
//	  - save | cancel           — submit or discard the draft
//	  - photo <path>            — load an image into the crop pipeline
//	  - region <x> <y> <w> <h>  — pick the crop rectangle
//	  - zoom <z>                — set the crop zoom
//	  - crop-save | crop-cancel — upload or abandon the crop
//	  - users                   — admin users list
//	  - logout                  — sign out
//	  - exit | quit             — leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("mkt> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: products, profile, edit, set, save, cancel, password, photo, region, zoom, crop-save, crop-cancel, users, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "products":
			_ = a.Products(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "password":
			_ = a.Password(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "set":
			if len(args) < 2 {
				printlnFn("Usage: set <field> <value>")
				continue
			}
			_ = a.Set(ctx, args[0], strings.Join(args[1:], " "))

		case "save":
			_ = a.Save(ctx)

		case "cancel":
			_ = a.Cancel(ctx)

		case "photo":
			if len(args) != 1 {
				printlnFn("Usage: photo <path>")
				continue
			}
			_ = a.Photo(ctx, args[0])

		case "region":
			_ = a.Region(ctx, args)

		case "zoom":
			if len(args) != 1 {
				printlnFn("Usage: zoom <z>")
				continue
			}
			_ = a.Zoom(ctx, args[0])

		case "crop-save":
			_ = a.CropSave(ctx)

		case "crop-cancel":
			_ = a.CropCancel(ctx)

		case "users":
			_ = a.Users(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
