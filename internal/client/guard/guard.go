// Package guard decides whether the session may enter a route and where to
// send it otherwise. Guards are pure functions over a session snapshot, so
// navigation decisions are testable without any network traffic.
package guard

import "github.com/ADRPUR/event-driven-marketplace/internal/client/session"

// Well-known routes. RouteProducts is the default landing page.
const (
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteProducts = "/products"
	RouteProfile  = "/profile"
	RouteUsers    = "/users"
)

// Decision is the outcome of a guard check. When Allow is false, Redirect
// names the route to send the user to instead.
type Decision struct {
	Redirect string
	Allow    bool
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(route string) Decision {
	return Decision{Redirect: route}
}

// Guard inspects a session snapshot and produces a Decision.
type Guard func(session.Snapshot) Decision

// Authenticated admits any signed-in session and sends anonymous visitors to
// the login page. Presence of the token alone decides; a missing user record
// does not block entry.
func Authenticated(snap session.Snapshot) Decision {
	if !snap.Authenticated() {
		return redirect(RouteLogin)
	}
	return allow()
}

// Role returns a guard admitting only signed-in sessions whose user holds the
// required role. Anonymous visitors go to login; signed-in users with the
// wrong role (or no user record yet) go to the default landing page.
func Role(required string) Guard {
	return func(snap session.Snapshot) Decision {
		if !snap.Authenticated() {
			return redirect(RouteLogin)
		}
		if snap.User == nil || snap.User.Role != required {
			return redirect(RouteProducts)
		}
		return allow()
	}
}

// Guest admits only anonymous sessions. Signed-in users are sent to the
// default landing page so they cannot revisit login or registration.
func Guest(snap session.Snapshot) Decision {
	if snap.Authenticated() {
		return redirect(RouteProducts)
	}
	return allow()
}

// Chain combines guards left to right; the first refusal wins.
func Chain(guards ...Guard) Guard {
	return func(snap session.Snapshot) Decision {
		for _, g := range guards {
			if d := g(snap); !d.Allow {
				return d
			}
		}
		return allow()
	}
}
