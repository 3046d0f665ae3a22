// Package cli is the interactive terminal client for the marketplace. It
// wires the REST client, the session store, the crop-upload pipeline, and
// the profile editor into a small screen-oriented REPL whose navigation is
// checked by the route guards.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/api"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/config"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/guard"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/photo"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/profile"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/session"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/storage"
)

// apiClient is the surface of api.Client the app uses, extracted so command
// tests can substitute a fake.
type apiClient interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (string, error)
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.User, error)
	UpdateMe(ctx context.Context, upd api.DetailsUpdate) (*api.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	UploadPhoto(ctx context.Context, filename string, data []byte) (*api.PhotoResult, error)
	ListProducts(ctx context.Context, page, pageSize int) (*api.ProductPage, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	SetTokens(accessToken, refreshToken string)
}

type App struct {
	config   *config.Config
	client   apiClient
	session  *session.Store
	pipeline *photo.Pipeline
	editor   *profile.Editor
	guards   map[string]guard.Guard
	route    string
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	repo, err := storage.InitDatabase(ctx, c.StateDBPath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	restClient := api.NewClient(c.ServerBaseURL, c.RequestTimeout)

	sess := session.NewStore(repo)
	if err := sess.Init(ctx); err != nil {
		return nil, err
	}

	// A restored session carries only the bearer token; requests needing a
	// refresh after restart fall back to a fresh login.
	if snap := sess.Snapshot(); snap.Authenticated() {
		restClient.SetTokens(snap.Token, "")
	}

	app := &App{
		config:   c,
		client:   restClient,
		session:  sess,
		pipeline: photo.NewPipeline(restClient, sess, photo.DefaultConfig()),
		editor:   profile.NewEditor(restClient, sess),
		route:    guard.RouteLogin,
		reader:   bufio.NewReader(os.Stdin),
	}
	app.guards = map[string]guard.Guard{
		guard.RouteLogin:    guard.Guest,
		guard.RouteRegister: guard.Guest,
		guard.RouteProducts: guard.Authenticated,
		guard.RouteProfile:  guard.Authenticated,
		guard.RouteUsers:    guard.Chain(guard.Authenticated, guard.Role("admin")),
	}
	if app.isLoggedIn() {
		app.route = guard.RouteProducts
	}
	return app, nil
}

func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to the marketplace CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Authenticated()
}

func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	if snap.User != nil {
		return snap.User.Email + " " + a.route
	}
	return a.route
}

// navigate runs the guard registered for target and moves there when
// allowed. A refusal moves to the guard's redirect route instead and
// reports false; callers must not touch the network in that case.
func (a *App) navigate(target string) bool {
	g, ok := a.guards[target]
	if !ok {
		g = guard.Authenticated
	}
	d := g(a.session.Snapshot())
	if !d.Allow {
		a.route = d.Redirect
		printlnFn("Redirected to", d.Redirect)
		return false
	}
	a.route = target
	return true
}
