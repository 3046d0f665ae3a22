package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool                     { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error   { return f.record("register") }
func (f *fakeExec) Login(ctx context.Context) error      { return f.record("login") }
func (f *fakeExec) Logout(ctx context.Context) error     { return f.record("logout") }
func (f *fakeExec) Products(ctx context.Context) error   { return f.record("products") }
func (f *fakeExec) Profile(ctx context.Context) error    { return f.record("profile") }
func (f *fakeExec) Password(ctx context.Context) error   { return f.record("password") }
func (f *fakeExec) Edit(ctx context.Context) error       { return f.record("edit") }
func (f *fakeExec) Save(ctx context.Context) error       { return f.record("save") }
func (f *fakeExec) Cancel(ctx context.Context) error     { return f.record("cancel") }
func (f *fakeExec) CropSave(ctx context.Context) error   { return f.record("crop-save") }
func (f *fakeExec) CropCancel(ctx context.Context) error { return f.record("crop-cancel") }
func (f *fakeExec) Users(ctx context.Context) error      { return f.record("users") }

func (f *fakeExec) Set(ctx context.Context, field, value string) error {
	return f.record("set " + field + "=" + value)
}
func (f *fakeExec) Photo(ctx context.Context, path string) error {
	return f.record("photo " + path)
}
func (f *fakeExec) Region(ctx context.Context, args []string) error {
	return f.record("region " + strings.Join(args, ","))
}
func (f *fakeExec) Zoom(ctx context.Context, arg string) error {
	return f.record("zoom " + arg)
}

func stubOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := stubOutput(t)
	_ = out

	exec := &fakeExec{loggedIn: true}
	input := strings.Join([]string{
		"products",
		"profile",
		"password",
		"edit",
		"set firstName Maria",
		"save",
		"photo avatar.png",
		"region 0 0 50 50",
		"zoom 1.5",
		"crop-save",
		"users",
		"logout",
		"exit",
	}, "\n")

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader(input)))

	assert.Equal(t, []string{
		"products",
		"profile",
		"password",
		"edit",
		"set firstName=Maria",
		"save",
		"photo avatar.png",
		"region 0,0,50,50",
		"zoom 1.5",
		"crop-save",
		"users",
		"logout",
	}, exec.calls)
}

func TestRunREPL_UnknownAndEmpty(t *testing.T) {
	out := stubOutput(t)

	exec := &fakeExec{}
	input := "\nbogus\nexit\n"

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader(input)))

	assert.Empty(t, exec.calls)
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Unknown command")
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	stubOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("")))

	assert.Empty(t, exec.calls)
}
