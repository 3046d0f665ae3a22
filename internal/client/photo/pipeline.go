// Package photo implements the avatar crop-and-upload pipeline as an explicit
// state machine: Idle -> Cropping -> Uploading -> Idle. Interactive events
// (select, region, zoom, save, cancel) drive the transitions.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/api"
	"github.com/ADRPUR/event-driven-marketplace/internal/imagex"
)

type State int

const (
	StateIdle State = iota
	StateCropping
	StateUploading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCropping:
		return "cropping"
	case StateUploading:
		return "uploading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNoRegion means save was requested before any crop region was
	// reported. Uploading an unset region is never allowed.
	ErrNoRegion = errors.New("no crop region selected")
	// ErrNotCropping means the event is only valid while a source image is
	// loaded.
	ErrNotCropping = errors.New("no image being cropped")
	// ErrUploadInFlight means a save is already running; at most one upload
	// may be in flight.
	ErrUploadInFlight = errors.New("upload already in progress")
)

// CropRegion is a rectangle in source-image pixel coordinates.
type CropRegion struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r CropRegion) rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Config bounds the interactive zoom range.
type Config struct {
	ZoomMin float64
	ZoomMax float64
}

func DefaultConfig() Config {
	return Config{ZoomMin: -1, ZoomMax: 3}
}

// Uploader is the slice of the API client the pipeline needs.
type Uploader interface {
	UploadPhoto(ctx context.Context, filename string, data []byte) (*api.PhotoResult, error)
	Me(ctx context.Context) (*api.User, error)
}

// SessionUpdater receives the refreshed user record after a successful
// upload. Satisfied by *session.Store.
type SessionUpdater interface {
	SetUser(ctx context.Context, user api.User) error
}

// Pipeline is the crop-upload state machine. Only the latest reported region
// is retained; save rasterizes exactly that rectangle and uploads it.
type Pipeline struct {
	cfg     Config
	client  Uploader
	session SessionUpdater

	mu     sync.Mutex
	state  State
	src    image.Image
	region *CropRegion
	zoom   float64
}

func NewPipeline(client Uploader, session SessionUpdater, cfg Config) *Pipeline {
	if cfg.ZoomMax <= cfg.ZoomMin {
		cfg = DefaultConfig()
	}
	return &Pipeline{
		cfg:     cfg,
		client:  client,
		session: session,
		zoom:    1,
	}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Region returns the latest reported crop region, or nil if none yet.
func (p *Pipeline) Region() *CropRegion {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.region == nil {
		return nil
	}
	r := *p.region
	return &r
}

func (p *Pipeline) Zoom() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.zoom
}

// Select loads a source image and enters Cropping. Selecting while already
// cropping replaces the source and drops the previous region.
func (p *Pipeline) Select(r io.Reader) error {
	p.mu.Lock()
	if p.state == StateUploading {
		p.mu.Unlock()
		return ErrUploadInFlight
	}
	p.mu.Unlock()

	img, err := imagex.Decode(r)
	if err != nil {
		return fmt.Errorf("select image: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateUploading {
		return ErrUploadInFlight
	}
	p.state = StateCropping
	p.src = img
	p.region = nil
	p.zoom = 1
	return nil
}

// SetRegion records the latest crop region. A region outside the source
// bounds or with non-positive dimensions is rejected and the previous region
// is kept.
func (p *Pipeline) SetRegion(r CropRegion) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateCropping {
		return ErrNotCropping
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("crop region %dx%d is empty", r.Width, r.Height)
	}
	if !r.rect().In(p.src.Bounds()) {
		return fmt.Errorf("crop region %v outside image bounds %v", r.rect(), p.src.Bounds())
	}
	p.region = &r
	return nil
}

// SetZoom stores the zoom level, clamped to the configured range.
func (p *Pipeline) SetZoom(z float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateCropping {
		return ErrNotCropping
	}
	if z < p.cfg.ZoomMin {
		z = p.cfg.ZoomMin
	}
	if z > p.cfg.ZoomMax {
		z = p.cfg.ZoomMax
	}
	p.zoom = z
	return nil
}

// Save rasterizes the selected region, uploads it, refreshes the session
// user from the server, and returns to Idle. On failure the pipeline also
// returns to Idle, dropping the source and region.
func (p *Pipeline) Save(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case StateUploading:
		p.mu.Unlock()
		return ErrUploadInFlight
	case StateIdle:
		p.mu.Unlock()
		return ErrNotCropping
	}
	if p.region == nil {
		p.mu.Unlock()
		return ErrNoRegion
	}
	src := p.src
	region := *p.region
	p.state = StateUploading
	p.mu.Unlock()

	err := p.upload(ctx, src, region)

	p.mu.Lock()
	p.state = StateIdle
	p.src = nil
	p.region = nil
	p.zoom = 1
	p.mu.Unlock()

	return err
}

func (p *Pipeline) upload(ctx context.Context, src image.Image, region CropRegion) error {
	cropped, err := imagex.Crop(src, region.rect())
	if err != nil {
		return fmt.Errorf("crop: %w", err)
	}

	var buf bytes.Buffer
	if err := imagex.EncodeJPEG(&buf, cropped); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if _, err := p.client.UploadPhoto(ctx, "avatar.jpg", buf.Bytes()); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	// Re-fetch the whole profile so the session reflects the server record,
	// not a locally guessed path.
	user, err := p.client.Me(ctx)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	if err := p.session.SetUser(ctx, *user); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	return nil
}

// Cancel discards the source and region and returns to Idle without any
// network call. Cancelling mid-upload is not supported.
func (p *Pipeline) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUploading {
		return ErrUploadInFlight
	}
	p.state = StateIdle
	p.src = nil
	p.region = nil
	p.zoom = 1
	return nil
}
