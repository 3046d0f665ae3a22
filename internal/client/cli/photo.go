package cli

import (
	"context"
	"os"
	"strconv"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/guard"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/photo"
)

// Photo loads a local image file into the crop pipeline.
func (a *App) Photo(ctx context.Context, path string) error {
	if !a.navigate(guard.RouteProfile) {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	defer f.Close()

	if err := a.pipeline.Select(f); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Image loaded. Use 'region <x> <y> <w> <h>' to pick the crop, then 'crop-save'.")
	return nil
}

// Region reports the crop rectangle in source-image pixels.
func (a *App) Region(ctx context.Context, args []string) error {
	if len(args) != 4 {
		printlnFn("Usage: region <x> <y> <w> <h>")
		return nil
	}

	vals := make([]int, 4)
	for i, s := range args {
		v, err := strconv.Atoi(s)
		if err != nil {
			printlnFn("Error: not a number:", s)
			return err
		}
		vals[i] = v
	}

	region := photo.CropRegion{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if err := a.pipeline.SetRegion(region); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	return nil
}

// Zoom sets the crop zoom level.
func (a *App) Zoom(ctx context.Context, arg string) error {
	z, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		printlnFn("Error: not a number:", arg)
		return err
	}
	if err := a.pipeline.SetZoom(z); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	return nil
}

// CropSave rasterizes the selected region, uploads it, and refreshes the
// session user with the server record.
func (a *App) CropSave(ctx context.Context) error {
	if err := a.pipeline.Save(ctx); err != nil {
		printlnFn("Upload failed:", err.Error())
		return err
	}
	snap := a.session.Snapshot()
	if snap.User != nil {
		printlnFn("Photo updated:", snap.User.Details.PhotoPath)
	}
	return nil
}

// CropCancel abandons the crop without uploading.
func (a *App) CropCancel(ctx context.Context) error {
	if err := a.pipeline.Cancel(); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Crop cancelled")
	return nil
}
