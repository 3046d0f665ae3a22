package main

import (
	"context"
	"log"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/cli"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
