package main

import (
	"context"
	"log"

	"github.com/tsiory-dev/garagesync/internal/server"
	"github.com/tsiory-dev/garagesync/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
