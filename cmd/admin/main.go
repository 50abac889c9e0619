package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/wesley950/coisando-coisas/internal/admin"
	"github.com/wesley950/coisando-coisas/internal/server/config"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/repomanager"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app := admin.NewApp(cfg, os.Stdout, repomanager.NewPostgresRepositoryManager())
	if err := app.Run(context.Background(), admin.CommandArgs(os.Args[1:])); err != nil {
		if errors.Is(err, admin.ErrUsage) {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
}
