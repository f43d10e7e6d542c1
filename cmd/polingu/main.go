package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/polingu/polingu/internal/config"
	"github.com/polingu/polingu/internal/srs"
	"github.com/polingu/polingu/internal/storage"
	"github.com/polingu/polingu/internal/syncer"
	"github.com/polingu/polingu/internal/web"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	cfg := config.MustLoad(flags)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database at %s: %v", cfg.DBPath, err)
	}
	defer db.Close()

	for _, src := range cfg.Sources {
		sourceType := "local"
		if syncer.IsGitURL(src) {
			sourceType = "git"
		}
		if _, err := db.InsertSource(src, sourceType); err != nil {
			log.Fatalf("Failed to register source %s: %v", src, err)
		}
	}

	syncer.RunSync(db, cfg.ReposDir)

	if syncOnly, _ := flags.GetBool("sync"); syncOnly {
		return
	}

	engine := srs.NewEngineWith(srs.Options{
		DesiredRetention:    cfg.Scheduler.DesiredRetention,
		MaximumIntervalDays: cfg.Scheduler.MaximumIntervalDays,
	})

	server := web.NewServer(db, engine, cfg.ReposDir, cfg.Scheduler.NewCardsPerDay)
	slog.Info("starting server", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
