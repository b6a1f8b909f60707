package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"farmnex/internal/config"
	"farmnex/internal/database"
	"farmnex/internal/domain/material"
	"farmnex/internal/domain/progress"
	"farmnex/internal/ingest"
	"farmnex/internal/middleware"
	"farmnex/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	signer := storage.NewSigner(cfg.SignedSecret)
	store, err := storage.NewLocal(cfg.StorageDir, cfg.PublicBaseURL, signer)
	if err != nil {
		log.Fatal(err)
	}

	table := ingest.NewTypeConstraintTable()
	pipeline := ingest.NewPipeline(table, ingest.ReferenceScanner{}, ingest.NewVideoInspector(ingest.DefaultVideoPolicy()), nil)

	repo := material.NewRepository(db)
	index := material.NewGormDedupIndex(db)
	orchestrator := ingest.NewOrchestrator(pipeline, store, index, cfg.StorageFolder)
	service := material.NewService(repo, orchestrator, store, cfg.SignedTTL)

	hub := progress.NewHub()
	materialHandler := material.NewHandler(service, store, hub.Listener)
	progressHandler := progress.NewHandler(hub)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		material.RegisterRoutes(v1, materialHandler)
		progress.RegisterRoutes(v1, progressHandler)
	}
	material.RegisterFileRoutes(r, materialHandler)

	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
