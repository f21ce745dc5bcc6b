package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/source"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	driveService, err := source.NewDriveService(cfg.Sources.DriveCredentialsJSON)
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	r := mux.NewRouter()

	sourceHandler := source.NewHandler(driveService, cfg.Sources.UploadDir)
	sourceHandler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Source admin service starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
