package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/ghanahealth/patient-portal/config"
	"github.com/ghanahealth/patient-portal/internal/directory"
	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/domain/repository"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/localstore"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	store, err := localstore.New(cfg.LocalStoreDir)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}

	demo := &entity.UserRecord{
		Email:          "demo.patient@ghanahealth.example",
		PasswordSecret: "demo-password-123",
		FullName:       "Demo Patient",
		Location:       "Accra",
		UserType:       entity.UserTypePatient,
		Active:         true,
	}
	switch err := store.Append(demo); {
	case err == nil:
		fmt.Printf("seeded user: id=%s email=%s\n", demo.ID, demo.Email)
	case errors.Is(err, repository.ErrDuplicateEmail):
		fmt.Printf("user already present: email=%s\n", demo.Email)
	default:
		log.Fatalf("failed to seed user: %v", err)
	}

	// Push the doctor directory into Elasticsearch when configured
	if cfg.ElasticsearchAddrs == "" {
		log.Println("elasticsearch not configured, skipping doctor index")
		return
	}
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Printf("elasticsearch unavailable, skipping doctor index: %v", err)
		return
	}
	docs := directory.NewService(es, cfg.ESDoctorsIndex, logger)
	if err := docs.IndexAll(context.Background()); err != nil {
		log.Fatalf("failed to index doctors: %v", err)
	}
	fmt.Printf("indexed %d doctors into %q\n", len(docs.All()), cfg.ESDoctorsIndex)
}
