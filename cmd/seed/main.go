package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"fitplan/internal/config"
	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/infra/api"
	pg "fitplan/internal/infra/db/postgres"
	"fitplan/internal/infra/logging"
	"fitplan/internal/usecase"
)

// seed prepares a demo account for manual end-to-end runs of the payment result flow:
// a profile, its body metrics, an access token and a sample provider redirect.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	userID := flag.String("user", "", "user id to seed (random when empty)")
	email := flag.String("email", "demo@fitplan.local", "profile email")
	baseURL := flag.String("base-url", "http://localhost:8080", "public base URL of the app")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if *userID == "" {
		*userID = uuid.NewString()
	}

	profiles := pg.NewProfileRepo(pool)
	if _, err := profiles.FindByID(ctx, repository.NoTX, *userID); errors.Is(err, domain.ErrNotFound) {
		p, err := model.NewProfile(*userID, *email)
		if err != nil {
			log.Fatalf("profile: %v", err)
		}
		if err := profiles.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("save profile: %v", err)
		}
		fmt.Printf("created profile %s\n", p.ID)
	} else if err != nil {
		log.Fatalf("find profile: %v", err)
	} else {
		fmt.Printf("profile %s already present\n", *userID)
	}

	nutritionUC := usecase.NewNutritionUseCase(pg.NewNutritionProfileRepo(pool), logger)
	n, err := nutritionUC.SaveTarget(ctx, *userID, model.BodyMetrics{
		WeightKg: 78,
		HeightCm: 176,
		Age:      32,
		Gender:   model.GenderMale,
		Activity: model.ActivityModeratelyActive,
		Goal:     model.GoalLoseWeight,
	}, model.TrainingGym)
	if err != nil {
		log.Fatalf("save caloric target: %v", err)
	}
	fmt.Printf("caloric target: %d kcal\n", n.CaloricTarget)

	auth := api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.CookieName, 24*time.Hour)
	tok, err := auth.Mint(*userID)
	if err != nil {
		log.Fatalf("mint token: %v", err)
	}

	ref := *userID
	if len(ref) > 8 {
		ref = ref[:8]
	}
	q := url.Values{}
	q.Set("collection_status", "approved")
	q.Set("collection_id", fmt.Sprint(time.Now().Unix()))
	q.Set("external_reference", "seed-"+ref)
	fmt.Printf("access token:\n  %s\n", tok)
	fmt.Printf("sample redirect:\n  %s/payment/status?%s\n", *baseURL, q.Encode())
}
