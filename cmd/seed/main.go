// Command seed fills the database with a demo customer, a few repair and
// towing requests with bids, and prints a bearer token for that customer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"roadside/internal/config"
	"roadside/internal/middleware"
	"roadside/internal/models"
	"roadside/internal/repository"

	gofakeit "github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
)

var statuses = []string{"ACTIVE", "OPEN", "ASSIGNED", "EN_ROUTE", "COMPLETED", "CANCELLED"}

func main() {
	requests := flag.Int("requests", 4, "number of requests per source")
	bids := flag.Int("bids", 3, "max number of bids per request")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not loaded:", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	repo, err := repository.NewRepository(nil, &cfg.PostgresConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()
	customer, err := repo.AddCustomer(ctx, models.Customer{Email: gofakeit.Email(), FullName: gofakeit.Name()})
	if err != nil {
		log.Fatal(err)
	}

	for i := 0; i < *requests; i++ {
		budget := float64(gofakeit.Number(40, 600))
		r, err := repo.AddRepairRequest(ctx, models.RepairRequest{
			CustomerId:   customer.Id,
			Status:       statuses[gofakeit.Number(0, len(statuses)-1)],
			Budget:       &budget,
			PricingType:  ptr(gofakeit.RandomString([]string{"fixed", "bid"})),
			ServiceType:  ptr(gofakeit.RandomString([]string{"brakes", "battery", "diagnostics", "tires"})),
			VehicleMake:  ptr(gofakeit.CarMaker()),
			VehicleModel: ptr(gofakeit.CarModel()),
			VehicleYear:  ptr(gofakeit.Number(2000, 2024)),
			City:         ptr(gofakeit.City()),
			Address:      ptr(gofakeit.Street()),
			Description:  ptr(gofakeit.Blurb()),
			CreatedAt:    gofakeit.PastDate(),
		})
		if err != nil {
			log.Fatal(err)
		}
		addBids(ctx, repo, models.SourceRepair, r.Id, *bids)

		cost := float64(gofakeit.Number(60, 400))
		tw, err := repo.AddTowingRequest(ctx, models.TowingRequest{
			CustomerId:     customer.Id,
			Status:         statuses[gofakeit.Number(0, len(statuses)-1)],
			TotalCost:      &cost,
			VehicleInfo:    ptr(gofakeit.CarMaker() + " " + gofakeit.CarModel()),
			PickupCity:     ptr(gofakeit.City()),
			PickupAddress:  ptr(gofakeit.Street()),
			DropoffAddress: ptr(gofakeit.Street()),
			CreatedAt:      gofakeit.PastDate(),
		})
		if err != nil {
			log.Fatal(err)
		}
		addBids(ctx, repo, models.SourceTowing, tw.Id, *bids)
	}

	token, err := middleware.NewToken(cfg.JWTSecret, customer.Id, *ttl)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("customer: %s (%s)\n", customer.Id, customer.Email)
	fmt.Printf("token: %s\n", token)
}

func addBids(ctx context.Context, repo *repository.Repository, source models.Source, postId string, maxBids int) {
	n := gofakeit.Number(0, maxBids)
	for i := 0; i < n; i++ {
		status := models.BidPending
		if i == n-1 && gofakeit.Bool() {
			status = models.BidAccepted
		}
		_, err := repo.AddBid(ctx, models.Bid{
			PostId:         postId,
			Source:         source,
			TechnicianName: gofakeit.Name(),
			BidAmount:      float64(gofakeit.Number(30, 500)),
			Status:         status,
		})
		if err != nil {
			log.Fatal(err)
		}
	}
}

func ptr[T any](v T) *T { return &v }
