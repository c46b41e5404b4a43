package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"offerapp-backend/internal/admins"
	"offerapp-backend/internal/auth"
	"offerapp-backend/internal/config"
	"offerapp-backend/internal/db"
	"offerapp-backend/internal/wire"
)

type seedCategory struct {
	Name   string
	NameAr string
	Order  int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	categories := []seedCategory{
		{Name: "Hotels", NameAr: "فنادق", Order: 1},
		{Name: "Dining", NameAr: "مطاعم", Order: 2},
		{Name: "Spa & Wellness", NameAr: "سبا وعافية", Order: 3},
		{Name: "Shopping", NameAr: "تسوق", Order: 4},
		{Name: "Entertainment", NameAr: "ترفيه", Order: 5},
		{Name: "Travel", NameAr: "سفر", Order: 6},
	}

	seeder := wire.NewActor("seed", "seed")
	for _, c := range categories {
		now := wire.Now()
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":       wire.NewID(),
				"name":      c.Name,
				"name_ar":   c.NameAr,
				"icon":      "",
				"image":     "",
				"order":     c.Order,
				"isActive":  true,
				"createdBy": seeder,
				"updatedBy": seeder,
				"createdAt": now,
				"updatedAt": now,
				"__v":       0,
			},
		}
		_, err := cols.Categories.UpdateOne(ctx, bson.M{"name": c.Name}, update, options.Update().SetUpsert(true))
		if err != nil {
			log.Fatalf("seed error for %s: %v", c.Name, err)
		}
	}

	networkID := os.Getenv("SEED_ADMIN_NETWORK_ID")
	if networkID == "" {
		log.Println("seed admin: SEED_ADMIN_NETWORK_ID missing, skipping")
	} else {
		name := envOrDefault("SEED_ADMIN_NAME", networkID)
		admin, err := admins.NewRepository(cols.Admins).Upsert(ctx, networkID, name, auth.RoleAdmin)
		if err != nil {
			log.Fatalf("seed admin error for %s: %v", networkID, err)
		}
		log.Printf("seed admin: %s (%s)", admin.NetworkID, admin.ID)
	}

	log.Println("seed completed")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
