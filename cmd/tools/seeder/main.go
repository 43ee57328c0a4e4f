package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/tomatopickles404/shop-api/internal/catalog"
	"github.com/tomatopickles404/shop-api/internal/coupon"
	"github.com/tomatopickles404/shop-api/internal/store"
)

func main() {
	force := flag.Bool("force", false, "overwrite existing products and coupons")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Fatal("REDIS_URL is not set")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}

	kv := store.NewRedis(client, 0)

	catalogSvc := &catalog.Service{Store: kv}
	wrote, err := catalogSvc.Seed(ctx, *force)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}
	if wrote {
		log.Printf("Seeded %d products", len(catalog.DefaultProducts()))
	} else {
		log.Println("Products already present, skipping (use -force to overwrite)")
	}

	couponSvc := &coupon.Service{Store: kv}
	wrote, err = couponSvc.Seed(ctx, *force)
	if err != nil {
		log.Fatalf("Failed to seed coupons: %v", err)
	}
	if wrote {
		log.Printf("Seeded %d coupons", len(coupon.DefaultCoupons()))
	} else {
		log.Println("Coupons already present, skipping (use -force to overwrite)")
	}

	log.Println("Seeding completed successfully!")
}
