package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	"github.com/lumenacademy/lumenpay-backend/pkg/config"
	"github.com/lumenacademy/lumenpay-backend/pkg/db"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
)

// Seeds a handful of pending orders for local development so the webhook and
// checkout-return flows have something to reconcile against.
func main() {
	_ = godotenv.Load()

	count := flag.Int("count", 3, "number of pending orders to create")
	amount := flag.Int("amount", 49900, "amount due in cents for each order")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if !cfg.App.IsDev() {
		os.Stderr.WriteString("seeder only runs in dev\n")
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "lumenpay-seeder",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "connecting to database", err)
		os.Exit(1)
	}
	defer client.Close()

	repo := orders.NewRepository(client.DB())
	for i := 0; i < *count; i++ {
		order := &models.Order{
			ID:             uuid.New(),
			CourseID:       uuid.New(),
			BuyerEmail:     "learner+" + uuid.NewString()[:8] + "@example.com",
			Currency:       enums.CurrencyUSD,
			AmountDueCents: *amount,
			Status:         enums.OrderStatusPending,
		}
		if err := repo.Create(ctx, order); err != nil {
			logg.Error(ctx, "seeding order", err)
			os.Exit(1)
		}
		ctx := logg.WithOrderID(ctx, order.ID.String())
		logg.Info(ctx, "seeded pending order")
	}
}
