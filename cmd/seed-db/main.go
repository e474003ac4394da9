package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/verdant-storefront/internal/domain/auth"
	"github.com/xenking/verdant-storefront/internal/domain/product"
	"github.com/xenking/verdant-storefront/internal/storage/postgres"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	InStock  bool            `json:"inStock"`
	Sizes    []string        `json:"sizes"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Tablet    string `json:"tablet"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		sessionToken  string
		sessionPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&sessionToken, "session-token", "", "demo session token to seed (or SHOP_SEED_SESSION_TOKEN env)")
	flag.StringVar(&sessionPepper, "session-pepper", "", "HMAC pepper for session token hashing (or SHOP_SESSION_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if sessionToken == "" {
		sessionToken = os.Getenv("SHOP_SEED_SESSION_TOKEN")
	}
	if sessionPepper == "" {
		sessionPepper = os.Getenv("SHOP_SESSION_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, sessionToken, sessionPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, sessionToken, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if sessionToken != "" {
		if err := seedSession(ctx, postgres.NewSessionRepository(pool), sessionToken, pepper); err != nil {
			return errors.Wrap(err, "seed session")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, raw := range products {
		p := product.Product{
			ID:       raw.ID,
			Name:     raw.Name,
			Price:    raw.Price,
			Category: raw.Category,
			InStock:  raw.InStock,
			Image: product.Image{
				Thumbnail: raw.Image.Thumbnail,
				Mobile:    raw.Image.Mobile,
				Tablet:    raw.Image.Tablet,
				Desktop:   raw.Image.Desktop,
			},
		}
		for _, s := range raw.Sizes {
			size, err := product.ParseSize(s)
			if err != nil {
				return errors.Wrapf(err, "product %s", raw.ID)
			}
			p.Sizes = append(p.Sizes, size)
		}

		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedSession(ctx context.Context, repo *postgres.SessionRepository, token, pepper string) error {
	slog.Info("seeding demo session")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(token))
	tokenHash := hex.EncodeToString(mac.Sum(nil))

	if err := repo.UpsertSession(ctx, auth.Session{
		ID:        "demo",
		TokenHash: tokenHash,
		Identity: auth.Identity{
			ID:    "demo",
			Email: "demo@example.com",
			Name:  "Demo Shopper",
		},
		Active: true,
	}); err != nil {
		return errors.Wrap(err, "upsert demo session")
	}

	slog.Info("upserted session", slog.String("id", "demo"))

	return nil
}
