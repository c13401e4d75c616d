package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hsawaji/flema-backend/internal/config"
	"github.com/hsawaji/flema-backend/internal/db"
)

type seedListing struct {
	Title       string
	Description string
	Price       int64
	Condition   string
	Category    string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() (err error) {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}

	listings := buildSeedListings()

	canSeed, err := shouldSeed(ctx, sqlDB)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("listings already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	categoryIDs := map[string]int64{}
	for _, l := range listings {
		if _, ok := categoryIDs[l.Category]; ok {
			continue
		}
		id, err := upsertCategory(ctx, tx, l.Category)
		if err != nil {
			return err
		}
		categoryIDs[l.Category] = id
	}

	sellerUID := os.Getenv("SEED_SELLER_UID")
	if sellerUID == "" {
		sellerUID = "seed-seller"
	}

	for _, l := range listings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO listings (seller_uid, title, description, price, item_condition, category_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`,
			sellerUID, l.Title, l.Description, l.Price, l.Condition, categoryIDs[l.Category]); err != nil {
			return fmt.Errorf("insert listing %q: %w", l.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("seeded %d listings across %d categories", len(listings), len(categoryIDs))
	return nil
}

func shouldSeed(ctx context.Context, sqlDB *sql.DB) (bool, error) {
	if strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		return true, nil
	}
	var count int
	if err := sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count); err != nil {
		return false, fmt.Errorf("count listings: %w", err)
	}
	return count == 0, nil
}

func upsertCategory(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("select category %q: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO categories (name, created_at, updated_at) VALUES (?, NOW(), NOW())`, name)
	if err != nil {
		return 0, fmt.Errorf("insert category %q: %w", name, err)
	}
	return res.LastInsertId()
}

func buildSeedListings() []seedListing {
	return []seedListing{
		{"Beige knit cardigan", "Lightly worn knit cardigan, size M. No stains or pulls.", 2400, "good", "fashion"},
		{"Mechanical keyboard", "Tenkeyless board with brown switches, includes original box.", 6800, "good", "electronics"},
		{"Camping lantern", "LED lantern, battery powered, used on two trips.", 1500, "fair", "outdoor"},
		{"Ceramic plate set", "Four matching plates, one has a small chip on the rim.", 1200, "fair", "home"},
		{"Road bike helmet", "Unopened, still in shrink wrap. Size L.", 5200, "new", "outdoor"},
		{"Paperback novel bundle", "Six mystery paperbacks, covers show shelf wear.", 900, "poor", "books"},
	}
}
