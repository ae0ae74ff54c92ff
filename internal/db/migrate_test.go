package db

import (
	"testing"

	"github.com/gestorapp/gestor/internal/models"
)

func TestConnectAndMigrateSqlite(t *testing.T) {
	t.Setenv("DATABASE_DSN", "sqlite:file:connect_migrate?mode=memory&cache=shared")
	t.Setenv("MIGRATIONS", "")
	t.Setenv("DB_SEED", "")

	conn, err := ConnectAndMigrate()
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, table := range []string{"users", "brands", "categories", "products", "clients", "suppliers", "orders", "order_items", "audit_logs"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s after migration", table)
		}
	}
	// No seeding without DB_SEED.
	var brands int64
	if err := conn.Model(&models.Brand{}).Count(&brands).Error; err != nil {
		t.Fatalf("count brands: %v", err)
	}
	if brands != 0 {
		t.Fatalf("expected no seeded brands, got %d", brands)
	}
}

func TestConnectAndMigrateSeedsOnRequest(t *testing.T) {
	t.Setenv("DATABASE_DSN", "sqlite:file:connect_seed?mode=memory&cache=shared")
	t.Setenv("MIGRATIONS", "")
	t.Setenv("DB_SEED", "1")

	conn, err := ConnectAndMigrate()
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	var brands, categories int64
	if err := conn.Model(&models.Brand{}).Count(&brands).Error; err != nil {
		t.Fatalf("count brands: %v", err)
	}
	if err := conn.Model(&models.Category{}).Count(&categories).Error; err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if brands == 0 || categories == 0 {
		t.Fatalf("expected seeded brands and categories, got %d/%d", brands, categories)
	}
}
