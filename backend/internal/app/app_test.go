package app

import (
	"path/filepath"
	"testing"

	"adops-engine/backend/internal/infra/client"
)

func TestMigrateCreatesTables(t *testing.T) {
	db, err := client.NewGORMSQLite(filepath.Join(t.TempDir(), "engine.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	res := &Resources{DBGorm: db}
	defer func() {
		if err := res.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{"ad_performance_records", "ad_creatives", "ab_tests", "platform_credentials"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}
	// 重复迁移应当幂等
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestCloseNilResources(t *testing.T) {
	var res *Resources
	if err := res.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
