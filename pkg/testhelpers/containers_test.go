//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestTestDB_MigrationsApplied(t *testing.T) {
	testDB := GetTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"users", "courses", "materials", "tasks", "notes"} {
		var exists bool
		err := testDB.DB.Pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestTestDB_PriorityConstraint(t *testing.T) {
	testDB := GetTestDB(t)
	userID := testDB.CreateTestUser(t)

	_, err := testDB.DB.Pool.Exec(context.Background(),
		`INSERT INTO tasks (owner_id, title, priority) VALUES ($1, 'x', 'High')`, userID)
	if err == nil {
		t.Fatal("expected check constraint violation for non-canonical priority")
	}
}
