// Package testutil provides shared test helpers for databases, users and storage.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/relive/relive/internal/db"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/storage"
)

// TestDB creates a migrated SQLite database in a temp dir that is closed on cleanup.
func TestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "relive-test.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"

	conn, err := db.Init("sqlite", dsn)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })

	err = db.RunMigrations(conn.DB, "sqlite")
	if err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return conn
}

// CreateUser inserts a password-less user with the given email.
func CreateUser(t *testing.T, conn *sqlx.DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      "Test User",
		CreatedAt: time.Now().UTC(),
	}
	err := repository.NewUserRepository(conn).Create(context.Background(), user)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// TestStorage returns local storage rooted in a temp dir.
func TestStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return store
}
