package database

import (
	"context"
	"testing"
	"time"

	appconfig "github.com/GTDGit/pricing_api/internal/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	got := DSN(&appconfig.DatabaseConfig{
		Host: "db", Port: "5432", User: "pricing", Password: "p@ss word",
		Name: "catalog", SSLMode: "disable",
	})
	want := "postgres://pricing:p%40ss+word@db:5432/catalog?sslmode=disable"
	if got != want {
		t.Fatalf("DSN = %s, want %s", got, want)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{4, 4 * time.Second},
		{5, 5 * time.Second},
		{9, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestConnectNilConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if _, err := Connect(ctx, nil); err == nil {
		t.Fatal("expected an error for nil config")
	}
}
