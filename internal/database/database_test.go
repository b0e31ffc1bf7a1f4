package database

import (
	"net/url"
	"testing"

	"car-price/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "pricing",
		Password: "p@ss word",
		Database: "history",
		Schema:   "public",
		SSLMode:  "disable",
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("DSN is not a valid URL: %v", err)
	}
	if u.Host != "db.internal:5433" {
		t.Errorf("Expected host db.internal:5433, got %s", u.Host)
	}
	if pwd, _ := u.User.Password(); pwd != "p@ss word" {
		t.Errorf("Expected password to round trip, got %q", pwd)
	}
	if u.Path != "/history" {
		t.Errorf("Expected path /history, got %s", u.Path)
	}
	if u.Query().Get("sslmode") != "disable" || u.Query().Get("search_path") != "public" {
		t.Errorf("Unexpected query %s", u.RawQuery)
	}
}
