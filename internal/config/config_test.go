package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  port: 9090
postgres:
  user: arena
  password: secret
  database: arena
game:
  lobby_countdown: 45s
  default_ante: 250
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Postgres.Host != "localhost" || cfg.Postgres.Port != 5432 {
		t.Fatalf("postgres defaults not applied: %+v", cfg.Postgres)
	}
	if cfg.Game.LobbyCountdown != 45*time.Second {
		t.Fatalf("expected 45s countdown, got %s", cfg.Game.LobbyCountdown)
	}
	if cfg.Game.DefaultAnte != 250 {
		t.Fatalf("expected ante 250, got %d", cfg.Game.DefaultAnte)
	}
	if cfg.Game.MaxHP != 100 || cfg.Game.MinPlayers != 2 {
		t.Fatalf("game defaults not applied: %+v", cfg.Game)
	}
	if cfg.Kafka.Topic != "arena-commands" {
		t.Fatalf("expected default topic, got %q", cfg.Kafka.Topic)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("ARENA_DB_PASSWORD", "hunter2")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
postgres:
  password: ${ARENA_DB_PASSWORD}
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Fatalf("expected env expansion, got %q", cfg.Postgres.Password)
	}
}

func TestConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "arena",
		Password: "pw",
		Database: "arena",
	}
	want := "postgres://arena:pw@db.internal:5433/arena?sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
