package main

import (
	"context"
	"os"

	"github.com/alexedwards/argon2id"

	"github.com/wallaby-factory/ec-site-sub001/internal/config"
	"github.com/wallaby-factory/ec-site-sub001/internal/db"
	"github.com/wallaby-factory/ec-site-sub001/internal/material"
	"github.com/wallaby-factory/ec-site-sub001/internal/obs"
	"github.com/wallaby-factory/ec-site-sub001/internal/user"
)

func main() {
	cfg := config.MustLoad()
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "seeder").Logger()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	adminEmail := envOrDefault("SEED_ADMIN_EMAIL", "admin@example.com")
	adminPassword := envOrDefault("SEED_ADMIN_PASSWORD", "change-me-please")
	hash, err := argon2id.CreateHash(adminPassword, argon2id.DefaultParams)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash admin password")
	}

	_, err = pool.Exec(ctx, `
INSERT INTO users (name, email, password_hash, roles)
VALUES ('Store Admin', $1, $2, $3)
ON CONFLICT (email) DO UPDATE SET roles = EXCLUDED.roles
`, adminEmail, hash, []string{user.RoleAdmin})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed admin user")
	}
	logger.Info().Str("email", adminEmail).Msg("admin user seeded")

	materials := []struct {
		kind  string
		name  string
		color string
		stock int
	}{
		{material.KindFabric, "Navy Twill", "#1f2a44", 40},
		{material.KindFabric, "Mustard Canvas", "#d9a404", 25},
		{material.KindFabric, "Charcoal Oxford", "#36393f", 32},
		{material.KindFabric, "Cherry Blossom Print", "#f4c2cc", 18},
		{material.KindCord, "Waxed Cotton Cord", "", 120},
		{material.KindCord, "Leather Drawstring", "", 60},
	}
	for _, m := range materials {
		_, err := pool.Exec(ctx, `
INSERT INTO materials (kind, name, color_code, stock, active)
VALUES ($1, $2, $3, $4, true)
ON CONFLICT (kind, name) DO NOTHING
`, m.kind, m.name, m.color, m.stock)
		if err != nil {
			logger.Fatal().Err(err).Str("name", m.name).Msg("seed material")
		}
	}
	logger.Info().Int("count", len(materials)).Msg("materials seeded")
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
