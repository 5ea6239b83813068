package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed|apply <file.sql>]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "apply":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			os.Exit(1)
		}
		if err := applyFile(ctx, conn, os.Args[2]); err != nil {
			log.Fatalf("Failed to apply migration: %v", err)
		}
		fmt.Printf("✅ Applied %s\n", os.Args[2])

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS audit_log CASCADE`,
		`DROP TABLE IF EXISTS picks CASCADE`,
		`DROP TABLE IF EXISTS league_members CASCADE`,
		`DROP TABLE IF EXISTS leagues CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leagues (
			id TEXT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			commissioner_id VARCHAR(255) NOT NULL,
			season INTEGER NOT NULL,
			max_strikes INTEGER NOT NULL DEFAULT 1 CHECK (max_strikes BETWEEN 1 AND 5),
			start_week INTEGER NOT NULL DEFAULT 1 CHECK (start_week BETWEEN 1 AND 18),
			double_pick_weeks INTEGER[] NOT NULL DEFAULT '{}',
			entry_fee BIGINT NOT NULL DEFAULT 0 CHECK (entry_fee >= 0),
			prize_pot_override BIGINT CHECK (prize_pot_override >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS league_members (
			league_id TEXT NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			user_id VARCHAR(255) NOT NULL,
			display_name VARCHAR(100) NOT NULL,
			strikes INTEGER NOT NULL DEFAULT 0 CHECK (strikes >= 0),
			status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'eliminated')),
			has_paid BOOLEAN NOT NULL DEFAULT false,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (league_id, user_id)
		)`,

		// pick_number is nullable for rows written before double-pick weeks existed
		`CREATE TABLE IF NOT EXISTS picks (
			id BIGSERIAL PRIMARY KEY,
			league_id TEXT NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			week INTEGER NOT NULL CHECK (week BETWEEN 1 AND 22),
			pick_number INTEGER CHECK (pick_number IN (1, 2)),
			team_id INTEGER NOT NULL,
			game_id VARCHAR(32),
			result VARCHAR(10) NOT NULL DEFAULT 'pending' CHECK (result IN ('pending', 'win', 'loss')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			FOREIGN KEY (league_id, user_id) REFERENCES league_members(league_id, user_id) ON DELETE CASCADE,
			UNIQUE (league_id, user_id, team_id)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			league_id TEXT NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			actor_id VARCHAR(255) NOT NULL,
			target_user_id VARCHAR(255) NOT NULL,
			action VARCHAR(20) NOT NULL,
			week INTEGER NOT NULL DEFAULT 0,
			team_id INTEGER,
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_picks_slot ON picks(league_id, user_id, week, (COALESCE(pick_number, 1)))`,
		`CREATE INDEX IF NOT EXISTS idx_picks_pending ON picks(league_id, week) WHERE result = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_members_user ON league_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_league_created ON audit_log(league_id, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

// seedData creates a demo league for local development
func seedData(ctx context.Context, conn *pgx.Conn) error {
	season := 2025
	if v := os.Getenv("SEASON_YEAR"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SEASON_YEAR %q: %w", v, err)
		}
		season = parsed
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO leagues (id, name, commissioner_id, season, max_strikes, start_week, double_pick_weeks, entry_fee)
		VALUES ('demo-league', 'Demo Survivor Pool', 'demo-commissioner', $1, 2, 1, '{14}', 2500)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			season = EXCLUDED.season
	`, season)
	if err != nil {
		return fmt.Errorf("failed to seed league: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO league_members (league_id, user_id, display_name, has_paid) VALUES
		('demo-league', 'demo-commissioner', 'Commish', true),
		('demo-league', 'demo-player-1', 'Player One', true),
		('demo-league', 'demo-player-2', 'Player Two', false)
		ON CONFLICT (league_id, user_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to seed members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	fmt.Println("  Seeded league demo-league with 3 members")
	return nil
}

// applyFile runs a hand-written SQL migration
func applyFile(ctx context.Context, conn *pgx.Conn, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("migration file not found: %s", path)
	}

	sqlBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := conn.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", path, err)
	}
	return nil
}

func getTableName(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		if (f == "EXISTS" || f == "ON") && i+1 < len(fields) {
			return strings.TrimSuffix(fields[i+1], "(")
		}
	}
	return "unknown"
}
