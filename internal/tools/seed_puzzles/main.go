// Command seed_puzzles loads a JSON puzzle catalog and publishes every entry
// through the puzzle service. It is a developer utility for filling a local
// database with content, not part of runtime.
//
// Catalog format: a JSON array of objects with language, date (YYYY-MM-DD),
// answer and hints. Entries whose (language, date) slot is already occupied
// are skipped, never overwritten.
//
// Usage:
//
//	seed_puzzles -catalog puzzles.json [-dry-run]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"modleapp/internal/config"
	"modleapp/internal/database"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	contextutils "modleapp/internal/utils"
)

type catalogEntry struct {
	Language string   `json:"language"`
	Date     string   `json:"date"`
	Answer   string   `json:"answer"`
	Hints    []string `json:"hints"`
}

func main() {
	catalogPath := flag.String("catalog", "", "path to the JSON puzzle catalog")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without writing to the database")
	flag.Parse()

	if *catalogPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seed_puzzles -catalog puzzles.json [-dry-run]")
		os.Exit(2)
	}

	entries, err := readCatalog(*catalogPath)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "modle-seed-puzzles")
	if err != nil {
		panic("Failed to initialize observability: " + err.Error())
	}

	if errs := validateCatalog(cfg, entries); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "invalid:", e)
		}
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("Catalog OK: %d puzzles\n", len(entries))
		return
	}

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	defer func() {
		_ = db.Close()
	}()

	puzzleService := services.NewPuzzleService(db, cfg, logger)

	published, skipped := 0, 0
	for _, entry := range entries {
		puzzle := &models.Puzzle{
			Language: models.Language(entry.Language),
			Date:     entry.Date,
			Answer:   entry.Answer,
			Hints:    entry.Hints,
		}
		if _, err := puzzleService.CreatePuzzle(ctx, puzzle); err != nil {
			if contextutils.IsError(err, contextutils.ErrRecordExists) {
				skipped++
				continue
			}
			panic(fmt.Sprintf("failed to publish %s/%s: %v", entry.Language, entry.Date, err))
		}
		published++
	}

	fmt.Printf("Published %d puzzles, skipped %d already-occupied slots\n", published, skipped)
}

func readCatalog(path string) ([]catalogEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []catalogEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog %s contains no puzzles", path)
	}
	return entries, nil
}

func validateCatalog(cfg *config.Config, entries []catalogEntry) []string {
	var errs []string
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		where := fmt.Sprintf("entry %d (%s/%s)", i, entry.Language, entry.Date)
		if !cfg.IsSupportedLanguage(entry.Language) {
			errs = append(errs, where+": unsupported language")
		}
		if entry.Answer == "" {
			errs = append(errs, where+": empty answer")
		}
		if len(entry.Hints) == 0 || len(entry.Hints) > config.MaxHintsPerPuzzle {
			errs = append(errs, fmt.Sprintf("%s: hint count %d outside 1..%d", where, len(entry.Hints), config.MaxHintsPerPuzzle))
		}
		key := entry.Language + "/" + entry.Date
		if seen[key] {
			errs = append(errs, where+": duplicate (language, date) slot within catalog")
		}
		seen[key] = true
	}
	return errs
}
