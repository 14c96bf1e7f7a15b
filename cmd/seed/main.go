package main

import (
	"context"
	"log"
	"time"

	"tides-mcp/internal/config"
	"tides-mcp/internal/logging"
	"tides-mcp/internal/storage"
)

// Seeds the storage directory with one sample tide per flow type and
// logs a flow session against the daily one. Safe to run repeatedly:
// tides that already exist by name are left alone.
func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.NewFileTideStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	logger.Info("seeding tides into %s", store.Dir())

	existing, err := store.List(ctx, storage.ListFilter{})
	if err != nil {
		log.Fatalf("Failed to list existing tides: %v", err)
	}
	byName := make(map[string]bool, len(existing))
	for _, tide := range existing {
		byName[tide.Name] = true
	}

	samples := []storage.CreateTideInput{
		{Name: "Morning pages", FlowType: storage.FlowDaily, Description: "Three pages of stream-of-consciousness writing"},
		{Name: "Weekly review", FlowType: storage.FlowWeekly, Description: "Inbox zero and planning for the week ahead"},
		{Name: "Garden redesign", FlowType: storage.FlowProject, Description: "One-off landscaping project"},
		{Name: "Quarterly planning", FlowType: storage.FlowSeasonal, Description: "OKR review each season"},
	}

	var daily *storage.Tide
	for _, sample := range samples {
		if byName[sample.Name] {
			logger.Info("tide %q already exists, skipping", sample.Name)
			continue
		}
		tide, err := store.Create(ctx, sample)
		if err != nil {
			log.Fatalf("Failed to create tide %q: %v", sample.Name, err)
		}
		logger.Info("created tide %s (%s)", tide.ID, tide.FlowType)
		if tide.FlowType == storage.FlowDaily {
			daily = tide
		}
	}

	if daily != nil {
		entry := storage.FlowEntry{
			Timestamp: time.Now().Format(storage.TimeLayout),
			Intensity: storage.IntensityModerate,
			Duration:  25,
			Notes:     "seeded session",
		}
		if _, err := store.AddFlow(ctx, daily.ID, entry); err != nil {
			log.Fatalf("Failed to add flow to %s: %v", daily.ID, err)
		}
		logger.Info("logged a sample flow session on %s", daily.ID)
	}

	logger.Info("seed complete")
}
