package main

import (
	"log"
	"time"

	"github.com/nivcomp/attentive-customer-compass-sub000/internal/config"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/database"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/notify"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
)

// One-shot sweep of date_reached automations, intended to be run from cron
// or a scheduler sidecar. The HTTP service exposes the same sweep at
// POST /api/automations/scan for deployments that prefer an external
// scheduler hitting the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	itemSvc := &services.ItemService{DB: db}
	relSvc := &services.RelationshipService{DB: db}
	engine := &services.AutomationEngine{
		DB:            db,
		Items:         itemSvc,
		Relationships: relSvc,
	}
	if cfg.TasksURL != "" {
		engine.Tasks = notify.NewWebhookClient(cfg.TasksURL)
	}
	if cfg.NotifyURL != "" {
		engine.Notifier = notify.NewWebhookClient(cfg.NotifyURL)
	}

	fired, err := engine.RunDateScan(time.Now().UTC())
	if err != nil {
		log.Fatalf("Date scan failed: %v", err)
	}
	log.Printf("Date scan complete, %d automation run(s) fired", fired)
}
