package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngusWarren/ynab-up-sync/internal/api"
	"github.com/AngusWarren/ynab-up-sync/internal/config"
	"github.com/AngusWarren/ynab-up-sync/internal/recon"
	"github.com/AngusWarren/ynab-up-sync/internal/up"
	"github.com/AngusWarren/ynab-up-sync/internal/ynab"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	primaryClient := up.NewClient(cfg.Primary.APIToken)
	secondaryClient := up.NewClient(cfg.Secondary.APIToken)
	budget := ynab.NewClient(cfg.YNABToken, cfg.BudgetID)

	// Initialize Layers
	engine := recon.NewEngine(
		recon.Connection{Source: primaryClient, Secret: cfg.Primary.WebhookSecret},
		recon.Connection{Source: secondaryClient, Secret: cfg.Secondary.WebhookSecret},
		budget,
	)
	handler := api.NewHandler(engine, cfg, primaryClient, secondaryClient)

	// Router
	r := mux.NewRouter()
	r.Use(api.RequestLogger)
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.HandleFunc("/webhook", handler.HandleWebhook).Methods("POST")
	r.HandleFunc("/webhooks/provision", handler.HandleProvision).Methods("GET")

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
