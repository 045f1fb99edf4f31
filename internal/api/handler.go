package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AngusWarren/ynab-up-sync/internal/config"
	"github.com/AngusWarren/ynab-up-sync/internal/recon"
	"github.com/AngusWarren/ynab-up-sync/internal/up"
)

var (
	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_webhook_events_total",
		Help: "Webhook deliveries handled, labeled by connection, event type and outcome",
	}, []string{"account", "event_type", "outcome"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upsync_http_request_duration_seconds",
		Help:    "Latency distribution of inbound HTTP requests",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"endpoint"})
)

// WebhookManager is the slice of the Up API used for webhook
// provisioning.
type WebhookManager interface {
	ListWebhooks(ctx context.Context) ([]up.Webhook, error)
	CreateWebhook(ctx context.Context, url, description string) (*up.Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
}

type Handler struct {
	engine         *recon.Engine
	cfg            *config.Config
	primaryHooks   WebhookManager
	secondaryHooks WebhookManager
}

func NewHandler(engine *recon.Engine, cfg *config.Config, primaryHooks, secondaryHooks WebhookManager) *Handler {
	return &Handler{
		engine:         engine,
		cfg:            cfg,
		primaryHooks:   primaryHooks,
		secondaryHooks: secondaryHooks,
	}
}

// HandleWebhook receives one webhook delivery, classifies it and runs
// reconciliation when warranted. 403 covers both an unknown account
// selector and a bad signature; a remote-call failure surfaces as 502
// so the bank redelivers.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("/webhook"))
	defer timer.ObserveDuration()

	selector := r.URL.Query().Get("account")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Stream read error")
		return
	}
	signature := r.Header.Get(up.SignatureHeader)

	outcome, err := h.engine.Classify(r.Context(), selector, body, signature)
	if err != nil {
		if errors.Is(err, recon.ErrUnknownSelector) || errors.Is(err, recon.ErrBadSignature) {
			webhookEventsTotal.WithLabelValues(selector, "unknown", "rejected").Inc()
			respondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		log.Printf("classify failed: %v", err)
		webhookEventsTotal.WithLabelValues(selector, "unknown", "error").Inc()
		respondWithError(w, http.StatusBadGateway, "Upstream error")
		return
	}

	if outcome.Action != recon.ActionProcess {
		webhookEventsTotal.WithLabelValues(selector, string(outcome.EventType), "skipped").Inc()
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status": "skipped",
			"reason": outcome.Reason,
		})
		return
	}

	identity, err := h.engine.Reconcile(r.Context(), outcome.Transaction, outcome.Account)
	if err != nil {
		log.Printf("reconcile %s failed: %v", outcome.Transaction.ID, err)
		webhookEventsTotal.WithLabelValues(selector, string(outcome.EventType), "error").Inc()
		respondWithError(w, http.StatusBadGateway, "Reconciliation failed")
		return
	}

	webhookEventsTotal.WithLabelValues(selector, string(outcome.EventType), "processed").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":         "processed",
		"transaction_id": identity.TransactionID,
	})
}

// HandleProvision registers a webhook for one connection against the
// configured callback base URL and returns the newly issued secret.
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("/webhooks/provision"))
	defer timer.ObserveDuration()

	sel, err := recon.ParseSelector(r.URL.Query().Get("account"))
	if err != nil {
		respondWithError(w, http.StatusForbidden, "Unknown account selector")
		return
	}
	replaceExisting := r.URL.Query().Get("replaceExisting") == "true"

	if h.cfg.CallbackBaseURL == "" {
		respondWithError(w, http.StatusInternalServerError, "CALLBACK_BASE_URL is not configured")
		return
	}
	if h.secret(sel) != "" {
		respondWithError(w, http.StatusInternalServerError, "Webhook secret already configured for this connection")
		return
	}

	manager := h.hooks(sel)
	callbackURL := fmt.Sprintf("%s/webhook?account=%s", strings.TrimRight(h.cfg.CallbackBaseURL, "/"), sel)

	if replaceExisting {
		existing, err := manager.ListWebhooks(r.Context())
		if err != nil {
			log.Printf("list webhooks failed: %v", err)
			respondWithError(w, http.StatusBadGateway, "Upstream error")
			return
		}
		for _, hook := range existing {
			if hook.URL != callbackURL {
				continue
			}
			if err := manager.DeleteWebhook(r.Context(), hook.ID); err != nil {
				log.Printf("delete webhook %s failed: %v", hook.ID, err)
				respondWithError(w, http.StatusBadGateway, "Upstream error")
				return
			}
			log.Printf("deleted pre-existing webhook %s for %s", hook.ID, callbackURL)
		}
	}

	hook, err := manager.CreateWebhook(r.Context(), callbackURL, "ynab-up-sync "+string(sel))
	if err != nil {
		log.Printf("create webhook failed: %v", err)
		respondWithError(w, http.StatusBadGateway, "Upstream error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"id":     hook.ID,
		"url":    hook.URL,
		"secret": hook.SecretKey,
	})
}

func (h *Handler) hooks(sel recon.Selector) WebhookManager {
	if sel == recon.Secondary {
		return h.secondaryHooks
	}
	return h.primaryHooks
}

func (h *Handler) secret(sel recon.Selector) string {
	if sel == recon.Secondary {
		return h.cfg.Secondary.WebhookSecret
	}
	return h.cfg.Primary.WebhookSecret
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
