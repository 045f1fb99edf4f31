// Command replay crafts a signed webhook delivery and POSTs it to a
// running server, for exercising a deployment without waiting on the
// bank. The transaction id must exist on the targeted connection or
// reconciliation will fail at the fetch.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
)

var (
	targetURL     string
	account       string
	secret        string
	eventType     string
	transactionID string
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "Server base URL")
	flag.StringVar(&account, "account", "primary", "Connection selector: primary | secondary")
	flag.StringVar(&secret, "secret", "", "Webhook secret for the selected connection (required)")
	flag.StringVar(&eventType, "event", string(up.EventTransactionCreated), "Event type to deliver")
	flag.StringVar(&transactionID, "transaction", "", "Transaction id to reference (default: random, useful only for PING)")
}

func main() {
	flag.Parse()

	if secret == "" {
		log.Fatal("-secret is required")
	}
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	body, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"eventType": eventType,
				"createdAt": time.Now().Format(time.RFC3339),
			},
			"relationships": map[string]any{
				"transaction": map[string]any{
					"data": map[string]string{"type": "transactions", "id": transactionID},
				},
			},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	endpoint := fmt.Sprintf("%s/webhook?account=%s", targetURL, account)
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(up.SignatureHeader, up.Sign(secret, body))

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("delivery failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("%s %s -> %d", eventType, transactionID, resp.StatusCode)
	fmt.Printf("%s\n", respBody)
}
