// Command register provisions an Up webhook for one connection without
// going through the running server. Prints the issued secret exactly
// once; store it in the matching UP_WEBHOOK_SECRET_* variable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
)

var (
	account string
	baseURL string
	replace bool
)

func init() {
	flag.StringVar(&account, "account", "primary", "Connection to register against: primary | secondary")
	flag.StringVar(&baseURL, "url", "", "Callback base URL (required)")
	flag.BoolVar(&replace, "replace", false, "Delete pre-existing webhooks pointing at the same callback URL")
}

func main() {
	flag.Parse()

	if account != "primary" && account != "secondary" {
		log.Fatalf("invalid -account %q: must be primary or secondary", account)
	}
	if baseURL == "" {
		log.Fatal("-url is required")
	}

	token := os.Getenv("UP_API_TOKEN_" + strings.ToUpper(account))
	if token == "" {
		log.Fatalf("UP_API_TOKEN_%s environment variable is required", strings.ToUpper(account))
	}

	ctx := context.Background()
	client := up.NewClient(token)
	callbackURL := fmt.Sprintf("%s/webhook?account=%s", strings.TrimRight(baseURL, "/"), account)

	if replace {
		existing, err := client.ListWebhooks(ctx)
		if err != nil {
			log.Fatalf("list webhooks: %v", err)
		}
		for _, hook := range existing {
			if hook.URL != callbackURL {
				continue
			}
			if err := client.DeleteWebhook(ctx, hook.ID); err != nil {
				log.Fatalf("delete webhook %s: %v", hook.ID, err)
			}
			log.Printf("deleted pre-existing webhook %s", hook.ID)
		}
	}

	hook, err := client.CreateWebhook(ctx, callbackURL, "ynab-up-sync "+account)
	if err != nil {
		log.Fatalf("create webhook: %v", err)
	}

	log.Printf("webhook %s registered for %s", hook.ID, callbackURL)
	fmt.Printf("UP_WEBHOOK_SECRET_%s=%s\n", strings.ToUpper(account), hook.SecretKey)
}
