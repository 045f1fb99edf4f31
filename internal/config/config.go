package config

import (
	"fmt"
	"os"
)

// Connection holds the credentials for one Up API connection.
type Connection struct {
	APIToken      string
	WebhookSecret string // empty until a webhook has been provisioned
}

type Config struct {
	Primary         Connection
	Secondary       Connection
	YNABToken       string
	BudgetID        string
	CallbackBaseURL string
	Port            string
	Env             string
}

func Load() (*Config, error) {
	primaryToken := os.Getenv("UP_API_TOKEN_PRIMARY")
	if primaryToken == "" {
		return nil, fmt.Errorf("UP_API_TOKEN_PRIMARY environment variable is required")
	}

	secondaryToken := os.Getenv("UP_API_TOKEN_SECONDARY")
	if secondaryToken == "" {
		return nil, fmt.Errorf("UP_API_TOKEN_SECONDARY environment variable is required")
	}

	ynabToken := os.Getenv("YNAB_API_TOKEN")
	if ynabToken == "" {
		return nil, fmt.Errorf("YNAB_API_TOKEN environment variable is required")
	}

	budgetID := os.Getenv("YNAB_BUDGET_ID")
	if budgetID == "" {
		return nil, fmt.Errorf("YNAB_BUDGET_ID environment variable is required")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &Config{
		Primary: Connection{
			APIToken:      primaryToken,
			WebhookSecret: os.Getenv("UP_WEBHOOK_SECRET_PRIMARY"),
		},
		Secondary: Connection{
			APIToken:      secondaryToken,
			WebhookSecret: os.Getenv("UP_WEBHOOK_SECRET_SECONDARY"),
		},
		YNABToken:       ynabToken,
		BudgetID:        budgetID,
		CallbackBaseURL: os.Getenv("CALLBACK_BASE_URL"),
		Port:            port,
		Env:             env,
	}, nil
}
