package up

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.up.com.au/api/v1"

// ErrRemote wraps any non-success response from the Up API.
var ErrRemote = errors.New("up: remote call failed")

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Wire shapes. Up speaks JSON:API: every resource nests its fields
// under attributes and its links under relationships.

type moneyObject struct {
	CurrencyCode     string `json:"currencyCode"`
	Value            string `json:"value"`
	ValueInBaseUnits int64  `json:"valueInBaseUnits"`
}

func (m moneyObject) money() Money {
	return Money{CurrencyCode: m.CurrencyCode, Value: m.Value, ValueInBaseUnits: m.ValueInBaseUnits}
}

type relationship struct {
	Data *struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (r relationship) id() string {
	if r.Data == nil {
		return ""
	}
	return r.Data.ID
}

type transactionResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Status        TransactionStatus `json:"status"`
		Description   string            `json:"description"`
		Message       *string           `json:"message"`
		Amount        moneyObject       `json:"amount"`
		ForeignAmount *moneyObject      `json:"foreignAmount"`
		CreatedAt     time.Time         `json:"createdAt"`
	} `json:"attributes"`
	Relationships struct {
		Account         relationship `json:"account"`
		TransferAccount relationship `json:"transferAccount"`
	} `json:"relationships"`
}

func (r transactionResource) transaction() *Transaction {
	tx := &Transaction{
		ID:                r.ID,
		Status:            r.Attributes.Status,
		Description:       r.Attributes.Description,
		Amount:            r.Attributes.Amount.money(),
		CreatedAt:         r.Attributes.CreatedAt,
		AccountID:         r.Relationships.Account.id(),
		TransferAccountID: r.Relationships.TransferAccount.id(),
	}
	if r.Attributes.Message != nil {
		tx.Message = *r.Attributes.Message
	}
	if r.Attributes.ForeignAmount != nil {
		f := r.Attributes.ForeignAmount.money()
		tx.ForeignAmount = &f
	}
	return tx
}

type accountResource struct {
	ID         string `json:"id"`
	Attributes struct {
		DisplayName   string        `json:"displayName"`
		AccountType   AccountType   `json:"accountType"`
		OwnershipType OwnershipType `json:"ownershipType"`
	} `json:"attributes"`
}

func (r accountResource) account() *Account {
	return &Account{
		ID:            r.ID,
		DisplayName:   r.Attributes.DisplayName,
		AccountType:   r.Attributes.AccountType,
		OwnershipType: r.Attributes.OwnershipType,
	}
}

type webhookResource struct {
	ID         string `json:"id"`
	Attributes struct {
		URL       string  `json:"url"`
		SecretKey *string `json:"secretKey"`
	} `json:"attributes"`
}

func (r webhookResource) webhook() Webhook {
	w := Webhook{ID: r.ID, URL: r.Attributes.URL}
	if r.Attributes.SecretKey != nil {
		w.SecretKey = *r.Attributes.SecretKey
	}
	return w
}

type webhookEventResource struct {
	Attributes struct {
		EventType EventType `json:"eventType"`
	} `json:"attributes"`
	Relationships struct {
		Transaction relationship `json:"transaction"`
	} `json:"relationships"`
}

// ParseWebhookEvent decodes a raw webhook delivery body.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var payload struct {
		Data webhookEventResource `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook event: %w", err)
	}
	return WebhookEvent{
		Type:          payload.Data.Attributes.EventType,
		TransactionID: payload.Data.Relationships.Transaction.id(),
	}, nil
}

// Transaction fetches a single transaction by id.
func (c *Client) Transaction(ctx context.Context, id string) (*Transaction, error) {
	var payload struct {
		Data transactionResource `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/transactions/"+id, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data.transaction(), nil
}

// Account fetches a single account by id.
func (c *Client) Account(ctx context.Context, id string) (*Account, error) {
	var payload struct {
		Data accountResource `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/accounts/"+id, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data.account(), nil
}

func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var payload struct {
		Data []webhookResource `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/webhooks", nil, &payload); err != nil {
		return nil, err
	}
	hooks := make([]Webhook, 0, len(payload.Data))
	for _, r := range payload.Data {
		hooks = append(hooks, r.webhook())
	}
	return hooks, nil
}

// CreateWebhook registers url as a delivery target. The response is the
// only place the webhook's secret key is ever disclosed.
func (c *Client) CreateWebhook(ctx context.Context, url, description string) (*Webhook, error) {
	body := map[string]any{
		"data": map[string]any{
			"attributes": map[string]string{
				"url":         url,
				"description": description,
			},
		},
	}
	var payload struct {
		Data webhookResource `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/webhooks", body, &payload); err != nil {
		return nil, err
	}
	hook := payload.Data.webhook()
	return &hook, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/webhooks/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemote, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", ErrRemote, method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: decode: %v", ErrRemote, method, path, err)
	}
	return nil
}
