package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.ynab.com/v1"

// ErrRemote wraps any non-success response from the YNAB API.
var ErrRemote = errors.New("ynab: remote call failed")

// Client talks to one budget with a fixed bearer credential.
type Client struct {
	baseURL  string
	token    string
	budgetID string
	http     *http.Client
}

func NewClient(token, budgetID string) *Client {
	return &Client{
		baseURL:  DefaultBaseURL,
		token:    token,
		budgetID: budgetID,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Accounts lists accounts changed since serverKnowledge (all accounts
// when zero) and returns the new knowledge token.
func (c *Client) Accounts(ctx context.Context, serverKnowledge int64) ([]Account, int64, error) {
	q := url.Values{}
	if serverKnowledge > 0 {
		q.Set("last_knowledge_of_server", strconv.FormatInt(serverKnowledge, 10))
	}
	var payload struct {
		Data struct {
			Accounts        []Account `json:"accounts"`
			ServerKnowledge int64     `json:"server_knowledge"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, c.budgetPath("/accounts"), q, nil, &payload); err != nil {
		return nil, 0, err
	}
	return payload.Data.Accounts, payload.Data.ServerKnowledge, nil
}

// Transactions lists transactions on or after since that changed since
// serverKnowledge, returning the new knowledge token.
func (c *Client) Transactions(ctx context.Context, since time.Time, serverKnowledge int64) ([]Transaction, int64, error) {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since_date", since.Format("2006-01-02"))
	}
	if serverKnowledge > 0 {
		q.Set("last_knowledge_of_server", strconv.FormatInt(serverKnowledge, 10))
	}
	var payload struct {
		Data struct {
			Transactions    []Transaction `json:"transactions"`
			ServerKnowledge int64         `json:"server_knowledge"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, c.budgetPath("/transactions"), q, nil, &payload); err != nil {
		return nil, 0, err
	}
	return payload.Data.Transactions, payload.Data.ServerKnowledge, nil
}

// CreateAccount creates an account with a zero opening balance.
func (c *Client) CreateAccount(ctx context.Context, name, accountType, note string) (*Account, error) {
	body := map[string]any{
		"account": map[string]any{
			"name":    name,
			"type":    accountType,
			"balance": 0,
			"note":    note,
		},
	}
	var payload struct {
		Data struct {
			Account Account `json:"account"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, c.budgetPath("/accounts"), nil, body, &payload); err != nil {
		return nil, err
	}
	return &payload.Data.Account, nil
}

// CreateTransaction submits a new transaction. The response echoes the
// import id when the server adopted it.
func (c *Client) CreateTransaction(ctx context.Context, tx SaveTransaction) (*Transaction, error) {
	body := map[string]any{"transaction": tx}
	var payload struct {
		Data struct {
			Transaction Transaction `json:"transaction"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, c.budgetPath("/transactions"), nil, body, &payload); err != nil {
		return nil, err
	}
	return &payload.Data.Transaction, nil
}

// UpdateTransaction applies a partial update; only non-nil fields of
// patch are sent.
func (c *Client) UpdateTransaction(ctx context.Context, id string, patch TransactionUpdate) (*Transaction, error) {
	body := map[string]any{"transaction": patch}
	var payload struct {
		Data struct {
			Transaction Transaction `json:"transaction"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPatch, c.budgetPath("/transactions/"+id), nil, body, &payload); err != nil {
		return nil, err
	}
	return &payload.Data.Transaction, nil
}

func (c *Client) budgetPath(suffix string) string {
	return "/budgets/" + c.budgetID + suffix
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
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
