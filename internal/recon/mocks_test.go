package recon

import (
	"context"
	"errors"
	"time"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
	"github.com/AngusWarren/ynab-up-sync/internal/ynab"
)

var errNotConfigured = errors.New("mock call not configured")

// mockSource implements SourceLedger with overridable function fields.
type mockSource struct {
	TransactionFunc func(ctx context.Context, id string) (*up.Transaction, error)
	AccountFunc     func(ctx context.Context, id string) (*up.Account, error)
}

func (m *mockSource) Transaction(ctx context.Context, id string) (*up.Transaction, error) {
	if m.TransactionFunc != nil {
		return m.TransactionFunc(ctx, id)
	}
	return nil, errNotConfigured
}

func (m *mockSource) Account(ctx context.Context, id string) (*up.Account, error) {
	if m.AccountFunc != nil {
		return m.AccountFunc(ctx, id)
	}
	return nil, errNotConfigured
}

// mockDest implements DestinationLedger. Unset funcs behave like an
// empty, accepting budget; call counters record write traffic.
type mockDest struct {
	AccountsFunc          func(ctx context.Context, serverKnowledge int64) ([]ynab.Account, int64, error)
	TransactionsFunc      func(ctx context.Context, since time.Time, serverKnowledge int64) ([]ynab.Transaction, int64, error)
	CreateAccountFunc     func(ctx context.Context, name, accountType, note string) (*ynab.Account, error)
	CreateTransactionFunc func(ctx context.Context, tx ynab.SaveTransaction) (*ynab.Transaction, error)
	UpdateTransactionFunc func(ctx context.Context, id string, patch ynab.TransactionUpdate) (*ynab.Transaction, error)

	createAccountCalls     int
	createTransactionCalls int
	updates                []recordedUpdate
}

type recordedUpdate struct {
	ID    string
	Patch ynab.TransactionUpdate
}

func (m *mockDest) Accounts(ctx context.Context, serverKnowledge int64) ([]ynab.Account, int64, error) {
	if m.AccountsFunc != nil {
		return m.AccountsFunc(ctx, serverKnowledge)
	}
	return nil, serverKnowledge, nil
}

func (m *mockDest) Transactions(ctx context.Context, since time.Time, serverKnowledge int64) ([]ynab.Transaction, int64, error) {
	if m.TransactionsFunc != nil {
		return m.TransactionsFunc(ctx, since, serverKnowledge)
	}
	return nil, serverKnowledge, nil
}

func (m *mockDest) CreateAccount(ctx context.Context, name, accountType, note string) (*ynab.Account, error) {
	m.createAccountCalls++
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, name, accountType, note)
	}
	return nil, errNotConfigured
}

func (m *mockDest) CreateTransaction(ctx context.Context, tx ynab.SaveTransaction) (*ynab.Transaction, error) {
	m.createTransactionCalls++
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return nil, errNotConfigured
}

func (m *mockDest) UpdateTransaction(ctx context.Context, id string, patch ynab.TransactionUpdate) (*ynab.Transaction, error) {
	m.updates = append(m.updates, recordedUpdate{ID: id, Patch: patch})
	if m.UpdateTransactionFunc != nil {
		return m.UpdateTransactionFunc(ctx, id, patch)
	}
	return &ynab.Transaction{ID: id}, nil
}

const (
	primarySecret   = "primary-secret"
	secondarySecret = "secondary-secret"
)

func newTestEngine(primary, secondary *mockSource, dest *mockDest) *Engine {
	return NewEngine(
		Connection{Source: primary, Secret: primarySecret},
		Connection{Source: secondary, Secret: secondarySecret},
		dest,
	)
}
