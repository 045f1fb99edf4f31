package recon

import (
	"context"
	"errors"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
)

var (
	// ErrUnknownSelector rejects webhook calls whose account selector is
	// not one of the two configured connections.
	ErrUnknownSelector = errors.New("unknown account selector")
	// ErrBadSignature rejects deliveries whose authenticity signature
	// does not match the connection's webhook secret.
	ErrBadSignature = errors.New("webhook signature mismatch")
)

// Selector names one of the two configured Up connections. Joint
// accounts are visible through both; they are processed exclusively
// through Primary.
type Selector string

const (
	Primary   Selector = "primary"
	Secondary Selector = "secondary"
)

func ParseSelector(s string) (Selector, error) {
	switch Selector(s) {
	case Primary, Secondary:
		return Selector(s), nil
	default:
		return "", ErrUnknownSelector
	}
}

// SourceLedger is the read surface of one bank connection.
type SourceLedger interface {
	Transaction(ctx context.Context, id string) (*up.Transaction, error)
	Account(ctx context.Context, id string) (*up.Account, error)
}

// Connection pairs a source-ledger client with its webhook secret.
type Connection struct {
	Source SourceLedger
	Secret string
}
