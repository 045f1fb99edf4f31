package recon

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/AngusWarren/ynab-up-sync/internal/ynab"
)

// DestinationLedger is the budget ledger being kept in sync.
type DestinationLedger interface {
	Accounts(ctx context.Context, serverKnowledge int64) ([]ynab.Account, int64, error)
	Transactions(ctx context.Context, since time.Time, serverKnowledge int64) ([]ynab.Transaction, int64, error)
	CreateAccount(ctx context.Context, name, accountType, note string) (*ynab.Account, error)
	CreateTransaction(ctx context.Context, tx ynab.SaveTransaction) (*ynab.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch ynab.TransactionUpdate) (*ynab.Transaction, error)
}

// AccountRef maps a source bank account onto its destination
// counterpart.
type AccountRef struct {
	AccountID       string
	TransferPayeeID string
}

// TransactionIdentity is the destination-side identity of a reconciled
// transaction.
type TransactionIdentity struct {
	TransactionID string
	// TransferTransactionID is the paired transfer counterpart, when
	// the destination ledger linked one.
	TransferTransactionID string
}

// Engine reconciles source-ledger events into the destination ledger.
// The two caches live for the engine's lifetime and are shared across
// all webhook invocations it handles.
type Engine struct {
	primary   Connection
	secondary Connection
	dest      DestinationLedger

	accounts     *Cache[AccountRef]
	transactions *Cache[TransactionIdentity]
}

func NewEngine(primary, secondary Connection, dest DestinationLedger) *Engine {
	e := &Engine{primary: primary, secondary: secondary, dest: dest}
	e.accounts = NewCache("accounts", e.refreshAccounts)
	e.transactions = NewCache("transactions", e.refreshTransactions)
	return e
}

func (e *Engine) connection(sel Selector) (Connection, error) {
	switch sel {
	case Primary:
		return e.primary, nil
	case Secondary:
		return e.secondary, nil
	default:
		return Connection{}, ErrUnknownSelector
	}
}

// AccountCursor and TransactionCursor expose cache sync state, mainly
// for observability.
func (e *Engine) AccountCursor() (int64, time.Time)     { return e.accounts.Cursor() }
func (e *Engine) TransactionCursor() (int64, time.Time) { return e.transactions.Cursor() }

// accountTag is the fixed-format back-link embedded in a destination
// account's note at provisioning time.
var accountTag = regexp.MustCompile(`up_account_id=([0-9a-fA-F-]+)`)

func accountNote(sourceID string) string {
	return "Synced from Up. up_account_id=" + sourceID
}

func (e *Engine) refreshAccounts(ctx context.Context, _ time.Time, serverKnowledge int64) (map[string]AccountRef, int64, error) {
	// The accounts listing is delta-only; the window date does not
	// apply to it.
	accounts, knowledge, err := e.dest.Accounts(ctx, serverKnowledge)
	if err != nil {
		return nil, 0, err
	}
	refs := make(map[string]AccountRef)
	for _, a := range accounts {
		if a.Deleted {
			continue
		}
		m := accountTag.FindStringSubmatch(a.Note)
		if m == nil {
			continue
		}
		refs[m[1]] = AccountRef{AccountID: a.ID, TransferPayeeID: a.TransferPayeeID}
	}
	return refs, knowledge, nil
}

func (e *Engine) refreshTransactions(ctx context.Context, since time.Time, serverKnowledge int64) (map[string]TransactionIdentity, int64, error) {
	transactions, knowledge, err := e.dest.Transactions(ctx, since, serverKnowledge)
	if err != nil {
		return nil, 0, err
	}
	ids := make(map[string]TransactionIdentity)
	for _, t := range transactions {
		if t.Deleted || !strings.HasPrefix(t.ImportID, importIDPrefix) {
			continue
		}
		ids[t.ImportID] = TransactionIdentity{
			TransactionID:         t.ID,
			TransferTransactionID: t.TransferTransactionID,
		}
	}
	return ids, knowledge, nil
}
