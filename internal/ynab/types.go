package ynab

// ClearedStatus is the reconciliation state of a budget transaction.
type ClearedStatus string

const (
	Cleared   ClearedStatus = "cleared"
	Uncleared ClearedStatus = "uncleared"
)

// Account types accepted by the create-account endpoint.
const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
)

type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	// Note carries free text; we embed a machine-readable back-link to
	// the source bank account here so a cold cache can rediscover the
	// mapping from the budget's own data.
	Note            string `json:"note"`
	TransferPayeeID string `json:"transfer_payee_id"`
	Deleted         bool   `json:"deleted"`
}

type Transaction struct {
	ID        string        `json:"id"`
	AccountID string        `json:"account_id"`
	Amount    int64         `json:"amount"` // milliunits
	Cleared   ClearedStatus `json:"cleared"`
	ImportID  string        `json:"import_id"`
	// TransferTransactionID is set when the budget has paired this
	// transaction with the other side of a transfer.
	TransferTransactionID string `json:"transfer_transaction_id"`
	Deleted               bool   `json:"deleted"`
}

// SaveTransaction is the payload for creating a transaction. Exactly one
// of PayeeID and PayeeName should be set: transfer-linked transactions
// identify their payee by account linkage, everything else by name.
type SaveTransaction struct {
	AccountID string        `json:"account_id"`
	Date      string        `json:"date"` // 2006-01-02
	Amount    int64         `json:"amount"`
	PayeeID   string        `json:"payee_id,omitempty"`
	PayeeName string        `json:"payee_name,omitempty"`
	Memo      string        `json:"memo,omitempty"`
	Cleared   ClearedStatus `json:"cleared"`
	ImportID  string        `json:"import_id"`
}

// TransactionUpdate is a partial update: nil fields are omitted from
// the request body entirely and left untouched by the server.
type TransactionUpdate struct {
	Amount  *int64         `json:"amount,omitempty"`
	Cleared *ClearedStatus `json:"cleared,omitempty"`
}
