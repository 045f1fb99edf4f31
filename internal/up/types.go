package up

import "time"

// TransactionStatus is the settlement state of an Up transaction.
type TransactionStatus string

const (
	StatusHeld    TransactionStatus = "HELD"
	StatusSettled TransactionStatus = "SETTLED"
)

func (s TransactionStatus) Settled() bool { return s == StatusSettled }

// Transaction is a single bank-ledger event payload. Instances are
// immutable once decoded from the API.
type Transaction struct {
	ID            string
	Status        TransactionStatus
	Description   string
	Message       string // optional free text attached by the sender
	Amount        Money
	ForeignAmount *Money // set when the charge was made in another currency
	CreatedAt     time.Time
	AccountID     string
	// TransferAccountID is the account on the other side of an internal
	// transfer. Empty for regular transactions.
	TransferAccountID string
}

type AccountType string

const (
	AccountTypeTransactional AccountType = "TRANSACTIONAL"
	AccountTypeSaver         AccountType = "SAVER"
	AccountTypeHomeLoan      AccountType = "HOME_LOAN"
)

type OwnershipType string

const (
	OwnershipIndividual OwnershipType = "INDIVIDUAL"
	OwnershipJoint      OwnershipType = "JOINT"
)

type Account struct {
	ID            string
	DisplayName   string
	AccountType   AccountType
	OwnershipType OwnershipType
}

// EventType enumerates the webhook event kinds we care about. Up emits
// further kinds (PING among them) which the classifier ignores.
type EventType string

const (
	EventTransactionCreated EventType = "TRANSACTION_CREATED"
	EventTransactionSettled EventType = "TRANSACTION_SETTLED"
	EventTransactionDeleted EventType = "TRANSACTION_DELETED"
	EventPing               EventType = "PING"
)

// WebhookEvent is the decoded body of a webhook delivery.
type WebhookEvent struct {
	Type          EventType
	TransactionID string
}

type Webhook struct {
	ID  string
	URL string
	// SecretKey is only present in the create response; the API never
	// returns it again.
	SecretKey string
}
