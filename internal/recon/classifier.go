package recon

import (
	"context"
	"log"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
)

type Action int

const (
	ActionIgnore Action = iota
	ActionProcess
)

// Outcome is the classifier's verdict on one webhook delivery. When
// Action is ActionProcess, Transaction and Account carry the fetched
// source records so reconciliation does not re-fetch them.
type Outcome struct {
	Action      Action
	EventType   up.EventType
	Reason      string
	Transaction *up.Transaction
	Account     *up.Account
}

func ignore(eventType up.EventType, reason string) Outcome {
	return Outcome{Action: ActionIgnore, EventType: eventType, Reason: reason}
}

// Classify validates one webhook delivery and decides whether it needs
// reconciliation. It never mutates a cache:
//   - selector must name a configured connection (ErrUnknownSelector)
//   - signature must match the connection's webhook secret (ErrBadSignature)
//   - created/settled events are fetched and run through the skip rules
//   - deleted events are log-only; any other event type is a no-op
func (e *Engine) Classify(ctx context.Context, selector string, body []byte, signature string) (Outcome, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return Outcome{}, err
	}
	conn, err := e.connection(sel)
	if err != nil {
		return Outcome{}, err
	}
	if !up.VerifySignature(conn.Secret, body, signature) {
		return Outcome{}, ErrBadSignature
	}

	event, err := up.ParseWebhookEvent(body)
	if err != nil {
		return Outcome{}, err
	}

	switch event.Type {
	case up.EventTransactionCreated, up.EventTransactionSettled:
		tx, err := conn.Source.Transaction(ctx, event.TransactionID)
		if err != nil {
			return Outcome{}, err
		}

		// Internal transfers raise an event on both sides. The debit
		// side is authoritative and carries the transfer linkage;
		// processing the credit side as well would double-count.
		if tx.TransferAccountID != "" && tx.Amount.ValueInBaseUnits > 0 {
			return ignore(event.Type, "credit side of internal transfer"), nil
		}

		account, err := conn.Source.Account(ctx, tx.AccountID)
		if err != nil {
			return Outcome{}, err
		}

		// Both connections observe joint accounts; route them through
		// primary only.
		if account.OwnershipType == up.OwnershipJoint && sel == Secondary {
			return ignore(event.Type, "joint account handled via primary"), nil
		}

		return Outcome{
			Action:      ActionProcess,
			EventType:   event.Type,
			Transaction: tx,
			Account:     account,
		}, nil

	case up.EventTransactionDeleted:
		log.Printf("transaction %s deleted upstream; no action taken", event.TransactionID)
		return ignore(event.Type, "deletion is log-only"), nil

	default:
		return ignore(event.Type, "unhandled event type"), nil
	}
}
