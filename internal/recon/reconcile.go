package recon

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
	"github.com/AngusWarren/ynab-up-sync/internal/ynab"
)

// importIDPrefix marks destination transactions created by this
// service. Combined with a dash-stripped Up transaction id it stays
// inside YNAB's 36-character import id limit.
const importIDPrefix = "up:"

// milliunitFactor rescales Up base units (cents) to YNAB milliunits.
const milliunitFactor = 10

func importID(transactionID string) string {
	return importIDPrefix + strings.ReplaceAll(transactionID, "-", "")
}

func clearedStatus(tx *up.Transaction) ynab.ClearedStatus {
	if tx.Status.Settled() {
		return ynab.Cleared
	}
	return ynab.Uncleared
}

func memo(tx *up.Transaction) string {
	parts := []string{tx.CreatedAt.Local().Format("15:04:05")}
	if tx.Message != "" {
		parts = append(parts, tx.Message)
	}
	if tx.ForeignAmount != nil {
		parts = append(parts, "("+tx.ForeignAmount.Format()+")")
	}
	return strings.Join(parts, " ")
}

// Reconcile looks up or creates the destination transaction for tx and
// propagates settlement to a paired transfer counterpart. owner is the
// source account tx belongs to, already fetched by the classifier.
//
// The check-then-create sequence is not atomic: two concurrent
// deliveries of the same event can race between cache miss and cache
// write and create a duplicate. A failed remote call aborts the
// invocation with no rollback; redelivery self-corrects.
func (e *Engine) Reconcile(ctx context.Context, tx *up.Transaction, owner *up.Account) (TransactionIdentity, error) {
	key := importID(tx.ID)

	identity, found, err := e.transactions.Lookup(ctx, key, tx.CreatedAt)
	if err != nil {
		return TransactionIdentity{}, err
	}

	if found {
		amount := tx.Amount.ValueInBaseUnits * milliunitFactor
		cleared := clearedStatus(tx)
		patch := ynab.TransactionUpdate{Amount: &amount, Cleared: &cleared}
		if _, err := e.dest.UpdateTransaction(ctx, identity.TransactionID, patch); err != nil {
			return TransactionIdentity{}, fmt.Errorf("update %s: %w", identity.TransactionID, err)
		}
	} else {
		identity, err = e.createTransaction(ctx, tx, owner, key)
		if err != nil {
			return TransactionIdentity{}, err
		}
	}

	// Settlement propagation: the counterpart of a settled transfer is
	// cleared too, and nothing else about it is touched.
	if identity.TransferTransactionID != "" && tx.Status.Settled() {
		cleared := ynab.Cleared
		patch := ynab.TransactionUpdate{Cleared: &cleared}
		if _, err := e.dest.UpdateTransaction(ctx, identity.TransferTransactionID, patch); err != nil {
			return identity, fmt.Errorf("clear transfer counterpart %s: %w", identity.TransferTransactionID, err)
		}
	}

	return identity, nil
}

func (e *Engine) createTransaction(ctx context.Context, tx *up.Transaction, owner *up.Account, key string) (TransactionIdentity, error) {
	ref, err := e.resolveAccount(ctx, tx.AccountID, owner)
	if err != nil {
		return TransactionIdentity{}, err
	}

	save := ynab.SaveTransaction{
		AccountID: ref.AccountID,
		Date:      tx.CreatedAt.Local().Format("2006-01-02"),
		Amount:    tx.Amount.ValueInBaseUnits * milliunitFactor,
		Memo:      memo(tx),
		Cleared:   clearedStatus(tx),
		ImportID:  key,
	}
	if tx.TransferAccountID != "" {
		counterpart, err := e.counterpartAccount(ctx, tx.TransferAccountID)
		if err != nil {
			return TransactionIdentity{}, err
		}
		save.PayeeID = counterpart.TransferPayeeID
	} else {
		save.PayeeName = tx.Description
	}

	created, err := e.dest.CreateTransaction(ctx, save)
	if err != nil {
		return TransactionIdentity{}, fmt.Errorf("create transaction for %s: %w", tx.ID, err)
	}

	identity := TransactionIdentity{
		TransactionID:         created.ID,
		TransferTransactionID: created.TransferTransactionID,
	}

	// Only cache when the server adopted our import id; a silently
	// dropped key would make the cached mapping unfindable on rebuild.
	if created.ImportID == key {
		e.transactions.Insert(key, identity)
	} else {
		log.Printf("destination did not adopt import id %q for transaction %s; not caching", key, tx.ID)
	}

	if save.PayeeID != "" && created.TransferTransactionID == "" {
		log.Printf("warning: transfer pairing missing for transaction %s (payee %s); sides were not auto-linked", tx.ID, save.PayeeID)
	}

	return identity, nil
}

// counterpartAccount resolves the destination account for the other
// side of an internal transfer. The counterpart may belong to either
// connection, so an account lookup that fails on primary is retried on
// secondary before giving up.
func (e *Engine) counterpartAccount(ctx context.Context, sourceAccountID string) (AccountRef, error) {
	ref, found, err := e.accounts.Lookup(ctx, sourceAccountID, time.Time{})
	if err != nil {
		return AccountRef{}, err
	}
	if found {
		return ref, nil
	}

	account, err := e.primary.Source.Account(ctx, sourceAccountID)
	if err != nil {
		account, err = e.secondary.Source.Account(ctx, sourceAccountID)
		if err != nil {
			return AccountRef{}, fmt.Errorf("fetch transfer counterpart account %s: %w", sourceAccountID, err)
		}
	}
	return e.provisionAccount(ctx, account)
}
