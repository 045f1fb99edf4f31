package recon

import (
	"context"
	"fmt"
	"time"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
	"github.com/AngusWarren/ynab-up-sync/internal/ynab"
)

// accountNameLimit is the destination ledger's account name length cap.
const accountNameLimit = 50

func destinationAccountName(account *up.Account) string {
	name := fmt.Sprintf("%s (%s)", account.DisplayName, account.ID)
	runes := []rune(name)
	if len(runes) > accountNameLimit {
		return string(runes[:accountNameLimit])
	}
	return name
}

// destinationAccountType maps the source taxonomy onto the two budget
// account types we use: transactional accounts become checking,
// everything else (savers, home loans) becomes savings.
func destinationAccountType(t up.AccountType) string {
	if t == up.AccountTypeTransactional {
		return ynab.AccountTypeChecking
	}
	return ynab.AccountTypeSavings
}

// resolveAccount returns the destination account mirroring the given
// source account, creating it on first reference.
func (e *Engine) resolveAccount(ctx context.Context, sourceAccountID string, details *up.Account) (AccountRef, error) {
	ref, found, err := e.accounts.Lookup(ctx, sourceAccountID, time.Time{})
	if err != nil {
		return AccountRef{}, err
	}
	if found {
		return ref, nil
	}
	return e.provisionAccount(ctx, details)
}

// provisionAccount creates the mirror account with a zero opening
// balance. The note embeds a back-link tag so a cold cache can
// rediscover the mapping from the destination ledger alone.
func (e *Engine) provisionAccount(ctx context.Context, account *up.Account) (AccountRef, error) {
	created, err := e.dest.CreateAccount(ctx,
		destinationAccountName(account),
		destinationAccountType(account.AccountType),
		accountNote(account.ID),
	)
	if err != nil {
		return AccountRef{}, fmt.Errorf("provision account for %s: %w", account.ID, err)
	}

	ref := AccountRef{AccountID: created.ID, TransferPayeeID: created.TransferPayeeID}
	e.accounts.Insert(account.ID, ref)
	return ref, nil
}
