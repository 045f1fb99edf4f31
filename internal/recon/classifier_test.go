package recon

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/AngusWarren/ynab-up-sync/internal/up"
)

func eventBody(t *testing.T, eventType up.EventType, transactionID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{"eventType": eventType},
			"relationships": map[string]any{
				"transaction": map[string]any{
					"data": map[string]string{"type": "transactions", "id": transactionID},
				},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func debitTransaction(id, accountID string) *up.Transaction {
	return &up.Transaction{
		ID:          id,
		Status:      up.StatusSettled,
		Description: "Coffee",
		Amount:      up.Money{CurrencyCode: "AUD", Value: "-15.00", ValueInBaseUnits: -1500},
		CreatedAt:   time.Now(),
		AccountID:   accountID,
	}
}

func individualAccount(id string) *up.Account {
	return &up.Account{
		ID:            id,
		DisplayName:   "Spending",
		AccountType:   up.AccountTypeTransactional,
		OwnershipType: up.OwnershipIndividual,
	}
}

func TestClassifyRejectsUnknownSelector(t *testing.T) {
	e := newTestEngine(&mockSource{}, &mockSource{}, &mockDest{})
	body := eventBody(t, up.EventTransactionCreated, "tx-1")

	_, err := e.Classify(context.Background(), "tertiary", body, up.Sign(primarySecret, body))
	if !errors.Is(err, ErrUnknownSelector) {
		t.Fatalf("want ErrUnknownSelector, got %v", err)
	}
}

func TestClassifyRejectsBadSignature(t *testing.T) {
	e := newTestEngine(&mockSource{}, &mockSource{}, &mockDest{})
	body := eventBody(t, up.EventTransactionCreated, "tx-1")

	_, err := e.Classify(context.Background(), "primary", body, up.Sign("wrong-secret", body))
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
}

func TestClassifySignatureIsPerConnection(t *testing.T) {
	src := &mockSource{
		TransactionFunc: func(ctx context.Context, id string) (*up.Transaction, error) {
			return debitTransaction(id, "acc-1"), nil
		},
		AccountFunc: func(ctx context.Context, id string) (*up.Account, error) {
			return individualAccount(id), nil
		},
	}
	e := newTestEngine(&mockSource{}, src, &mockDest{})
	body := eventBody(t, up.EventTransactionCreated, "tx-1")

	// Signed with the secondary secret: valid via secondary, not primary.
	sig := up.Sign(secondarySecret, body)

	if _, err := e.Classify(context.Background(), "primary", body, sig); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("primary should reject, got %v", err)
	}
	if _, err := e.Classify(context.Background(), "secondary", body, sig); err != nil {
		t.Fatalf("secondary should accept, got %v", err)
	}
}

func TestClassifyProcessesCreatedEvent(t *testing.T) {
	var fetchedTx, fetchedAcc string
	src := &mockSource{
		TransactionFunc: func(ctx context.Context, id string) (*up.Transaction, error) {
			fetchedTx = id
			return debitTransaction(id, "acc-1"), nil
		},
		AccountFunc: func(ctx context.Context, id string) (*up.Account, error) {
			fetchedAcc = id
			return individualAccount(id), nil
		},
	}
	e := newTestEngine(src, &mockSource{}, &mockDest{})
	body := eventBody(t, up.EventTransactionCreated, "tx-1")

	outcome, err := e.Classify(context.Background(), "primary", body, up.Sign(primarySecret, body))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Action != ActionProcess {
		t.Fatalf("want ActionProcess, got %+v", outcome)
	}
	if outcome.Transaction == nil || outcome.Account == nil {
		t.Fatal("outcome must carry the fetched records")
	}
	if fetchedTx != "tx-1" || fetchedAcc != "acc-1" {
		t.Errorf("fetched %q / %q", fetchedTx, fetchedAcc)
	}
}

func TestClassifySkipsTransferCreditSide(t *testing.T) {
	src := &mockSource{
		TransactionFunc: func(ctx context.Context, id string) (*up.Transaction, error) {
			tx := debitTransaction(id, "acc-2")
			tx.Amount = up.Money{CurrencyCode: "AUD", Value: "5.00", ValueInBaseUnits: 500}
			tx.TransferAccountID = "acc-1"
			return tx, nil
		},
		AccountFunc: func(ctx context.Context, id string) (*up.Account, error) {
			t.Fatal("credit-side skip must fire before the account fetch")
			return nil, nil
		},
	}
	e := newTestEngine(src, &mockSource{}, &mockDest{})
	body := eventBody(t, up.EventTransactionCreated, "tx-credit")

	outcome, err := e.Classify(context.Background(), "primary", body, up.Sign(primarySecret, body))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Action != ActionIgnore {
		t.Fatalf("credit side must be ignored, got %+v", outcome)
	}
}

func TestClassifyProcessesTransferDebitSide(t *testing.T) {
	src := &mockSource{
		TransactionFunc: func(ctx context.Context, id string) (*up.Transaction, error) {
			tx := debitTransaction(id, "acc-1")
			tx.Amount = up.Money{CurrencyCode: "AUD", Value: "-5.00", ValueInBaseUnits: -500}
			tx.TransferAccountID = "acc-2"
			return tx, nil
		},
		AccountFunc: func(ctx context.Context, id string) (*up.Account, error) {
			return individualAccount(id), nil
		},
	}
	e := newTestEngine(src, &mockSource{}, &mockDest{})
	body := eventBody(t, up.EventTransactionCreated, "tx-debit")

	outcome, err := e.Classify(context.Background(), "primary", body, up.Sign(primarySecret, body))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Action != ActionProcess {
		t.Fatalf("debit side must be processed, got %+v", outcome)
	}
}

func TestClassifyJointAccountRouting(t *testing.T) {
	joint := func(ctx context.Context, id string) (*up.Account, error) {
		return &up.Account{
			ID:            id,
			DisplayName:   "2Up Spending",
			AccountType:   up.AccountTypeTransactional,
			OwnershipType: up.OwnershipJoint,
		}, nil
	}
	txFetch := func(ctx context.Context, id string) (*up.Transaction, error) {
		return debitTransaction(id, "acc-joint"), nil
	}
	primary := &mockSource{TransactionFunc: txFetch, AccountFunc: joint}
	secondary := &mockSource{TransactionFunc: txFetch, AccountFunc: joint}
	e := newTestEngine(primary, secondary, &mockDest{})
	body := eventBody(t, up.EventTransactionSettled, "tx-1")

	// Via secondary: skipped.
	outcome, err := e.Classify(context.Background(), "secondary", body, up.Sign(secondarySecret, body))
	if err != nil {
		t.Fatalf("Classify secondary: %v", err)
	}
	if outcome.Action != ActionIgnore {
		t.Fatalf("joint via secondary must be ignored, got %+v", outcome)
	}

	// Identical event via primary: processed.
	outcome, err = e.Classify(context.Background(), "primary", body, up.Sign(primarySecret, body))
	if err != nil {
		t.Fatalf("Classify primary: %v", err)
	}
	if outcome.Action != ActionProcess {
		t.Fatalf("joint via primary must be processed, got %+v", outcome)
	}
}

func TestClassifyDeletedIsLogOnly(t *testing.T) {
	src := &mockSource{
		TransactionFunc: func(ctx context.Context, id string) (*up.Transaction, error) {
			t.Fatal("deleted events must not trigger a fetch")
			return nil, nil
		},
	}
	e := newTestEngine(src, &mockSource{}, &mockDest{})
	body := eventBody(t, up.EventTransactionDeleted, "tx-1")

	outcome, err := e.Classify(context.Background(), "primary", body, up.Sign(primarySecret, body))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Action != ActionIgnore {
		t.Fatalf("got %+v", outcome)
	}
}

func TestClassifyIgnoresUnknownEventTypes(t *testing.T) {
	e := newTestEngine(&mockSource{}, &mockSource{}, &mockDest{})
	body := eventBody(t, up.EventPing, "")

	outcome, err := e.Classify(context.Background(), "primary", body, up.Sign(primarySecret, body))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Action != ActionIgnore {
		t.Fatalf("got %+v", outcome)
	}
}
