package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/utils"
)

// In-memory doubles for the storage and notifier surfaces. They are mutex
// guarded so the pipeline can be exercised from concurrent goroutines.

type ledgerEntry struct {
	Payload      json.RawMessage
	Processed    bool
	Finalized    bool
	ErrorMessage *string
	OrderID      *string
}

type fakeLedger struct {
	mu        sync.Mutex
	entries   map[string]*ledgerEntry
	nextID    int
	createErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]*ledgerEntry)}
}

func (f *fakeLedger) Create(_ context.Context, payload json.RawMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("log-%d", f.nextID)
	f.entries[id] = &ledgerEntry{Payload: payload}
	return id, nil
}

func (f *fakeLedger) Finalize(_ context.Context, id string, processed bool, errorMessage *string, orderID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return fmt.Errorf("no ledger entry %s", id)
	}
	entry.Finalized = true
	entry.Processed = processed
	entry.ErrorMessage = errorMessage
	entry.OrderID = orderID
	return nil
}

func (f *fakeLedger) entry(id string) *ledgerEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[id]
}

func (f *fakeLedger) lastEntry() *ledgerEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[fmt.Sprintf("log-%d", f.nextID)]
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeOrderStore struct {
	mu         sync.Mutex
	byID       map[string]*models.Order
	byExternal map[string]string
	nextID     int
	createErr  error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		byID:       make(map[string]*models.Order),
		byExternal: make(map[string]string),
	}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byExternal[order.ExternalID]; exists {
		return utils.ErrDuplicateOrder
	}
	f.nextID++
	order.ID = fmt.Sprintf("order-%d", f.nextID)
	order.CreatedAt = time.Now()
	stored := *order
	f.byID[order.ID] = &stored
	f.byExternal[order.ExternalID] = order.ID
	return nil
}

func (f *fakeOrderStore) GetByExternalID(_ context.Context, externalID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byExternal[externalID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *f.byID[id]
	return &copied, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	order.Status = status
	return nil
}

func (f *fakeOrderStore) BeginDelivery(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if order.DeliveryStatus != models.DeliveryPending && order.DeliveryStatus != models.DeliveryError {
		return false, nil
	}
	order.DeliveryStatus = models.DeliveryInProgress
	return true, nil
}

func (f *fakeOrderStore) MarkDelivered(_ context.Context, id string, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	if order.DeliveryStatus != models.DeliveryInProgress {
		return nil
	}
	now := time.Now()
	order.Status = models.OrderCompleted
	order.DeliveryStatus = models.DeliveryDelivered
	order.AccountID = &accountID
	order.DeliveredAt = &now
	order.CompletedAt = &now
	order.ErrorMessage = nil
	return nil
}

func (f *fakeOrderStore) MarkDeliveryFailed(_ context.Context, id string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	order.Status = models.OrderFailed
	order.DeliveryStatus = models.DeliveryError
	order.ErrorMessage = &reason
	return nil
}

func (f *fakeOrderStore) get(id string) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id]
	if !ok {
		return nil
	}
	copied := *order
	return &copied
}

func (f *fakeOrderStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeAccountStore struct {
	mu         sync.Mutex
	accounts   []*models.Account
	raceLosses int
}

func newFakeAccountStore(productID string, n int) *fakeAccountStore {
	f := &fakeAccountStore{}
	for i := 0; i < n; i++ {
		f.accounts = append(f.accounts, &models.Account{
			ID:        fmt.Sprintf("acct-%s-%d", productID, i+1),
			ProductID: productID,
			Email:     fmt.Sprintf("acct%d@example.com", i+1),
			Password:  "secret",
			Status:    models.AccountAvailable,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}
	return f
}

func (f *fakeAccountStore) add(productID string, n int) {
	other := newFakeAccountStore(productID, n)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, other.accounts...)
}

func (f *fakeAccountStore) Claim(_ context.Context, productID string, soldTo *string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceLosses > 0 {
		f.raceLosses--
		return nil, utils.ErrClaimRaceLost
	}
	for _, account := range f.accounts {
		if account.ProductID != productID || account.Status != models.AccountAvailable {
			continue
		}
		now := time.Now()
		account.Status = models.AccountSold
		account.IsSold = true
		account.SoldAt = &now
		account.SoldTo = soldTo
		copied := *account
		return &copied, nil
	}
	return nil, utils.ErrClaimRaceLost
}

func (f *fakeAccountStore) CountAvailable(_ context.Context, productID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, account := range f.accounts {
		if account.ProductID == productID && account.Status == models.AccountAvailable {
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	To        string
	AccountID string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) SendCredentials(_ context.Context, toEmail string, _ *string, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: toEmail, AccountID: account.ID})
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeStockCache struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (f *fakeStockCache) Invalidate(_ context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.invalidated = append(f.invalidated, productID)
	return nil
}

var errStorageDown = errors.New("storage down")
