package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-space-booking/internal/model"
)

// memStore is an in-memory Store for exercising the accounting rules
// without a database.
type memStore struct {
	balances map[uint64]*model.CreditBalance
	txns     []*model.CreditTransaction
	nextBal  uint64
	nextTxn  uint64
}

func newMemStore() *memStore {
	return &memStore{balances: map[uint64]*model.CreditBalance{}, nextBal: 1, nextTxn: 1}
}

func (m *memStore) ActiveBalance(_ context.Context, userID uint64, ct model.CreditType, at time.Time) (*model.CreditBalance, error) {
	for _, b := range m.balances {
		if b.UserID == userID && b.CreditType == ct && b.Status == model.CycleActive &&
			!at.Before(b.CycleStart) && at.Before(b.CycleEnd) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertBalance(_ context.Context, b *model.CreditBalance) error {
	b.ID = m.nextBal
	m.nextBal++
	cp := *b
	m.balances[b.ID] = &cp
	return nil
}

func (m *memStore) UpdateBalance(_ context.Context, b *model.CreditBalance) error {
	if _, ok := m.balances[b.ID]; !ok {
		return errors.New("balance not found")
	}
	cp := *b
	m.balances[b.ID] = &cp
	return nil
}

func (m *memStore) AppendTransaction(_ context.Context, t *model.CreditTransaction) error {
	t.ID = m.nextTxn
	m.nextTxn++
	cp := *t
	m.txns = append(m.txns, &cp)
	return nil
}

func (m *memStore) UsageTransaction(_ context.Context, txnID uint64) (*model.CreditTransaction, *model.CreditBalance, error) {
	for _, t := range m.txns {
		if t.ID == txnID {
			bal, ok := m.balances[t.BalanceID]
			if !ok {
				return nil, nil, nil
			}
			tc, bc := *t, *bal
			return &tc, &bc, nil
		}
	}
	return nil, nil, nil
}

func (m *memStore) SumTransactions(_ context.Context, balanceID uint64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range m.txns {
		if t.BalanceID == balanceID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (m *memStore) SumRefunds(_ context.Context, usageTxnID uint64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range m.txns {
		if t.Type == model.TxnRefund && t.RelatedTxnID != nil && *t.RelatedTxnID == usageTxnID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (m *memStore) balance(t *testing.T, id uint64) *model.CreditBalance {
	t.Helper()
	b, ok := m.balances[id]
	if !ok {
		t.Fatalf("balance %d not found", id)
	}
	return b
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

var (
	cycleStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cycleEnd   = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	midCycle   = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
)

func newTestLedger(store *memStore) *Ledger {
	l := New(store)
	l.now = func() time.Time { return midCycle }
	return l
}

func allocate(t *testing.T, l *Ledger, userID uint64, hours string) *model.CreditBalance {
	t.Helper()
	bal, err := l.Allocate(context.Background(), userID, model.CreditMeetingRoom, d(hours), cycleStart, cycleEnd)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return bal
}

func TestAllocateOpensCycle(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "10")

	if !bal.Allocated.Equal(d("10")) || !bal.Remaining.Equal(d("10")) || !bal.Used.IsZero() {
		t.Fatalf("unexpected balance: %+v", bal)
	}
	if bal.Status != model.CycleActive {
		t.Fatalf("status = %s", bal.Status)
	}
	if len(store.txns) != 1 || store.txns[0].Type != model.TxnAllocation || !store.txns[0].Amount.Equal(d("10")) {
		t.Fatalf("allocation transaction missing or wrong: %+v", store.txns)
	}

	got, err := l.Balance(context.Background(), 7, model.CreditMeetingRoom)
	if err != nil || !got.Equal(d("10")) {
		t.Fatalf("Balance = %s, %v", got, err)
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	l := newTestLedger(newMemStore())
	if _, err := l.Allocate(context.Background(), 1, model.CreditMeetingRoom, d("0"), cycleStart, cycleEnd); err == nil {
		t.Fatal("zero allocation accepted")
	}
	if _, err := l.Allocate(context.Background(), 1, model.CreditMeetingRoom, d("5"), cycleEnd, cycleStart); err == nil {
		t.Fatal("inverted cycle accepted")
	}
}

func TestBalanceNoActiveCycle(t *testing.T) {
	l := newTestLedger(newMemStore())
	if _, err := l.Balance(context.Background(), 42, model.CreditMeetingRoom); !errors.Is(err, ErrNoActiveCycle) {
		t.Fatalf("err = %v, want ErrNoActiveCycle", err)
	}
}

func TestReserveWithinBalance(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "10")

	res, err := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("3"), 101)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !res.CreditsUsed.Equal(d("3")) || !res.OverageHours.IsZero() {
		t.Fatalf("reservation = %+v", res)
	}
	if res.TransactionID == 0 {
		t.Fatal("usage transaction not recorded")
	}

	after := store.balance(t, bal.ID)
	if !after.Remaining.Equal(d("7")) || !after.Used.Equal(d("3")) {
		t.Fatalf("balance after reserve: %+v", after)
	}
	// Conservation: allocated == used + remaining.
	if !after.Allocated.Equal(after.Used.Add(after.Remaining)) {
		t.Fatalf("conservation violated: %+v", after)
	}

	usage := store.txns[len(store.txns)-1]
	if usage.Type != model.TxnUsage || !usage.Amount.Equal(d("-3")) || usage.BookingID == nil || *usage.BookingID != 101 {
		t.Fatalf("usage transaction wrong: %+v", usage)
	}
}

func TestReserveClampsToRemaining(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "2")

	res, err := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("5"), 102)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !res.CreditsUsed.Equal(d("2")) || !res.OverageHours.Equal(d("3")) {
		t.Fatalf("reservation = %+v", res)
	}
	after := store.balance(t, bal.ID)
	if !after.Remaining.IsZero() {
		t.Fatalf("remaining went negative or stayed positive: %s", after.Remaining)
	}
}

func TestReserveNoCycleAllOverage(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)

	res, err := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("4"), 103)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !res.CreditsUsed.IsZero() || !res.OverageHours.Equal(d("4")) || res.TransactionID != 0 {
		t.Fatalf("reservation = %+v", res)
	}
	if len(store.txns) != 0 {
		t.Fatalf("no transaction should be written, got %d", len(store.txns))
	}
}

func TestReserveRejectsNonPositive(t *testing.T) {
	l := newTestLedger(newMemStore())
	if _, err := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("0"), 1); err == nil {
		t.Fatal("zero reserve accepted")
	}
}

func TestRefundRestoresCredits(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "10")
	res, _ := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("4"), 104)

	restored, err := l.Refund(context.Background(), res.TransactionID, d("4"))
	if err != nil || !restored.Equal(d("4")) {
		t.Fatalf("Refund = %s, %v", restored, err)
	}
	after := store.balance(t, bal.ID)
	if !after.Remaining.Equal(d("10")) || !after.Used.IsZero() {
		t.Fatalf("balance after refund: %+v", after)
	}
}

func TestRefundClampedToUsage(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "10")
	res, _ := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("3"), 105)

	// Ask for more than was used; only the usage amount comes back.
	restored, err := l.Refund(context.Background(), res.TransactionID, d("99"))
	if err != nil || !restored.Equal(d("3")) {
		t.Fatalf("Refund = %s, %v", restored, err)
	}
	after := store.balance(t, bal.ID)
	if !after.Remaining.Equal(d("10")) {
		t.Fatalf("refund minted credits: %+v", after)
	}
}

func TestRefundCumulativeClamp(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "5")
	res, _ := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("2"), 110)

	// First refund restores the full usage.
	restored, err := l.Refund(context.Background(), res.TransactionID, d("2"))
	if err != nil || !restored.Equal(d("2")) {
		t.Fatalf("first Refund = %s, %v", restored, err)
	}
	// A second refund of the same usage entry restores nothing.
	restored, err = l.Refund(context.Background(), res.TransactionID, d("2"))
	if err != nil || !restored.IsZero() {
		t.Fatalf("second Refund = %s, %v; want 0", restored, err)
	}
	after := store.balance(t, bal.ID)
	if !after.Remaining.Equal(d("5")) || !after.Used.IsZero() {
		t.Fatalf("double refund minted credits: %+v", after)
	}
	if err := l.Reconcile(context.Background(), after); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
}

func TestRefundPartialThenRemainderClamped(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "5")
	res, _ := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("3"), 111)

	if restored, err := l.Refund(context.Background(), res.TransactionID, d("1")); err != nil || !restored.Equal(d("1")) {
		t.Fatalf("partial Refund = %s, %v", restored, err)
	}
	// Only two hours of the usage are still refundable.
	restored, err := l.Refund(context.Background(), res.TransactionID, d("3"))
	if err != nil || !restored.Equal(d("2")) {
		t.Fatalf("remainder Refund = %s, %v; want 2", restored, err)
	}
	after := store.balance(t, bal.ID)
	if !after.Remaining.Equal(d("5")) || !after.Used.IsZero() {
		t.Fatalf("balance after refunds: %+v", after)
	}
}

func TestRefundUnknownTransaction(t *testing.T) {
	l := newTestLedger(newMemStore())
	if _, err := l.Refund(context.Background(), 999, d("1")); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestRefundRejectsNonUsageTransaction(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	allocate(t, l, 7, "10")

	// Transaction 1 is the allocation entry, not a usage entry.
	if _, err := l.Refund(context.Background(), 1, d("1")); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestExpireForfeitsRemainder(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "10")
	_, _ = l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("4"), 106)

	fresh := store.balance(t, bal.ID)
	if err := l.Expire(context.Background(), fresh); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if fresh.Status != model.CycleExpired || !fresh.Remaining.IsZero() {
		t.Fatalf("balance after expire: %+v", fresh)
	}
	last := store.txns[len(store.txns)-1]
	if last.Type != model.TxnExpiration || !last.Amount.Equal(d("-6")) {
		t.Fatalf("expiration transaction wrong: %+v", last)
	}

	// Idempotent: a second expire is a no-op.
	txnCount := len(store.txns)
	if err := l.Expire(context.Background(), fresh); err != nil {
		t.Fatalf("second Expire: %v", err)
	}
	if len(store.txns) != txnCount {
		t.Fatal("second expire wrote a transaction")
	}
}

func TestExpireFullyUsedWritesNoTransaction(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "3")
	_, _ = l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("3"), 107)

	fresh := store.balance(t, bal.ID)
	txnCount := len(store.txns)
	if err := l.Expire(context.Background(), fresh); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if len(store.txns) != txnCount {
		t.Fatal("expiration of a zero remainder wrote a transaction")
	}
}

func TestReconcile(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "10")
	res, _ := l.Reserve(context.Background(), 7, model.CreditMeetingRoom, d("4"), 108)
	_, _ = l.Refund(context.Background(), res.TransactionID, d("1"))

	fresh := store.balance(t, bal.ID)
	if err := l.Reconcile(context.Background(), fresh); err != nil {
		t.Fatalf("Reconcile on a healthy ledger: %v", err)
	}

	// Corrupt the projection; Reconcile must notice.
	fresh.Remaining = fresh.Remaining.Add(d("1"))
	if err := l.Reconcile(context.Background(), fresh); !errors.Is(err, ErrLedgerInconsistency) {
		t.Fatalf("err = %v, want ErrLedgerInconsistency", err)
	}
}

func TestReconcileFlagsNegativeUsed(t *testing.T) {
	store := newMemStore()
	l := newTestLedger(store)
	bal := allocate(t, l, 7, "5")

	// A negative Used with a compensating Remaining still satisfies the
	// conservation equation; Reconcile must reject it anyway.
	fresh := store.balance(t, bal.ID)
	fresh.Used = d("-2")
	fresh.Remaining = d("7")
	store.txns = append(store.txns, &model.CreditTransaction{
		BalanceID: bal.ID, Type: model.TxnRefund, Amount: d("2"),
	})
	if err := l.Reconcile(context.Background(), fresh); !errors.Is(err, ErrLedgerInconsistency) {
		t.Fatalf("err = %v, want ErrLedgerInconsistency", err)
	}
}
