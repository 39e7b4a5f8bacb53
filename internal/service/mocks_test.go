package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mdsaddlery/storefront/internal/model"
)

// memAccountRepository is an in-memory AccountRepositoryInterface.
// It hands out copies so tests observe only what was persisted.
type memAccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account

	getErr       error
	createErr    error
	updateErr    error
	saveOTPErr   error
	incrementErr error

	saveOTPCalls int
	updateCalls  int
}

func newMemAccountRepository() *memAccountRepository {
	return &memAccountRepository{accounts: map[uuid.UUID]*model.Account{}}
}

func cloneAccount(a *model.Account) *model.Account {
	c := *a
	if a.OTP != nil {
		otp := *a.OTP
		c.OTP = &otp
	}
	return &c
}

func (m *memAccountRepository) put(a *model.Account) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.accounts[a.ID] = cloneAccount(a)
	return a
}

func (m *memAccountRepository) stored(email string) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return cloneAccount(a)
		}
	}
	return nil
}

func (m *memAccountRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *memAccountRepository) Create(ctx context.Context, account *model.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.stored(account.Email) != nil {
		return ErrAccountExists
	}
	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	m.put(account)
	return nil
}

func (m *memAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.stored(email), nil
}

func (m *memAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, nil
}

func (m *memAccountRepository) Update(ctx context.Context, account *model.Account) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	m.put(account)
	return nil
}

func (m *memAccountRepository) SaveOTP(ctx context.Context, id uuid.UUID, otp *model.OTPState) error {
	m.saveOTPCalls++
	if m.saveOTPErr != nil {
		return m.saveOTPErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if otp == nil {
		a.OTP = nil
		return nil
	}
	c := *otp
	a.OTP = &c
	return nil
}

func (m *memAccountRepository) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.OTP == nil {
		return 0, ErrInvalidOTP
	}
	a.OTP.Attempts++
	return a.OTP.Attempts, nil
}

func (m *memAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

// sentOTP records one SendOTP call.
type sentOTP struct {
	To      string
	Name    string
	Code    string
	Purpose model.Purpose
}

// mockMailer implements OTPMailer and OrderMailer.
type mockMailer struct {
	sendOTPFn      func(ctx context.Context, to, name, code string, purpose model.Purpose) error
	confirmationFn func(ctx context.Context, order *model.Order) error
	storeFn        func(ctx context.Context, order *model.Order) error

	sent []sentOTP
}

func (m *mockMailer) SendOTP(ctx context.Context, to, name, code string, purpose model.Purpose) error {
	m.sent = append(m.sent, sentOTP{To: to, Name: name, Code: code, Purpose: purpose})
	if m.sendOTPFn != nil {
		return m.sendOTPFn(ctx, to, name, code, purpose)
	}
	return nil
}

func (m *mockMailer) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	if m.confirmationFn != nil {
		return m.confirmationFn(ctx, order)
	}
	return nil
}

func (m *mockMailer) SendStoreNotification(ctx context.Context, order *model.Order) error {
	if m.storeFn != nil {
		return m.storeFn(ctx, order)
	}
	return nil
}

func (m *mockMailer) lastCode() string {
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Code
}

// issuedToken records one Issue call.
type issuedToken struct {
	AccountID uuid.UUID
	Email     string
	Role      model.Role
	TTL       time.Duration
}

// mockIssuer implements TokenIssuer.
type mockIssuer struct {
	issueErr error
	issued   []issuedToken
}

func (m *mockIssuer) Issue(accountID uuid.UUID, email string, role model.Role, ttl time.Duration) (string, time.Time, error) {
	if m.issueErr != nil {
		return "", time.Time{}, m.issueErr
	}
	m.issued = append(m.issued, issuedToken{AccountID: accountID, Email: email, Role: role, TTL: ttl})
	return "token-" + accountID.String(), time.Now().Add(ttl), nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error

	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func floatPtr(f float64) *float64 {
	return &f
}

func timePtr(t time.Time) *time.Time {
	return &t
}
