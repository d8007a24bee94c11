package transaction_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// In-memory fakes implementing the ports. Row locking degenerates to plain
// lookups here; the use cases under test still exercise the same call shape
// they use against the real store.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entities.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*entities.User)}
}

func (r *memUserRepo) Save(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID()] = user
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errors.ErrNoSuchUser
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username() == username {
			return u, nil
		}
	}
	return nil, errors.ErrNoSuchUser
}

func (r *memUserRepo) FindByPhone(_ context.Context, phone valueobjects.PhoneNumber) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber().Equals(phone) {
			return u, nil
		}
	}
	return nil, errors.ErrNoSuchUser
}

type memWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*entities.Wallet

	// forUpdateCalls counts row-lock acquisitions.
	forUpdateCalls int
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}
}

func (r *memWalletRepo) Create(_ context.Context, wallet *entities.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.UserID() == wallet.UserID() {
			return errors.ErrEntityAlreadyExists
		}
		if w.PhoneNumber().Equals(wallet.PhoneNumber()) {
			return errors.ErrDuplicatePhone
		}
	}
	r.wallets[wallet.ID()] = wallet
	return nil
}

func (r *memWalletRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[id]; ok {
		return w, nil
	}
	return nil, errors.ErrWalletNotFound
}

func (r *memWalletRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.UserID() == userID {
			return w, nil
		}
	}
	return nil, errors.ErrWalletNotFound
}

func (r *memWalletRepo) FindByPhone(_ context.Context, phone valueobjects.PhoneNumber) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.PhoneNumber().Equals(phone) {
			return w, nil
		}
	}
	return nil, errors.ErrWalletNotFound
}

func (r *memWalletRepo) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	r.forUpdateCalls++
	r.mu.Unlock()
	return r.FindByUserID(ctx, userID)
}

func (r *memWalletRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	r.forUpdateCalls++
	r.mu.Unlock()
	return r.FindByID(ctx, id)
}

func (r *memWalletRepo) ApplyDelta(_ context.Context, wallet *entities.Wallet, delta valueobjects.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return wallet.ApplyDelta(delta)
}

type memTransactionRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*entities.Transaction
	wallets *memWalletRepo

	// legLocks records the types of leg rows locked, in acquisition order.
	legLocks []entities.TransactionType
}

func newMemTransactionRepo(wallets *memWalletRepo) *memTransactionRepo {
	return &memTransactionRepo{
		rows:    make(map[uuid.UUID]*entities.Transaction),
		wallets: wallets,
	}
}

func (r *memTransactionRepo) Create(_ context.Context, tx *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Reference() == tx.Reference() && existing.Type() == tx.Type() {
			return errors.ErrEntityAlreadyExists
		}
	}
	r.rows[tx.ID()] = tx
	return nil
}

func (r *memTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx, ok := r.rows[id]; ok {
		return tx, nil
	}
	return nil, errors.ErrEntityNotFound
}

func (r *memTransactionRepo) FindByReferenceAndType(_ context.Context, reference string, txType entities.TransactionType) (*entities.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.rows {
		if tx.Reference() == reference && tx.Type() == txType {
			return tx, nil
		}
	}
	return nil, errors.ErrEntityNotFound
}

func (r *memTransactionRepo) FindByReferenceAndTypeForUpdate(ctx context.Context, reference string, txType entities.TransactionType) (*entities.Transaction, error) {
	r.mu.Lock()
	r.legLocks = append(r.legLocks, txType)
	r.mu.Unlock()
	return r.FindByReferenceAndType(ctx, reference, txType)
}

func (r *memTransactionRepo) FindPendingCashOutForUpdate(ctx context.Context, phone valueobjects.PhoneNumber, code string) (*entities.Transaction, error) {
	r.mu.Lock()
	rows := make([]*entities.Transaction, 0, len(r.rows))
	for _, tx := range r.rows {
		rows = append(rows, tx)
	}
	r.mu.Unlock()

	for _, tx := range rows {
		if tx.Type() != entities.TypeWithdrawal || tx.FundingSource() != entities.SourceBLFATM {
			continue
		}
		if !tx.IsPending() || !strings.HasSuffix(tx.Reference(), code) {
			continue
		}
		wallet, err := r.wallets.FindByID(ctx, tx.WalletID())
		if err != nil {
			continue
		}
		if wallet.PhoneNumber().Equals(phone) {
			return tx, nil
		}
	}
	return nil, errors.ErrInvalidCode
}

func (r *memTransactionRepo) UpdateStatus(_ context.Context, tx *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[tx.ID()]; !ok {
		return errors.ErrEntityNotFound
	}
	r.rows[tx.ID()] = tx
	return nil
}

func (r *memTransactionRepo) FindExpiredPending(_ context.Context, now time.Time, limit int) ([]*entities.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Transaction
	for _, tx := range r.rows {
		if tx.IsPending() && tx.IsExpiredAt(now) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memTransactionRepo) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error) {
	r.mu.Lock()
	rows := make([]*entities.Transaction, 0, len(r.rows))
	for _, tx := range r.rows {
		rows = append(rows, tx)
	}
	r.mu.Unlock()

	var matched []*entities.Transaction
	for _, tx := range rows {
		if !r.participates(ctx, filter.UserID, tx) {
			continue
		}
		if filter.Type != nil && tx.Type() != *filter.Type {
			continue
		}
		if filter.Status != nil && tx.Status() != *filter.Status {
			continue
		}
		if filter.CreatedAfter != nil && !tx.CreatedAt().After(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && !tx.CreatedAt().Before(*filter.CreatedBefore) {
			continue
		}
		matched = append(matched, tx)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt().After(matched[j].CreatedAt()) })

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *memTransactionRepo) participates(ctx context.Context, userID uuid.UUID, tx *entities.Transaction) bool {
	if w, err := r.wallets.FindByID(ctx, tx.WalletID()); err == nil && w.UserID() == userID {
		return true
	}
	if related := tx.RelatedWalletID(); related != nil {
		if w, err := r.wallets.FindByID(ctx, *related); err == nil && w.UserID() == userID {
			return true
		}
	}
	return false
}

// passthroughUow runs the function directly; commit/rollback semantics are
// exercised by the store integration tests, not here.
type passthroughUow struct{}

func (passthroughUow) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passthroughUow) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

type passthroughUowFactory struct{}

func (passthroughUowFactory) New() ports.UnitOfWork { return passthroughUow{} }

type recordingNotifier struct {
	mu        sync.Mutex
	published []events.DomainEvent
}

func (n *recordingNotifier) Publish(_ context.Context, event events.DomainEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, event)
	return nil
}

func (n *recordingNotifier) PublishAll(ctx context.Context, evs []events.DomainEvent) error {
	for _, ev := range evs {
		if err := n.Publish(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (n *recordingNotifier) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.published))
	for i, ev := range n.published {
		out[i] = ev.EventType()
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	pages       map[string][]byte
	invalidated []uuid.UUID
}

func newRecordingCache() *recordingCache {
	return &recordingCache{pages: make(map[string][]byte)}
}

func cacheKey(userID uuid.UUID, page, pageSize int) string {
	return fmt.Sprintf("%s:%d:%d", userID, page, pageSize)
}

func (c *recordingCache) Get(_ context.Context, userID uuid.UUID, page, pageSize int) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.pages[cacheKey(userID, page, pageSize)]
	return payload, ok, nil
}

func (c *recordingCache) Set(_ context.Context, userID uuid.UUID, page, pageSize int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[cacheKey(userID, page, pageSize)] = payload
	return nil
}

func (c *recordingCache) InvalidateUsers(_ context.Context, userIDs ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userIDs...)
	for _, id := range userIDs {
		prefix := id.String() + ":"
		for k := range c.pages {
			if strings.HasPrefix(k, prefix) {
				delete(c.pages, k)
			}
		}
	}
	return nil
}

type memIdempotencyStore struct {
	mu        sync.Mutex
	responses map[string][]byte
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{responses: make(map[string][]byte)}
}

func (s *memIdempotencyStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[key]
	return resp, ok, nil
}

func (s *memIdempotencyStore) Store(_ context.Context, key string, response []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.responses[key]; ok {
		return existing, nil
	}
	s.responses[key] = response
	return response, nil
}

// world bundles the fakes one scenario needs.
type world struct {
	users    *memUserRepo
	wallets  *memWalletRepo
	txs      *memTransactionRepo
	notifier *recordingNotifier
	cache    *recordingCache
	uow      passthroughUow
}

func newWorld() *world {
	wallets := newMemWalletRepo()
	return &world{
		users:    newMemUserRepo(),
		wallets:  wallets,
		txs:      newMemTransactionRepo(wallets),
		notifier: &recordingNotifier{},
		cache:    newRecordingCache(),
	}
}

// seedUserWithWallet creates a user and a funded USD wallet.
func (w *world) seedUserWithWallet(username, phone, balance string) (*entities.User, *entities.Wallet) {
	return w.seedUserWithWalletIn(username, phone, balance, valueobjects.USD)
}

// seedUserWithWalletIn is seedUserWithWallet with an explicit currency.
func (w *world) seedUserWithWalletIn(username, phone, balance string, currency valueobjects.Currency) (*entities.User, *entities.Wallet) {
	u, err := entities.NewUser(username, username+"@example.com", valueobjects.MustNewPhoneNumber(phone), false)
	if err != nil {
		panic(err)
	}
	if err := w.users.Save(context.Background(), u); err != nil {
		panic(err)
	}

	wallet, err := entities.NewWallet(u.ID(), u.PhoneNumber(), currency)
	if err != nil {
		panic(err)
	}
	if err := w.wallets.Create(context.Background(), wallet); err != nil {
		panic(err)
	}
	if balance != "" && balance != "0.00" {
		if err := wallet.ApplyDelta(valueobjects.MustNewMoney(balance, currency)); err != nil {
			panic(err)
		}
	}
	return u, wallet
}
