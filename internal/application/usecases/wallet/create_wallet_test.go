package wallet_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/usecases/wallet"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	domainerrors "github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

type stubUserRepo struct {
	users map[uuid.UUID]*entities.User
}

func (r *stubUserRepo) Save(_ context.Context, u *entities.User) error {
	r.users[u.ID()] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domainerrors.ErrNoSuchUser
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Username() == username {
			return u, nil
		}
	}
	return nil, domainerrors.ErrNoSuchUser
}

func (r *stubUserRepo) FindByPhone(_ context.Context, phone valueobjects.PhoneNumber) (*entities.User, error) {
	for _, u := range r.users {
		if u.PhoneNumber().Equals(phone) {
			return u, nil
		}
	}
	return nil, domainerrors.ErrNoSuchUser
}

type stubWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*entities.Wallet
}

func (r *stubWalletRepo) Create(_ context.Context, w *entities.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.UserID() == w.UserID() {
			return domainerrors.ErrEntityAlreadyExists
		}
		if existing.PhoneNumber().Equals(w.PhoneNumber()) {
			return domainerrors.ErrDuplicatePhone
		}
	}
	r.wallets[w.ID()] = w
	return nil
}

func (r *stubWalletRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[id]; ok {
		return w, nil
	}
	return nil, domainerrors.ErrWalletNotFound
}

func (r *stubWalletRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.UserID() == userID {
			return w, nil
		}
	}
	return nil, domainerrors.ErrWalletNotFound
}

func (r *stubWalletRepo) FindByPhone(_ context.Context, phone valueobjects.PhoneNumber) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.PhoneNumber().Equals(phone) {
			return w, nil
		}
	}
	return nil, domainerrors.ErrWalletNotFound
}

func (r *stubWalletRepo) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *stubWalletRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return r.FindByID(ctx, id)
}

func (r *stubWalletRepo) ApplyDelta(_ context.Context, w *entities.Wallet, delta valueobjects.Money) error {
	return w.ApplyDelta(delta)
}

type stubNotifier struct {
	published []events.DomainEvent
}

func (n *stubNotifier) Publish(_ context.Context, ev events.DomainEvent) error {
	n.published = append(n.published, ev)
	return nil
}

func (n *stubNotifier) PublishAll(ctx context.Context, evs []events.DomainEvent) error {
	for _, ev := range evs {
		if err := n.Publish(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

type passthroughUow struct{}

func (passthroughUow) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passthroughUow) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

func seedUser(t *testing.T, users *stubUserRepo, username, phone string) *entities.User {
	t.Helper()
	u, err := entities.NewUser(username, username+"@example.com", valueobjects.MustNewPhoneNumber(phone), false)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if err := users.Save(context.Background(), u); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return u
}

func TestCreateWalletProvisionsZeroBalanceWallet(t *testing.T) {
	users := &stubUserRepo{users: make(map[uuid.UUID]*entities.User)}
	wallets := &stubWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}
	notifier := &stubNotifier{}
	alice := seedUser(t, users, "alice", "96170000001")

	uc := wallet.NewCreateWalletUseCase(users, wallets, notifier, passthroughUow{})
	dto, err := uc.Execute(context.Background(), dtos.CreateWalletCommand{UserID: alice.ID().String()})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if dto.Balance != "0.00" {
		t.Errorf("balance = %q, want 0.00", dto.Balance)
	}
	if dto.Currency != "USD" {
		t.Errorf("currency = %q, want default USD", dto.Currency)
	}
	if dto.PhoneNumber != "96170000001" {
		t.Errorf("phone = %q, want the user's phone", dto.PhoneNumber)
	}
	if !dto.IsActive {
		t.Error("new wallets start active")
	}

	if len(notifier.published) != 1 || notifier.published[0].EventType() != events.EventTypeWalletCreated {
		t.Errorf("published = %v, want one wallet.created", notifier.published)
	}
}

func TestCreateWalletSecondCallFailsAlreadyExists(t *testing.T) {
	users := &stubUserRepo{users: make(map[uuid.UUID]*entities.User)}
	wallets := &stubWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}
	alice := seedUser(t, users, "alice", "96170000001")

	uc := wallet.NewCreateWalletUseCase(users, wallets, &stubNotifier{}, passthroughUow{})
	cmd := dtos.CreateWalletCommand{UserID: alice.ID().String()}

	if _, err := uc.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := uc.Execute(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrEntityAlreadyExists) {
		t.Errorf("error = %v, want ErrEntityAlreadyExists", err)
	}
}

func TestCreateWalletUnknownUser(t *testing.T) {
	users := &stubUserRepo{users: make(map[uuid.UUID]*entities.User)}
	wallets := &stubWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}

	uc := wallet.NewCreateWalletUseCase(users, wallets, &stubNotifier{}, passthroughUow{})
	_, err := uc.Execute(context.Background(), dtos.CreateWalletCommand{UserID: uuid.NewString()})
	if !errors.Is(err, domainerrors.ErrNoSuchUser) {
		t.Errorf("error = %v, want ErrNoSuchUser", err)
	}
}

func TestCreateWalletCustomCurrency(t *testing.T) {
	users := &stubUserRepo{users: make(map[uuid.UUID]*entities.User)}
	wallets := &stubWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}
	alice := seedUser(t, users, "alice", "96170000001")

	uc := wallet.NewCreateWalletUseCase(users, wallets, &stubNotifier{}, passthroughUow{})
	dto, err := uc.Execute(context.Background(), dtos.CreateWalletCommand{
		UserID:       alice.ID().String(),
		CurrencyCode: "EUR",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if dto.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", dto.Currency)
	}

	if _, err := uc.Execute(context.Background(), dtos.CreateWalletCommand{
		UserID:       alice.ID().String(),
		CurrencyCode: "XXX",
	}); err == nil {
		t.Error("unsupported currency must fail")
	}
}

func TestGetWalletReturnsBalance(t *testing.T) {
	users := &stubUserRepo{users: make(map[uuid.UUID]*entities.User)}
	wallets := &stubWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}
	notifier := &stubNotifier{}
	alice := seedUser(t, users, "alice", "96170000001")

	create := wallet.NewCreateWalletUseCase(users, wallets, notifier, passthroughUow{})
	created, err := create.Execute(context.Background(), dtos.CreateWalletCommand{UserID: alice.ID().String()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	get := wallet.NewGetWalletUseCase(wallets)
	got, err := get.Execute(context.Background(), dtos.GetWalletQuery{UserID: alice.ID().String()})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("wallet id = %s, want %s", got.ID, created.ID)
	}

	_, err = get.Execute(context.Background(), dtos.GetWalletQuery{UserID: uuid.NewString()})
	if !errors.Is(err, domainerrors.ErrWalletNotFound) {
		t.Errorf("error = %v, want ErrWalletNotFound", err)
	}
}
