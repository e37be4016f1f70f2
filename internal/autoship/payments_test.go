package autoship

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/internal/cards"
	"github.com/auroralife/aurora-backend/internal/tokens"
	"github.com/auroralife/aurora-backend/pkg/config"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/logger"
	"github.com/auroralife/aurora-backend/pkg/pagination"
)

type fakeRepo struct {
	autoships   map[uuid.UUID]*models.Autoship
	payments    []models.AutoshipPayment
	runs        []models.AutoshipRun
	items       []models.AutoshipItem
	adjustments []models.AutoshipAdjustment
	due         []models.Autoship
	state       enums.AutoshipState
	schedule    struct {
		lastRun time.Time
		nextRun time.Time
		updated bool
	}

	deactivateErr    error
	createPaymentErr error
	updateStateErr   error
	createRunErr     error
	dueErr           error
}

func (f *fakeRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepo) Create(_ context.Context, autoship *models.Autoship) error {
	if autoship.ID == uuid.Nil {
		autoship.ID = uuid.New()
	}
	if f.autoships == nil {
		f.autoships = map[uuid.UUID]*models.Autoship{}
	}
	stored := *autoship
	f.autoships[autoship.ID] = &stored
	f.items = append(f.items, autoship.Items...)
	f.adjustments = append(f.adjustments, autoship.Adjustments...)
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Autoship, error) {
	autoship, ok := f.autoships[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *autoship
	found.Items = f.items
	found.Adjustments = f.adjustments
	return &found, nil
}

func (f *fakeRepo) FindDueByDate(context.Context, time.Time) ([]models.Autoship, error) {
	return f.due, f.dueErr
}

func (f *fakeRepo) UpdateState(_ context.Context, id uuid.UUID, state enums.AutoshipState) error {
	if f.updateStateErr != nil {
		return f.updateStateErr
	}
	f.state = state
	if autoship, ok := f.autoships[id]; ok {
		autoship.State = state
	}
	return nil
}

func (f *fakeRepo) UpdateSchedule(_ context.Context, _ uuid.UUID, lastRun, nextRun time.Time) error {
	f.schedule.lastRun = lastRun
	f.schedule.nextRun = nextRun
	f.schedule.updated = true
	return nil
}

func (f *fakeRepo) UpdateSettings(_ context.Context, id uuid.UUID, updates map[string]any) error {
	autoship, ok := f.autoships[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if day, ok := updates["active_date"].(int); ok {
		autoship.ActiveDate = day
	}
	if freq, ok := updates["frequency_by_month"].(int); ok {
		autoship.FrequencyByMonth = freq
	}
	if next, ok := updates["next_autoship_date"].(time.Time); ok {
		nextRun := next
		autoship.NextAutoshipDate = &nextRun
	}
	if start, ok := updates["start_date"].(time.Time); ok {
		startDate := start
		autoship.StartDate = &startDate
	}
	return nil
}

func (f *fakeRepo) ReplaceItems(_ context.Context, _ uuid.UUID, items []models.AutoshipItem) error {
	f.items = items
	return nil
}

func (f *fakeRepo) FindItems(context.Context, uuid.UUID) ([]models.AutoshipItem, error) {
	return f.items, nil
}

func (f *fakeRepo) ReplaceAdjustments(_ context.Context, _ uuid.UUID, adjustments []models.AutoshipAdjustment) error {
	f.adjustments = adjustments
	return nil
}

func (f *fakeRepo) FindActiveAdjustments(context.Context, uuid.UUID) ([]models.AutoshipAdjustment, error) {
	var active []models.AutoshipAdjustment
	for _, adjustment := range f.adjustments {
		if adjustment.Active {
			active = append(active, adjustment)
		}
	}
	return active, nil
}

func (f *fakeRepo) DeactivatePayments(context.Context, uuid.UUID) error {
	if f.deactivateErr != nil {
		return f.deactivateErr
	}
	for i := range f.payments {
		f.payments[i].Active = false
	}
	return nil
}

func (f *fakeRepo) CreatePayment(_ context.Context, payment *models.AutoshipPayment) error {
	if f.createPaymentErr != nil {
		return f.createPaymentErr
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.payments = append(f.payments, *payment)
	return nil
}

func (f *fakeRepo) FindActivePayment(context.Context, uuid.UUID) (*models.AutoshipPayment, error) {
	for i := range f.payments {
		if f.payments[i].Active {
			return &f.payments[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateRun(_ context.Context, run *models.AutoshipRun) error {
	if f.createRunErr != nil {
		return f.createRunErr
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRepo) ListRuns(_ context.Context, _ uuid.UUID, params pagination.Params) ([]models.AutoshipRun, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	if len(f.runs) > limit {
		page := f.runs[:limit]
		last := page[limit-1]
		return page, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return f.runs, nil, nil
}

func (f *fakeRepo) activeCount() int {
	var count int
	for _, payment := range f.payments {
		if payment.Active {
			count++
		}
	}
	return count
}

type fakeCards struct {
	cards       map[uuid.UUID]*models.CreditCard
	createErr   error
	tokenErr    error
	withTxCalls int
}

func newFakeCards() *fakeCards {
	return &fakeCards{cards: map[uuid.UUID]*models.CreditCard{}}
}

func (f *fakeCards) WithTx(*gorm.DB) cards.Repository {
	f.withTxCalls++
	return f
}

func (f *fakeCards) FindByUser(_ context.Context, userID uuid.UUID) ([]models.CreditCard, error) {
	var rows []models.CreditCard
	for _, card := range f.cards {
		if card.UserID == userID {
			rows = append(rows, *card)
		}
	}
	return rows, nil
}

func (f *fakeCards) Create(_ context.Context, card *models.CreditCard) error {
	if f.createErr != nil {
		return f.createErr
	}
	card.ID = uuid.New()
	stored := *card
	f.cards[card.ID] = &stored
	return nil
}

func (f *fakeCards) FindByID(_ context.Context, id uuid.UUID) (*models.CreditCard, error) {
	card, ok := f.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return card, nil
}

func (f *fakeCards) SetPaymentToken(_ context.Context, id uuid.UUID, tokenID string) error {
	if f.tokenErr != nil {
		return f.tokenErr
	}
	card, ok := f.cards[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	card.PaymentTokenID = &tokenID
	return nil
}

type fakeMethods struct {
	byID   map[uuid.UUID]*models.PaymentMethod
	byCash map[string]*models.PaymentMethod
}

func newFakeMethods(methods ...*models.PaymentMethod) *fakeMethods {
	f := &fakeMethods{byID: map[uuid.UUID]*models.PaymentMethod{}, byCash: map[string]*models.PaymentMethod{}}
	for _, method := range methods {
		f.byID[method.ID] = method
		if method.Category == enums.PaymentCategoryCash && method.CountryISO != nil {
			f.byCash[*method.CountryISO] = method
		}
	}
	return f
}

func (f *fakeMethods) FindByID(_ context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	method, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return method, nil
}

func (f *fakeMethods) FindCashByCountry(_ context.Context, countryISO string) (*models.PaymentMethod, error) {
	method, ok := f.byCash[countryISO]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return method, nil
}

type fakeDirectory struct {
	users     map[uuid.UUID]*models.User
	addresses map[uuid.UUID]*models.Address
}

func (f *fakeDirectory) User(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeDirectory) Address(_ context.Context, id uuid.UUID) (*models.Address, error) {
	address, ok := f.addresses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return address, nil
}

type fakeTokenClient struct {
	calls   int
	tokenID string
	err     error
	lastReq tokens.TokenRequest
}

func (f *fakeTokenClient) CreateToken(_ context.Context, req tokens.TokenRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.tokenID, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "aurora-test", Output: io.Discard})
}

type resolverFixture struct {
	repo      *fakeRepo
	cards     *fakeCards
	methods   *fakeMethods
	directory *fakeDirectory
	tokens    *fakeTokenClient
	autoship  *models.Autoship
	cardPM    *models.PaymentMethod
	cashPM    *models.PaymentMethod
}

func newResolverFixture(t *testing.T, country string) (*resolverFixture, PaymentResolver) {
	t.Helper()

	userID := uuid.New()
	billingID := uuid.New()
	cardPM := &models.PaymentMethod{ID: uuid.New(), Code: "visa", Name: "Visa", Category: enums.PaymentCategoryCreditCard}
	cashCountry := country
	cashPM := &models.PaymentMethod{ID: uuid.New(), Code: "cash", Name: "Cash", Category: enums.PaymentCategoryCash, CountryISO: &cashCountry}

	fixture := &resolverFixture{
		repo:    &fakeRepo{state: enums.AutoshipStateCart},
		cards:   newFakeCards(),
		methods: newFakeMethods(cardPM, cashPM),
		directory: &fakeDirectory{
			users: map[uuid.UUID]*models.User{userID: {ID: userID, FirstName: "Ada", LastName: "Sato"}},
			addresses: map[uuid.UUID]*models.Address{billingID: {
				ID: billingID, UserID: userID, FirstName: "Ada", LastName: "Sato",
				Street: "1 Main St", City: "Austin", Zip: "78701",
				State: "Texas", StateAbbr: "TX", CountryISO: country,
			}},
		},
		tokens: &fakeTokenClient{tokenID: "tok_abc"},
		autoship: &models.Autoship{
			ID:               uuid.New(),
			UserID:           userID,
			State:            enums.AutoshipStateCart,
			BillingAddressID: billingID,
			ActiveDate:       15,
			FrequencyByMonth: 1,
		},
		cardPM: cardPM,
		cashPM: cashPM,
	}

	resolver, err := NewPaymentResolver(ResolverParams{
		Logger:            testLogger(),
		Repo:              fixture.repo,
		Cards:             fixture.cards,
		PaymentMethods:    fixture.methods,
		Directory:         fixture.directory,
		Tokens:            fixture.tokens,
		TransactionRunner: fakeTxRunner{},
		Config:            config.AutoshipConfig{CashEnabled: true, TokenCountries: []string{"US", "CA"}},
	})
	if err != nil {
		t.Fatalf("NewPaymentResolver: %v", err)
	}
	return fixture, resolver
}

func cardInput() AttachPaymentInput {
	return AttachPaymentInput{
		CreditCard: &CardInput{Number: "4111111111111111", ExpMonth: 4, ExpYear: 2030, CVV: "123"},
		CreatedBy:  "test",
	}
}

func TestTokenEligible(t *testing.T) {
	fixture, resolver := newResolverFixture(t, "US")
	eligible, err := resolver.TokenEligible(context.Background(), fixture.autoship)
	if err != nil {
		t.Fatalf("TokenEligible: %v", err)
	}
	if !eligible {
		t.Fatal("expected US billing address to be token eligible")
	}

	fixture, resolver = newResolverFixture(t, "MX")
	eligible, err = resolver.TokenEligible(context.Background(), fixture.autoship)
	if err != nil {
		t.Fatalf("TokenEligible: %v", err)
	}
	if eligible {
		t.Fatal("expected MX billing address to be ineligible")
	}
}

func TestAttachPayment(t *testing.T) {
	t.Run("tokenizes and activates a card payment", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "US")
		input := cardInput()
		input.PaymentMethodID = fixture.cardPM.ID

		payment, err := resolver.AttachPayment(context.Background(), fixture.autoship, input)
		if err != nil {
			t.Fatalf("AttachPayment: %v", err)
		}
		if payment.CreditCardID == nil {
			t.Fatal("expected payment to reference a card")
		}
		card, err := fixture.cards.FindByID(context.Background(), *payment.CreditCardID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if card.PaymentTokenID == nil || *card.PaymentTokenID != "tok_abc" {
			t.Fatalf("expected stored token tok_abc, got %v", card.PaymentTokenID)
		}
		if card.Last4 != "1111" {
			t.Fatalf("expected last4 1111, got %q", card.Last4)
		}
		if fixture.tokens.lastReq.BillingAddress.CountryISO != "US" {
			t.Fatalf("unexpected token request country %q", fixture.tokens.lastReq.BillingAddress.CountryISO)
		}
		if fixture.repo.state != enums.AutoshipStateComplete {
			t.Fatalf("expected autoship state complete, got %s", fixture.repo.state)
		}
		if fixture.cards.withTxCalls != 1 {
			t.Fatalf("expected card writes to go through the transaction, got %d WithTx calls", fixture.cards.withTxCalls)
		}
	})

	t.Run("skips tokenization for ineligible countries", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "MX")
		input := cardInput()
		input.PaymentMethodID = fixture.cardPM.ID

		payment, err := resolver.AttachPayment(context.Background(), fixture.autoship, input)
		if err != nil {
			t.Fatalf("AttachPayment: %v", err)
		}
		if fixture.tokens.calls != 0 {
			t.Fatalf("expected no tokenization calls, got %d", fixture.tokens.calls)
		}
		card, err := fixture.cards.FindByID(context.Background(), *payment.CreditCardID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if card.PaymentTokenID != nil {
			t.Fatalf("expected no stored token, got %q", *card.PaymentTokenID)
		}
		if fixture.repo.state != enums.AutoshipStateComplete {
			t.Fatalf("expected autoship state complete, got %s", fixture.repo.state)
		}
	})

	t.Run("attaches cash when enabled", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "US")

		payment, err := resolver.AttachPayment(context.Background(), fixture.autoship, AttachPaymentInput{
			PaymentMethodID: fixture.cashPM.ID,
			CreatedBy:       "test",
		})
		if err != nil {
			t.Fatalf("AttachPayment: %v", err)
		}
		if payment.CreditCardID != nil {
			t.Fatal("expected cash payment without a card reference")
		}
		if fixture.repo.state != enums.AutoshipStateComplete {
			t.Fatalf("expected autoship state complete, got %s", fixture.repo.state)
		}
	})

	t.Run("rejects cash when disabled and cancels the subscription", func(t *testing.T) {
		fixture, _ := newResolverFixture(t, "US")
		resolver, err := NewPaymentResolver(ResolverParams{
			Logger:            testLogger(),
			Repo:              fixture.repo,
			Cards:             fixture.cards,
			PaymentMethods:    fixture.methods,
			Directory:         fixture.directory,
			Tokens:            fixture.tokens,
			TransactionRunner: fakeTxRunner{},
			Config:            config.AutoshipConfig{CashEnabled: false, TokenCountries: []string{"US"}},
		})
		if err != nil {
			t.Fatalf("NewPaymentResolver: %v", err)
		}

		_, err = resolver.AttachPayment(context.Background(), fixture.autoship, AttachPaymentInput{
			PaymentMethodID: fixture.cashPM.ID,
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidPaymentMethod) {
			t.Fatalf("expected INVALID_PAYMENT_METHOD_ID, got %v", err)
		}
		if fixture.repo.state != enums.AutoshipStateCancelled {
			t.Fatalf("expected autoship state cancelled, got %s", fixture.repo.state)
		}
	})

	t.Run("rejects unknown payment methods", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "US")

		_, err := resolver.AttachPayment(context.Background(), fixture.autoship, AttachPaymentInput{
			PaymentMethodID: uuid.New(),
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidPaymentMethod) {
			t.Fatalf("expected INVALID_PAYMENT_METHOD_ID, got %v", err)
		}
		if fixture.repo.state != enums.AutoshipStateCancelled {
			t.Fatalf("expected autoship state cancelled, got %s", fixture.repo.state)
		}
	})

	t.Run("cancels the subscription when tokenization fails", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "US")
		fixture.tokens.err = pkgerrors.New(pkgerrors.CodePaymentTokenFailed, "provider unavailable")
		input := cardInput()
		input.PaymentMethodID = fixture.cardPM.ID

		_, err := resolver.AttachPayment(context.Background(), fixture.autoship, input)
		if !pkgerrors.HasCode(err, pkgerrors.CodePaymentTokenFailed) {
			t.Fatalf("expected CREATE_PAYMENT_TOKEN_FAILED, got %v", err)
		}
		if fixture.repo.state != enums.AutoshipStateCancelled {
			t.Fatalf("expected autoship state cancelled, got %s", fixture.repo.state)
		}
		if fixture.repo.activeCount() != 0 {
			t.Fatalf("expected no active payments, got %d", fixture.repo.activeCount())
		}
		if fixture.cards.withTxCalls != 1 {
			t.Fatalf("expected the card row to be created inside the transaction, got %d WithTx calls", fixture.cards.withTxCalls)
		}
	})

	t.Run("keeps at most one active payment across repeated attaches", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "US")

		for i := 0; i < 4; i++ {
			input := cardInput()
			input.PaymentMethodID = fixture.cardPM.ID
			if i%2 == 1 {
				input = AttachPaymentInput{PaymentMethodID: fixture.cashPM.ID, CreatedBy: "test"}
			}
			if _, err := resolver.AttachPayment(context.Background(), fixture.autoship, input); err != nil {
				t.Fatalf("AttachPayment %d: %v", i, err)
			}
			if fixture.repo.activeCount() != 1 {
				t.Fatalf("after attach %d expected exactly one active payment, got %d", i, fixture.repo.activeCount())
			}
		}
	})

	t.Run("requires card details for card methods", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "US")

		_, err := resolver.AttachPayment(context.Background(), fixture.autoship, AttachPaymentInput{
			PaymentMethodID: fixture.cardPM.ID,
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidPaymentMethod) {
			t.Fatalf("expected INVALID_PAYMENT_METHOD_ID, got %v", err)
		}
	})

	t.Run("surfaces state update failures", func(t *testing.T) {
		fixture, resolver := newResolverFixture(t, "US")
		fixture.repo.updateStateErr = fmt.Errorf("connection reset")
		input := cardInput()
		input.PaymentMethodID = fixture.cardPM.ID

		if _, err := resolver.AttachPayment(context.Background(), fixture.autoship, input); err == nil {
			t.Fatal("expected an error when the state update fails")
		}
	})
}
