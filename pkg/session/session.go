package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/finote/finote/internal/event_bus"
	"github.com/finote/finote/internal/utils"
	"github.com/finote/finote/pkg/ledger"
	"github.com/finote/finote/pkg/profile"
	"github.com/finote/finote/pkg/vault"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// State is the session lifecycle state.
type State string

const (
	StateLoggedOut    State = "logged_out"
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateFlushing     State = "flushing"
)

// Session orchestrates one user's local-first persistence: it owns the
// in-memory ledger store and the profile blob for the lifetime of a
// login, applies every mutation to memory first and then pushes the full
// latest state to the vault. All entry points serialize through one
// mutex, so mutate-then-save is atomic with respect to other mutations.
type Session struct {
	mu     sync.Mutex
	userID string
	state  State

	store   *ledger.Store
	profile profile.Profile

	vault vault.Vault
	clock utils.Clock
	bus   *event_bus.EventBus

	// dirty is set when a durable save failed after the in-memory
	// mutation already succeeded: durable state is behind memory until
	// the next successful save.
	dirty bool
}

func NewSession(v vault.Vault, clock utils.Clock, bus *event_bus.EventBus) *Session {
	return &Session{
		state: StateLoggedOut,
		vault: v,
		clock: clock,
		bus:   bus,
	}
}

// Login loads or seeds the user's store and profile. On any failure the
// session stays logged out and the error is returned wrapped in
// ErrInitialization. A corrupt or absent snapshot is not a failure: it
// falls back to a fresh, seeded store.
func (s *Session) Login(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedOut {
		return fmt.Errorf("%w: user %s", ErrActiveSession, s.userID)
	}
	s.state = StateInitializing
	s.userID = userID

	if err := s.initialize(ctx); err != nil {
		s.reset()
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	s.state = StateReady
	log.Infof("session ready for user %s (%d expenses)", userID, s.store.ExpenseCount())
	return nil
}

func (s *Session) initialize(ctx context.Context) error {
	store, seeded, err := s.loadStore(ctx)
	if err != nil {
		return err
	}
	s.store = store

	p, seededProfile, err := s.loadProfile(ctx)
	if err != nil {
		return err
	}
	s.profile = p

	// Persist the seeds so the next login finds them. Failing here means
	// durable storage is broken before Ready, which aborts the login.
	if seeded {
		if err := s.writeSnapshot(ctx); err != nil {
			return err
		}
	}
	if seededProfile {
		if err := s.writeProfile(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) loadStore(ctx context.Context) (*ledger.Store, bool, error) {
	data, err := s.vault.LoadSnapshot(ctx, s.userID)
	switch {
	case err == nil:
		store, importErr := ledger.Import(data, s.clock)
		if importErr == nil {
			return store, false, nil
		}
		if !errors.Is(importErr, ledger.ErrCorruptSnapshot) {
			return nil, false, importErr
		}
		log.Warnf("snapshot for user %s is corrupt, starting fresh: %v", s.userID, importErr)
	case errors.Is(err, vault.ErrNotFound):
		log.Infof("no snapshot for user %s, starting fresh", s.userID)
	default:
		return nil, false, err
	}

	store := ledger.NewStore(s.clock)
	if err := seedStore(store, s.clock); err != nil {
		return nil, false, err
	}
	return store, true, nil
}

func (s *Session) loadProfile(ctx context.Context) (profile.Profile, bool, error) {
	data, err := s.vault.LoadProfile(ctx, s.userID)
	switch {
	case err == nil:
		p, decodeErr := profile.Decode(data)
		if decodeErr == nil {
			return p, false, nil
		}
		log.Warnf("profile for user %s does not decode, starting fresh: %v", s.userID, decodeErr)
	case errors.Is(err, vault.ErrNotFound):
		log.Infof("no profile for user %s, starting fresh", s.userID)
	default:
		return profile.Profile{}, false, err
	}

	return seedProfile(s.clock), true, nil
}

// AddExpense records an expense, advances the streak, derives badges and
// persists. A validation error is returned synchronously with the
// session unchanged; a failed durable save is degraded (logged, memory
// kept, Dirty set), not surfaced.
func (s *Session) AddExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return ledger.Expense{}, err
	}

	stored, err := s.store.AddExpense(e)
	if err != nil {
		return ledger.Expense{}, err
	}

	s.profile.Streak++
	s.profile.Badges = DeriveBadges(s.profile.Badges, s.store.ExpenseCount(), s.profile.Streak)

	s.persist(ctx, true, true)
	return stored, nil
}

// UpdateExpense replaces the expense with the given id (delete + insert,
// id preserved). The streak and badges are untouched; only AddExpense
// feeds gamification.
func (s *Session) UpdateExpense(ctx context.Context, id int64, e ledger.Expense) (ledger.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return ledger.Expense{}, err
	}

	var prior *ledger.Expense
	for _, existing := range s.store.AllExpenses() {
		if existing.ID == id {
			existing := existing
			prior = &existing
			break
		}
	}

	s.store.DeleteExpense(id)
	e.ID = id
	stored, err := s.store.AddExpense(e)
	if err != nil {
		// Put the old row back so a rejected update leaves the store
		// observably unchanged.
		if prior != nil {
			if _, restoreErr := s.store.AddExpense(*prior); restoreErr != nil {
				log.Errorf("failed to restore expense %d after rejected update: %v", id, restoreErr)
			}
		}
		return ledger.Expense{}, err
	}

	s.persist(ctx, true, false)
	return stored, nil
}

// DeleteExpense removes an expense and persists. Absent ids are a no-op.
func (s *Session) DeleteExpense(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return err
	}

	s.store.DeleteExpense(id)
	s.persist(ctx, true, false)
	return nil
}

// UpdateBudgets upserts all given category budgets. The whole batch is
// validated before any row is written.
func (s *Session) UpdateBudgets(ctx context.Context, budgets map[string]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return err
	}

	for category, amount := range budgets {
		if category == "" || amount.IsNegative() {
			return fmt.Errorf("%w: budget %q=%s", ledger.ErrValidation, category, amount)
		}
	}
	for category, amount := range budgets {
		if err := s.store.SetBudget(category, amount); err != nil {
			return err
		}
	}

	s.persist(ctx, true, false)
	return nil
}

// UpdateSettings replaces the user settings and persists the profile.
func (s *Session) UpdateSettings(ctx context.Context, settings profile.Settings) error {
	return s.updateProfile(ctx, func(p *profile.Profile) {
		p.Settings = settings
	})
}

// SetGoals replaces the goals list and persists the profile.
func (s *Session) SetGoals(ctx context.Context, goals []profile.Goal) error {
	return s.updateProfile(ctx, func(p *profile.Profile) {
		p.Goals = goals
	})
}

// SetRegrets replaces the regretted purchases list and persists the profile.
func (s *Session) SetRegrets(ctx context.Context, regrets []profile.RegretEntry) error {
	return s.updateProfile(ctx, func(p *profile.Profile) {
		p.RegretedPurchases = regrets
	})
}

// SetFuturePurchases replaces the future purchases list and persists the profile.
func (s *Session) SetFuturePurchases(ctx context.Context, purchases []profile.FuturePurchase) error {
	return s.updateProfile(ctx, func(p *profile.Profile) {
		p.FuturePurchases = purchases
	})
}

// SetSubscriptions replaces the subscriptions list and persists the profile.
func (s *Session) SetSubscriptions(ctx context.Context, subscriptions []profile.Subscription) error {
	return s.updateProfile(ctx, func(p *profile.Profile) {
		p.Subscriptions = subscriptions
	})
}

func (s *Session) updateProfile(ctx context.Context, apply func(*profile.Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return err
	}

	apply(&s.profile)
	s.persist(ctx, false, true)
	return nil
}

// Expenses returns the current expenses, newest date first.
func (s *Session) Expenses() ([]ledger.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return nil, err
	}
	return s.store.AllExpenses(), nil
}

// Budgets returns the current category budgets.
func (s *Session) Budgets() (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return nil, err
	}
	return s.store.AllBudgets(), nil
}

// Profile returns a copy of the current profile.
func (s *Session) Profile() (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReady(); err != nil {
		return profile.Profile{}, err
	}
	return s.profile.Copy(), nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the logged-in user id, empty when logged out.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Dirty reports whether durable storage is currently behind the
// in-memory state because of a failed save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Logout flushes and discards the session. The flush is best effort: a
// failed save is logged but never blocks the logout, and all in-memory
// state is discarded regardless.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoggedOut {
		return
	}
	if s.state == StateReady {
		s.state = StateFlushing
		s.persist(ctx, true, true)
		if s.dirty {
			log.Warnf("final flush for user %s failed, discarding session anyway", s.userID)
		}
	}
	log.Infof("session closed for user %s", s.userID)
	s.reset()
}

func (s *Session) requireReady() error {
	if s.state != StateReady {
		return fmt.Errorf("%w: state is %s", ErrNotReady, s.state)
	}
	return nil
}

func (s *Session) reset() {
	s.userID = ""
	s.state = StateLoggedOut
	s.store = nil
	s.profile = profile.Profile{}
	s.dirty = false
}

// persist pushes the requested blobs to the vault. Every save writes the
// full latest state, so one success after any number of failures brings
// durable storage back in line with memory; while dirty, both blobs are
// saved regardless of which one the triggering mutation touched.
func (s *Session) persist(ctx context.Context, snapshot, prof bool) {
	if s.dirty {
		snapshot, prof = true, true
	}

	var failed error
	if snapshot {
		if err := s.writeSnapshot(ctx); err != nil {
			failed = err
		}
	}
	if prof && failed == nil {
		if err := s.writeProfile(ctx); err != nil {
			failed = err
		}
	}

	if failed != nil {
		if !s.dirty {
			s.dirty = true
			s.publish(ctx, event_bus.SessionSaveFailed, failed)
		}
		log.Errorf("durable save failed for user %s, memory is ahead of storage: %v", s.userID, failed)
		return
	}
	if s.dirty {
		s.dirty = false
		s.publish(ctx, event_bus.SessionSaveRecovered, nil)
		log.Infof("durable save recovered for user %s", s.userID)
	}
}

func (s *Session) writeSnapshot(ctx context.Context) error {
	data, err := s.store.Export()
	if err != nil {
		return err
	}
	return s.vault.SaveSnapshot(ctx, s.userID, data)
}

func (s *Session) writeProfile(ctx context.Context) error {
	data, err := s.profile.Encode()
	if err != nil {
		return err
	}
	return s.vault.SaveProfile(ctx, s.userID, data)
}

func (s *Session) publish(ctx context.Context, eventType event_bus.EventType, cause error) {
	if s.bus == nil {
		return
	}
	status := event_bus.SaveStatus{UserID: s.userID, Err: cause}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, status)); err != nil {
		log.Debugf("publishing %s: %v", eventType, err)
	}
}
