// Package memory provides an in-memory persistence layer implementing all
// repository interfaces of the domain. It backs unit tests and local runs
// without PostgreSQL; the semantics mirror the postgres package, including
// the atomic conditional stock decrement and the idempotency key uniqueness.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
)

type streakKey struct {
	userID       account.UserID
	activityType ledger.Category
}

type idempotencyKey struct {
	userID account.UserID
	key    string
}

// Store holds all in-memory state under a single mutex. The repository
// interfaces are exposed as typed views (Accounts, Ledger, ...) because
// their method sets collide on one receiver.
type Store struct {
	mu sync.RWMutex

	accounts     map[account.UserID]*account.Account
	transactions []*ledger.Transaction
	idempotency  map[idempotencyKey]*ledger.Transaction
	sequence     int64
	streaks      map[streakKey]*streak.Streak
	rewards      map[string]*reward.Reward
	tokens       map[string]*reward.Token
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[account.UserID]*account.Account),
		idempotency: make(map[idempotencyKey]*ledger.Transaction),
		streaks:     make(map[streakKey]*streak.Streak),
		rewards:     make(map[string]*reward.Reward),
		tokens:      make(map[string]*reward.Token),
	}
}

// Accounts returns the account.Repository view.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// Ledger returns the ledger.Repository view.
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{s: s} }

// Streaks returns the streak.Repository view.
func (s *Store) Streaks() *StreakRepository { return &StreakRepository{s: s} }

// Rewards returns the reward.CatalogRepository view.
func (s *Store) Rewards() *RewardRepository { return &RewardRepository{s: s} }

// Tokens returns the reward.TokenRepository view.
func (s *Store) Tokens() *TokenRepository { return &TokenRepository{s: s} }

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AccountRepository implements account.Repository over a Store.
type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(_ context.Context, acc *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[acc.UserID]; ok {
		return account.ErrAccountAlreadyExists
	}
	r.s.accounts[acc.UserID] = acc.Clone()
	return nil
}

func (r *AccountRepository) Get(_ context.Context, userID account.UserID) (*account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	acc, ok := r.s.accounts[userID]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (r *AccountRepository) Update(_ context.Context, acc *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[acc.UserID]; !ok {
		return account.ErrAccountNotFound
	}
	r.s.accounts[acc.UserID] = acc.Clone()
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, userID account.UserID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[userID]; !ok {
		return account.ErrAccountNotFound
	}
	delete(r.s.accounts, userID)
	return nil
}

func (r *AccountRepository) Exists(_ context.Context, userID account.UserID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.accounts[userID]
	return ok, nil
}

func (r *AccountRepository) ListParticipants(_ context.Context) ([]*account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var participants []*account.Account
	for _, acc := range r.s.accounts {
		if acc.Preferences.Leaderboard {
			participants = append(participants, acc.Clone())
		}
	}

	sort.Slice(participants, func(i, j int) bool {
		return participants[i].TotalPoints > participants[j].TotalPoints
	})

	return participants, nil
}

func (r *AccountRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.s.accounts), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements ledger.Repository over a Store.
type LedgerRepository struct {
	s *Store
}

func (r *LedgerRepository) Append(_ context.Context, tx *ledger.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if tx.IdempotencyKey != "" {
		key := idempotencyKey{userID: tx.UserID, key: tx.IdempotencyKey}
		if _, ok := r.s.idempotency[key]; ok {
			return ledger.ErrDuplicateIdempotencyKey
		}
	}

	r.s.sequence++
	tx.Sequence = r.s.sequence

	stored := tx.Clone()
	r.s.transactions = append(r.s.transactions, stored)

	if tx.IdempotencyKey != "" {
		r.s.idempotency[idempotencyKey{userID: tx.UserID, key: tx.IdempotencyKey}] = stored
	}

	return nil
}

// Commit appends the transactions and replaces the account under a single
// lock acquisition: the ledger and the balances can never drift apart.
func (r *LedgerRepository) Commit(_ context.Context, acc *account.Account, txs ...*ledger.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[acc.UserID]; !ok {
		return account.ErrAccountNotFound
	}

	for _, tx := range txs {
		if tx.IdempotencyKey == "" {
			continue
		}
		if _, ok := r.s.idempotency[idempotencyKey{userID: tx.UserID, key: tx.IdempotencyKey}]; ok {
			return ledger.ErrDuplicateIdempotencyKey
		}
	}

	for _, tx := range txs {
		r.s.sequence++
		tx.Sequence = r.s.sequence

		stored := tx.Clone()
		r.s.transactions = append(r.s.transactions, stored)

		if tx.IdempotencyKey != "" {
			r.s.idempotency[idempotencyKey{userID: tx.UserID, key: tx.IdempotencyKey}] = stored
		}
	}

	r.s.accounts[acc.UserID] = acc.Clone()
	return nil
}

func (r *LedgerRepository) FindByIdempotencyKey(_ context.Context, userID account.UserID, key string) (*ledger.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tx, ok := r.s.idempotency[idempotencyKey{userID: userID, key: key}]
	if !ok {
		return nil, ledger.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (r *LedgerRepository) ListByUser(_ context.Context, userID account.UserID, limit int) ([]*ledger.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var txs []*ledger.Transaction
	for i := len(r.s.transactions) - 1; i >= 0; i-- {
		if r.s.transactions[i].UserID != userID {
			continue
		}
		txs = append(txs, r.s.transactions[i].Clone())
		if limit > 0 && len(txs) >= limit {
			break
		}
	}

	return txs, nil
}

func (r *LedgerRepository) ListByUserSince(_ context.Context, userID account.UserID, since time.Time) ([]*ledger.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var txs []*ledger.Transaction
	for _, tx := range r.s.transactions {
		if tx.UserID == userID && !tx.CreatedAt.Before(since) {
			txs = append(txs, tx.Clone())
		}
	}

	return txs, nil
}

func (r *LedgerRepository) CountByUserCategory(_ context.Context, userID account.UserID, categories ...ledger.Category) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[ledger.Category]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	count := 0
	for _, tx := range r.s.transactions {
		if tx.UserID != userID || tx.Source != ledger.SourceActivity {
			continue
		}
		if _, ok := wanted[tx.Category]; ok {
			count++
		}
	}

	return count, nil
}

func (r *LedgerRepository) SumEarnedByUser(_ context.Context, from, to time.Time) (map[account.UserID]account.Points, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sums := make(map[account.UserID]account.Points)
	for _, tx := range r.s.transactions {
		if tx.Direction != ledger.DirectionEarn {
			continue
		}
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}
		sums[tx.UserID] += tx.Amount
	}

	return sums, nil
}

func (r *LedgerRepository) CategoryBreakdown(_ context.Context, userID account.UserID) (map[ledger.Category]account.Points, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	breakdown := make(map[ledger.Category]account.Points)
	for _, tx := range r.s.transactions {
		if tx.UserID == userID && tx.Direction == ledger.DirectionEarn {
			breakdown[tx.Category] += tx.Amount
		}
	}

	return breakdown, nil
}

func (r *LedgerRepository) RedactUser(_ context.Context, userID account.UserID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	redacted := 0
	for _, tx := range r.s.transactions {
		if tx.UserID != userID {
			continue
		}
		tx.Description = ""
		tx.Metadata = nil
		redacted++
	}

	return redacted, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements streak.Repository over a Store.
type StreakRepository struct {
	s *Store
}

func (r *StreakRepository) Get(_ context.Context, userID account.UserID, activityType ledger.Category) (*streak.Streak, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.streaks[streakKey{userID: userID, activityType: activityType}]
	if !ok {
		return nil, streak.ErrStreakNotFound
	}
	return st.Clone(), nil
}

func (r *StreakRepository) Upsert(_ context.Context, st *streak.Streak) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.streaks[streakKey{userID: st.UserID, activityType: st.ActivityType}] = st.Clone()
	return nil
}

func (r *StreakRepository) ListByUser(_ context.Context, userID account.UserID) ([]*streak.Streak, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var streaks []*streak.Streak
	for _, st := range r.s.streaks {
		if st.UserID == userID {
			streaks = append(streaks, st.Clone())
		}
	}

	sort.Slice(streaks, func(i, j int) bool {
		return streaks[i].ActivityType < streaks[j].ActivityType
	})

	return streaks, nil
}

func (r *StreakRepository) FindStale(_ context.Context, before time.Time) ([]*streak.Streak, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stale []*streak.Streak
	for _, st := range r.s.streaks {
		if st.Active && st.LastActivityAt.Before(before) {
			stale = append(stale, st.Clone())
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		return stale[i].LastActivityAt.Before(stale[j].LastActivityAt)
	})

	return stale, nil
}

func (r *StreakRepository) DeleteByUser(_ context.Context, userID account.UserID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for key := range r.s.streaks {
		if key.userID == userID {
			delete(r.s.streaks, key)
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARD CATALOG REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RewardRepository implements reward.CatalogRepository over a Store.
type RewardRepository struct {
	s *Store
}

func (r *RewardRepository) Save(_ context.Context, rw *reward.Reward) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.rewards[rw.ID] = rw.Clone()
	return nil
}

func (r *RewardRepository) Get(_ context.Context, id string) (*reward.Reward, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rw, ok := r.s.rewards[id]
	if !ok {
		return nil, reward.ErrRewardNotFound
	}
	return rw.Clone(), nil
}

func (r *RewardRepository) ListActive(_ context.Context) ([]*reward.Reward, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rewards []*reward.Reward
	for _, rw := range r.s.rewards {
		if rw.Active {
			rewards = append(rewards, rw.Clone())
		}
	}

	sort.Slice(rewards, func(i, j int) bool {
		return rewards[i].Cost < rewards[j].Cost
	})

	return rewards, nil
}

func (r *RewardRepository) DecrementStock(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rw, ok := r.s.rewards[id]
	if !ok {
		return reward.ErrRewardNotFound
	}
	if rw.Stock <= 0 {
		return reward.ErrOutOfStock
	}
	rw.Stock--
	return nil
}

func (r *RewardRepository) IncrementStock(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rw, ok := r.s.rewards[id]
	if !ok {
		return reward.ErrRewardNotFound
	}
	rw.Stock++
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// TokenRepository implements reward.TokenRepository over a Store.
type TokenRepository struct {
	s *Store
}

func (r *TokenRepository) Save(_ context.Context, t *reward.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tokens[t.ID] = t.Clone()
	return nil
}

func (r *TokenRepository) Get(_ context.Context, id string) (*reward.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[id]
	if !ok {
		return nil, reward.ErrTokenNotFound
	}
	return t.Clone(), nil
}

func (r *TokenRepository) ListByUser(_ context.Context, userID account.UserID) ([]*reward.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var tokens []*reward.Token
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			tokens = append(tokens, t.Clone())
		}
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].IssuedAt.After(tokens[j].IssuedAt)
	})

	return tokens, nil
}

func (r *TokenRepository) FindIssuedExpiredBefore(_ context.Context, before time.Time) ([]*reward.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var expired []*reward.Token
	for _, t := range r.s.tokens {
		if t.Status == reward.TokenStatusIssued && t.ExpiresAt.Before(before) {
			expired = append(expired, t.Clone())
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})

	return expired, nil
}
