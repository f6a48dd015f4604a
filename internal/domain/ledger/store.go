package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER STORE
// Единственная точка записи в журнал. Все мутации балансов одного
// пользователя сериализуются через общий KeyLock; операции разных
// пользователей идут полностью параллельно.
// ══════════════════════════════════════════════════════════════════════════════

// Store проводит транзакции: добавляет запись в журнал, обновляет балансы
// аккаунта и после начислений запускает проверку перехода уровня.
type Store struct {
	accounts     account.Repository
	transactions Repository
	ladder       []Level
	levelUpBonus account.Points
	locks        *keylock.KeyLock
	publisher    shared.EventPublisher
	now          func() time.Time
}

// StoreConfig содержит конфигурацию Store.
type StoreConfig struct {
	// Ladder - лестница уровней (по умолчанию DefaultLadder).
	Ladder []Level

	// LevelUpBonus - бонус за каждый набранный уровень (по умолчанию LevelUpBonus).
	LevelUpBonus account.Points

	// Publisher - шина доменных событий (может быть nil).
	Publisher shared.EventPublisher

	// Now - источник времени (для тестов; по умолчанию time.Now UTC).
	Now func() time.Time
}

// NewStore создаёт Store. Locks обязателен и должен быть общим для всех
// сервисов, мутирующих состояние одного пользователя.
func NewStore(accounts account.Repository, transactions Repository, locks *keylock.KeyLock, cfg StoreConfig) *Store {
	if len(cfg.Ladder) == 0 {
		cfg.Ladder = DefaultLadder()
	}
	if cfg.LevelUpBonus == 0 {
		cfg.LevelUpBonus = LevelUpBonus
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Store{
		accounts:     accounts,
		transactions: transactions,
		ladder:       cfg.Ladder,
		levelUpBonus: cfg.LevelUpBonus,
		locks:        locks,
		publisher:    cfg.Publisher,
		now:          cfg.Now,
	}
}

// Ladder возвращает лестницу уровней, с которой работает Store.
func (s *Store) Ladder() []Level {
	return s.ladder
}

// Locks возвращает общий KeyLock для сериализации по пользователю.
func (s *Store) Locks() *keylock.KeyLock {
	return s.locks
}

// PostParams содержит параметры проведения транзакции.
type PostParams struct {
	UserID         account.UserID
	Direction      Direction
	Category       Category
	Amount         account.Points
	Description    string
	Source         Source
	Metadata       map[string]interface{}
	IdempotencyKey string
}

// PostTransaction проводит транзакцию.
//
// Предусловия: amount > 0 для обоих направлений; для списания доступный
// баланс должен покрывать сумму, иначе операция отклоняется без каких-либо
// изменений состояния. После начисления Store вычисляет уровень; если он
// вырос, начисляется вторичная бонусная транзакция и уровень повышается -
// не более одного бонуса за вызов, чтобы исключить рекурсивные цепочки.
func (s *Store) PostTransaction(ctx context.Context, params PostParams) (*Transaction, error) {
	if params.Amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	if !params.Direction.IsValid() {
		return nil, shared.ErrUnknownDirection
	}
	if !params.Category.IsValid() {
		return nil, shared.ErrUnknownCategory
	}

	unlock := s.locks.Lock(params.UserID.String())
	defer unlock()

	if params.IdempotencyKey != "" {
		existing, err := s.transactions.FindByIdempotencyKey(ctx, params.UserID, params.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrTransactionNotFound) {
			return nil, shared.WrapError("ledger", "PostTransaction", shared.ErrTransient, "idempotency lookup failed", err)
		}
	}

	acc, err := s.accounts.Get(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, shared.WrapError("ledger", "PostTransaction", shared.ErrTransient, "account load failed", err)
	}

	now := s.now()
	tx := &Transaction{
		ID:             uuid.NewString(),
		UserID:         params.UserID,
		Direction:      params.Direction,
		Category:       params.Category,
		Amount:         params.Amount,
		Description:    params.Description,
		Source:         params.Source,
		Metadata:       params.Metadata,
		IdempotencyKey: params.IdempotencyKey,
		CreatedAt:      now,
	}

	oldLevel := acc.Level

	switch params.Direction {
	case DirectionEarn:
		if err := acc.ApplyEarn(params.Amount, now); err != nil {
			return nil, shared.ErrInvalidAmount
		}
	case DirectionSpend:
		if err := acc.ApplySpend(params.Amount, now); err != nil {
			if errors.Is(err, account.ErrInsufficientPoints) {
				return nil, shared.ErrSpendExceedsBalance
			}
			return nil, shared.ErrInvalidAmount
		}
	}

	// Переход уровня проверяется один раз за вызов, до записи в журнал,
	// чтобы отклонённая операция не оставляла частичных изменений.
	var bonusTx *Transaction
	if params.Direction == DirectionEarn {
		lvl, err := LevelFor(s.ladder, acc.TotalPoints)
		if err != nil {
			return nil, shared.ErrNegativePoints
		}

		if lvl.Number > oldLevel {
			bonus := s.levelUpBonus * account.Points(lvl.Number-oldLevel)
			bonusTx = &Transaction{
				ID:          uuid.NewString(),
				UserID:      params.UserID,
				Direction:   DirectionEarn,
				Category:    CategoryLevelBonus,
				Amount:      bonus,
				Description: "Level up: " + lvl.Name,
				Source:      SourceLevel,
				Metadata: map[string]interface{}{
					"old_level": oldLevel,
					"new_level": lvl.Number,
				},
				CreatedAt: now,
			}
			if err := acc.ApplyEarn(bonus, now); err != nil {
				return nil, shared.ErrInvalidAmount
			}

			// Бонус сам мог пересечь следующий порог: уровень выставляется по
			// итоговой сумме, но второй бонус в этом вызове не начисляется.
			final, err := LevelFor(s.ladder, acc.TotalPoints)
			if err != nil {
				return nil, shared.ErrNegativePoints
			}
			acc.SetLevel(final.Number, now)
		}
	}

	// Журнал и балансы фиксируются одним коммитом: сорвавшаяся операция
	// не оставляет записи без применённого баланса, и повтор по ключу
	// идемпотентности не может увидеть половинное состояние.
	txs := []*Transaction{tx}
	if bonusTx != nil {
		txs = append(txs, bonusTx)
	}

	if err := s.transactions.Commit(ctx, acc, txs...); err != nil {
		if errors.Is(err, ErrDuplicateIdempotencyKey) {
			existing, ferr := s.transactions.FindByIdempotencyKey(ctx, params.UserID, params.IdempotencyKey)
			if ferr == nil {
				return existing, nil
			}
		}
		return nil, shared.WrapError("ledger", "PostTransaction", shared.ErrTransient, "commit failed", err)
	}

	s.publishCommitted(acc, tx, bonusTx, oldLevel)

	return tx.Clone(), nil
}

// publishCommitted отправляет события после зафиксированного перехода состояния.
func (s *Store) publishCommitted(acc *account.Account, tx, bonusTx *Transaction, oldLevel int) {
	if s.publisher == nil {
		return
	}

	_ = s.publisher.Publish(shared.NewBalanceChangedEvent(
		acc.UserID.String(), tx.ID, string(tx.Direction), string(tx.Category),
		tx.Amount.Int64(), acc.AvailablePoints.Int64(), acc.LifetimePoints.Int64(),
	))

	if bonusTx != nil {
		_ = s.publisher.Publish(shared.NewBalanceChangedEvent(
			acc.UserID.String(), bonusTx.ID, string(bonusTx.Direction), string(bonusTx.Category),
			bonusTx.Amount.Int64(), acc.AvailablePoints.Int64(), acc.LifetimePoints.Int64(),
		))

		lvl, ok := LevelByNumber(s.ladder, acc.Level)
		name := ""
		if ok {
			name = lvl.Name
		}
		_ = s.publisher.Publish(shared.NewLevelUpEvent(
			acc.UserID.String(), oldLevel, acc.Level, name, acc.TotalPoints.Int64(),
		))
	}
}
