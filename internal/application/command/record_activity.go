package command

import (
	"context"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/achievement"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Главный сценарий движка: пользовательская активность превращается
// в начисление, продвигает серию и запускает оценку достижений.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand содержит данные активности.
type RecordActivityCommand struct {
	// UserID - внешний идентификатор пользователя.
	UserID string

	// Category - категория активности (daily_checkin, assessment, ...).
	Category string

	// Mood - самочувствие 1-10 для ежедневной отметки (0 = не указано).
	Mood int

	// Metadata - произвольные дополнительные данные транзакции.
	Metadata map[string]interface{}

	// IdempotencyKey - необязательный ключ идемпотентности. Повторная
	// отправка того же ключа не создаёт второй транзакции.
	IdempotencyKey string
}

// Validate проверяет корректность команды.
func (c RecordActivityCommand) Validate() error {
	if !account.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if !ledger.Category(c.Category).IsActivity() {
		return shared.ErrUnknownActivity
	}
	if c.Mood < 0 || c.Mood > 10 {
		return shared.NewDomainError("command", "RecordActivity", shared.ErrValueOutOfRange, "mood must be within 1-10")
	}
	return nil
}

// RecordActivityResult содержит результат обработки активности.
type RecordActivityResult struct {
	// Transaction - проведённая транзакция начисления.
	Transaction *ledger.Transaction

	// Streak - состояние серии после активности.
	Streak *streak.Streak

	// Unlocked - достижения, разблокированные этой активностью.
	Unlocked []achievement.Unlocked
}

// RecordActivityHandler обрабатывает RecordActivityCommand.
type RecordActivityHandler struct {
	store   *ledger.Store
	tracker *streak.Tracker
	engine  *achievement.Engine
}

// NewRecordActivityHandler создаёт RecordActivityHandler.
func NewRecordActivityHandler(store *ledger.Store, tracker *streak.Tracker, engine *achievement.Engine) *RecordActivityHandler {
	return &RecordActivityHandler{
		store:   store,
		tracker: tracker,
		engine:  engine,
	}
}

// Handle выполняет команду записи активности.
//
// Порядок фиксирован: начисление, серия, достижения. Бонусы серии
// проводятся до оценки достижений, поэтому рубеж по баллам, взятый
// бонусом серии, виден движку в этом же вызове.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID := account.UserID(cmd.UserID)
	category := ledger.Category(cmd.Category)

	amount, description, err := ledger.ActivityAward(category, ledger.ActivityPayload{Mood: cmd.Mood})
	if err != nil {
		return nil, shared.ErrUnknownCategory
	}

	metadata := cmd.Metadata
	if cmd.Mood > 0 {
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["mood"] = cmd.Mood
	}

	tx, err := h.store.PostTransaction(ctx, ledger.PostParams{
		UserID:         userID,
		Direction:      ledger.DirectionEarn,
		Category:       category,
		Amount:         amount,
		Description:    description,
		Source:         ledger.SourceActivity,
		Metadata:       metadata,
		IdempotencyKey: cmd.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	s, err := h.tracker.Touch(ctx, userID, category)
	if err != nil {
		return nil, err
	}

	unlocked, err := h.engine.Evaluate(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &RecordActivityResult{
		Transaction: tx,
		Streak:      s,
		Unlocked:    unlocked,
	}, nil
}
