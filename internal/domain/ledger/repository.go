package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем журнала.
// Журнал append-only: интерфейс намеренно не содержит Update и Delete,
// единственная мутация - редактирование персональных данных при стирании.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrTransactionNotFound - транзакция не найдена.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateIdempotencyKey - ключ идемпотентности уже использован.
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
)

// Repository определяет операции над журналом транзакций.
type Repository interface {
	// Append добавляет транзакцию в журнал и присваивает ей Sequence.
	// Возвращает ErrDuplicateIdempotencyKey при повторном ключе идемпотентности.
	Append(ctx context.Context, tx *Transaction) error

	// Commit атомарно добавляет транзакции в журнал и сохраняет обновлённый
	// аккаунт: фиксируется либо всё, либо ничего, частичных состояний после
	// сбоя не остаётся. Присваивает Sequence каждой транзакции. Возвращает
	// ErrDuplicateIdempotencyKey при повторном ключе идемпотентности.
	Commit(ctx context.Context, acc *account.Account, txs ...*Transaction) error

	// FindByIdempotencyKey возвращает транзакцию по ключу идемпотентности.
	// Возвращает ErrTransactionNotFound, если ключ не встречался.
	FindByIdempotencyKey(ctx context.Context, userID account.UserID, key string) (*Transaction, error)

	// ListByUser возвращает транзакции пользователя от новых к старым.
	// limit <= 0 означает "без ограничения".
	ListByUser(ctx context.Context, userID account.UserID, limit int) ([]*Transaction, error)

	// ListByUserSince возвращает транзакции пользователя не раньше указанного времени.
	ListByUserSince(ctx context.Context, userID account.UserID, since time.Time) ([]*Transaction, error)

	// CountByUserCategory возвращает количество транзакций пользователя
	// в указанных категориях с источником SourceActivity.
	CountByUserCategory(ctx context.Context, userID account.UserID, categories ...Category) (int, error)

	// SumEarnedByUser возвращает суммы начислений по всем пользователям
	// в интервале [from, to). Используется периодными рейтингами.
	SumEarnedByUser(ctx context.Context, from, to time.Time) (map[account.UserID]account.Points, error)

	// CategoryBreakdown возвращает суммы начислений пользователя по категориям.
	CategoryBreakdown(ctx context.Context, userID account.UserID) (map[Category]account.Points, error)

	// RedactUser затирает описание и метаданные транзакций пользователя,
	// не удаляя сами записи. Возвращает количество отредактированных записей.
	RedactUser(ctx context.Context, userID account.UserID) (int, error)
}
