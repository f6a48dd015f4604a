package account

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем аккаунтов.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над хранилищем аккаунтов.
type Repository interface {
	// Create создаёт новый аккаунт.
	// Возвращает ErrAccountAlreadyExists, если аккаунт уже существует.
	Create(ctx context.Context, acc *Account) error

	// Get возвращает аккаунт по идентификатору пользователя.
	// Возвращает ErrAccountNotFound, если аккаунт не найден.
	Get(ctx context.Context, userID UserID) (*Account, error)

	// Update сохраняет изменённый аккаунт.
	// Возвращает ErrAccountNotFound, если аккаунт не найден.
	Update(ctx context.Context, acc *Account) error

	// Delete удаляет аккаунт (только по явному запросу на стирание данных).
	Delete(ctx context.Context, userID UserID) error

	// Exists проверяет существование аккаунта.
	Exists(ctx context.Context, userID UserID) (bool, error)

	// ListParticipants возвращает аккаунты, участвующие в рейтинге.
	ListParticipants(ctx context.Context) ([]*Account, error)

	// Count возвращает общее количество аккаунтов.
	Count(ctx context.Context) (int, error)
}
