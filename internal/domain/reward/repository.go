package reward

import (
	"context"
	"errors"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

var (
	// ErrRewardNotFound - награда не найдена.
	ErrRewardNotFound = errors.New("reward not found")

	// ErrOutOfStock - запас награды исчерпан.
	ErrOutOfStock = errors.New("reward out of stock")

	// ErrTokenNotFound - токен не найден.
	ErrTokenNotFound = errors.New("token not found")
)

// CatalogRepository определяет операции над каталогом наград.
type CatalogRepository interface {
	// Save сохраняет награду (создание или обновление).
	Save(ctx context.Context, r *Reward) error

	// Get возвращает награду по идентификатору.
	// Возвращает ErrRewardNotFound, если награды нет.
	Get(ctx context.Context, id string) (*Reward, error)

	// ListActive возвращает активные награды каталога.
	ListActive(ctx context.Context) ([]*Reward, error)

	// DecrementStock атомарно уменьшает запас limited-награды на единицу,
	// только если запас положителен. Возвращает ErrOutOfStock иначе.
	// При гонке за последнюю единицу выигрывает ровно один вызов.
	DecrementStock(ctx context.Context, id string) error

	// IncrementStock возвращает единицу запаса (компенсация отклонённого обмена).
	IncrementStock(ctx context.Context, id string) error
}

// TokenRepository определяет операции над хранилищем токенов погашения.
type TokenRepository interface {
	// Save сохраняет токен (создание или обновление).
	Save(ctx context.Context, t *Token) error

	// Get возвращает токен по идентификатору.
	// Возвращает ErrTokenNotFound, если токена нет.
	Get(ctx context.Context, id string) (*Token, error)

	// ListByUser возвращает токены пользователя от новых к старым.
	ListByUser(ctx context.Context, userID account.UserID) ([]*Token, error)

	// FindIssuedExpiredBefore возвращает выпущенные токены с истечением раньше before.
	// Используется фоновой просрочкой.
	FindIssuedExpiredBefore(ctx context.Context, before time.Time) ([]*Token, error)
}
