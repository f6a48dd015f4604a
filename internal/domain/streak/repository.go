package streak

import (
	"context"
	"errors"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
)

// ErrStreakNotFound - серия не найдена.
var ErrStreakNotFound = errors.New("streak not found")

// Repository определяет операции над хранилищем серий.
type Repository interface {
	// Get возвращает серию по паре (пользователь, тип активности).
	// Возвращает ErrStreakNotFound, если серии ещё нет.
	Get(ctx context.Context, userID account.UserID, activityType ledger.Category) (*Streak, error)

	// Upsert сохраняет серию, создавая запись при первом обращении.
	Upsert(ctx context.Context, s *Streak) error

	// ListByUser возвращает все серии пользователя.
	ListByUser(ctx context.Context, userID account.UserID) ([]*Streak, error)

	// FindStale возвращает активные серии с последней активностью раньше before.
	// Используется фоновой деактивацией.
	FindStale(ctx context.Context, before time.Time) ([]*Streak, error)

	// DeleteByUser удаляет все серии пользователя (стирание данных).
	DeleteByUser(ctx context.Context, userID account.UserID) error
}
