package reward

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

// DefaultTokenValidity - срок действия токена погашения по умолчанию.
const DefaultTokenValidity = 30 * 24 * time.Hour

// ══════════════════════════════════════════════════════════════════════════════
// REDEMPTION SERVICE
// Обмен баллов на награды. Списание идёт через Ledger Store; для
// limited-наград запас резервируется условным декрементом до списания,
// а при отклонённом списании возвращается обратно.
// ══════════════════════════════════════════════════════════════════════════════

// Service проводит обмены и управляет жизненным циклом токенов.
type Service struct {
	catalog       CatalogRepository
	tokens        TokenRepository
	accounts      account.Repository
	store         *ledger.Store
	codec         *Codec
	tokenValidity time.Duration
	locks         *keylock.KeyLock
	publisher     shared.EventPublisher
	now           func() time.Time
}

// ServiceConfig содержит конфигурацию Service.
type ServiceConfig struct {
	// TokenValidity - срок действия токена (по умолчанию DefaultTokenValidity).
	TokenValidity time.Duration

	// Publisher - шина доменных событий (может быть nil).
	Publisher shared.EventPublisher

	// Now - источник времени (для тестов).
	Now func() time.Time
}

// NewService создаёт Service. Codec обязателен: без ключа токены не выпустить.
func NewService(catalog CatalogRepository, tokens TokenRepository, accounts account.Repository, store *ledger.Store, codec *Codec, cfg ServiceConfig) *Service {
	if cfg.TokenValidity <= 0 {
		cfg.TokenValidity = DefaultTokenValidity
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		catalog:       catalog,
		tokens:        tokens,
		accounts:      accounts,
		store:         store,
		codec:         codec,
		tokenValidity: cfg.TokenValidity,
		locks:         store.Locks(),
		publisher:     cfg.Publisher,
		now:           cfg.Now,
	}
}

// EligibleReward - награда каталога с результатом проверки доступности.
type EligibleReward struct {
	Reward   *Reward
	Eligible bool
	Reason   IneligibilityReason
}

// ListEligible возвращает активные награды каталога с пометкой доступности
// для пользователя.
func (s *Service) ListEligible(ctx context.Context, userID account.UserID) ([]EligibleReward, error) {
	acc, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, shared.WrapError("reward", "ListEligible", shared.ErrTransient, "account load failed", err)
	}

	rewards, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, shared.WrapError("reward", "ListEligible", shared.ErrTransient, "catalog load failed", err)
	}

	now := s.now()
	result := make([]EligibleReward, 0, len(rewards))
	for _, r := range rewards {
		reason := r.CheckEligibility(acc, now)
		result = append(result, EligibleReward{
			Reward:   r,
			Eligible: reason == "",
			Reason:   reason,
		})
	}
	return result, nil
}

// Redeem обменивает баллы на награду и выпускает токен погашения.
//
// Порядок важен: для limited-наград сначала условно резервируется единица
// запаса, затем списываются баллы. Если списание отклонено, резерв
// возвращается и состояние остаётся прежним. При гонке двух обменов за
// последнюю единицу ровно один завершается успехом.
func (s *Service) Redeem(ctx context.Context, userID account.UserID, rewardID string) (*Token, error) {
	r, err := s.catalog.Get(ctx, rewardID)
	if err != nil {
		if errors.Is(err, ErrRewardNotFound) {
			return nil, shared.ErrRewardNotFound
		}
		return nil, shared.WrapError("reward", "Redeem", shared.ErrTransient, "reward load failed", err)
	}

	acc, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, shared.WrapError("reward", "Redeem", shared.ErrTransient, "account load failed", err)
	}

	now := s.now()
	if eligErr := s.eligibilityError(r, acc, now); eligErr != nil {
		return nil, eligErr
	}

	reserved := false
	if r.Availability == AvailabilityLimited {
		if err := s.catalog.DecrementStock(ctx, rewardID); err != nil {
			if errors.Is(err, ErrOutOfStock) {
				return nil, shared.ErrRewardOutOfStock
			}
			return nil, shared.WrapError("reward", "Redeem", shared.ErrTransient, "stock reserve failed", err)
		}
		reserved = true
	}

	tokenID := uuid.NewString()
	tx, err := s.store.PostTransaction(ctx, ledger.PostParams{
		UserID:      userID,
		Direction:   ledger.DirectionSpend,
		Category:    ledger.CategoryRedemption,
		Amount:      r.Cost,
		Description: "Redeemed: " + r.Name,
		Source:      ledger.SourceRedemption,
		Metadata: map[string]interface{}{
			"reward_id": r.ID,
			"token_id":  tokenID,
		},
	})
	if err != nil {
		if reserved {
			// Возврат резерва. Ошибка возврата не маскирует причину отказа.
			_ = s.catalog.IncrementStock(ctx, rewardID)
		}
		return nil, err
	}

	expiresAt := now.Add(s.tokenValidity)
	code, err := s.codec.Seal(Claims{
		TokenID:   tokenID,
		UserID:    userID.String(),
		RewardID:  r.ID,
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	token := &Token{
		ID:            tokenID,
		UserID:        userID,
		RewardID:      r.ID,
		TransactionID: tx.ID,
		Code:          code,
		Status:        TokenStatusIssued,
		IssuedAt:      now,
		ExpiresAt:     expiresAt,
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, shared.WrapError("reward", "Redeem", shared.ErrTransient, "token save failed", err)
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(shared.NewRewardRedeemedEvent(
			userID.String(), r.ID, token.ID, r.Cost.Int64(), expiresAt,
		))
	}

	return token.Clone(), nil
}

// eligibilityError транслирует причину недоступности в доменную ошибку.
// Недостаток баланса здесь не проверяется: его атомарно отклонит списание.
func (s *Service) eligibilityError(r *Reward, acc *account.Account, now time.Time) error {
	switch r.CheckEligibility(acc, now) {
	case ReasonInactive:
		return shared.ErrRewardInactive
	case ReasonOutOfSeason:
		return shared.ErrRewardOutOfSeason
	case ReasonOutOfStock:
		return shared.ErrRewardOutOfStock
	case ReasonLevelTooLow:
		return shared.ErrLevelTooLow
	case ReasonMissingAchievement:
		return shared.ErrMissingAchievement
	}
	return nil
}

// ValidationResult - результат проверки предъявленного кода.
type ValidationResult struct {
	// Valid - код пригоден для погашения.
	Valid bool

	// Reason - причина непригодности (ошибка валидации).
	Reason error

	// Token - найденный токен (nil, если код не вскрылся).
	Token *Token
}

// Validate проверяет предъявленный код без изменения состояния.
func (s *Service) Validate(ctx context.Context, code string) (ValidationResult, error) {
	claims, err := s.codec.Open(code)
	if err != nil {
		return ValidationResult{Valid: false, Reason: shared.ErrTokenMalformed}, nil
	}

	token, err := s.tokens.Get(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ValidationResult{Valid: false, Reason: shared.ErrTokenNotFound}, nil
		}
		return ValidationResult{}, shared.WrapError("reward", "Validate", shared.ErrTransient, "token load failed", err)
	}

	if reason := s.tokenUsable(token, s.now()); reason != nil {
		return ValidationResult{Valid: false, Reason: reason, Token: token.Clone()}, nil
	}
	return ValidationResult{Valid: true, Token: token.Clone()}, nil
}

// Complete погашает токен по предъявленному коду. Повторное погашение
// того же токена отклоняется.
func (s *Service) Complete(ctx context.Context, code, location string) (*Token, error) {
	claims, err := s.codec.Open(code)
	if err != nil {
		return nil, shared.ErrTokenMalformed
	}

	now := s.now()
	var completed *Token

	err = s.locks.Do(claims.UserID, func() error {
		token, err := s.tokens.Get(ctx, claims.TokenID)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				return shared.ErrTokenNotFound
			}
			return shared.WrapError("reward", "Complete", shared.ErrTransient, "token load failed", err)
		}

		if reason := s.tokenUsable(token, now); reason != nil {
			return reason
		}

		token.MarkRedeemed(location, now)
		if err := s.tokens.Save(ctx, token); err != nil {
			return shared.WrapError("reward", "Complete", shared.ErrTransient, "token save failed", err)
		}

		completed = token.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(shared.NewRedemptionCompletedEvent(
			completed.UserID.String(), completed.ID, completed.RewardID, location,
		))
	}

	return completed, nil
}

// tokenUsable проверяет пригодность токена к погашению в момент now.
func (s *Service) tokenUsable(token *Token, now time.Time) error {
	switch {
	case token.Status == TokenStatusRedeemed:
		return shared.ErrTokenAlreadyUsed
	case token.Status == TokenStatusExpired, token.IsExpired(now):
		return shared.ErrTokenExpired
	}
	return nil
}

// ListTokens возвращает токены пользователя.
func (s *Service) ListTokens(ctx context.Context, userID account.UserID) ([]*Token, error) {
	tokens, err := s.tokens.ListByUser(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("reward", "ListTokens", shared.ErrTransient, "token list failed", err)
	}
	return tokens, nil
}

// ExpireStale переводит просроченные выпущенные токены в состояние expired.
// Возвращает количество обработанных токенов.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	now := s.now()

	stale, err := s.tokens.FindIssuedExpiredBefore(ctx, now)
	if err != nil {
		return 0, shared.WrapError("reward", "ExpireStale", shared.ErrTransient, "stale lookup failed", err)
	}

	expired := 0
	for _, candidate := range stale {
		candidate := candidate

		err := s.locks.Do(candidate.UserID.String(), func() error {
			token, err := s.tokens.Get(ctx, candidate.ID)
			if err != nil {
				if errors.Is(err, ErrTokenNotFound) {
					return nil
				}
				return err
			}

			// Токен мог быть погашен между выборкой и блокировкой.
			if token.Status != TokenStatusIssued || !token.IsExpired(now) {
				return nil
			}

			token.MarkExpired()
			if err := s.tokens.Save(ctx, token); err != nil {
				return err
			}

			expired++
			return nil
		})
		if err != nil {
			return expired, shared.WrapError("reward", "ExpireStale", shared.ErrTransient, "expiration failed", err)
		}
	}

	return expired, nil
}
