// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
// UI and notification collaborators subscribe to these; the engine never renders.
const (
	// Account events
	EventAccountCreated EventType = "account.created"
	EventAccountErased  EventType = "account.erased"

	// Ledger events
	EventBalanceChanged EventType = "ledger.balance_changed"
	EventLevelUp        EventType = "ledger.level_up"

	// Streak events
	EventStreakExtended EventType = "streak.extended"
	EventStreakBroken   EventType = "streak.broken"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Reward events
	EventRewardRedeemed      EventType = "reward.redeemed"
	EventRedemptionCompleted EventType = "reward.redemption_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a published event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus extends EventPublisher with subscription management.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down and waits for in-flight handlers.
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Account Events
// ═══════════════════════════════════════════════════════════════════════════

// AccountCreatedEvent is emitted when a new account is created.
type AccountCreatedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	WelcomeBonus int64  `json:"welcome_bonus"`
}

// Payload implements Event interface.
func (e AccountCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"display_name":  e.DisplayName,
		"welcome_bonus": e.WelcomeBonus,
	}
}

// NewAccountCreatedEvent creates a new AccountCreatedEvent.
func NewAccountCreatedEvent(userID, displayName string, welcomeBonus int64) AccountCreatedEvent {
	return AccountCreatedEvent{
		BaseEvent:    NewBaseEvent(EventAccountCreated, userID),
		UserID:       userID,
		DisplayName:  displayName,
		WelcomeBonus: welcomeBonus,
	}
}

// AccountErasedEvent is emitted when an account is erased on request.
type AccountErasedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	RedactedTxns int    `json:"redacted_transactions"`
}

// Payload implements Event interface.
func (e AccountErasedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":               e.UserID,
		"redacted_transactions": e.RedactedTxns,
	}
}

// NewAccountErasedEvent creates a new AccountErasedEvent.
func NewAccountErasedEvent(userID string, redacted int) AccountErasedEvent {
	return AccountErasedEvent{
		BaseEvent:    NewBaseEvent(EventAccountErased, userID),
		UserID:       userID,
		RedactedTxns: redacted,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Events
// ═══════════════════════════════════════════════════════════════════════════

// BalanceChangedEvent is emitted after every committed point transaction.
type BalanceChangedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
	Direction     string `json:"direction"`
	Category      string `json:"category"`
	Amount        int64  `json:"amount"`
	Available     int64  `json:"available"`
	Lifetime      int64  `json:"lifetime"`
}

// Payload implements Event interface.
func (e BalanceChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"transaction_id": e.TransactionID,
		"direction":      e.Direction,
		"category":       e.Category,
		"amount":         e.Amount,
		"available":      e.Available,
		"lifetime":       e.Lifetime,
	}
}

// NewBalanceChangedEvent creates a new BalanceChangedEvent.
func NewBalanceChangedEvent(userID, txID, direction, category string, amount, available, lifetime int64) BalanceChangedEvent {
	return BalanceChangedEvent{
		BaseEvent:     NewBaseEvent(EventBalanceChanged, userID),
		UserID:        userID,
		TransactionID: txID,
		Direction:     direction,
		Category:      category,
		Amount:        amount,
		Available:     available,
		Lifetime:      lifetime,
	}
}

// LevelUpEvent is emitted when an earn transaction pushes a user into a higher level.
type LevelUpEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	LevelName string `json:"level_name"`
	Total     int64  `json:"total_points"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"old_level":    e.OldLevel,
		"new_level":    e.NewLevel,
		"level_name":   e.LevelName,
		"total_points": e.Total,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int, levelName string, total int64) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		LevelName: levelName,
		Total:     total,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakExtendedEvent is emitted when a streak grows by one day.
type StreakExtendedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	ActivityType string `json:"activity_type"`
	Current      int    `json:"current"`
	Longest      int    `json:"longest"`
	IsNewRecord  bool   `json:"is_new_record"`
	Bonus        int64  `json:"bonus"`
}

// Payload implements Event interface.
func (e StreakExtendedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"activity_type": e.ActivityType,
		"current":       e.Current,
		"longest":       e.Longest,
		"is_new_record": e.IsNewRecord,
		"bonus":         e.Bonus,
	}
}

// NewStreakExtendedEvent creates a new StreakExtendedEvent.
func NewStreakExtendedEvent(userID, activityType string, current, longest int, isRecord bool, bonus int64) StreakExtendedEvent {
	return StreakExtendedEvent{
		BaseEvent:    NewBaseEvent(EventStreakExtended, userID),
		UserID:       userID,
		ActivityType: activityType,
		Current:      current,
		Longest:      longest,
		IsNewRecord:  isRecord,
		Bonus:        bonus,
	}
}

// StreakBrokenEvent is emitted by the deactivation sweep when a streak goes stale.
type StreakBrokenEvent struct {
	BaseEvent
	UserID       string    `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	BrokenStreak int       `json:"broken_streak"`
	LastActiveAt time.Time `json:"last_active_at"`
	DaysMissed   int       `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"activity_type":  e.ActivityType,
		"broken_streak":  e.BrokenStreak,
		"last_active_at": e.LastActiveAt,
		"days_missed":    e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID, activityType string, brokenStreak int, lastActive time.Time, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:    NewBaseEvent(EventStreakBroken, userID),
		UserID:       userID,
		ActivityType: activityType,
		BrokenStreak: brokenStreak,
		LastActiveAt: lastActive,
		DaysMissed:   daysMissed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when a user unlocks an achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	AchievementID   string `json:"achievement_id"`
	AchievementName string `json:"achievement_name"`
	Rarity          string `json:"rarity"`
	Bonus           int64  `json:"bonus"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"achievement_id":   e.AchievementID,
		"achievement_name": e.AchievementName,
		"rarity":           e.Rarity,
		"bonus":            e.Bonus,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID, name, rarity string, bonus int64) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:       NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:          userID,
		AchievementID:   achievementID,
		AchievementName: name,
		Rarity:          rarity,
		Bonus:           bonus,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Reward Events
// ═══════════════════════════════════════════════════════════════════════════

// RewardRedeemedEvent is emitted after a successful spend + token mint.
type RewardRedeemedEvent struct {
	BaseEvent
	UserID    string    `json:"user_id"`
	RewardID  string    `json:"reward_id"`
	TokenID   string    `json:"token_id"`
	Cost      int64     `json:"cost"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Payload implements Event interface.
func (e RewardRedeemedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"reward_id":  e.RewardID,
		"token_id":   e.TokenID,
		"cost":       e.Cost,
		"expires_at": e.ExpiresAt,
	}
}

// NewRewardRedeemedEvent creates a new RewardRedeemedEvent.
func NewRewardRedeemedEvent(userID, rewardID, tokenID string, cost int64, expiresAt time.Time) RewardRedeemedEvent {
	return RewardRedeemedEvent{
		BaseEvent: NewBaseEvent(EventRewardRedeemed, userID),
		UserID:    userID,
		RewardID:  rewardID,
		TokenID:   tokenID,
		Cost:      cost,
		ExpiresAt: expiresAt,
	}
}

// RedemptionCompletedEvent is emitted when a token is marked redeemed at a location.
type RedemptionCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	TokenID  string `json:"token_id"`
	RewardID string `json:"reward_id"`
	Location string `json:"location,omitempty"`
}

// Payload implements Event interface.
func (e RedemptionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"token_id":  e.TokenID,
		"reward_id": e.RewardID,
		"location":  e.Location,
	}
}

// NewRedemptionCompletedEvent creates a new RedemptionCompletedEvent.
func NewRedemptionCompletedEvent(userID, tokenID, rewardID, location string) RedemptionCompletedEvent {
	return RedemptionCompletedEvent{
		BaseEvent: NewBaseEvent(EventRedemptionCompleted, userID),
		UserID:    userID,
		TokenID:   tokenID,
		RewardID:  rewardID,
		Location:  location,
	}
}
