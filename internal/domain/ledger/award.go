package ledger

import (
	"fmt"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY AWARDS
// Детерминированные формулы начисления за каждую категорию активности.
// ══════════════════════════════════════════════════════════════════════════════

// Базовые начисления за активности.
const (
	BaseDailyCheckin = account.Points(10)
	BaseAssessment   = account.Points(25)
	BaseEducation    = account.Points(15)
	BasePeerSupport  = account.Points(20)
	BaseResource     = account.Points(5)

	// WelcomeBonus - фиксированный приветственный бонус при создании аккаунта.
	WelcomeBonus = account.Points(50)

	// LevelUpBonus - бонус за каждый набранный уровень.
	LevelUpBonus = account.Points(25)
)

// ActivityPayload содержит данные активности, влияющие на формулу начисления.
type ActivityPayload struct {
	// Mood - самочувствие по шкале 1-10 (для ежедневной отметки; 0 = не указано).
	Mood int
}

// ActivityAward вычисляет начисление и описание для активности.
// Формулы:
//   - daily_checkin: база 10, бонус настроения +10 при mood >= 8, +5 при mood 5-7;
//   - assessment: 25; education: 15; peer_support: 20; resource: 5.
func ActivityAward(category Category, payload ActivityPayload) (account.Points, string, error) {
	switch category {
	case CategoryDailyCheckin:
		amount := BaseDailyCheckin
		switch {
		case payload.Mood >= 8:
			amount += 10
		case payload.Mood >= 5:
			amount += 5
		}
		desc := "Daily check-in"
		if payload.Mood > 0 {
			desc = fmt.Sprintf("Daily check-in (mood %d)", payload.Mood)
		}
		return amount, desc, nil

	case CategoryAssessment:
		return BaseAssessment, "Assessment completed", nil

	case CategoryEducation:
		return BaseEducation, "Educational engagement", nil

	case CategoryPeerSupport:
		return BasePeerSupport, "Peer support action", nil

	case CategoryResource:
		return BaseResource, "Resource interaction", nil

	default:
		return 0, "", fmt.Errorf("ledger: no award formula for category %q", category)
	}
}
