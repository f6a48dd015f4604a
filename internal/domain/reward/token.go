package reward

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDEMPTION TOKEN
// Токен - доказательство обмена. Полезная нагрузка запечатывается
// симметричным ключом, так что предъявленный код нельзя подделать или
// прочитать без ключа сервиса.
// ══════════════════════════════════════════════════════════════════════════════

// TokenStatus описывает состояние токена погашения.
type TokenStatus string

const (
	// TokenStatusIssued - токен выпущен и ещё не погашен.
	TokenStatusIssued TokenStatus = "issued"
	// TokenStatusRedeemed - токен погашен.
	TokenStatusRedeemed TokenStatus = "redeemed"
	// TokenStatusExpired - токен просрочен фоновой проверкой.
	TokenStatusExpired TokenStatus = "expired"
)

// Token - запись о выпущенном токене погашения.
type Token struct {
	// ID - идентификатор токена.
	ID string

	// UserID - владелец.
	UserID account.UserID

	// RewardID - обменянная награда.
	RewardID string

	// TransactionID - списавшая баллы транзакция.
	TransactionID string

	// Code - запечатанный предъявляемый код.
	Code string

	// Status - состояние токена.
	Status TokenStatus

	// IssuedAt - время выпуска.
	IssuedAt time.Time

	// ExpiresAt - время истечения.
	ExpiresAt time.Time

	// RedeemedAt - время погашения (нулевое, пока не погашен).
	RedeemedAt time.Time

	// Location - место погашения.
	Location string
}

// IsExpired проверяет, истёк ли токен к моменту now.
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// MarkRedeemed переводит токен в состояние "погашен".
func (t *Token) MarkRedeemed(location string, at time.Time) {
	t.Status = TokenStatusRedeemed
	t.RedeemedAt = at
	t.Location = location
}

// MarkExpired переводит токен в состояние "просрочен".
func (t *Token) MarkExpired() {
	t.Status = TokenStatusExpired
}

// Clone создаёт копию токена.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN CODEC
// ══════════════════════════════════════════════════════════════════════════════

// Claims - полезная нагрузка запечатанного кода.
type Claims struct {
	TokenID   string `json:"token_id"`
	UserID    string `json:"user_id"`
	RewardID  string `json:"reward_id"`
	ExpiresAt int64  `json:"expires_at"`
}

// Codec запечатывает и вскрывает коды токенов с помощью секретного ключа.
type Codec struct {
	key [32]byte
}

// NewCodec создаёт Codec. Ключ должен быть ровно 32 байта.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != 32 {
		return nil, shared.NewDomainError("reward", "NewCodec", shared.ErrInvalidInput, "token key must be 32 bytes")
	}

	c := &Codec{}
	copy(c.key[:], key)
	return c, nil
}

// Seal запечатывает claims в предъявляемый код: base64url(nonce || box).
func (c *Codec) Seal(claims Claims) (string, error) {
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", shared.WrapError("reward", "Seal", shared.ErrInvalidInput, "claims marshal failed", err)
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", shared.WrapError("reward", "Seal", shared.ErrTransient, "nonce generation failed", err)
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open вскрывает код и возвращает claims.
// Возвращает ErrTokenMalformed для любого кода, не запечатанного этим ключом.
func (c *Codec) Open(code string) (Claims, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil || len(sealed) < 24+secretbox.Overhead {
		return Claims{}, shared.ErrTokenMalformed
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &c.key)
	if !ok {
		return Claims{}, shared.ErrTokenMalformed
	}

	var claims Claims
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return Claims{}, shared.ErrTokenMalformed
	}
	return claims, nil
}
