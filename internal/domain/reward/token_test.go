package reward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNewCodec_KeyLength(t *testing.T) {
	_, err := NewCodec(testKey())
	assert.NoError(t, err)

	_, err = NewCodec([]byte("too short"))
	assert.Error(t, err)

	_, err = NewCodec(nil)
	assert.Error(t, err)
}

func TestCodec_SealOpenRoundTrip(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)

	claims := Claims{
		TokenID:   "token-1",
		UserID:    "user-1",
		RewardID:  "reward-1",
		ExpiresAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}

	code, err := codec.Seal(claims)
	require.NoError(t, err)
	assert.NotEmpty(t, code)

	opened, err := codec.Open(code)
	require.NoError(t, err)
	assert.Equal(t, claims, opened)
}

func TestCodec_NoncesDiffer(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)

	claims := Claims{TokenID: "token-1", UserID: "user-1"}

	first, err := codec.Seal(claims)
	require.NoError(t, err)
	second, err := codec.Seal(claims)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each sealing uses a fresh nonce")
}

func TestCodec_RejectsTamperedCode(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)

	code, err := codec.Seal(Claims{TokenID: "token-1", UserID: "user-1"})
	require.NoError(t, err)

	tampered := []byte(code)
	tampered[len(tampered)-1] ^= 0x01

	_, err = codec.Open(string(tampered))
	assert.ErrorIs(t, err, shared.ErrTokenMalformed)
}

func TestCodec_RejectsForeignKey(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)

	other := testKey()
	other[0] ^= 0xFF
	foreign, err := NewCodec(other)
	require.NoError(t, err)

	code, err := foreign.Seal(Claims{TokenID: "token-1"})
	require.NoError(t, err)

	_, err = codec.Open(code)
	assert.ErrorIs(t, err, shared.ErrTokenMalformed)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)

	for _, code := range []string{"", "not-base64!!!", "c2hvcnQ"} {
		_, err := codec.Open(code)
		assert.ErrorIs(t, err, shared.ErrTokenMalformed, "code=%q", code)
	}
}

func TestToken_Lifecycle(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := &Token{
		ID:        "token-1",
		UserID:    "user-1",
		Status:    TokenStatusIssued,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(30 * 24 * time.Hour),
	}

	assert.False(t, token.IsExpired(issued))
	assert.False(t, token.IsExpired(token.ExpiresAt.Add(-time.Second)))
	assert.True(t, token.IsExpired(token.ExpiresAt))

	token.MarkRedeemed("front desk", issued.Add(time.Hour))
	assert.Equal(t, TokenStatusRedeemed, token.Status)
	assert.Equal(t, "front desk", token.Location)
	assert.False(t, token.RedeemedAt.IsZero())
}
