package coupon

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := Generator{}.Generate("agape26")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(code, "AGAPE26-"), code)
		require.True(t, Valid(code), code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 195, "suffixes should rarely collide")
}

func TestGenerateDeterministicReader(t *testing.T) {
	a, err := Generator{Reader: bytes.NewReader(bytes.Repeat([]byte{7}, 256))}.Generate("EVT")
	require.NoError(t, err)
	b, err := Generator{Reader: bytes.NewReader(bytes.Repeat([]byte{7}, 256))}.Generate("EVT")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, Valid(a))
}

func TestNormalizeIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "AGAPE26-7K2M9QAZ", Normalize("  agape26-7k2m9qaz "))
	assert.True(t, Valid("agape26-7k2m9qaz"))
	assert.False(t, Valid("AGAPE26-7K2M9QA"))
	assert.False(t, Valid("7K2M9QAZ"))
}

func TestPrefixFromSlug(t *testing.T) {
	assert.Equal(t, "AGAPE26", PrefixFromSlug("agape-26"))
	assert.Equal(t, "RCFRETREAT", PrefixFromSlug("rcf_retreat"))
	assert.Equal(t, "AVERYLONGEVENTSL", PrefixFromSlug("a-very-long-event-slug-for-2026"))
	assert.Equal(t, "A", PrefixFromSlug("a-"))
}

func TestStateProjection(t *testing.T) {
	code := "EVT-AAAAAAAA"
	now := time.Now()

	t.Run("RoundTrip", func(t *testing.T) {
		for _, c := range []Coupon{
			{State: StateNone},
			{State: StateActive, Code: code},
			{State: StateRedeemed, Code: code, RedeemedAt: &now},
		} {
			gotCode, active, usedAt := c.Fields()
			back, err := FromFields(gotCode, active, usedAt)
			require.NoError(t, err)
			assert.Equal(t, c, back)
		}
	})

	t.Run("RejectsImpossibleCombinations", func(t *testing.T) {
		for _, tc := range []struct {
			code   *string
			active bool
			usedAt *time.Time
		}{
			{nil, true, nil},
			{nil, false, &now},
			{&code, true, &now},
			{&code, false, nil},
		} {
			_, err := FromFields(tc.code, tc.active, tc.usedAt)
			assert.ErrorIs(t, err, ErrInconsistentState)
		}
	})

	assert.Equal(t, "redeemed", StateRedeemed.String())
}
