package coupon

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	SuffixLength    = 8
	MinPrefixLength = 2
	MaxPrefixLength = 16
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrInconsistentState = errors.New("inconsistent coupon state")

	codePattern   = regexp.MustCompile(`^[A-Z0-9]+-[A-Z0-9]{8}$`)
	prefixPattern = regexp.MustCompile(`[^A-Z0-9]`)
)

type State int

const (
	StateNone State = iota
	StateActive
	StateRedeemed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRedeemed:
		return "redeemed"
	default:
		return "none"
	}
}

// Coupon is the single view of the three persisted coupon columns.
type Coupon struct {
	State      State
	Code       string
	RedeemedAt *time.Time
}

// FromFields projects the stored columns onto a Coupon, refusing any
// combination the lifecycle cannot produce.
func FromFields(code *string, active bool, usedAt *time.Time) (Coupon, error) {
	switch {
	case code == nil || *code == "":
		if active || usedAt != nil {
			return Coupon{}, ErrInconsistentState
		}
		return Coupon{State: StateNone}, nil
	case active && usedAt == nil:
		return Coupon{State: StateActive, Code: *code}, nil
	case !active && usedAt != nil:
		return Coupon{State: StateRedeemed, Code: *code, RedeemedAt: usedAt}, nil
	default:
		return Coupon{}, ErrInconsistentState
	}
}

// Fields is the inverse of FromFields.
func (c Coupon) Fields() (code *string, active bool, usedAt *time.Time) {
	switch c.State {
	case StateActive:
		return &c.Code, true, nil
	case StateRedeemed:
		return &c.Code, false, c.RedeemedAt
	default:
		return nil, false, nil
	}
}

// Generator draws coupon suffixes. A nil Reader means crypto/rand.
type Generator struct {
	Reader io.Reader
}

// Generate returns PREFIX-XXXXXXXX.
func (g Generator) Generate(prefix string) (string, error) {
	reader := g.Reader
	if reader == nil {
		reader = rand.Reader
	}

	max := big.NewInt(int64(len(alphabet)))
	suffix := make([]byte, SuffixLength)
	for i := range suffix {
		n, err := rand.Int(reader, max)
		if err != nil {
			return "", fmt.Errorf("generate coupon suffix: %w", err)
		}
		suffix[i] = alphabet[n.Int64()]
	}

	return Normalize(prefix) + "-" + string(suffix), nil
}

// Normalize gives the stored (upper-case) form used for lookups.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func Valid(code string) bool {
	return codePattern.MatchString(Normalize(code))
}

// PrefixFromSlug derives a default prefix, e.g. "agape-26" -> "AGAPE26",
// cut to MaxPrefixLength. The result may be shorter than MinPrefixLength.
func PrefixFromSlug(slug string) string {
	prefix := prefixPattern.ReplaceAllString(strings.ToUpper(slug), "")
	if len(prefix) > MaxPrefixLength {
		prefix = prefix[:MaxPrefixLength]
	}
	return prefix
}
