package identifier

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	CaseIDPrefix = "SR-"
	CaseIDLength = 6

	// Charset is the full upper-case alphanumeric alphabet.
	Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// UnambiguousCharset drops 0/O, 1/I/L, 5/S, 2/Z and 8/B.
	UnambiguousCharset = "ACDEFGHJKMNPQRTUVWXY34679"
)

// Assigner generates case ids and PINs. It does not guarantee uniqueness:
// callers retry when the store reports a duplicate.
type Assigner struct {
	charset string
}

func New(excludeAmbiguous bool) *Assigner {
	cs := Charset
	if excludeAmbiguous {
		cs = UnambiguousCharset
	}
	return &Assigner{charset: cs}
}

func (a *Assigner) NewCaseID() (string, error) {
	b := make([]byte, CaseIDLength)
	limit := big.NewInt(int64(len(a.charset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("case id: %w", err)
		}
		b[i] = a.charset[n.Int64()]
	}
	return CaseIDPrefix + string(b), nil
}

// NewPIN returns a 4-digit PIN in 1000-9999.
func (a *Assigner) NewPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("pin: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
