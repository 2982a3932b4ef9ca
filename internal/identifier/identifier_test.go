package identifier

import (
	"regexp"
	"strings"
	"testing"
)

var (
	caseIDPattern = regexp.MustCompile(`^SR-[A-Z0-9]{6}$`)
	pinPattern    = regexp.MustCompile(`^[1-9][0-9]{3}$`)
)

func TestNewCaseIDFormat(t *testing.T) {
	for _, exclude := range []bool{false, true} {
		a := New(exclude)
		for i := 0; i < 500; i++ {
			id, err := a.NewCaseID()
			if err != nil {
				t.Fatalf("case id: %v", err)
			}
			if !caseIDPattern.MatchString(id) {
				t.Fatalf("case id %q does not match pattern", id)
			}
		}
	}
}

func TestUnambiguousCharsetExcludesLookalikes(t *testing.T) {
	a := New(true)
	for i := 0; i < 500; i++ {
		id, _ := a.NewCaseID()
		if strings.ContainsAny(strings.TrimPrefix(id, CaseIDPrefix), "0O1IL5S2Z8B") {
			t.Fatalf("case id %q contains an ambiguous character", id)
		}
	}
}

func TestNewPINFormat(t *testing.T) {
	a := New(false)
	for i := 0; i < 500; i++ {
		pin, err := a.NewPIN()
		if err != nil {
			t.Fatalf("pin: %v", err)
		}
		if !pinPattern.MatchString(pin) {
			t.Fatalf("pin %q does not match pattern", pin)
		}
	}
}
