package registry

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/safereport/backend/internal/models"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,19}$`)

// FieldErrors lists detail fields that are absent or fail their type or rule.
type FieldErrors struct {
	Missing []string          `json:"missing,omitempty"`
	Invalid map[string]string `json:"invalid,omitempty"`
}

func (e *FieldErrors) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		names := make([]string, 0, len(e.Invalid))
		for k := range e.Invalid {
			names = append(names, k)
		}
		sort.Strings(names)
		parts = append(parts, "invalid "+strings.Join(names, ", "))
	}
	return "fields: " + strings.Join(parts, "; ")
}

func (e *FieldErrors) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// CheckFields validates values against every field of sector/category and
// returns only the declared fields, with strings trimmed and numbers as float64.
// Undeclared keys are dropped. A *FieldErrors is returned when anything is
// missing or invalid.
func (r *Registry) CheckFields(sectorID models.SectorID, categoryID string, values map[string]any) (map[string]any, error) {
	specs, err := r.Fields(sectorID, categoryID)
	if err != nil {
		return nil, err
	}
	clean := make(map[string]any, len(specs))
	fe := &FieldErrors{Invalid: map[string]string{}}
	for _, f := range specs {
		raw, present := values[f.Name]
		if !present || isBlank(raw) {
			if f.Required {
				fe.Missing = append(fe.Missing, f.Name)
			}
			continue
		}
		v, msg := r.checkValue(f, raw)
		if msg != "" {
			fe.Invalid[f.Name] = msg
			continue
		}
		clean[f.Name] = v
	}
	if fe.empty() {
		return clean, nil
	}
	if len(fe.Invalid) == 0 {
		fe.Invalid = nil
	}
	return clean, fe
}

func (r *Registry) checkValue(f FieldSpec, raw any) (any, string) {
	switch f.Type {
	case FieldNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, "must be a number"
		}
		if f.Validate != "" {
			if err := r.validate.Var(n, f.Validate); err != nil {
				return nil, "failed " + f.Validate
			}
		}
		return n, ""
	case FieldBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, "must be true or false"
		}
		return b, ""
	}

	s, ok := raw.(string)
	if !ok {
		return nil, "must be a string"
	}
	s = strings.TrimSpace(s)
	var tag string
	switch f.Type {
	case FieldDate:
		tag = "datetime=2006-01-02"
	case FieldPhone:
		tag = "phone"
	case FieldEmail:
		tag = "email"
	case FieldEnum:
		for _, o := range f.Options {
			if s == o {
				return s, ""
			}
		}
		return nil, "must be one of " + strings.Join(f.Options, ", ")
	}
	if tag != "" {
		if err := r.validate.Var(s, tag); err != nil {
			return nil, fmt.Sprintf("must be a valid %s", f.Type)
		}
	}
	if f.Validate != "" {
		if err := r.validate.Var(s, f.Validate); err != nil {
			return nil, "failed " + f.Validate
		}
	}
	return s, ""
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
