// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
)

// VariableError describes one variable that failed validation.
type VariableError struct {
	Variable string
	Reason   string
}

func (e VariableError) Error() string {
	return fmt.Sprintf("variable %q: %s", e.Variable, e.Reason)
}

// CheckVariables verifies vars against the template's validation block:
// every required name must be present and every present variable with a
// type rule must satisfy it. All violations are reported together.
func CheckVariables(v *Validation, vars map[string]any) error {
	if v == nil {
		return nil
	}
	var errs []error
	for _, name := range v.Required {
		if _, ok := vars[name]; !ok {
			errs = append(errs, VariableError{Variable: name, Reason: "is required"})
		}
	}

	names := make([]string, 0, len(v.Types))
	for name := range v.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, ok := vars[name]
		if !ok {
			continue
		}
		if err := checkRule(v.Types[name], value); err != nil {
			errs = append(errs, VariableError{Variable: name, Reason: err.Error()})
		}
	}
	return errors.Join(errs...)
}

func checkRule(rule TypeRule, value any) error {
	switch rule.Type {
	case "", "any":
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if rule.Pattern != "" {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", rule.Pattern, err)
			}
			if !re.MatchString(s) {
				return fmt.Errorf("does not match pattern %q", rule.Pattern)
			}
		}
	case "number":
		n, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
		if rule.Min != nil && n < *rule.Min {
			return fmt.Errorf("must be >= %v", *rule.Min)
		}
		if rule.Max != nil && n > *rule.Max {
			return fmt.Errorf("must be <= %v", *rule.Max)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "array":
		if value == nil || reflect.TypeOf(value).Kind() != reflect.Slice {
			return fmt.Errorf("expected array, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	default:
		return fmt.Errorf("unknown type %q", rule.Type)
	}

	if len(rule.Enum) > 0 {
		for _, allowed := range rule.Enum {
			if reflect.DeepEqual(allowed, value) {
				return nil
			}
			if a, ok := toFloat(allowed); ok {
				if b, ok := toFloat(value); ok && a == b {
					return nil
				}
			}
		}
		return fmt.Errorf("must be one of %v", rule.Enum)
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
