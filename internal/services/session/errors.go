package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrSessionExpired = errors.New("session expired, please log in again")

// ValidationError reports per-field problems with submitted
// credentials, keyed by the field's wire name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// PasswordPolicyError itemizes every password rule the candidate
// breaks, so the caller can surface the full checklist at once.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	return fmt.Sprintf("password does not meet requirements: %s", strings.Join(e.Violations, ", "))
}
