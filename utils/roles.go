// utils/roles.go - Role normalization
//
// Legacy rows store roles in several shapes: an integer role_id, a single
// word, a comma separated list, or a JSON array. Authorization must only
// ever consume the canonical set produced here.
package utils

import (
	"encoding/json"
	"strings"
)

// Canonical role values.
const (
	RoleAdmin     = "admin"
	RoleAuthor    = "author"
	RoleEvaluator = "evaluator"
)

// Legacy numeric role ids kept for rows predating the roles column.
const (
	RoleIDAuthor    = 1
	RoleIDEvaluator = 2
	RoleIDAdmin     = 3
)

var roleSynonyms = map[string]string{
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"administrador": RoleAdmin,
	"author":        RoleAuthor,
	"autor":         RoleAuthor,
	"submitter":     RoleAuthor,
	"teacher":       RoleAuthor,
	"evaluator":     RoleEvaluator,
	"avaliador":     RoleEvaluator,
	"reviewer":      RoleEvaluator,
}

func canonicalRole(raw string) (string, bool) {
	role, ok := roleSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return role, ok
}

func roleFromID(roleID int) (string, bool) {
	switch roleID {
	case RoleIDAuthor:
		return RoleAuthor, true
	case RoleIDEvaluator:
		return RoleEvaluator, true
	case RoleIDAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// NormalizeRoles folds a legacy role_id plus whatever is in the roles
// column into one canonical set. Unknown values are dropped.
func NormalizeRoles(roleID int, raw *string) map[string]bool {
	roles := make(map[string]bool)

	if role, ok := roleFromID(roleID); ok {
		roles[role] = true
	}

	if raw == nil {
		return roles
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return roles
	}

	// JSON array shape, e.g. ["admin","avaliador"].
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			for _, entry := range list {
				if role, ok := canonicalRole(entry); ok {
					roles[role] = true
				}
			}
			return roles
		}
		// Malformed JSON falls through to the delimiter split below.
	}

	for _, entry := range strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	}) {
		if role, ok := canonicalRole(entry); ok {
			roles[role] = true
		}
	}

	return roles
}

// HasRole reports membership in the canonical role set.
func HasRole(roles map[string]bool, role string) bool {
	return roles[role]
}

// IsAdmin is the single admin predicate used by every authorization check.
func IsAdmin(roleID int, raw *string) bool {
	return HasRole(NormalizeRoles(roleID, raw), RoleAdmin)
}

// IsEvaluator reports whether the user may be assigned to review submissions.
func IsEvaluator(roleID int, raw *string) bool {
	roles := NormalizeRoles(roleID, raw)
	return roles[RoleEvaluator] || roles[RoleAdmin]
}
