package importer

import (
	"slices"
	"strings"
	"unicode"
)

// NotFound marks a role with no matching header.
const NotFound = -1

// Role is a semantic column the parser must locate.
type Role int

const (
	RoleDate Role = iota
	RoleDescription
	RoleAmount
	RoleCategory
)

// requiredRoles must all resolve before rows are read.
var requiredRoles = []Role{RoleDate, RoleDescription, RoleAmount}

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "Date"
	case RoleDescription:
		return "Description"
	case RoleAmount:
		return "Amount"
	case RoleCategory:
		return "Category"
	default:
		return "Unknown"
	}
}

// Profile names one institution's export layout.
type Profile string

const (
	ProfileGeneric Profile = "generic"
	ProfileChase   Profile = "chase"
	ProfileAmex    Profile = "amex"
)

// Dictionary lists candidate header names per role, highest priority first.
type Dictionary struct {
	Date        []string
	Description []string
	Amount      []string
	Category    []string
}

// Candidates returns the header names tried for role.
func (d Dictionary) Candidates(role Role) []string {
	switch role {
	case RoleDate:
		return d.Date
	case RoleDescription:
		return d.Description
	case RoleAmount:
		return d.Amount
	case RoleCategory:
		return d.Category
	default:
		return nil
	}
}

// profileOrder is the listing order of known profiles.
var profileOrder = []Profile{ProfileGeneric, ProfileChase, ProfileAmex}

// profiles is never mutated after init; DictionaryFor hands out copies.
var profiles = map[Profile]Dictionary{
	ProfileGeneric: {
		Date:        []string{"date", "transaction date", "posting date", "trans date"},
		Description: []string{"description", "memo", "payee", "merchant", "transaction description"},
		Amount:      []string{"amount", "debit amount", "credit amount", "transaction amount"},
		Category:    []string{"category", "type", "transaction type"},
	},
	ProfileChase: {
		Date:        []string{"transaction date", "post date"},
		Description: []string{"description"},
		Amount:      []string{"amount"},
		Category:    []string{"type", "category"},
	},
	ProfileAmex: {
		Date:        []string{"date"},
		Description: []string{"description"},
		Amount:      []string{"amount"},
		Category:    []string{"category"},
	},
}

// Profiles returns the known profiles in listing order.
func Profiles() []Profile {
	return slices.Clone(profileOrder)
}

// DictionaryFor returns a copy of the header dictionary for p.
func DictionaryFor(p Profile) (Dictionary, bool) {
	d, ok := profiles[p]
	if !ok {
		return Dictionary{}, false
	}
	return Dictionary{
		Date:        slices.Clone(d.Date),
		Description: slices.Clone(d.Description),
		Amount:      slices.Clone(d.Amount),
		Category:    slices.Clone(d.Category),
	}, true
}

// ColumnMap holds the header index of each role, or NotFound.
type ColumnMap struct {
	Date        int
	Description int
	Amount      int
	Category    int
}

// Index returns the column for role.
func (m ColumnMap) Index(role Role) int {
	switch role {
	case RoleDate:
		return m.Date
	case RoleDescription:
		return m.Description
	case RoleAmount:
		return m.Amount
	case RoleCategory:
		return m.Category
	default:
		return NotFound
	}
}

// Missing returns the required roles that did not resolve.
func (m ColumnMap) Missing() []Role {
	var missing []Role
	for _, r := range requiredRoles {
		if m.Index(r) == NotFound {
			missing = append(missing, r)
		}
	}
	return missing
}

// NormalizeHeader lowercases s, drops everything but letters, digits and
// spaces, and trims the result.
func NormalizeHeader(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return -1
	}, strings.ToLower(s))
	return strings.TrimSpace(s)
}

func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// DetectProfile picks the profile whose signature appears in headers.
func DetectProfile(headers []string) Profile {
	return detectProfile(normalizeHeaders(headers))
}

func detectProfile(normalized []string) Profile {
	for _, h := range normalized {
		if strings.Contains(h, "post date") || strings.Contains(h, "transaction date") {
			return ProfileChase
		}
	}
	if slices.Contains(normalized, "date") && slices.Contains(normalized, "description") {
		return ProfileAmex
	}
	return ProfileGeneric
}

// InferColumns maps every role to a header index using the dictionary of p.
// Unknown profiles fall back to the generic dictionary.
func InferColumns(headers []string, p Profile) ColumnMap {
	dict, ok := profiles[p]
	if !ok {
		dict = profiles[ProfileGeneric]
	}
	normalized := normalizeHeaders(headers)
	return ColumnMap{
		Date:        findColumn(normalized, dict.Date),
		Description: findColumn(normalized, dict.Description),
		Amount:      findColumn(normalized, dict.Amount),
		Category:    findColumn(normalized, dict.Category),
	}
}

// findColumn returns the lowest header index matched by the first candidate
// that matches anything. Blank headers never match.
func findColumn(normalized, candidates []string) int {
	for _, c := range candidates {
		name := NormalizeHeader(c)
		for i, h := range normalized {
			if h == "" {
				continue
			}
			if strings.Contains(h, name) || strings.Contains(name, h) {
				return i
			}
		}
	}
	return NotFound
}
