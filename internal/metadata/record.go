package metadata

import (
	"strings"

	"github.com/guregu/null/v6"
)

// Record is a partial, source-tagged snapshot of a company's descriptive
// fields. The field set is fixed; every field is an explicit optional. A
// Record is only ever merge input, never persisted directly.
type Record struct {
	Name        null.String
	Sector      null.String
	Industry    null.String
	ISIN        null.String
	ListingDate null.Time
	Source      string
}

// Merge overwrites each field of current with incoming's value if and only
// if current's field is absent or blank and incoming's is present and
// non-blank. Populated fields are never replaced, so repeated merges are
// convergent and source order only decides who wins a still-empty field.
func Merge(current, incoming Record) Record {
	out := current
	out.Name = mergeString(current.Name, incoming.Name)
	out.Sector = mergeString(current.Sector, incoming.Sector)
	out.Industry = mergeString(current.Industry, incoming.Industry)
	out.ISIN = mergeString(current.ISIN, incoming.ISIN)
	if !current.ListingDate.Valid && incoming.ListingDate.Valid {
		out.ListingDate = incoming.ListingDate
	}
	return out
}

// MissingCore reports whether the record still lacks any of the descriptive
// fields worth consulting a fallback source for.
func (r Record) MissingCore() bool {
	return blank(r.Name) || blank(r.Sector) || blank(r.Industry)
}

func mergeString(cur, inc null.String) null.String {
	if blank(cur) && !blank(inc) {
		return inc
	}
	return cur
}

func blank(s null.String) bool {
	return !s.Valid || strings.TrimSpace(s.String) == ""
}
