package nse

import "strings"

// ColumnAlias maps a canonical field to the ordered set of upstream header
// labels that have carried it over the years. Lookup is exact-match first,
// substring second, so a renamed column degrades gracefully instead of
// silently matching the wrong one.
type ColumnAlias struct {
	Canonical string
	Exact     []string
	Substring []string
}

// Header labels observed across bhavcopy format revisions.
var (
	bhavSymbolColumn = ColumnAlias{
		Canonical: "symbol",
		Exact:     []string{"SYMBOL", "SC_NAME", "SC_CODE"},
	}
	bhavVolumeColumn = ColumnAlias{
		Canonical: "volume",
		Exact:     []string{"TOTTRDQTY", "TOT_TRD_QTY"},
		Substring: []string{"QTY", "VOLUME"},
	}

	equitySymbolColumn = ColumnAlias{
		Canonical: "symbol",
		Exact:     []string{"SYMBOL"},
	}
	equityNameColumn = ColumnAlias{
		Canonical: "name",
		Exact:     []string{"NAME OF COMPANY"},
		Substring: []string{"NAME"},
	}
	equityISINColumn = ColumnAlias{
		Canonical: "isin",
		Exact:     []string{"ISIN NUMBER"},
		Substring: []string{"ISIN"},
	}
	equityListingDateColumn = ColumnAlias{
		Canonical: "listing_date",
		Exact:     []string{"DATE OF LISTING"},
		Substring: []string{"LISTING"},
	}
)

// Find locates the alias in a CSV header row. Labels are compared after
// trimming and upper-casing.
func (a ColumnAlias) Find(header []string) (int, bool) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	for _, want := range a.Exact {
		for i, h := range norm {
			if h == want {
				return i, true
			}
		}
	}
	for _, want := range a.Substring {
		for i, h := range norm {
			if strings.Contains(h, want) {
				return i, true
			}
		}
	}
	return 0, false
}
