package metadata

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

func TestMergeFillsOnlyEmptyFields(t *testing.T) {
	current := Record{Name: null.StringFrom("Acme Ltd")}
	incoming := Record{Name: null.StringFrom("Other Name"), Sector: null.StringFrom("Tech")}

	out := Merge(current, incoming)

	// populated fields are never replaced
	assert.Equal(t, "Acme Ltd", out.Name.String)
	// empty fields take the incoming value
	assert.Equal(t, "Tech", out.Sector.String)
	assert.False(t, out.Industry.Valid)
}

func TestMergeTreatsBlankAsAbsent(t *testing.T) {
	current := Record{Name: null.StringFrom("   ")}
	incoming := Record{Name: null.StringFrom("Acme Ltd")}

	out := Merge(current, incoming)
	assert.Equal(t, "Acme Ltd", out.Name.String)

	// blank incoming never clobbers anything
	out = Merge(Record{Name: null.StringFrom("Acme Ltd")}, Record{Name: null.StringFrom("")})
	assert.Equal(t, "Acme Ltd", out.Name.String)
}

func TestMergeListingDate(t *testing.T) {
	d1 := time.Date(1995, 11, 8, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	out := Merge(Record{}, Record{ListingDate: null.TimeFrom(d1)})
	assert.Equal(t, d1, out.ListingDate.Time)

	out = Merge(out, Record{ListingDate: null.TimeFrom(d2)})
	assert.Equal(t, d1, out.ListingDate.Time)
}

func TestMergeIsConvergent(t *testing.T) {
	a := Record{Name: null.StringFrom("Acme Ltd"), Sector: null.StringFrom("Tech")}
	b := Record{Sector: null.StringFrom("Energy"), Industry: null.StringFrom("Oil & Gas")}

	once := Merge(Record{}, a)
	once = Merge(once, b)

	// re-merging the same inputs changes nothing
	again := Merge(once, a)
	again = Merge(again, b)
	assert.Equal(t, once, again)

	// source order only decides who wins a still-empty field
	assert.Equal(t, "Tech", once.Sector.String)
	assert.Equal(t, "Oil & Gas", once.Industry.String)
}

func TestMissingCore(t *testing.T) {
	assert.True(t, Record{}.MissingCore())
	assert.True(t, Record{Name: null.StringFrom("Acme"), Sector: null.StringFrom("Tech")}.MissingCore())

	full := Record{
		Name:     null.StringFrom("Acme"),
		Sector:   null.StringFrom("Tech"),
		Industry: null.StringFrom("Software"),
	}
	assert.False(t, full.MissingCore())
}
