package character

import (
	"cmp"
	"fmt"
	"slices"

	"genjigraph/pkg/models"
)

// RawRecord is the single row a store returns for a TraversalSpec.
type RawRecord struct {
	Character         models.Properties
	RelatedCharacters []models.RelatedCharacter
	RelatedPoems      []RawPoem
}

// RawPoem is one collected poem row. Poem and Chapter are nil when the
// optional traversal matched nothing.
type RawPoem struct {
	Poem         models.Properties
	Chapter      models.Properties
	Relationship string
}

// Reasons a raw poem is left out of the response.
const (
	DropMissingPoem    = "missing_poem"
	DropMissingChapter = "missing_chapter"
	DropMalformedPNum  = "malformed_pnum"
)

type DroppedPoem struct {
	PNum   string
	Reason string
	Err    error
}

// Report lists the raw poems that were skipped while assembling.
type Report struct {
	Dropped []DroppedPoem
}

func (r Report) DroppedCount() int { return len(r.Dropped) }

// Assemble shapes a raw record into the client response. A nil record means
// no character matched and yields ErrNotFound.
func Assemble(raw *RawRecord, includeChars, includePoems bool) (*models.CharacterData, Report, error) {
	var report Report
	if raw == nil {
		return nil, report, ErrNotFound
	}

	out := &models.CharacterData{
		Character:         raw.Character,
		RelatedCharacters: []models.RelatedCharacter{},
		RelatedPoems:      []models.RelatedPoem{},
	}
	if out.Character == nil {
		out.Character = models.Properties{}
	}
	if includeChars && raw.RelatedCharacters != nil {
		out.RelatedCharacters = raw.RelatedCharacters
	}
	if includePoems {
		out.RelatedPoems, report = processPoems(raw.RelatedPoems)
	}
	return out, report, nil
}

func processPoems(raw []RawPoem) ([]models.RelatedPoem, Report) {
	var report Report
	out := make([]models.RelatedPoem, 0, len(raw))

	for _, rp := range raw {
		if rp.Poem == nil {
			report.Dropped = append(report.Dropped, DroppedPoem{Reason: DropMissingPoem})
			continue
		}
		pnum := pnumOf(rp.Poem)
		if rp.Chapter == nil {
			report.Dropped = append(report.Dropped, DroppedPoem{PNum: pnum, Reason: DropMissingChapter})
			continue
		}

		parts, err := parsePNum(pnum)
		if err != nil {
			report.Dropped = append(report.Dropped, DroppedPoem{PNum: pnum, Reason: DropMalformedPNum, Err: err})
			continue
		}

		out = append(out, models.RelatedPoem{
			Relationship: rp.Relationship,
			Chapter:      rp.Chapter,
			Poem:         rp.Poem,
			ChapterNum:   parts.ChapterNum,
			PoemNum:      parts.PoemNum,
			URL:          parts.URL(),
		})
	}

	slices.SortStableFunc(out, comparePoems)
	return out, report
}

// comparePoems orders by chapter then poem number. Relationship, the raw pnum
// and finally the poem and chapter properties break ties, so the order is total.
func comparePoems(a, b models.RelatedPoem) int {
	ach, apn := pnumParts{a.ChapterNum, a.PoemNum}.Ints()
	bch, bpn := pnumParts{b.ChapterNum, b.PoemNum}.Ints()
	if c := cmp.Compare(ach, bch); c != 0 {
		return c
	}
	if c := cmp.Compare(apn, bpn); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Relationship, b.Relationship); c != 0 {
		return c
	}
	if c := cmp.Compare(pnumOf(a.Poem), pnumOf(b.Poem)); c != 0 {
		return c
	}
	// fmt prints map keys sorted, so this is a stable encoding of the snapshot.
	if c := cmp.Compare(fmt.Sprint(a.Poem), fmt.Sprint(b.Poem)); c != 0 {
		return c
	}
	return cmp.Compare(fmt.Sprint(a.Chapter), fmt.Sprint(b.Chapter))
}

func pnumOf(p models.Properties) string {
	switch v := p["pnum"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
