package character

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"genjigraph/internal/fixture"
	"genjigraph/pkg/models"
)

// MemoryStore evaluates traversals over an immutable fixture graph. It is
// used for local development and tests, and follows the same row semantics
// as the Cypher rendering: optional matches, limit on raw rows, DISTINCT
// collection.
type MemoryStore struct {
	nodes map[string]fixture.Node
	out   map[string][]fixture.Edge
	order []string
}

func NewMemoryStore(g *fixture.Graph) (*MemoryStore, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	s := &MemoryStore{
		nodes: make(map[string]fixture.Node, len(g.Nodes)),
		out:   make(map[string][]fixture.Edge),
	}
	for _, n := range g.Nodes {
		s.nodes[n.ID] = n
		s.order = append(s.order, n.ID)
	}
	for _, e := range g.Edges {
		s.out[e.From] = append(s.out[e.From], e)
	}
	return s, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Fetch(ctx context.Context, spec TraversalSpec) (*RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	root, ok := s.matchCharacter(spec.Name)
	if !ok {
		return nil, nil
	}

	rec := &RawRecord{
		Character:         copyProps(root.Properties),
		RelatedCharacters: []models.RelatedCharacter{},
		RelatedPoems:      []RawPoem{},
	}
	if !spec.Characters.Skipped() {
		rec.RelatedCharacters = s.relatedCharacters(root.ID, spec.Characters)
	}
	if !spec.Poems.Skipped() {
		rec.RelatedPoems = s.relatedPoems(root.ID, spec.Poems)
	}
	return rec, nil
}

func (s *MemoryStore) matchCharacter(name string) (fixture.Node, bool) {
	want := strings.ToLower(name)
	for _, id := range s.order {
		n := s.nodes[id]
		if n.Label != LabelCharacter {
			continue
		}
		got, _ := n.Properties["name"].(string)
		if strings.ToLower(got) == want {
			return n, true
		}
	}
	return fixture.Node{}, false
}

func (s *MemoryStore) relatedCharacters(from string, st Stage) []models.RelatedCharacter {
	var rows []models.RelatedCharacter
	for _, e := range s.out[from] {
		to := s.nodes[e.To]
		if to.Label != LabelCharacter || !allows(st.Relationships, e.Type) {
			continue
		}
		name, _ := to.Properties["name"].(string)
		rows = append(rows, models.RelatedCharacter{Name: name, Relationship: e.Type})
	}
	if st.Limit > 0 && len(rows) > st.Limit {
		rows = rows[:st.Limit]
	}

	out := make([]models.RelatedCharacter, 0, len(rows))
	seen := make(map[models.RelatedCharacter]struct{}, len(rows))
	for _, r := range rows {
		// nameless targets still count toward the limit but are not reported
		if r.Name == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

type poemRow struct {
	poem    fixture.Node
	chapter fixture.Node
	rel     string
}

func (s *MemoryStore) relatedPoems(from string, st Stage) []RawPoem {
	var rows []poemRow
	for _, e := range s.out[from] {
		poem := s.nodes[e.To]
		if poem.Label != LabelPoem || !allows(st.Relationships, e.Type) {
			continue
		}
		for _, inc := range s.out[poem.ID] {
			chapter := s.nodes[inc.To]
			if inc.Type != RelIncludedIn || chapter.Label != LabelChapter {
				continue
			}
			rows = append(rows, poemRow{poem: poem, chapter: chapter, rel: e.Type})
		}
	}

	// an optional match that finds nothing still produces one null row
	if len(rows) == 0 {
		return []RawPoem{{}}
	}

	slices.SortStableFunc(rows, func(a, b poemRow) int {
		return compareOrderKeys(poemOrderKey(a.poem), poemOrderKey(b.poem))
	})
	if st.Limit > 0 && len(rows) > st.Limit {
		rows = rows[:st.Limit]
	}

	out := make([]RawPoem, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		key := fmt.Sprintf("%v|%v|%s", r.poem.Properties, r.chapter.Properties, r.rel)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, RawPoem{
			Poem:         copyProps(r.poem.Properties),
			Chapter:      copyProps(r.chapter.Properties),
			Relationship: r.rel,
		})
	}
	return out
}

// orderKey mirrors toInteger() on the pnum segments: a segment that is not
// an integer is null and sorts after every number.
type orderKey struct {
	chapter, poem     int
	chapterOK, poemOK bool
}

func poemOrderKey(n fixture.Node) orderKey {
	pnum := []rune(pnumOf(n.Properties))
	seg := func(r []rune) (int, bool) {
		v, err := atoiOrZero(string(r))
		return v, err == nil && len(r) > 0 && isDigits(string(r))
	}

	var k orderKey
	k.chapter, k.chapterOK = seg(pnum[:min(2, len(pnum))])
	switch {
	case len(pnum) == 4:
		k.poem, k.poemOK = seg(pnum[2:])
	case len(pnum) > 4:
		k.poem, k.poemOK = seg(pnum[4:])
	}
	return k
}

func compareOrderKeys(a, b orderKey) int {
	if c := compareNullable(a.chapter, a.chapterOK, b.chapter, b.chapterOK); c != 0 {
		return c
	}
	return compareNullable(a.poem, a.poemOK, b.poem, b.poemOK)
}

func compareNullable(a int, aOK bool, b int, bOK bool) int {
	switch {
	case aOK && bOK:
		return cmp.Compare(a, b)
	case aOK:
		return -1
	case bOK:
		return 1
	default:
		return 0
	}
}

func allows(kinds []string, kind string) bool {
	return len(kinds) == 0 || slices.Contains(kinds, kind)
}

func copyProps(p map[string]any) models.Properties {
	out := make(models.Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
