package character

import (
	"fmt"
	"strings"
)

// Relationship kinds that link a character to a poem.
const (
	RelAddresseeOf = "ADDRESSEE_OF"
	RelMessengerOf = "MESSENGER_OF"
	RelSpeakerOf   = "SPEAKER_OF"
	RelIncludedIn  = "INCLUDED_IN"
)

// Node labels used by the Genji graph.
const (
	LabelCharacter = "Character"
	LabelPoem      = "Genji_Poem"
	LabelChapter   = "Chapter"
)

var poemRelationships = []string{RelAddresseeOf, RelMessengerOf, RelSpeakerOf}

// Query is a character lookup as received from the HTTP layer.
type Query struct {
	Name                     string
	IncludeRelatedCharacters bool
	IncludeRelatedPoems      bool
	// nil means no cap
	CharacterLimit *int
	PoemLimit      *int
}

type StageKind int

const (
	StageSkip StageKind = iota
	StageTraverse
)

// Stage describes one optional section of the traversal. A skipped stage
// yields an empty collection; a traversing stage follows edges whose type is
// in Relationships (any type when empty), capped at Limit raw rows when
// Limit > 0.
type Stage struct {
	Kind          StageKind
	Relationships []string
	Limit         int
}

func (s Stage) Skipped() bool { return s.Kind == StageSkip }

// TraversalSpec is the storage-neutral description of a character lookup.
type TraversalSpec struct {
	Name       string
	Characters Stage
	Poems      Stage
}

// Build validates q and composes the traversal for it.
func Build(q Query) (TraversalSpec, error) {
	name := strings.TrimSpace(q.Name)
	if name == "" {
		return TraversalSpec{}, fmt.Errorf("%w: name required", ErrInvalidArgument)
	}

	charLimit, err := limitValue("characterLimit", q.CharacterLimit)
	if err != nil {
		return TraversalSpec{}, err
	}
	poemLimit, err := limitValue("poemLimit", q.PoemLimit)
	if err != nil {
		return TraversalSpec{}, err
	}

	spec := TraversalSpec{Name: name}
	if q.IncludeRelatedCharacters {
		spec.Characters = Stage{Kind: StageTraverse, Limit: charLimit}
	}
	if q.IncludeRelatedPoems {
		spec.Poems = Stage{
			Kind:          StageTraverse,
			Relationships: append([]string(nil), poemRelationships...),
			Limit:         poemLimit,
		}
	}
	return spec, nil
}

func limitValue(field string, v *int) (int, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 1 {
		return 0, fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidArgument, field, *v)
	}
	return *v, nil
}

// Cypher renders the traversal as a single parametrized read query returning the
// columns character, relatedCharacters and relatedPoems.
func (s TraversalSpec) Cypher() (string, map[string]any) {
	params := map[string]any{"name": s.Name}
	parts := []string{
		"MATCH (c:" + LabelCharacter + ")",
		"WHERE toLower(c.name) = toLower($name)",
	}

	if s.Characters.Skipped() {
		parts = append(parts, "WITH c, [] AS relatedCharacters")
	} else {
		parts = append(parts,
			"OPTIONAL MATCH (c)-[r1"+relTypes(s.Characters.Relationships)+"]->(related:"+LabelCharacter+")",
			"WITH c, related, r1",
		)
		if s.Characters.Limit > 0 {
			parts = append(parts, "LIMIT $characterLimit")
			params["characterLimit"] = s.Characters.Limit
		}
		parts = append(parts,
			"WITH c, collect(DISTINCT CASE WHEN related IS NULL THEN NULL",
			"    ELSE {name: related.name, relationship: type(r1)} END) AS relatedCharacters",
		)
	}

	if s.Poems.Skipped() {
		parts = append(parts, "WITH c, relatedCharacters, [] AS relatedPoems")
	} else {
		parts = append(parts,
			"OPTIONAL MATCH (c)-[r2"+relTypes(s.Poems.Relationships)+"]->(poem:"+LabelPoem+")-[:"+RelIncludedIn+"]->(chapter:"+LabelChapter+")",
			"WITH c, relatedCharacters, poem, chapter, r2",
			"ORDER BY toInteger(substring(poem.pnum, 0, 2)),",
			"    toInteger(CASE WHEN size(poem.pnum) = 4 THEN substring(poem.pnum, 2) ELSE substring(poem.pnum, 4) END)",
		)
		if s.Poems.Limit > 0 {
			parts = append(parts, "LIMIT $poemLimit")
			params["poemLimit"] = s.Poems.Limit
		}
		parts = append(parts,
			"WITH c, relatedCharacters, collect(DISTINCT {",
			"    poem: properties(poem),",
			"    chapter: properties(chapter),",
			"    relationship: type(r2)",
			"}) AS relatedPoems",
		)
	}

	parts = append(parts, "RETURN c AS character, relatedCharacters, relatedPoems")
	return strings.Join(parts, "\n"), params
}

func relTypes(kinds []string) string {
	if len(kinds) == 0 {
		return ""
	}
	return ":" + strings.Join(kinds, "|")
}
