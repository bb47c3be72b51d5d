package models

// Properties is an opaque property snapshot of a graph node.
type Properties map[string]any

type RelatedCharacter struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// RelatedPoem is a poem reached from a character, with display fields
// derived from its pnum.
type RelatedPoem struct {
	Relationship string     `json:"relationship"`
	Chapter      Properties `json:"chapter"`
	Poem         Properties `json:"poem"`
	ChapterNum   string     `json:"chapterNum"`
	PoemNum      string     `json:"poemNum"`
	URL          *string    `json:"url"`
}

type CharacterData struct {
	Character         Properties         `json:"character"`
	RelatedCharacters []RelatedCharacter `json:"relatedCharacters"`
	RelatedPoems      []RelatedPoem      `json:"relatedPoems"`
}
