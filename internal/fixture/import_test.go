package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importSample = `
nodes:
  - {id: genji, label: Character, properties: {name: Genji}}
  - {id: ch01, label: Chapter, properties: {chapter_num: "01"}}
  - {id: p1, label: Genji_Poem, properties: {pnum: "01KR01"}}
  - {id: misc, label: Note, properties: {text: hello}}
edges:
  - {from: genji, to: p1, type: SPEAKER_OF}
  - {from: genji, to: p1, type: SPEAKER_OF}
  - {from: p1, to: ch01, type: INCLUDED_IN}
`

func TestStatements(t *testing.T) {
	g, err := Parse([]byte(importSample))
	require.NoError(t, err)

	stmts, err := g.Statements()
	require.NoError(t, err)
	require.Len(t, stmts, 6)

	assert.Equal(t, "UNWIND $rows AS row MERGE (n:Chapter {chapter_num: row.key}) SET n += row.props", stmts[0].Cypher)
	assert.Equal(t, "UNWIND $rows AS row MERGE (n:Character {name: row.key}) SET n += row.props", stmts[1].Cypher)
	assert.Equal(t, "UNWIND $rows AS row MERGE (n:Genji_Poem {pnum: row.key}) SET n += row.props", stmts[2].Cypher)
	assert.Equal(t, "UNWIND $rows AS row MERGE (n:Note {id: row.key}) SET n += row.props", stmts[3].Cypher)

	note := stmts[3].Params["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "misc", note["key"])
	assert.Equal(t, map[string]any{"text": "hello", "id": "misc"}, note["props"])

	assert.Equal(t,
		"UNWIND $rows AS row MATCH (a:Character {name: row.from}) MATCH (b:Genji_Poem {pnum: row.to}) MERGE (a)-[:SPEAKER_OF]->(b)",
		stmts[4].Cypher,
	)
	assert.Len(t, stmts[4].Params["rows"], 2)
	assert.Equal(t,
		"UNWIND $rows AS row MATCH (a:Genji_Poem {pnum: row.from}) MATCH (b:Chapter {chapter_num: row.to}) MERGE (a)-[:INCLUDED_IN]->(b)",
		stmts[5].Cypher,
	)
}

func TestStatements_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing merge key": "nodes: [{id: a, label: Character, properties: {alias: x}}]",
		"injected label":    "nodes: [{id: a, label: 'X) DETACH DELETE n //'}]",
		"injected type":     "nodes: [{id: a, label: X}]\nedges: [{from: a, to: a, type: 'R]->() //'}]",
		"nested property":   "nodes: [{id: a, label: X, properties: {meta: {k: v}}}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := Parse([]byte(doc))
			require.NoError(t, err)
			_, err = g.Statements()
			assert.Error(t, err)
		})
	}
}
