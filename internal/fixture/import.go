package fixture

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// mergeKeys names the property a node is merged on, per label. Labels not
// listed merge on "id".
var mergeKeys = map[string]string{
	"Character":  "name",
	"Genji_Poem": "pnum",
	"Chapter":    "chapter_num",
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Statement is one parametrized write.
type Statement struct {
	Cypher string
	Params map[string]any
}

func mergeKey(label string) string {
	if k, ok := mergeKeys[label]; ok {
		return k
	}
	return "id"
}

// Statements turns the graph into idempotent MERGE statements: one UNWIND
// per label, then one per (from label, edge type, to label). Parallel edges
// of the same type collapse into one.
func (g *Graph) Statements() ([]Statement, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	byID := make(map[string]Node, len(g.Nodes))
	nodeRows := map[string][]map[string]any{}
	for _, n := range g.Nodes {
		if !identRe.MatchString(n.Label) {
			return nil, fmt.Errorf("node %s: invalid label %q", n.ID, n.Label)
		}
		key, err := keyValue(n)
		if err != nil {
			return nil, err
		}
		props := make(map[string]any, len(n.Properties)+1)
		for k, v := range n.Properties {
			if _, nested := v.(map[string]any); nested {
				return nil, fmt.Errorf("node %s: property %q is a map, neo4j properties must be scalars or lists", n.ID, k)
			}
			props[k] = v
		}
		if mergeKey(n.Label) == "id" {
			props["id"] = key
		}
		byID[n.ID] = n
		nodeRows[n.Label] = append(nodeRows[n.Label], map[string]any{"key": key, "props": props})
	}

	type edgeGroup struct{ from, typ, to string }
	edgeRows := map[edgeGroup][]map[string]any{}
	for i, e := range g.Edges {
		if !identRe.MatchString(e.Type) {
			return nil, fmt.Errorf("edge %d: invalid type %q", i, e.Type)
		}
		from, to := byID[e.From], byID[e.To]
		fk, _ := keyValue(from)
		tk, _ := keyValue(to)
		grp := edgeGroup{from.Label, e.Type, to.Label}
		edgeRows[grp] = append(edgeRows[grp], map[string]any{"from": fk, "to": tk})
	}

	var out []Statement
	for _, label := range sortedKeys(nodeRows) {
		out = append(out, Statement{
			Cypher: fmt.Sprintf("UNWIND $rows AS row MERGE (n:%s {%s: row.key}) SET n += row.props", label, mergeKey(label)),
			Params: map[string]any{"rows": toAny(nodeRows[label])},
		})
	}

	groups := make([]edgeGroup, 0, len(edgeRows))
	for grp := range edgeRows {
		groups = append(groups, grp)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.from != b.from {
			return a.from < b.from
		}
		if a.typ != b.typ {
			return a.typ < b.typ
		}
		return a.to < b.to
	})
	for _, grp := range groups {
		out = append(out, Statement{
			Cypher: fmt.Sprintf(
				"UNWIND $rows AS row MATCH (a:%s {%s: row.from}) MATCH (b:%s {%s: row.to}) MERGE (a)-[:%s]->(b)",
				grp.from, mergeKey(grp.from), grp.to, mergeKey(grp.to), grp.typ,
			),
			Params: map[string]any{"rows": toAny(edgeRows[grp])},
		})
	}
	return out, nil
}

// Import writes the graph in a single write transaction.
func Import(ctx context.Context, driver neo4j.DriverWithContext, database string, g *Graph) (int, error) {
	stmts, err := g.Statements()
	if err != nil {
		return 0, err
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: database,
	})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range stmts {
			res, err := tx.Run(ctx, st.Cypher, st.Params)
			if err != nil {
				return nil, fmt.Errorf("run %q: %w", st.Cypher, err)
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return 0, err
	}
	return len(stmts), nil
}

func keyValue(n Node) (any, error) {
	k := mergeKey(n.Label)
	if k == "id" {
		return n.ID, nil
	}
	v, ok := n.Properties[k]
	if !ok || v == nil {
		return nil, fmt.Errorf("node %s: %s requires property %q", n.ID, n.Label, k)
	}
	return v, nil
}

func sortedKeys(m map[string][]map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toAny(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
