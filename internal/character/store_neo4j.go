package character

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"genjigraph/pkg/models"
)

// Neo4jStore runs traversals against a Neo4j server. The driver is shared by
// the whole process; every Fetch opens and closes its own read session.
type Neo4jStore struct {
	Driver   neo4j.DriverWithContext
	Database string
}

func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{Driver: driver, Database: database}
}

func (s *Neo4jStore) Fetch(ctx context.Context, spec TraversalSpec) (*RawRecord, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.Database,
	})
	defer session.Close(ctx)

	cypher, params := spec.Cypher()
	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, result.Err()
		}
		rec, err := decodeRecord(result.Record())
		if err != nil {
			return nil, err
		}
		// drain so the transaction commits cleanly
		if _, err := result.Consume(ctx); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: character query: %w", ErrStorageFailure, err)
	}

	rec, _ := out.(*RawRecord)
	return rec, nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.Driver.VerifyConnectivity(ctx)
}

func decodeRecord(record *neo4j.Record) (*RawRecord, error) {
	if record == nil {
		return nil, nil
	}

	charVal, _ := record.Get("character")
	if charVal == nil {
		return nil, nil
	}
	node, ok := charVal.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("decode character: unexpected %T", charVal)
	}

	rec := &RawRecord{Character: models.Properties(node.Props)}
	if rec.Character == nil {
		rec.Character = models.Properties{}
	}

	if v, ok := record.Get("relatedCharacters"); ok {
		chars, err := decodeRelatedCharacters(v)
		if err != nil {
			return nil, err
		}
		rec.RelatedCharacters = chars
	}

	if v, ok := record.Get("relatedPoems"); ok {
		poems, err := decodeRelatedPoems(v)
		if err != nil {
			return nil, err
		}
		rec.RelatedPoems = poems
	}

	return rec, nil
}

func decodeRelatedCharacters(v any) ([]models.RelatedCharacter, error) {
	items, ok := v.([]any)
	if !ok && v != nil {
		return nil, fmt.Errorf("decode relatedCharacters: unexpected %T", v)
	}

	out := make([]models.RelatedCharacter, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := stringOf(m["name"])
		if name == "" {
			continue
		}
		out = append(out, models.RelatedCharacter{
			Name:         name,
			Relationship: stringOf(m["relationship"]),
		})
	}
	return out, nil
}

func decodeRelatedPoems(v any) ([]RawPoem, error) {
	items, ok := v.([]any)
	if !ok && v != nil {
		return nil, fmt.Errorf("decode relatedPoems: unexpected %T", v)
	}

	out := make([]RawPoem, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, RawPoem{
			Poem:         propsOf(m["poem"]),
			Chapter:      propsOf(m["chapter"]),
			Relationship: stringOf(m["relationship"]),
		})
	}
	return out, nil
}

func propsOf(v any) models.Properties {
	switch p := v.(type) {
	case map[string]any:
		return models.Properties(p)
	case neo4j.Node:
		return models.Properties(p.Props)
	default:
		return nil
	}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
