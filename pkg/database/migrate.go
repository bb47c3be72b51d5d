package database

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var schemaStatements = []string{
	`CREATE INDEX character_name IF NOT EXISTS FOR (c:Character) ON (c.name)`,
	`CREATE INDEX poem_pnum IF NOT EXISTS FOR (p:Genji_Poem) ON (p.pnum)`,
	`CREATE INDEX chapter_num IF NOT EXISTS FOR (ch:Chapter) ON (ch.chapter_num)`,
}

// Migrate creates the lookup indexes the importer and the character query rely on.
func Migrate(ctx context.Context, driver neo4j.DriverWithContext, cfg Config) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: cfg.Database,
	})
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("apply schema %q: %w", stmt, err)
		}
	}
	return nil
}
