package driver

// IndexQueries are run once by BuildIndices.
var IndexQueries = []string{
	"CREATE INDEX ON :Record(id);",
	"CREATE INDEX ON :Record(entity);",
}

const (
	// DeleteMappingQuery removes the previous run's edges for one entity type.
	DeleteMappingQuery = `
		MATCH (:Record {entity: $entity})-[e:DUPLICATE_OF]->(:Record {entity: $entity})
		DELETE e
	`

	// SaveMappingQuery writes a batch of duplicate -> canonical edges.
	SaveMappingQuery = `
		UNWIND $rows AS row
		MERGE (dup:Record {id: row.duplicate, entity: $entity})
		MERGE (can:Record {id: row.canonical, entity: $entity})
		MERGE (dup)-[e:DUPLICATE_OF]->(can)
		SET e.run_id = $run_id,
			e.created_at = $created_at
	`

	// GetCanonicalQuery follows a record's DUPLICATE_OF edge, if any.
	GetCanonicalQuery = `
		MATCH (dup:Record {id: $id, entity: $entity})-[:DUPLICATE_OF]->(can:Record)
		RETURN can.id AS canonical
	`
)
