package index

import (
	"strings"

	"github.com/kailas-cloud/askdex/internal/db"
	"github.com/kailas-cloud/askdex/internal/domain"
)

// Reserved field names. Double underscore keeps them out of the way of
// passthrough metadata keys.
const (
	FieldTitle = "__title"
	FieldBody  = "__body"
)

// Definition declares the question index schema: an indexed title field
// and a FLAT cosine vector field of dimension dim. Body and metadata are
// stored on the record but not indexed.
func Definition(name string, dim int) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:      name,
		KeyPrefix: keyPrefix(name),
		Fields: []db.IndexField{
			{Name: FieldTitle, Type: db.IndexFieldText},
			{
				Name:           "__vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorFlat,
				VectorDim:      dim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
}

// buildRecord flattens an item into a store record. Metadata keys
// colliding with reserved names are dropped rather than overwriting them.
func buildRecord(it *domain.Item) db.Record {
	fields := make(map[string]string, 2+len(it.Meta))
	fields[FieldTitle] = it.Title
	fields[FieldBody] = it.Body
	for k, v := range it.Meta {
		if strings.HasPrefix(k, "__") {
			continue
		}
		fields[k] = v
	}
	return db.Record{ID: it.ID, Vector: it.Vector, Fields: fields}
}

func keyPrefix(index string) string {
	if strings.HasSuffix(index, ":idx") {
		return strings.TrimSuffix(index, "idx")
	}
	return index + ":"
}
