// Package graphql holds the thin schema-construction helper shared by
// GraphQL surfaces. Resolvers live with the application code (app/graph).
package graphql

import (
	"github.com/graphql-go/graphql"
)

// NewSchema creates a read-only GraphQL schema from the provided root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}
