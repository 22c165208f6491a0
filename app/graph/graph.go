// Package graph exposes a read-only GraphQL query surface mirroring the
// dashboard's polling reads: storage usage and the pre-delete folder stats.
// Mutations stay REST-only.
package graph

import (
	"encoding/json"
	"net/http"

	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/pkg/auth"
	gqlschema "github.com/betterdrive/betterdrive/pkg/graphql"
	"github.com/betterdrive/betterdrive/pkg/logger"
	"github.com/betterdrive/betterdrive/pkg/response"
	"github.com/graphql-go/graphql"
)

var storageInfoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "StorageInfo",
	Fields: graphql.Fields{
		"usedBytes":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"totalBytes": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var folderStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FolderStats",
	Fields: graphql.Fields{
		"subFolderCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"fileCount":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

// NewHandler builds the /api/graphql endpoint. The auth middleware runs
// before it, so the user id is already in the request context.
func NewHandler(folders *services.FolderService, users *services.UserService) http.HandlerFunc {
	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"storageInfo": &graphql.Field{
				Type: storageInfoType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return users.StorageInfo(p.Context, auth.UserIDFromCtx(p.Context))
				},
			},
			"folderStats": &graphql.Field{
				Type: folderStatsType,
				Args: graphql.FieldConfigArgument{
					"folderId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					folderID, _ := p.Args["folderId"].(int)
					return folders.Stats(p.Context, auth.UserIDFromCtx(p.Context), uint(folderID))
				},
			},
		},
	})

	schema, err := gqlschema.NewSchema(rootQuery)
	if err != nil {
		// Static schema: a construction error is a programming bug.
		logger.Error("graph: build schema", "error", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid GraphQL request body")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  body.Query,
			VariableValues: body.Variables,
			Context:        r.Context(),
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	}
}
