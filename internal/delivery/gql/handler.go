package gql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"go.uber.org/zap"
)

type params struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type errorResponse struct {
	Errors []gqlerrors.FormattedError `json:"errors"`
}

// Handler serves GraphQL over HTTP: GET with query string parameters or
// POST with a JSON body.
func Handler(schema graphql.Schema, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p params

		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodGet:
			p.Query = r.URL.Query().Get("query")
			p.OperationName = r.URL.Query().Get("operationName")

			if variables := r.URL.Query().Get("variables"); variables != "" {
				if err := json.Unmarshal([]byte(variables), &p.Variables); err != nil {
					sendError(w, http.StatusBadRequest, "variables could not be decoded")
					return
				}
			}
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				sendError(w, http.StatusBadRequest, "json body could not be decoded")
				return
			}
		default:
			w.Header().Set("Allow", "GET, POST")
			sendError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if p.Query == "" {
			sendError(w, http.StatusBadRequest, "query is required")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  p.Query,
			VariableValues: p.Variables,
			OperationName:  p.OperationName,
			Context:        r.Context(),
		})

		code := http.StatusOK
		if result.HasErrors() {
			log.Debug("graphql errors",
				zap.String("operation", p.OperationName),
				zap.Any("errors", result.Errors),
			)
			if result.Data == nil {
				code = http.StatusUnprocessableEntity
			}
		}

		b, err := json.Marshal(result)
		if err != nil {
			log.Error("encode graphql result", zap.Error(err))
			sendError(w, http.StatusInternalServerError, "result could not be encoded")
			return
		}
		w.WriteHeader(code)
		_, _ = w.Write(b)
	}
}

func sendError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)

	b, err := json.Marshal(errorResponse{Errors: []gqlerrors.FormattedError{{Message: message}}})
	if err != nil {
		panic(err)
	}
	_, _ = w.Write(b)
}
