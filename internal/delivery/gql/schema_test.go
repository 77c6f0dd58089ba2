package gql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"groupchat/internal/domain"
	"groupchat/internal/pagination"
	"groupchat/internal/repository"
	"groupchat/internal/usecase"
)

type fixture struct {
	schema graphql.Schema
	uc     *usecase.ChatUsecase
	group  *domain.Group
	alice  *domain.User
}

// newFixture seeds one group with five messages, "m1" (oldest) to "m5".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	p := pagination.NewPaginator(usecase.NewPaginationStore(store, store),
		pagination.WithDefaults(pagination.ConnectionInput{First: pagination.IntPtr(1)}),
		pagination.WithMaxPageSize(50),
	)
	uc := usecase.NewChatUsecase(store, store, store, p, zap.NewNop())

	alice, err := uc.RegisterUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	g, err := uc.CreateGroup(ctx, "general", alice.ID, nil)
	require.NoError(t, err)
	for _, text := range []string{"m1", "m2", "m3", "m4", "m5"} {
		_, err := uc.CreateMessage(ctx, alice.ID, g.ID, text)
		require.NoError(t, err)
	}

	schema, err := NewSchema(uc)
	require.NoError(t, err)
	return &fixture{schema: schema, uc: uc, group: g, alice: alice}
}

func (f *fixture) do(t *testing.T, query string, vars map[string]interface{}) *graphql.Result {
	t.Helper()
	return graphql.Do(graphql.Params{
		Schema:         f.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        context.Background(),
	})
}

// decode round-trips the result through JSON so tests can assert on plain
// maps the way a client sees them.
func decode(t *testing.T, res *graphql.Result) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(res)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

const pageQuery = `
query Page($id: Int!, $conn: ConnectionInput) {
  group(id: $id) {
    name
    messages(messageConnection: $conn) {
      edges { cursor node { text from { username } to { name } } }
      pageInfo { hasNextPage hasPreviousPage startCursor endCursor }
    }
  }
}`

type page struct {
	texts    []string
	cursors  []string
	hasNext  bool
	hasPrev  bool
	start    interface{}
	end      interface{}
	firstRef map[string]interface{}
}

func readPage(t *testing.T, out map[string]interface{}) page {
	t.Helper()
	require.Nil(t, out["errors"])
	group := out["data"].(map[string]interface{})["group"].(map[string]interface{})
	conn := group["messages"].(map[string]interface{})
	info := conn["pageInfo"].(map[string]interface{})

	p := page{
		hasNext: info["hasNextPage"].(bool),
		hasPrev: info["hasPreviousPage"].(bool),
		start:   info["startCursor"],
		end:     info["endCursor"],
	}
	for _, e := range conn["edges"].([]interface{}) {
		edge := e.(map[string]interface{})
		node := edge["node"].(map[string]interface{})
		p.texts = append(p.texts, node["text"].(string))
		p.cursors = append(p.cursors, edge["cursor"].(string))
		if p.firstRef == nil {
			p.firstRef = node
		}
	}
	return p
}

func TestGroupMessagesWalkForward(t *testing.T) {
	f := newFixture(t)

	out := decode(t, f.do(t, pageQuery, map[string]interface{}{
		"id":   f.group.ID,
		"conn": map[string]interface{}{"first": 2},
	}))
	p := readPage(t, out)
	assert.Equal(t, []string{"m5", "m4"}, p.texts)
	assert.True(t, p.hasNext)
	assert.False(t, p.hasPrev)
	assert.Equal(t, p.cursors[0], p.start)
	assert.Equal(t, p.cursors[1], p.end)
	assert.Equal(t, "alice", p.firstRef["from"].(map[string]interface{})["username"])
	assert.Equal(t, "general", p.firstRef["to"].(map[string]interface{})["name"])

	out = decode(t, f.do(t, pageQuery, map[string]interface{}{
		"id":   f.group.ID,
		"conn": map[string]interface{}{"first": 2, "after": p.cursors[1]},
	}))
	p = readPage(t, out)
	assert.Equal(t, []string{"m3", "m2"}, p.texts)
	assert.True(t, p.hasNext)
	assert.True(t, p.hasPrev)

	out = decode(t, f.do(t, pageQuery, map[string]interface{}{
		"id":   f.group.ID,
		"conn": map[string]interface{}{"first": 2, "after": p.cursors[1]},
	}))
	p = readPage(t, out)
	assert.Equal(t, []string{"m1"}, p.texts)
	assert.False(t, p.hasNext)
}

func TestGroupMessagesDefaultsAndEmpty(t *testing.T) {
	f := newFixture(t)

	p := readPage(t, decode(t, f.do(t, pageQuery, map[string]interface{}{"id": f.group.ID})))
	assert.Equal(t, []string{"m5"}, p.texts)
	assert.True(t, p.hasNext)

	p = readPage(t, decode(t, f.do(t, pageQuery, map[string]interface{}{
		"id":   f.group.ID,
		"conn": map[string]interface{}{"first": 0},
	})))
	assert.Empty(t, p.texts)
	assert.False(t, p.hasNext)
	assert.False(t, p.hasPrev)
	assert.Nil(t, p.start)
	assert.Nil(t, p.end)
}

func TestGroupMessagesBackward(t *testing.T) {
	f := newFixture(t)

	p := readPage(t, decode(t, f.do(t, pageQuery, map[string]interface{}{
		"id":   f.group.ID,
		"conn": map[string]interface{}{"last": 2},
	})))
	assert.Equal(t, []string{"m2", "m1"}, p.texts)
	assert.True(t, p.hasPrev)
	assert.False(t, p.hasNext)
}

func errorCodes(t *testing.T, out map[string]interface{}) []string {
	t.Helper()
	errs, _ := out["errors"].([]interface{})
	codes := []string{}
	for _, e := range errs {
		ext, _ := e.(map[string]interface{})["extensions"].(map[string]interface{})
		code, _ := ext["code"].(string)
		codes = append(codes, code)
	}
	return codes
}

func TestGroupMessagesErrorCodes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		vars map[string]interface{}
		want string
	}{
		{
			name: "invalid cursor",
			vars: map[string]interface{}{"id": f.group.ID, "conn": map[string]interface{}{"after": "not-a-cursor"}},
			want: CodeInvalidCursor,
		},
		{
			name: "negative first",
			vars: map[string]interface{}{"id": f.group.ID, "conn": map[string]interface{}{"first": -1}},
			want: CodeInvalidRange,
		},
		{
			name: "page too large",
			vars: map[string]interface{}{"id": f.group.ID, "conn": map[string]interface{}{"last": 51}},
			want: CodeInvalidRange,
		},
		{
			name: "unknown group",
			vars: map[string]interface{}{"id": 999},
			want: CodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decode(t, f.do(t, pageQuery, tt.vars))
			assert.Equal(t, []string{tt.want}, errorCodes(t, out))
		})
	}
}

func TestMutations(t *testing.T) {
	f := newFixture(t)

	out := decode(t, f.do(t, `mutation { createUser(username: "bob", email: "bob@example.com") { id username } }`, nil))
	require.Nil(t, out["errors"])
	bob := out["data"].(map[string]interface{})["createUser"].(map[string]interface{})
	assert.Equal(t, "bob", bob["username"])
	bobID := int(bob["id"].(float64))

	out = decode(t, f.do(t, `mutation($g: CreateGroupInput!) { createGroup(group: $g) { id name users { username } } }`,
		map[string]interface{}{"g": map[string]interface{}{"name": "pair", "userId": f.alice.ID, "userIds": []interface{}{bobID}}}))
	require.Nil(t, out["errors"])
	group := out["data"].(map[string]interface{})["createGroup"].(map[string]interface{})
	assert.Len(t, group["users"], 2)
	groupID := int(group["id"].(float64))

	out = decode(t, f.do(t, `mutation($m: CreateMessageInput!) { createMessage(message: $m) { text from { username } } }`,
		map[string]interface{}{"m": map[string]interface{}{"groupId": groupID, "userId": bobID, "text": "hey"}}))
	require.Nil(t, out["errors"])
	msg := out["data"].(map[string]interface{})["createMessage"].(map[string]interface{})
	assert.Equal(t, "hey", msg["text"])

	out = decode(t, f.do(t, `mutation($m: CreateMessageInput!) { createMessage(message: $m) { id } }`,
		map[string]interface{}{"m": map[string]interface{}{"groupId": f.group.ID, "userId": bobID, "text": "intruder"}}))
	assert.Equal(t, []string{CodeForbidden}, errorCodes(t, out))

	out = decode(t, f.do(t, `mutation($g: UpdateGroupInput!) { updateGroup(group: $g) { name } }`,
		map[string]interface{}{"g": map[string]interface{}{"id": f.group.ID, "userId": bobID, "name": "hijacked"}}))
	assert.Equal(t, []string{CodeForbidden}, errorCodes(t, out))

	out = decode(t, f.do(t, `mutation($g: UpdateGroupInput!) { updateGroup(group: $g) { name } }`,
		map[string]interface{}{"g": map[string]interface{}{"id": groupID, "userId": bobID, "name": "renamed"}}))
	require.Nil(t, out["errors"])
	assert.Equal(t, "renamed", out["data"].(map[string]interface{})["updateGroup"].(map[string]interface{})["name"])

	out = decode(t, f.do(t, `mutation($id: Int!, $u: Int!) { leaveGroup(id: $id, userId: $u) { name } }`,
		map[string]interface{}{"id": groupID, "u": bobID}))
	require.Nil(t, out["errors"])

	out = decode(t, f.do(t, `mutation($id: Int!, $u: Int!) { deleteGroup(id: $id, userId: $u) { name } }`,
		map[string]interface{}{"id": groupID, "u": f.alice.ID}))
	require.Nil(t, out["errors"])
	assert.Equal(t, "renamed", out["data"].(map[string]interface{})["deleteGroup"].(map[string]interface{})["name"])

	out = decode(t, f.do(t, `query($id: Int!) { group(id: $id) { name } }`, map[string]interface{}{"id": groupID}))
	assert.Equal(t, []string{CodeNotFound}, errorCodes(t, out))
}

func TestQueries(t *testing.T) {
	f := newFixture(t)

	out := decode(t, f.do(t, `{ user(username: "alice") { id groups { name } messages { text } } users { username } }`, nil))
	require.Nil(t, out["errors"])
	data := out["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Len(t, user["groups"], 1)
	assert.Len(t, user["messages"], 5)
	assert.Len(t, data["users"], 1)

	out = decode(t, f.do(t, `{ user { id } }`, nil))
	assert.Equal(t, []string{CodeBadRequest}, errorCodes(t, out))

	out = decode(t, f.do(t, `{ messages { id } }`, nil))
	assert.Equal(t, []string{CodeBadRequest}, errorCodes(t, out))

	out = decode(t, f.do(t, `query($g: Int) { messages(groupId: $g) { text } }`, map[string]interface{}{"g": f.group.ID}))
	require.Nil(t, out["errors"])
	assert.Len(t, out["data"].(map[string]interface{})["messages"], 5)
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	h := Handler(f.schema, zap.NewNop())

	t.Run("post", func(t *testing.T) {
		body, err := json.Marshal(map[string]interface{}{
			"query":     pageQuery,
			"variables": map[string]interface{}{"id": f.group.ID, "conn": map[string]interface{}{"first": 2}},
		})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, []string{"m5", "m4"}, readPage(t, out).texts)
	})

	t.Run("get", func(t *testing.T) {
		q := url.Values{}
		q.Set("query", `{ users { username } }`)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"alice"`)
	})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"bad json", http.MethodPost, "/graphql", "{", http.StatusBadRequest},
		{"missing query", http.MethodPost, "/graphql", "{}", http.StatusBadRequest},
		{"bad variables", http.MethodGet, "/graphql?query=%7Busers%7Bid%7D%7D&variables=nope", "", http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/graphql", "", http.StatusMethodNotAllowed},
		{"syntax error", http.MethodPost, "/graphql", `{"query":"{ users {"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"errors"`)
		})
	}
}
