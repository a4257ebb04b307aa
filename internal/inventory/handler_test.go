package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/happyshelf/backend/internal/auth"
	"github.com/happyshelf/backend/internal/middleware"
	"github.com/happyshelf/backend/internal/store"
)

type testEnv struct {
	router http.Handler
	alice  string // bearer token
	bob    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := store.NewMemoryStore()
	tokens := auth.NewTokenService("test-secret")
	h := NewHandler(mem, DefaultMetricsConfig())

	r := chi.NewRouter()
	r.Route("/inventory", func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, nil))
		r.Get("/items", h.List)
		r.Post("/items", h.Create)
		r.Put("/items/{id}", h.Update)
		r.Delete("/items/{id}", h.Delete)
		r.Get("/stats", h.Stats)
	})

	env := &testEnv{router: r}
	for i, name := range []string{"alice", "bob"} {
		u, err := mem.CreateUser(context.Background(), name+"@example.com", name, "hash")
		require.NoError(t, err)
		tok, err := tokens.Issue(u.ID, u.Email)
		require.NoError(t, err)
		if i == 0 {
			env.alice = tok
		} else {
			env.bob = tok
		}
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createItem(t *testing.T, token, body string) map[string]interface{} {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/inventory/items", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Item map[string]interface{} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Item
}

func (e *testEnv) listItems(t *testing.T, token string) []map[string]interface{} {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/inventory/items", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Items
}

func TestItems_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/inventory/items", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/inventory/items", "garbage-token", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateItem_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	item := env.createItem(t, env.alice,
		`{"name":"Milk","category":"dairy","quantity":2,"daily_usage":0.5,"expiry_date":"2026-03-01"}`)
	require.NotEmpty(t, item["id"])
	require.Equal(t, "Milk", item["name"])
	require.Equal(t, "dairy", item["category"])
	require.Equal(t, float64(2), item["quantity"])
	require.Equal(t, 0.5, item["daily_usage"])
	require.NotEmpty(t, item["created_at"])

	items := env.listItems(t, env.alice)
	require.Len(t, items, 1)
	require.Equal(t, item["id"], items[0]["id"])
	require.Equal(t, "Milk", items[0]["name"])
}

func TestCreateItem_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"category":"dairy","quantity":1,"daily_usage":1}`},
		{"missing category", `{"name":"Milk","quantity":1,"daily_usage":1}`},
		{"missing quantity", `{"name":"Milk","category":"dairy","daily_usage":1}`},
		{"missing daily_usage", `{"name":"Milk","category":"dairy","quantity":1}`},
		{"malformed quantity", `{"name":"Milk","category":"dairy","quantity":"two","daily_usage":1}`},
		{"negative quantity", `{"name":"Milk","category":"dairy","quantity":-1,"daily_usage":1}`},
		{"negative usage", `{"name":"Milk","category":"dairy","quantity":1,"daily_usage":-0.5}`},
		{"bad expiry date", `{"name":"Milk","category":"dairy","quantity":1,"daily_usage":1,"expiry_date":"soon"}`},
		{"not json", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/inventory/items", env.alice, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	require.Empty(t, env.listItems(t, env.alice))
}

func TestListItems_NewestFirst(t *testing.T) {
	env := newTestEnv(t)

	for _, name := range []string{"first", "second", "third"} {
		env.createItem(t, env.alice,
			fmt.Sprintf(`{"name":%q,"category":"misc","quantity":1,"daily_usage":1}`, name))
	}

	items := env.listItems(t, env.alice)
	require.Len(t, items, 3)
	require.Equal(t, "third", items[0]["name"])
	require.Equal(t, "first", items[2]["name"])
}

func TestUpdateItem_Partial(t *testing.T) {
	env := newTestEnv(t)

	created := env.createItem(t, env.alice,
		`{"name":"Rice","category":"grains","quantity":5,"daily_usage":0.2,"expiry_date":"2026-03-01"}`)
	id := created["id"].(string)

	rec := env.do(t, http.MethodPut, "/inventory/items/"+id, env.alice, `{"quantity":9}`)
	require.Equal(t, http.StatusOK, rec.Code)

	items := env.listItems(t, env.alice)
	require.Len(t, items, 1)
	got := items[0]
	require.Equal(t, float64(9), got["quantity"])
	require.Equal(t, "Rice", got["name"])
	require.Equal(t, "grains", got["category"])
	require.Equal(t, 0.2, got["daily_usage"])
	require.NotNil(t, got["expiry_date"])
}

func TestUpdateItem_ClearExpiry(t *testing.T) {
	env := newTestEnv(t)

	created := env.createItem(t, env.alice,
		`{"name":"Rice","category":"grains","quantity":5,"daily_usage":0.2,"expiry_date":"2026-03-01"}`)
	id := created["id"].(string)

	rec := env.do(t, http.MethodPut, "/inventory/items/"+id, env.alice, `{"expiry_date":null}`)
	require.Equal(t, http.StatusOK, rec.Code)

	items := env.listItems(t, env.alice)
	require.Nil(t, items[0]["expiry_date"])
}

func TestUpdateItem_ForeignOrMissing(t *testing.T) {
	env := newTestEnv(t)

	created := env.createItem(t, env.alice,
		`{"name":"Butter","category":"dairy","quantity":3,"daily_usage":0.1}`)
	id := created["id"].(string)

	// another user's token gets a 404, not an update
	rec := env.do(t, http.MethodPut, "/inventory/items/"+id, env.bob, `{"name":"stolen"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/inventory/items/no-such-id", env.alice, `{"name":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	items := env.listItems(t, env.alice)
	require.Equal(t, "Butter", items[0]["name"])
}

func TestDeleteItem(t *testing.T) {
	env := newTestEnv(t)

	created := env.createItem(t, env.alice,
		`{"name":"Eggs","category":"dairy","quantity":12,"daily_usage":2}`)
	id := created["id"].(string)

	// foreign token cannot delete
	rec := env.do(t, http.MethodDelete, "/inventory/items/"+id, env.bob, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, env.listItems(t, env.alice), 1)

	rec = env.do(t, http.MethodDelete, "/inventory/items/"+id, env.alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, env.listItems(t, env.alice))

	rec = env.do(t, http.MethodDelete, "/inventory/items/"+id, env.alice, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats_Endpoint(t *testing.T) {
	env := newTestEnv(t)

	soon := time.Now().Add(2 * 24 * time.Hour).Format("2006-01-02")
	env.createItem(t, env.alice, `{"name":"Flour","category":"baking","quantity":10,"daily_usage":1}`)
	env.createItem(t, env.alice, `{"name":"Milk","category":"dairy","quantity":2,"daily_usage":1}`)
	env.createItem(t, env.alice,
		fmt.Sprintf(`{"name":"Yogurt","category":"dairy","quantity":10,"daily_usage":1,"expiry_date":%q}`, soon))

	rec := env.do(t, http.MethodGet, "/inventory/stats", env.alice, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalItems       int            `json:"totalItems"`
		LowStockItems    int            `json:"lowStockItems"`
		ExpiringSoon     int            `json:"expiringSoon"`
		CategoryCounts   map[string]int `json:"categoryCounts"`
		PredictedSavings int            `json:"predictedSavings"`
		CarbonReduced    float64        `json:"carbonReduced"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

	require.Equal(t, 3, stats.TotalItems)
	require.Equal(t, 1, stats.LowStockItems)
	require.Equal(t, 1, stats.ExpiringSoon)
	require.Equal(t, map[string]int{"baking": 1, "dairy": 2}, stats.CategoryCounts)
	require.Equal(t, 5, stats.PredictedSavings)
	require.Equal(t, 0.5, stats.CarbonReduced)

	// stats are per user: bob sees an empty inventory
	rec = env.do(t, http.MethodGet, "/inventory/stats", env.bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 0, stats.TotalItems)
	require.Equal(t, 0, stats.PredictedSavings)
}
