package studio

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Rana718/injectdb/internal/config"
	"github.com/Rana718/injectdb/internal/database"
	"github.com/Rana718/injectdb/internal/session"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t      *testing.T
	server *Server
	cookie *http.Cookie
	opened *atomic.Int32
}

func newTestServer(t *testing.T, opts Options) *client {
	t.Helper()

	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)

	opened := new(atomic.Int32)
	open := func(ctx context.Context, url string) (database.DatabaseAdapter, error) {
		opened.Add(1)
		return database.Open(ctx, url, cfg.Database.Provider)
	}
	store := session.NewStore(open, cfg.Session.IdleTimeout, nil)
	t.Cleanup(store.CloseAll)

	server, err := NewServer(cfg, store, nil, opts)
	require.NoError(t, err)
	return &client{t: t, server: server, opened: opened}
}

func (cl *client) send(req *http.Request) (*http.Response, []byte) {
	cl.t.Helper()
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	resp, err := cl.server.App().Test(req, -1)
	require.NoError(cl.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			cl.cookie = c
		}
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(cl.t, err)
	return resp, body
}

func (cl *client) call(method, path string, payload any) (int, envelope) {
	cl.t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(cl.t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, raw := cl.send(req)
	var env envelope
	require.NoError(cl.t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func (cl *client) upload(path, field, name, content string) (int, envelope) {
	cl.t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(cl.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(cl.t, err)
	require.NoError(cl.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, raw := cl.send(req)

	var env envelope
	require.NoError(cl.t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func newDestination(t *testing.T) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dest.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE users (id TEXT PRIMARY KEY, name TEXT, email TEXT);
		CREATE TABLE teams (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT, owner TEXT);
	`)
	require.NoError(t, err)
	return "sqlite://" + path, db
}

func TestIndexSetsSessionCookie(t *testing.T) {
	cl := newTestServer(t, Options{})

	resp, body := cl.send(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>injectdb</title>")
	assert.Contains(t, string(body), `<option value="ods">ods</option>`)
	require.NotNil(t, cl.cookie)

	resp, _ = cl.send(httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFileImportFlow(t *testing.T) {
	url, db := newDestination(t)
	cl := newTestServer(t, Options{})

	status, env := cl.upload("/api/upload", "file", "people.csv", "full_name,mail,team\nAna,ana@example.com,red\nBo,bo@example.com,blue\n")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Loaded people.csv (2 rows)", env.Message)

	status, env = cl.call(http.MethodPost, "/api/connect", ConnectRequest{Role: "destination", URL: url})
	require.Equal(t, http.StatusOK, status, env.Message)
	var connected ConnectResponse
	require.NoError(t, json.Unmarshal(env.Data, &connected))
	assert.Equal(t, []string{"teams", "users"}, connected.Tables)

	status, env = cl.call(http.MethodGet, "/api/tables/users/columns?role=destination", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"name":"email"`)

	for _, m := range []map[string]string{
		{"source_field": "full_name", "dest_table": "users", "dest_column": "name"},
		{"source_field": "mail", "dest_table": "users", "dest_column": "email"},
		{"source_field": "team", "dest_table": "teams", "dest_column": "label"},
	} {
		status, _ = cl.call(http.MethodPost, "/api/mappings", m)
		require.Equal(t, http.StatusOK, status)
	}

	status, env = cl.call(http.MethodPost, "/api/relationships", map[string]string{
		"source_table": "teams", "source_column": "label", "dest_table": "teams", "dest_column": "owner",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = cl.call(http.MethodPost, "/api/insert", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success, env.Message)
	assert.Equal(t, "Inserted 4 rows into 2 tables", env.Message)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE id IS NOT NULL AND id != ''`).Scan(&count))
	assert.Equal(t, 2, count)

	var owner string
	require.NoError(t, db.QueryRow(`SELECT owner FROM teams WHERE label = 'blue'`).Scan(&owner))
	assert.Equal(t, "blue", owner)
}

func TestInsertReportsFailedTables(t *testing.T) {
	url, _ := newDestination(t)
	cl := newTestServer(t, Options{DefaultDestinationURL: url})

	cl.upload("/api/upload", "file", "people.json", `{"name": "Ana", "age": 3}`)
	cl.call(http.MethodPost, "/api/mappings", map[string]string{"source_field": "name", "dest_table": "users", "dest_column": "name"})
	cl.call(http.MethodPost, "/api/mappings", map[string]string{"source_field": "age", "dest_table": "users_archive", "dest_column": "age"})

	status, env := cl.call(http.MethodPost, "/api/insert", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, env.Success)
	assert.Equal(t, "1 of 2 tables failed; 1 rows inserted", env.Message)

	var resp InsertResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Tables, 2)
	assert.Empty(t, resp.Tables[0].Error)
	assert.Contains(t, resp.Tables[1].Error, "table not found")
}

func TestDefaultDestinationOpensOnDemand(t *testing.T) {
	url, _ := newDestination(t)
	cl := newTestServer(t, Options{DefaultDestinationURL: url})

	for range 3 {
		anonymous := &client{t: t, server: cl.server, opened: cl.opened}
		resp, _ := anonymous.send(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.EqualValues(t, 0, cl.opened.Load())

	status, env := cl.call(http.MethodGet, "/api/tables", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.JSONEq(t, `["teams","users"]`, string(env.Data))
	assert.EqualValues(t, 1, cl.opened.Load())

	cl.call(http.MethodGet, "/api/tables", nil)
	assert.EqualValues(t, 1, cl.opened.Load())
}

func TestTableNamesNeedingQuotes(t *testing.T) {
	url, db := newDestination(t)
	_, err := db.Exec(`CREATE TABLE "order items" ("line id" TEXT PRIMARY KEY, "sku code" TEXT)`)
	require.NoError(t, err)

	cl := newTestServer(t, Options{})
	cl.upload("/api/upload", "file", "lines.csv", "sku\nA-1\nB-2\n")
	status, env := cl.call(http.MethodPost, "/api/connect", ConnectRequest{Role: "destination", URL: url})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = cl.call(http.MethodGet, "/api/tables/order%20items/columns?role=destination", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"name":"line id"`)
	assert.Contains(t, string(env.Data), `"name":"sku code"`)

	cl.call(http.MethodPost, "/api/mappings", map[string]string{"source_field": "sku", "dest_table": "order items", "dest_column": "sku code"})
	status, env = cl.call(http.MethodPost, "/api/insert", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success, env.Message)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "order items" WHERE "sku code" IS NOT NULL`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRequestErrors(t *testing.T) {
	cl := newTestServer(t, Options{})

	tests := []struct {
		name    string
		method  string
		path    string
		payload any
		status  int
		message string
	}{
		{"insert without file", http.MethodPost, "/api/insert", nil, http.StatusBadRequest, "no file has been uploaded"},
		{"tables without connection", http.MethodGet, "/api/tables", nil, http.StatusBadRequest, "destination database is not connected"},
		{"bad role", http.MethodGet, "/api/tables?role=primary", nil, http.StatusBadRequest, "role must be destination or source"},
		{"bad index", http.MethodDelete, "/api/mappings/abc", nil, http.StatusBadRequest, "no entry at that position"},
		{"missing mapping", http.MethodPut, "/api/mappings/3", map[string]string{}, http.StatusBadRequest, "no entry at that position"},
		{"nothing to pop", http.MethodDelete, "/api/relationships/last", nil, http.StatusBadRequest, "no relationship to remove"},
		{"incomplete relationship", http.MethodPost, "/api/relationships", map[string]string{"source_table": "a"}, http.StatusBadRequest, "relationship needs"},
		{"empty url", http.MethodPost, "/api/connect", ConnectRequest{Role: "source"}, http.StatusBadRequest, "connection URL is empty"},
		{"transfer without source", http.MethodPost, "/api/transfer", map[string]any{"source_table": "a"}, http.StatusBadRequest, "source database is not connected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := cl.call(tt.method, tt.path, tt.payload)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.Contains(t, env.Message, tt.message)
		})
	}
}

func TestUploadRejectsUnknownFormat(t *testing.T) {
	cl := newTestServer(t, Options{})

	status, env := cl.upload("/api/upload", "file", "report.pdf", "%PDF-1.4")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "unsupported file format")
}

func TestPlanExportImportAndReset(t *testing.T) {
	cl := newTestServer(t, Options{})

	cl.call(http.MethodPost, "/api/mappings", map[string]string{"source_field": "a", "dest_table": "t", "dest_column": "c"})
	cl.call(http.MethodPost, "/api/relationships", map[string]string{
		"source_table": "t", "source_column": "c", "dest_table": "u", "dest_column": "d",
	})

	resp, body := cl.send(httptest.NewRequest(http.MethodGet, "/api/plan", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-yaml", resp.Header.Get("Content-Type"))
	plan := string(body)
	assert.Contains(t, plan, "source_field: a")

	status, env := cl.call(http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Session reset", env.Message)

	_, env = cl.call(http.MethodGet, "/api/mappings", nil)
	assert.JSONEq(t, "[]", string(env.Data))

	status, env = cl.upload("/api/plan", "plan", "plan.yaml", plan)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Loaded plan with 1 mappings and 1 relationships", env.Message)

	req := httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader("mappings: [\n"))
	req.Header.Set("Content-Type", "application/x-yaml")
	resp, _ = cl.send(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionsAreIsolated(t *testing.T) {
	first := newTestServer(t, Options{})
	first.call(http.MethodPost, "/api/mappings", map[string]string{"source_field": "a", "dest_table": "t", "dest_column": "c"})

	second := &client{t: t, server: first.server}
	_, env := second.call(http.MethodGet, "/api/mappings", nil)
	assert.JSONEq(t, "[]", string(env.Data))

	_, env = first.call(http.MethodGet, "/api/mappings", nil)
	assert.Contains(t, string(env.Data), `"source_field":"a"`)
}
