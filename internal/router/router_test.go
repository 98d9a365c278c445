package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/handler"
	"marketplace-bulk-api/internal/middleware"
	"marketplace-bulk-api/internal/repository"
	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/internal/store"
)

const testKey = "secret-key"

type graphFunc func(req *http.Request) (*http.Response, error)

func (f graphFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

type testServer struct {
	mux   http.Handler
	graph []*http.Request
}

func newTestServer(t *testing.T, appID string) *testServer {
	t.Helper()

	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	keys := repository.NewKeys("test")
	listingRepo := repository.NewStoreListingRepository(kv, keys)

	ts := &testServer{}
	client := catalog.NewClient(graphFunc(func(req *http.Request) (*http.Response, error) {
		ts.graph = append(ts.graph, req)
		body := `{"handles":["h"],"validation_status":[]}`
		if strings.HasSuffix(req.URL.Path, "/owned_product_catalogs") {
			body = `{"data":[{"id":"cat-1","name":"Main shop","product_count":3}]}`
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
		}, nil
	}), catalog.Config{})
	syncer := catalog.NewSyncer(client, catalog.SyncerConfig{
		Sleep: func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	})

	listings := service.NewListingService(listingRepo)
	auth := service.NewAuthService(kv, keys, service.AuthConfig{AppID: appID, RedirectURI: "http://localhost/cb"})
	syncs := service.NewSyncService(listingRepo, repository.NewStoreSyncRepository(kv, keys), auth, client, syncer)
	t.Cleanup(syncs.Shutdown)

	ts.mux = New(Config{
		Handler:            handler.New("marketplace-bulk-api", "test", kv),
		ListingHandler:     handler.NewListingHandler(listings),
		SpreadsheetHandler: handler.NewSpreadsheetHandler(listings, 1<<20),
		AuthHandler:        handler.NewAuthHandler(auth),
		CatalogHandler:     handler.NewCatalogHandler(syncs),
		AdminHandler:       handler.NewAdminHandler(kv, "memory", listings, syncs),
		AuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthConfig{
			APIKeys:     []string{testKey},
			PublicPaths: middleware.DefaultPublicPaths,
		}),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("X-API-Key", testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: invalid JSON body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func (ts *testServer) doJSON(t *testing.T, method, path string, v any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return ts.do(t, method, path, bytes.NewReader(data), "application/json")
}

func (ts *testServer) upload(t *testing.T, path, filename, content string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte(content))
	_ = mw.Close()
	return ts.do(t, http.MethodPost, path, &buf, mw.FormDataContentType())
}

func validListing() map[string]any {
	return map[string]any{
		"title":       "Camping stove",
		"price":       35,
		"condition":   "New",
		"description": "Two burners",
		"category":    "Outdoors",
		"url":         "https://shop.example/stove",
		"image_url":   "https://shop.example/stove.jpg",
	}
}

func TestRouter_APIKey(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		want   int
	}{
		{"health is public", "/api/v1/health", "", "", http.StatusOK},
		{"ready is public", "/api/v1/ready", "", "", http.StatusOK},
		{"status is public", "/api/status", "", "", http.StatusOK},
		{"missing key", "/api/v1/listings", "", "", http.StatusUnauthorized},
		{"wrong key", "/api/v1/listings", "X-API-Key", "nope", http.StatusForbidden},
		{"api key header", "/api/v1/listings", "X-API-Key", testKey, http.StatusOK},
		{"bearer token", "/api/v1/listings", "Authorization", "Bearer " + testKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			ts.mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID header missing")
			}
		})
	}
}

func TestRouter_ListingCRUD(t *testing.T) {
	ts := newTestServer(t, "")

	rec, env := ts.doJSON(t, http.MethodPost, "/api/v1/listings", validListing())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.ID == "" || created.Title != "Camping stove" {
		t.Fatalf("created = %+v", created)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/listings", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var meta service.ListingStats
	_ = json.Unmarshal(env.Meta, &meta)
	if meta.Total != 1 || meta.Valid != 1 {
		t.Errorf("meta = %+v", meta)
	}

	update := validListing()
	update["title"] = "Camping stove (used twice)"
	rec, _ = ts.doJSON(t, http.MethodPut, "/api/v1/listings/"+created.ID, update)
	if rec.Code != http.StatusOK {
		t.Errorf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/listings/"+created.ID, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), "used twice") {
		t.Errorf("get = %d %s", rec.Code, env.Data)
	}

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/listings/"+created.ID, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/listings/"+created.ID, nil, "")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("get after delete = %d %+v", rec.Code, env.Error)
	}
}

func TestRouter_InvalidListing(t *testing.T) {
	ts := newTestServer(t, "")

	bad := validListing()
	bad["title"] = "abc"
	delete(bad, "price")

	rec, env := ts.doJSON(t, http.MethodPost, "/api/v1/listings", bad)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" || len(env.Error.Details) != 2 {
		t.Fatalf("error = %+v", env.Error)
	}
	if env.Error.Details[0].Field != "price" || env.Error.Details[1].Field != "title" {
		t.Errorf("details = %+v", env.Error.Details)
	}

	rec, env = ts.doJSON(t, http.MethodPost, "/api/v1/listings/validate", bad)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"valid":false`) {
		t.Errorf("validate = %d %s", rec.Code, env.Data)
	}

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/listings", strings.NewReader("{"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}
}

func TestRouter_ImportExport(t *testing.T) {
	ts := newTestServer(t, "")

	csv := "My shop\nTitle,Price,Category,Description,Colour\nRoad bike,250,Sports,Alloy frame,Red\nLamp,5,Home,,White\n"
	rec, env := ts.upload(t, "/api/v1/import?mode=replace", "bikes.csv", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res service.ImportResult
	_ = json.Unmarshal(env.Data, &res)
	if res.Imported != 2 || res.InvalidCount != 1 {
		t.Errorf("import result = %+v", res)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/export?format=csv", nil, "")
	if rec.Code != http.StatusUnprocessableEntity || env.Error == nil || env.Error.Code != "EXPORT_BLOCKED" {
		t.Fatalf("blocked export = %d %s", rec.Code, rec.Body.String())
	}

	csv = "Title,Price,Category,Description,Colour\nRoad bike,250,Sports,Alloy frame,Red\n"
	if rec, _ = ts.upload(t, "/api/v1/import", "bikes.csv", csv); rec.Code != http.StatusOK {
		t.Fatalf("second import status = %d", rec.Code)
	}

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/export?format=csv", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Facebook_Marketplace_Bulk_Upload.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	want := "Title,Price,Category,Description,Colour\nRoad bike,250,Sports,Alloy frame,Red\n"
	if rec.Body.String() != want {
		t.Errorf("export body = %q, want %q", rec.Body.String(), want)
	}

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/export?format=ods", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d", rec.Code)
	}
}

func TestRouter_ImportRejections(t *testing.T) {
	ts := newTestServer(t, "")

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/import", strings.NewReader("x"), "text/plain")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-multipart status = %d", rec.Code)
	}

	rec, env := ts.upload(t, "/api/v1/import", "a.csv", "foo,bar\n1,2\n")
	if rec.Code != http.StatusUnprocessableEntity || env.Error.Code != "MALFORMED_TEMPLATE" {
		t.Errorf("no header = %d %+v", rec.Code, env.Error)
	}

	rec, _ = ts.upload(t, "/api/v1/import?mode=merge", "a.csv", "Title,Price\n")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad mode status = %d", rec.Code)
	}

	rec, _ = ts.upload(t, "/api/v1/import", "a.csv", strings.Repeat("x", 2<<20))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized upload status = %d", rec.Code)
	}
}

func TestRouter_TemplateAndLayout(t *testing.T) {
	ts := newTestServer(t, "")

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/template", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("template status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}

	rec, env := ts.do(t, http.MethodGet, "/api/v1/layout", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"TITLE"`) {
		t.Errorf("layout = %d %s", rec.Code, env.Data)
	}

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/layout", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("reset status = %d", rec.Code)
	}
}

func TestRouter_LoginAndSync(t *testing.T) {
	ts := newTestServer(t, "12345")

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/catalogs/cat-1/sync", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("sync before login status = %d", rec.Code)
	}

	rec, env := ts.do(t, http.MethodGet, "/api/v1/auth/login", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var login struct {
		URL   string `json:"url"`
		State string `json:"state"`
	}
	_ = json.Unmarshal(env.Data, &login)

	rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/callback", map[string]any{
		"access_token": "EAAB", "expires_in": 3600, "state": "forged",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("forged state status = %d", rec.Code)
	}

	rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/callback", map[string]any{
		"access_token": "EAAB", "expires_in": 3600, "state": login.State,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("callback status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/catalogs", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), "Main shop") {
		t.Errorf("catalogs = %d %s", rec.Code, env.Data)
	}

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/catalogs/cat-1/sync?wait=true", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("sync with no listings status = %d", rec.Code)
	}

	if rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/listings", validListing()); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec, env = ts.do(t, http.MethodPost, "/api/v1/catalogs/cat-1/sync?wait=true", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out catalog.SyncOutcome
	_ = json.Unmarshal(env.Data, &out)
	if !out.Success || out.SuccessCount != 1 {
		t.Errorf("outcome = %+v", out)
	}

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/sync/last", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("last sync status = %d", rec.Code)
	}

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout status = %d", rec.Code)
	}
	rec, env = ts.do(t, http.MethodGet, "/api/v1/auth/status", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"authenticated":false`) {
		t.Errorf("status after logout = %d %s", rec.Code, env.Data)
	}
}

func TestRouter_LoginNotConfigured(t *testing.T) {
	ts := newTestServer(t, "")

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/auth/login", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}

	rec, env := ts.do(t, http.MethodGet, "/api/v1/sync/last", nil, "")
	if rec.Code != http.StatusNotFound || env.Error == nil {
		t.Errorf("last sync = %d", rec.Code)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/admin/stats", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"store_type":"memory"`) {
		t.Errorf("admin stats = %d %s", rec.Code, env.Data)
	}
}
