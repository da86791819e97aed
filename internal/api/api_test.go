package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/blocks"
	"github.com/starford/berkano/internal/blockservice"
	"github.com/starford/berkano/internal/models"
	"github.com/starford/berkano/internal/schema"
	"github.com/starford/berkano/internal/testutil"
)

var quoteTypeKey = uuid.MustParse("22222222-2222-2222-2222-222222222222")

type testEnv struct {
	server *httptest.Server
}

func newTestEnv(t *testing.T, authEnabled bool, token string) *testEnv {
	t.Helper()
	store := testutil.TestStore(t)

	quote := schema.ContentType{
		Key:       quoteTypeKey,
		Alias:     "quote",
		IsElement: true,
		Properties: []schema.PropertyDefinition{
			{Alias: "text"},
		},
	}
	if err := store.UpsertContentType(quote, "types.yaml"); err != nil {
		t.Fatal(err)
	}
	dt := schema.DataType{
		Key:         uuid.New(),
		Alias:       "quoteList",
		EditorAlias: "Berkano.BlockList",
		Blocks:      []models.BlockConfiguration{{ContentTypeKey: quoteTypeKey}},
	}
	if err := store.UpsertDataType(dt, "types.yaml"); err != nil {
		t.Fatal(err)
	}

	locales := schema.StaticLocale("en-US")
	engine := blocks.NewEngine(store, locales, blocks.NewModelTypeRegistry(), nil)
	svc := blockservice.NewService(store, engine, locales)

	server := httptest.NewServer(NewRouter(svc, authEnabled, token, nil))
	t.Cleanup(server.Close)
	return &testEnv{server: server}
}

func (e *testEnv) post(t *testing.T, path string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

// renderJSON mirrors RenderResponse with concrete types; the response's
// published elements are interfaces on the Go side and only decode
// generically.
type renderJSON struct {
	Flavor string `json:"flavor"`
	Model  struct {
		Flavor     string `json:"flavor"`
		CacheLevel string `json:"cacheLevel"`
		Items      []struct {
			ContentKey uuid.UUID `json:"contentKey"`
			Content    struct {
				Key         uuid.UUID      `json:"key"`
				ContentType string         `json:"contentType"`
				Values      map[string]any `json:"values"`
			} `json:"content"`
		} `json:"items"`
	} `json:"model"`
	Checksum string `json:"checksum"`
}

func renderBody(contentKey uuid.UUID) []byte {
	payload := fmt.Sprintf(`{
		"layout": {"Berkano.BlockList": [{"contentUdi": %q}]},
		"contentData": [{"key": %q, "contentTypeKey": %q, "text": "hello"}]
	}`, models.NewElementUdi(contentKey), contentKey, quoteTypeKey)

	body, _ := json.Marshal(map[string]any{
		"dataType": "quoteList",
		"value":    json.RawMessage(payload),
	})
	return body
}

func TestRenderEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "")
	contentKey := uuid.New()

	resp := env.post(t, "/render", renderBody(contentKey))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if etag := resp.Header.Get("ETag"); etag == "" {
		t.Error("render response should carry an ETag")
	}

	var out renderJSON
	decodeBody(t, resp, &out)
	if out.Flavor != "list" {
		t.Errorf("flavor = %s, want list", out.Flavor)
	}
	if len(out.Model.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(out.Model.Items))
	}
	if out.Model.Items[0].ContentKey != contentKey {
		t.Errorf("content key = %s", out.Model.Items[0].ContentKey)
	}
	if out.Checksum == "" {
		t.Error("response should carry a checksum")
	}
}

func TestRenderFlavorFromPath(t *testing.T) {
	env := newTestEnv(t, false, "")
	resp := env.post(t, "/render/single", renderBody(uuid.New()))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out renderJSON
	decodeBody(t, resp, &out)
	if out.Flavor != "single" {
		t.Errorf("flavor = %s, want single (path overrides body)", out.Flavor)
	}
}

func TestRenderErrorsMapping(t *testing.T) {
	env := newTestEnv(t, false, "")

	resp := env.post(t, "/render/bogus", renderBody(uuid.New()))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown flavor status = %d, want 400", resp.StatusCode)
	}

	body, _ := json.Marshal(map[string]any{"dataType": "missing", "value": json.RawMessage("{}")})
	resp = env.post(t, "/render", body)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown data type status = %d, want 404", resp.StatusCode)
	}

	body, _ = json.Marshal(map[string]any{"dataType": "quoteList", "value": json.RawMessage(`"{broken"`)})
	resp = env.post(t, "/render", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed payload status = %d, want 400", resp.StatusCode)
	}

	resp = env.post(t, "/render", []byte("not json"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid body status = %d, want 400", resp.StatusCode)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "")

	body, _ := json.Marshal(map[string]any{
		"contentTypeKey": quoteTypeKey.String(),
		"values": []map[string]any{
			{"alias": "text", "culture": "da-DK", "value": "tagged"},
		},
	})
	resp := env.post(t, "/normalize", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out NormalizeResponse
	decodeBody(t, resp, &out)
	if len(out.Values) != 1 {
		t.Fatalf("values = %d, want 1", len(out.Values))
	}
	// quote and its text property are invariant, so the stray tag is cleared.
	if out.Values[0].Culture != nil {
		t.Errorf("culture = %v, want cleared", *out.Values[0].Culture)
	}

	body, _ = json.Marshal(map[string]any{"contentTypeKey": uuid.NewString(), "values": []any{}})
	resp = env.post(t, "/normalize", body)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown type status = %d, want 404", resp.StatusCode)
	}
}

func TestSchemaEndpoints(t *testing.T) {
	env := newTestEnv(t, false, "")

	resp := env.get(t, "/types")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list types status = %d", resp.StatusCode)
	}
	var list ContentTypeListResponse
	decodeBody(t, resp, &list)
	if list.Total != 1 || list.ContentTypes[0].Alias != "quote" {
		t.Errorf("list = %+v", list)
	}

	for _, path := range []string{"/types/quote", "/types/" + quoteTypeKey.String()} {
		resp := env.get(t, path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
	if resp := env.get(t, "/types/missing"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing type status = %d, want 404", resp.StatusCode)
	}

	resp = env.get(t, "/datatypes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list datatypes status = %d", resp.StatusCode)
	}
	var dts DataTypeListResponse
	decodeBody(t, resp, &dts)
	if dts.Total != 1 || dts.DataTypes[0].EditorAlias != "Berkano.BlockList" {
		t.Errorf("datatypes = %+v", dts)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, true, "secret")

	resp := env.get(t, "/types")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/types", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	authedResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer authedResp.Body.Close()
	if authedResp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", authedResp.StatusCode)
	}

	req.Header.Set("Authorization", "Bearer wrong")
	badResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer badResp.Body.Close()
	if badResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", badResp.StatusCode)
	}
}
