package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"coursebuilder/internal/editor"
	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
	"coursebuilder/internal/remote"
	"coursebuilder/internal/store"
)

const seedJSON = `{"course":{"id":"crs-1","title":"Go basics","modules":[{"id":"mod-1","title":"Intro","lessons":[
	{"id":"les-1","title":"Hello","blocks":[
		{"id":"A","type":"heading","content":{"text":"Hello"}},
		{"id":"B","type":"text","content":{"text":"body"}},
		{"id":"C","type":"divider"}]}]}]}}`

func newTestRouter(t *testing.T, token string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := store.Open(context.Background(), store.DBConfig{Driver: store.DriverSQLite, DSN: filepath.Join(t.TempDir(), "api.db")}, logger.Nop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(db) })
	return NewRouter(RouterConfig{
		Store:       store.NewService(db, logger.Nop()),
		Log:         logger.Nop(),
		AuthorToken: token,
	})
}

func do(t *testing.T, r http.Handler, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	if env.Error.Message == "" {
		t.Fatalf("expected error message in %s", w.Body.String())
	}
	return env.Error.Code
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, "")
	if w := do(t, r, http.MethodPost, "/courses", seedJSON); w.Code != http.StatusCreated {
		t.Fatalf("seed: %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"health", http.MethodGet, "/healthcheck", "", http.StatusOK, ""},
		{"list", http.MethodGet, "/courses", "", http.StatusOK, ""},
		{"edit", http.MethodGet, "/courses/crs-1/edit", "", http.StatusOK, ""},
		{"edit missing", http.MethodGet, "/courses/nope/edit", "", http.StatusNotFound, "not_found"},
		{"save bad json", http.MethodPut, "/courses/crs-1/modules/mod-1/lessons/les-1/blocks", `{"blocks":`, http.StatusBadRequest, "invalid_request"},
		{"save missing blocks", http.MethodPut, "/courses/crs-1/modules/mod-1/lessons/les-1/blocks", `{}`, http.StatusBadRequest, "invalid_request"},
		{"save duplicate ids", http.MethodPut, "/courses/crs-1/modules/mod-1/lessons/les-1/blocks", `{"blocks":[{"id":"x","type":"text"},{"id":"x","type":"text"}]}`, http.StatusUnprocessableEntity, "invariant_violation"},
		{"save wrong module", http.MethodPut, "/courses/crs-1/modules/mod-9/lessons/les-1/blocks", `{"blocks":[]}`, http.StatusNotFound, "not_found"},
		{"reorder not a permutation", http.MethodPatch, "/courses/crs-1/lessons/les-1/blocks/reorder", `{"blockIds":["A","B"]}`, http.StatusUnprocessableEntity, "invariant_violation"},
		{"duplicate missing block", http.MethodPost, "/courses/crs-1/lessons/les-1/blocks/Z/duplicate", "", http.StatusNotFound, "not_found"},
		{"create unknown type", http.MethodPost, "/courses/crs-1/lessons/les-1/blocks", `{"block":{"type":"poster"}}`, http.StatusUnprocessableEntity, "invariant_violation"},
		{"create missing block", http.MethodPost, "/courses/crs-1/lessons/les-1/blocks", `{}`, http.StatusBadRequest, "invalid_request"},
		{"seed twice", http.MethodPost, "/courses", seedJSON, http.StatusUnprocessableEntity, "invariant_violation"},
		{"no route", http.MethodGet, "/lessons", "", http.StatusNotFound, "not_found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, tc.method, tc.path, tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("status: got %d want %d (%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantErr != "" {
				if got := errorCode(t, w); got != tc.wantErr {
					t.Fatalf("code: got %q want %q", got, tc.wantErr)
				}
			}
			if w.Header().Get(requestIDHeader) == "" {
				t.Fatalf("expected a request id header")
			}
		})
	}
}

func TestRouter_ReorderPersists(t *testing.T) {
	r := newTestRouter(t, "")
	do(t, r, http.MethodPost, "/courses", seedJSON)

	w := do(t, r, http.MethodPatch, "/courses/crs-1/lessons/les-1/blocks/reorder", `{"blockIds":["C","A","B"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("reorder: %d %s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodGet, "/courses/crs-1/edit", "")
	var out struct {
		Course model.Course `json:"course"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := mutate.IDs(out.Course.Modules[0].Lessons[0].Blocks)
	if diff := cmp.Diff([]string{"C", "A", "B"}, got); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestRouter_RequireToken(t *testing.T) {
	r := newTestRouter(t, "secret")
	if w := do(t, r, http.MethodGet, "/courses", ""); w.Code != http.StatusUnauthorized || errorCode(t, w) != "unauthorized" {
		t.Fatalf("expected 401, got %d %s", w.Code, w.Body.String())
	}
	if w := do(t, r, http.MethodGet, "/courses", "", "Authorization", "Bearer secret"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/healthcheck", ""); w.Code != http.StatusOK {
		t.Fatalf("healthcheck must not require a token, got %d", w.Code)
	}
}

func TestRequestID_ReusesCallerHeader(t *testing.T) {
	r := newTestRouter(t, "")
	w := do(t, r, http.MethodGet, "/healthcheck", "", requestIDHeader, "req-42")
	if got := w.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("request id: got %q", got)
	}
}

// The editor, the HTTP client and the API agree on one lesson's block list.
func TestEndToEnd_EditorThroughAPI(t *testing.T) {
	r := newTestRouter(t, "tok")
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client, err := remote.New(srv.URL, remote.WithToken("tok"))
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	ctx := context.Background()
	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	var seed struct {
		Course model.Course `json:"course"`
	}
	if err := json.Unmarshal([]byte(seedJSON), &seed); err != nil {
		t.Fatalf("seed json: %v", err)
	}
	if _, err := client.CreateCourse(ctx, seed.Course); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	ed := editor.New(client, editor.Options{})
	if err := ed.OpenCourse(ctx, "crs-1"); err != nil {
		t.Fatalf("OpenCourse: %v", err)
	}
	s, err := ed.OpenLesson("les-1", editor.AlwaysConfirm)
	if err != nil {
		t.Fatalf("OpenLesson: %v", err)
	}

	added, err := s.Add(model.BlockCallout, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Update("B", model.WithText(nil, "edited")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Wait()
	if s.Dirty() {
		t.Fatalf("expected clean session after save, last error %v", s.LastError())
	}

	if err := s.Reorder([]string{added.ID, "C", "B", "A"}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	s.Wait()
	if err := s.Duplicate("B"); err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	s.Wait()
	if err := s.AcceptOutline([]model.BlockSkeleton{{Type: model.BlockQuiz}}); err != nil {
		t.Fatalf("AcceptOutline: %v", err)
	}
	s.Wait()

	course, err := client.LoadCourse(ctx, "crs-1")
	if err != nil {
		t.Fatalf("LoadCourse: %v", err)
	}
	stored := course.Modules[0].Lessons[0].Blocks
	if diff := cmp.Diff(mutate.IDs(s.Blocks()), mutate.IDs(stored)); diff != "" {
		t.Fatalf("editor and store disagree (-editor +stored):\n%s", diff)
	}
	if len(stored) != 6 || stored[0].ID != added.ID || stored[3].Text() != "edited" {
		t.Fatalf("unexpected stored blocks %+v", stored)
	}
	if err := mutate.CheckOrder(stored); err != nil {
		t.Fatalf("CheckOrder: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("expected clean session at the end")
	}
	_ = ed.Close(editor.AlwaysConfirm)

	if _, err := client.LoadCourse(ctx, "missing"); !remote.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
