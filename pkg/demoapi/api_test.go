package demoapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/google/go-cmp/cmp"
)

func newTestAPI(store *Store) http.Handler {
	return New(WithStore(store), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %q", rec.Body.String())
		}
	}
	return rec, decoded
}

func TestCreateUser(t *testing.T) {
	store := NewStore()
	h := newTestAPI(store)

	rec, body := do(t, h, "POST", "/users", `{"name":"Ada","email":"ada@example.com","age":36}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}

	want := []User{{ID: 1, Name: "Ada", Email: "ada@example.com", Age: 36}}
	if diff := cmp.Diff(want, store.List("")); diff != "" {
		t.Errorf("store mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateUserValidation(t *testing.T) {
	h := newTestAPI(NewStore())

	rec, body := do(t, h, "POST", "/users", `{"name":"  ","email":"nope","age":12.5}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if body["message"] != invalidMessage {
		t.Errorf("unexpected message %v", body["message"])
	}

	want := map[string]any{
		"name":  []any{"The name field is required."},
		"email": []any{"The email must be a valid email address."},
		"age":   []any{"The age must be an integer."},
	}
	if diff := cmp.Diff(want, body["errors"]); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateAndPatchUser(t *testing.T) {
	store := NewStore()
	store.Create(User{Name: "Ada", Email: "ada@example.com", Age: 36})
	h := newTestAPI(store)

	rec, _ := do(t, h, "PATCH", "/users/1", `{"age":37}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH expected 200, got %d", rec.Code)
	}
	if u, _ := store.Get(1); u.Age != 37 || u.Name != "Ada" {
		t.Errorf("PATCH result %+v", u)
	}

	rec, body := do(t, h, "PUT", "/users/1", `{"name":"Grace"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("PUT without email expected 422, got %d", rec.Code)
	}
	if _, ok := body["errors"].(map[string]any)["email"]; !ok {
		t.Errorf("expected email error, got %v", body["errors"])
	}

	rec, _ = do(t, h, "PUT", "/users/1", `{"name":"Grace","email":"grace@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT expected 200, got %d", rec.Code)
	}
	if u, _ := store.Get(1); u.Name != "Grace" || u.Age != 0 {
		t.Errorf("PUT should replace the user, got %+v", u)
	}
}

func TestGetListDeleteUser(t *testing.T) {
	store := NewStore()
	store.Create(User{Name: "Ada", Email: "ada@example.com"})
	store.Create(User{Name: "Grace", Email: "grace@example.com"})
	h := newTestAPI(store)

	rec, body := do(t, h, "GET", "/users?q=gra", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if users := body["data"].([]any); len(users) != 1 {
		t.Errorf("expected 1 filtered user, got %v", users)
	}

	rec, _ = do(t, h, "GET", "/users/2", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec, _ = do(t, h, "DELETE", "/users/2", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	rec, body = do(t, h, "GET", "/users/2", "")
	if rec.Code != http.StatusNotFound || body["message"] != "User not found." {
		t.Errorf("expected 404 with message, got %d %v", rec.Code, body)
	}
}

func TestOptionsAndErrors(t *testing.T) {
	h := newTestAPI(NewStore())

	rec, _ := do(t, h, "OPTIONS", "/users", "")
	if rec.Code != http.StatusNoContent || rec.Header().Get("Allow") != "GET, POST, OPTIONS" {
		t.Errorf("OPTIONS got %d, Allow %q", rec.Code, rec.Header().Get("Allow"))
	}

	rec, body := do(t, h, "POST", "/users", `{not json`)
	if rec.Code != http.StatusBadRequest || body["message"] != "Malformed JSON body." {
		t.Errorf("malformed body got %d %v", rec.Code, body)
	}

	rec, _ = do(t, h, "GET", "/nowhere", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route got %d", rec.Code)
	}

	rec, _ = do(t, h, "GET", "/users/abc", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("non-numeric id got %d", rec.Code)
	}
}
