// internal/app/system/httpapi/httpapi_test.go
package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"name": "Launch"})

	if rec.Code != http.StatusCreated {
		t.Errorf("code = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Launch"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("code = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("nil body wrote %q", rec.Body.String())
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok","typo":"x"}`))
	if err := Decode(r, &v); err == nil {
		t.Error("unknown field should fail decoding")
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
	if err := Decode(r, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Name != "ok" {
		t.Errorf("Name = %q", v.Name)
	}
}

func TestStoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	StoreError(rec, zap.NewNop(), "load project", mongo.ErrNoDocuments)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing document: code = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"not found"`) {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	StoreError(rec, nil, "load project", mongo.ErrClientDisconnected)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("unknown error: code = %d, want 500", rec.Code)
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, "name is required")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("code = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "name is required") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
