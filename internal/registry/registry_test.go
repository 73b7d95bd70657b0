package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchMetadataParsesVersionsMap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/left-pad" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "left-pad",
			"versions": {
				"1.3.0": {
					"name": "left-pad", "version": "1.3.0",
					"dist": {"tarball": "https://example.com/left-pad-1.3.0.tgz", "shasum": "abc123"}
				}
			}
		}`))
	}))
	defer ts.Close()

	c := New(Options{BaseURL: ts.URL})
	meta, err := c.FetchMetadata(context.Background(), "left-pad")
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}
	if meta.Name != "left-pad" {
		t.Errorf("expected name left-pad, got %s", meta.Name)
	}
	details, ok := meta.Versions["1.3.0"]
	if !ok {
		t.Fatal("expected version 1.3.0 in metadata")
	}
	if details.Dist.Shasum != "abc123" {
		t.Errorf("expected shasum abc123, got %s", details.Dist.Shasum)
	}
}

func TestFetchMetadataSurfacesNon2xxStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := New(Options{BaseURL: ts.URL})
	_, err := c.FetchMetadata(context.Background(), "missing-package")
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestFetchTarballReturnsBody(t *testing.T) {
	payload := []byte("fake tarball bytes")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer ts.Close()

	c := New(Options{BaseURL: ts.URL})
	body, err := c.FetchTarball(context.Background(), ts.URL+"/pkg.tgz")
	if err != nil {
		t.Fatalf("FetchTarball failed: %v", err)
	}
	if string(body) != string(payload) {
		t.Errorf("expected body %q, got %q", payload, body)
	}
}
