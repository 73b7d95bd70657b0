package resolve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-khushal/rnp/internal/registry"
)

// fakeRegistry serves a fixed map of name -> {version -> dependencies}.
func fakeRegistry(t *testing.T, packages map[string]map[string]map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[1:]
		versions, ok := packages[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		meta := map[string]interface{}{"name": name, "versions": map[string]interface{}{}}
		versionsOut := meta["versions"].(map[string]interface{})
		for version, deps := range versions {
			versionsOut[version] = map[string]interface{}{
				"name":         name,
				"version":      version,
				"dependencies": deps,
				"dist": map[string]string{
					"tarball": "https://example.com/" + name + "-" + version + ".tgz",
					"shasum":  "deadbeef",
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(meta)
	}))
}

func TestResolverConflictRecordsFirstSeenWins(t *testing.T) {
	// Root depends on A ^1.0.0 and B ^1.0.0, where B depends on A ^2.0.0.
	// The root edges are seeded at depth 1 in name order, so A ^1.0.0
	// commits a@1.0.0 first; B's edge to A ^2.0.0 arrives later at depth 2
	// and is recorded as a conflict without displacing that commitment.
	packages := map[string]map[string]map[string]string{
		"a": {
			"1.0.0": {},
			"2.0.0": {},
		},
		"b": {
			"1.0.0": {"a": "^2.0.0"},
		},
	}
	ts := fakeRegistry(t, packages)
	defer ts.Close()

	client := registry.New(registry.Options{BaseURL: ts.URL})
	r := New(client, nil, nil)

	result, err := r.Resolve(context.Background(), RootManifest{
		Name: "root",
		Dependencies: map[string]string{
			"a": "^1.0.0",
			"b": "^1.0.0",
		},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var aVersions []string
	for _, rp := range result.Resolved {
		if rp.Info.Name == "a" {
			aVersions = append(aVersions, rp.Info.Version.String())
		}
	}
	if len(aVersions) != 1 {
		t.Fatalf("expected exactly one committed version of a, got %v", aVersions)
	}
	if len(result.Conflicts) == 0 {
		t.Error("expected at least one conflict record mentioning a")
	}
}

func TestResolverBreaksCycles(t *testing.T) {
	packages := map[string]map[string]map[string]string{
		"a": {"1.0.0": {"b": "^1.0.0"}},
		"b": {"1.0.0": {"a": "^1.0.0"}},
	}
	ts := fakeRegistry(t, packages)
	defer ts.Close()

	client := registry.New(registry.Options{BaseURL: ts.URL})
	r := New(client, nil, nil)

	result, err := r.Resolve(context.Background(), RootManifest{
		Name:         "root",
		Dependencies: map[string]string{"a": "^1.0.0"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Resolved) != 2 {
		t.Fatalf("expected exactly 2 resolved packages (a, b), got %d", len(result.Resolved))
	}
}

func TestResolvedPackageHasParentAtShallowerDepth(t *testing.T) {
	packages := map[string]map[string]map[string]string{
		"a": {"1.0.0": {"b": "^1.0.0"}},
		"b": {"1.0.0": {}},
	}
	ts := fakeRegistry(t, packages)
	defer ts.Close()

	client := registry.New(registry.Options{BaseURL: ts.URL})
	r := New(client, nil, nil)

	result, err := r.Resolve(context.Background(), RootManifest{
		Name:         "root",
		Dependencies: map[string]string{"a": "^1.0.0"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	byName := map[string]ResolvedPackage{}
	for _, rp := range result.Resolved {
		byName[rp.Info.Name] = rp
	}
	a, b := byName["a"], byName["b"]
	if a.Depth != 1 {
		t.Errorf("expected a at depth 1, got %d", a.Depth)
	}
	if b.Depth != 2 {
		t.Errorf("expected b at depth 2, got %d", b.Depth)
	}
	if _, ok := a.Info.Dependencies["b"]; !ok {
		t.Error("expected a's dependency map to name b, establishing the parent-at-depth-1 invariant")
	}
}

func TestFlatLayoutInvariantAtMostOnePerName(t *testing.T) {
	packages := map[string]map[string]map[string]string{
		"shared": {"1.0.0": {}, "2.0.0": {}},
		"a":      {"1.0.0": {"shared": "^1.0.0"}},
		"b":      {"1.0.0": {"shared": "^2.0.0"}},
	}
	ts := fakeRegistry(t, packages)
	defer ts.Close()

	client := registry.New(registry.Options{BaseURL: ts.URL})
	r := New(client, nil, nil)

	result, err := r.Resolve(context.Background(), RootManifest{
		Name:         "root",
		Dependencies: map[string]string{"a": "^1.0.0", "b": "^1.0.0"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	count := 0
	for _, rp := range result.Resolved {
		if rp.Info.Name == "shared" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one committed 'shared' entry, got %d", count)
	}
}
