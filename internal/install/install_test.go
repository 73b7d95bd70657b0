package install

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-khushal/rnp/internal/registry"
	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/semver"
	"github.com/a-khushal/rnp/internal/tarcache"
)

// buildTarball produces a gzip+tar blob with a "package/" root, mirroring
// the shape a registry tarball actually has.
func buildTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name: "package/" + name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing tar content: %v", err)
		}
	}
	tw.Close()
	gz.Close()
	return buf.Bytes()
}

func sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func TestInstallExtractsPackageAndRunsPipeline(t *testing.T) {
	blob := buildTarball(t, map[string]string{
		"index.js":     "module.exports = 1;\n",
		"package.json": `{"name":"left-pad","version":"1.3.0"}`,
	})
	shasum := sha1Hex(blob)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(blob)
	}))
	defer ts.Close()

	client := registry.New(registry.Options{BaseURL: ts.URL})
	cacheDir := t.TempDir()
	cache, err := tarcache.New(cacheDir)
	require.NoError(t, err)

	projectRoot := t.TempDir()
	runtimeNode, _ := semver.ParseVersion("18.0.0")
	installer := New(client, cache, projectRoot, Options{RuntimeNode: runtimeNode})

	resolved := []resolve.ResolvedPackage{
		{
			Depth: 1,
			Info: resolve.PackageInfo{
				Name:       "left-pad",
				Version:    mustParse(t, "1.3.0"),
				TarballURL: ts.URL + "/left-pad-1.3.0.tgz",
				Shasum:     shasum,
			},
		},
	}

	require.NoError(t, installer.Install(context.Background(), resolved))

	installedFile := filepath.Join(projectRoot, "node_modules", "left-pad", "index.js")
	data, err := os.ReadFile(installedFile)
	require.NoError(t, err, "expected extracted file at %s", installedFile)
	assert.Equal(t, "module.exports = 1;\n", string(data))

	// Second install should be served from cache without hitting the network.
	ts.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("network should not be hit on the second install: cache should have served the blob")
	})
	assert.NoError(t, installer.Install(context.Background(), resolved), "second Install (cache hit) failed")
}

func TestInstallRejectsEngineMismatch(t *testing.T) {
	projectRoot := t.TempDir()
	client := registry.New(registry.Options{})
	runtimeNode, _ := semver.ParseVersion("12.0.0")
	installer := New(client, nil, projectRoot, Options{RuntimeNode: runtimeNode})

	req, _ := semver.ParseRange(">=16.0.0")
	resolved := []resolve.ResolvedPackage{
		{
			Depth: 1,
			Info: resolve.PackageInfo{
				Name:        "modern-pkg",
				Version:     mustParse(t, "1.0.0"),
				EnginesNode: &req,
			},
		},
	}

	if err := installer.Install(context.Background(), resolved); err == nil {
		t.Fatal("expected an engine-mismatch error")
	}
}

func TestInstallSkipsFailedOptionalDependency(t *testing.T) {
	projectRoot := t.TempDir()
	client := registry.New(registry.Options{})
	resolved := []resolve.ResolvedPackage{
		{
			Depth:    1,
			Optional: true,
			Info: resolve.PackageInfo{
				Name:    "optional-pkg",
				Version: mustParse(t, "1.0.0"),
				// No TarballURL: acquireBlob fails, but the package is optional.
			},
		},
	}
	installer := New(client, nil, projectRoot, Options{})
	if err := installer.Install(context.Background(), resolved); err != nil {
		t.Fatalf("expected optional failure to be swallowed, got %v", err)
	}
}

func mustParse(t *testing.T, text string) semver.Version {
	t.Helper()
	v, err := semver.ParseVersion(text)
	if err != nil {
		t.Fatalf("parse version %q: %v", text, err)
	}
	return v
}
