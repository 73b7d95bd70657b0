package lockfile

import (
	"bytes"
	"testing"

	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/semver"
)

func mustReq(t *testing.T, text string) semver.Requirement {
	t.Helper()
	r, err := semver.ParseRange(text)
	if err != nil {
		t.Fatalf("parse requirement %q: %v", text, err)
	}
	return r
}

func mustVer(t *testing.T, text string) semver.Version {
	t.Helper()
	v, err := semver.ParseVersion(text)
	if err != nil {
		t.Fatalf("parse version %q: %v", text, err)
	}
	return v
}

func sampleGraph(t *testing.T) []resolve.ResolvedPackage {
	return []resolve.ResolvedPackage{
		{
			Depth: 1,
			Info: resolve.PackageInfo{
				Name:         "left-pad",
				Version:      mustVer(t, "1.3.0"),
				TarballURL:   "https://registry.npmjs.org/left-pad/-/left-pad-1.3.0.tgz",
				Shasum:       "5b8a398bc8705e97128220af84b3da74c9d6d5e",
				Dependencies: map[string]semver.Requirement{},
			},
		},
		{
			Depth: 1,
			Info: resolve.PackageInfo{
				Name:       "leftish",
				Version:    mustVer(t, "2.0.0"),
				TarballURL: "https://registry.npmjs.org/leftish/-/leftish-2.0.0.tgz",
				Dependencies: map[string]semver.Requirement{
					"left-pad": mustReq(t, "^1.0.0"),
				},
			},
		},
	}
}

func TestWriteRoundTripIsByteStable(t *testing.T) {
	root := RootInfo{Name: "app", Version: "1.0.0", DirectDeps: map[string]string{"leftish": "^2.0.0"}}
	graph := sampleGraph(t)

	first, err := Write(root, graph)
	if err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	second, err := Write(root, graph)
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected re-writing an unchanged graph to be byte-stable")
	}

	decoded, err := Decode(first)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	reEncoded, err := Write(RootInfo{
		Name:       decoded.Name,
		Version:    decoded.Version,
		DirectDeps: decoded.Dependencies,
	}, graph)
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}
	if !bytes.Equal(first, reEncoded) {
		t.Error("expected write(read(write(g))) == write(g)")
	}
}

func TestDecodedInfersDepthAndName(t *testing.T) {
	data := []byte(`{
		"name": "app", "version": "1.0.0", "lockfileVersion": 1, "requires": true,
		"packages": {
			"": {"version": "1.0.0"},
			"node_modules/left-pad": {"version": "1.3.0"},
			"node_modules/left-pad/node_modules/nested-dep": {"version": "0.1.0"}
		}
	}`)
	lf, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	decoded := lf.Decoded()
	if len(decoded) != 2 {
		t.Fatalf("expected 2 non-root entries, got %d", len(decoded))
	}
	byName := map[string]DecodedPackage{}
	for _, d := range decoded {
		byName[d.Name] = d
	}
	if byName["left-pad"].Depth != 1 {
		t.Errorf("expected left-pad at depth 1, got %d", byName["left-pad"].Depth)
	}
	if byName["nested-dep"].Depth != 2 {
		t.Errorf("expected nested-dep at depth 2, got %d", byName["nested-dep"].Depth)
	}
}

func TestCheckDrift(t *testing.T) {
	lf := &Lockfile{Dependencies: map[string]string{"a": "^1.0.0"}}
	if err := lf.CheckDrift(map[string]string{"a": "^1.0.0"}); err != nil {
		t.Errorf("expected no drift, got %v", err)
	}
	if err := lf.CheckDrift(map[string]string{"a": "^2.0.0"}); err == nil {
		t.Error("expected drift error on differing requirement")
	}
	if err := lf.CheckDrift(map[string]string{"a": "^1.0.0", "b": "^1.0.0"}); err == nil {
		t.Error("expected drift error on differing dependency count")
	}
}
