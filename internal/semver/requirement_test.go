package semver

import "testing"

func must(t *testing.T, text string) Requirement {
	t.Helper()
	r, err := ParseRange(text)
	if err != nil {
		t.Fatalf("ParseRange(%q) failed: %v", text, err)
	}
	return r
}

func mustVersion(t *testing.T, text string) Version {
	t.Helper()
	v, err := ParseVersion(text)
	if err != nil {
		t.Fatalf("ParseVersion(%q) failed: %v", text, err)
	}
	return v
}

func TestRangeParseWildcard(t *testing.T) {
	r := must(t, "1.2.x")
	if !r.Matches(mustVersion(t, "1.2.0")) {
		t.Error("expected 1.2.0 to match 1.2.x")
	}
	if !r.Matches(mustVersion(t, "1.2.99")) {
		t.Error("expected 1.2.99 to match 1.2.x")
	}
	if r.Matches(mustVersion(t, "1.3.0")) {
		t.Error("expected 1.3.0 not to match 1.2.x")
	}
}

func TestHyphenRange(t *testing.T) {
	r := must(t, "1.2.3 - 2.0.0")
	if !r.Matches(mustVersion(t, "2.0.0")) {
		t.Error("expected 2.0.0 to match hyphen range (inclusive upper bound)")
	}
	if r.Matches(mustVersion(t, "2.0.1")) {
		t.Error("expected 2.0.1 not to match hyphen range")
	}
}

func TestCaretPreOne(t *testing.T) {
	r := must(t, "^0.2.3")
	if !r.Matches(mustVersion(t, "0.2.9")) {
		t.Error("expected 0.2.9 to match ^0.2.3")
	}
	if r.Matches(mustVersion(t, "0.3.0")) {
		t.Error("expected 0.3.0 not to match ^0.2.3")
	}
}

func TestCaretZeroZero(t *testing.T) {
	r := must(t, "^0.0.3")
	if !r.Matches(mustVersion(t, "0.0.3")) {
		t.Error("expected 0.0.3 to match ^0.0.3")
	}
	if r.Matches(mustVersion(t, "0.0.4")) {
		t.Error("expected 0.0.4 not to match ^0.0.3")
	}
}

func TestCaretStandard(t *testing.T) {
	r := must(t, "^1.2.3")
	if !r.Matches(mustVersion(t, "1.9.9")) {
		t.Error("expected 1.9.9 to match ^1.2.3")
	}
	if r.Matches(mustVersion(t, "2.0.0")) {
		t.Error("expected 2.0.0 not to match ^1.2.3")
	}
	if r.Matches(mustVersion(t, "1.2.2")) {
		t.Error("expected 1.2.2 not to match ^1.2.3")
	}
}

func TestTilde(t *testing.T) {
	r := must(t, "~1.2.3")
	if !r.Matches(mustVersion(t, "1.2.9")) {
		t.Error("expected 1.2.9 to match ~1.2.3")
	}
	if r.Matches(mustVersion(t, "1.3.0")) {
		t.Error("expected 1.3.0 not to match ~1.2.3")
	}

	rMinorOnly := must(t, "~1.2")
	if !rMinorOnly.Matches(mustVersion(t, "1.2.99")) {
		t.Error("expected 1.2.99 to match ~1.2")
	}
}

func TestEmptyAndStarAreAny(t *testing.T) {
	empty := must(t, "")
	star := must(t, "*")
	v := mustVersion(t, "4.5.6")
	if !empty.Matches(v) || !star.Matches(v) {
		t.Error("expected empty string and '*' to both mean any")
	}
	if empty.Display() != "" {
		t.Errorf("expected empty requirement to display as empty, got %q", empty.Display())
	}
	if star.Display() != "*" {
		t.Errorf("expected star requirement to display as '*', got %q", star.Display())
	}
}

func TestBareOperatorAdjacency(t *testing.T) {
	spaced := must(t, ">= 1.2.3")
	joined := must(t, ">=1.2.3")
	v := mustVersion(t, "1.2.3")
	if spaced.Matches(v) != joined.Matches(v) {
		t.Error("expected spaced and joined >= forms to behave identically")
	}
}

func TestConjoinedBareOperators(t *testing.T) {
	r := must(t, ">=1.2.3 <2.0.0")
	if !r.Matches(mustVersion(t, "1.5.0")) {
		t.Error("expected 1.5.0 to satisfy >=1.2.3 <2.0.0")
	}
	if r.Matches(mustVersion(t, "2.0.0")) {
		t.Error("expected 2.0.0 not to satisfy >=1.2.3 <2.0.0")
	}
}

func TestOrDisjunction(t *testing.T) {
	r := must(t, "1.0.0 || ^2.0.0")
	if !r.Matches(mustVersion(t, "1.0.0")) {
		t.Error("expected 1.0.0 to match disjunction")
	}
	if !r.Matches(mustVersion(t, "2.3.4")) {
		t.Error("expected 2.3.4 to match disjunction via ^2.0.0")
	}
	if r.Matches(mustVersion(t, "1.5.0")) {
		t.Error("expected 1.5.0 not to match either disjunct")
	}
}

func TestDisplayPreservesOriginalText(t *testing.T) {
	text := "  ^1.2.3  "
	r := must(t, text)
	if r.Display() != text {
		t.Errorf("expected Display to echo original text %q, got %q", text, r.Display())
	}
}

func TestSortVersionsDescending(t *testing.T) {
	versions := []Version{
		mustVersion(t, "1.0.0"),
		mustVersion(t, "2.0.0"),
		mustVersion(t, "1.5.0"),
	}
	SortVersionsDescending(versions)
	if versions[0].String() != "2.0.0" || versions[2].String() != "1.0.0" {
		t.Errorf("expected descending order, got %v", versions)
	}
}
