package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type op int

const (
	opEQ op = iota
	opGTE
	opGT
	opLT
	opLTE
)

type clause struct {
	op  op
	ver Version
}

func (c clause) matches(v Version) bool {
	cmp := v.Compare(c.ver)
	switch c.op {
	case opEQ:
		return cmp == 0
	case opGTE:
		return cmp >= 0
	case opGT:
		return cmp > 0
	case opLT:
		return cmp < 0
	case opLTE:
		return cmp <= 0
	default:
		return false
	}
}

// Requirement is a disjunction ("||") of conjunctions of primitive clauses,
// per spec.md §4.1. The original text is retained verbatim for Display.
type Requirement struct {
	raw       string
	any       bool
	disjuncts [][]clause
}

// Any is the "match everything" requirement, equivalent to "", "*", and parse fallbacks.
func Any() Requirement {
	return Requirement{raw: "*", any: true}
}

// Display returns the requirement's original textual form, unchanged.
func (r Requirement) Display() string {
	return r.raw
}

// Matches reports whether v satisfies at least one disjunct's conjunction.
func (r Requirement) Matches(v Version) bool {
	if r.any {
		return true
	}
	for _, conj := range r.disjuncts {
		ok := true
		for _, c := range conj {
			if !c.matches(v) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

var (
	wildcardComponent  = regexp.MustCompile(`^[xX*]$`)
	operatorPrefix     = regexp.MustCompile(`^(>=|<=|>|<|=)\s*(.*)$`)
	bareOperatorToken  = regexp.MustCompile(`^(>=|<=|>|<|=)$`)
	numericComponent   = regexp.MustCompile(`^\d+$`)
	looseVersionFormat = regexp.MustCompile(`^([0-9xX*]+)(?:\.([0-9xX*]+))?(?:\.([0-9xX*]+))?(.*)$`)
)

// ParseRange parses NPM-style range syntax, per spec.md §4.1. Callers that
// want the "degrade to any, with a warning" behaviour on parse failure
// should substitute Any() themselves; ParseRange never does that silently.
func ParseRange(text string) (Requirement, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "*" {
		return Requirement{raw: text, any: true}, nil
	}

	var disjuncts [][]clause
	for _, part := range strings.Split(trimmed, "||") {
		part = strings.TrimSpace(part)
		if part == "" || part == "*" {
			return Requirement{raw: text, any: true}, nil
		}
		conj, err := parseConjunction(part)
		if err != nil {
			return Requirement{}, fmt.Errorf("parsing requirement %q: %w", text, err)
		}
		disjuncts = append(disjuncts, conj)
	}

	return Requirement{raw: text, disjuncts: disjuncts}, nil
}

func parseConjunction(text string) ([]clause, error) {
	if hyphenClauses, ok, err := tryParseHyphen(text); ok {
		return hyphenClauses, err
	}

	if strings.HasPrefix(text, "^") {
		return parseCaret(strings.TrimSpace(text[1:]))
	}
	if strings.HasPrefix(text, "~") {
		return parseTilde(strings.TrimSpace(text[1:]))
	}

	if wc, ok, err := tryParseBareWildcard(text); ok {
		return wc, err
	}

	// Tokenize on whitespace, re-joining a bare operator token with the
	// version token that follows it, so ">=" "1.2.3" and ">=1.2.3" parse
	// identically (spec.md §4.1).
	fields := strings.Fields(text)
	var tokens []string
	for i := 0; i < len(fields); i++ {
		if bareOperatorToken.MatchString(fields[i]) && i+1 < len(fields) {
			tokens = append(tokens, fields[i]+fields[i+1])
			i++
		} else {
			tokens = append(tokens, fields[i])
		}
	}

	var clauses []clause
	for _, tok := range tokens {
		c, err := parseSingleClause(tok)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c...)
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("empty clause in %q", text)
	}
	return clauses, nil
}

// parseSingleClause parses one whitespace-delimited token, which may itself
// expand to more than one primitive clause (e.g. an "N.x" wildcard expands
// to a >= and a < clause).
func parseSingleClause(tok string) ([]clause, error) {
	if m := operatorPrefix.FindStringSubmatch(tok); m != nil {
		versionText := m[2]
		if hasWildcardComponent(versionText) {
			return expandWildcardWithOperator(m[1], versionText)
		}
		v, err := parsePadded(versionText)
		if err != nil {
			return nil, err
		}
		return []clause{{op: operatorFromToken(m[1]), ver: v}}, nil
	}

	if hasWildcardComponent(tok) {
		return expandWildcard(tok)
	}

	v, err := parsePadded(tok)
	if err != nil {
		return nil, err
	}
	return []clause{{op: opEQ, ver: v}}, nil
}

func operatorFromToken(t string) op {
	switch t {
	case ">=":
		return opGTE
	case ">":
		return opGT
	case "<":
		return opLT
	case "<=":
		return opLTE
	default:
		return opEQ
	}
}

func hasWildcardComponent(text string) bool {
	m := looseVersionFormat.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	for _, part := range m[1:4] {
		if wildcardComponent.MatchString(part) {
			return true
		}
	}
	return false
}

func tryParseBareWildcard(text string) ([]clause, bool, error) {
	if !hasWildcardComponent(text) {
		return nil, false, nil
	}
	c, err := expandWildcard(text)
	return c, true, err
}

// expandWildcard turns "x", "N.x", "N.x.x", "N.M.x" into a [>=lower, <upper) pair,
// or, for a bare "x"/"*", into no clauses at all (the caller treats that as "any").
func expandWildcard(text string) ([]clause, error) {
	return expandWildcardWithOperator("", text)
}

func expandWildcardWithOperator(operator, text string) ([]clause, error) {
	m := looseVersionFormat.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("invalid wildcard version %q", text)
	}
	majorTok, minorTok, patchTok := m[1], m[2], m[3]

	if wildcardComponent.MatchString(majorTok) {
		return nil, nil // bare "x"/"*": any
	}
	major, err := strconv.Atoi(majorTok)
	if err != nil {
		return nil, fmt.Errorf("invalid major version in %q", text)
	}

	if minorTok == "" || wildcardComponent.MatchString(minorTok) {
		lower, err := ParseVersion(fmt.Sprintf("%d.0.0", major))
		if err != nil {
			return nil, err
		}
		upper, err := ParseVersion(fmt.Sprintf("%d.0.0", major+1))
		if err != nil {
			return nil, err
		}
		return boundClauses(operator, lower, upper)
	}

	minor, err := strconv.Atoi(minorTok)
	if err != nil {
		return nil, fmt.Errorf("invalid minor version in %q", text)
	}

	if patchTok == "" || wildcardComponent.MatchString(patchTok) {
		lower, err := ParseVersion(fmt.Sprintf("%d.%d.0", major, minor))
		if err != nil {
			return nil, err
		}
		upper, err := ParseVersion(fmt.Sprintf("%d.%d.0", major, minor+1))
		if err != nil {
			return nil, err
		}
		return boundClauses(operator, lower, upper)
	}

	return nil, fmt.Errorf("%q is not a wildcard version", text)
}

// boundClauses turns a [lower, upper) half-open bound into clauses,
// honoring a leading operator if the wildcard was itself operator-prefixed
// (e.g. ">1.2.x" or "<=1.x").
func boundClauses(operator string, lower, upper Version) ([]clause, error) {
	switch operator {
	case "", "=":
		return []clause{{op: opGTE, ver: lower}, {op: opLT, ver: upper}}, nil
	case ">=":
		return []clause{{op: opGTE, ver: lower}}, nil
	case ">":
		return []clause{{op: opGTE, ver: upper}}, nil
	case "<":
		return []clause{{op: opLT, ver: lower}}, nil
	case "<=":
		return []clause{{op: opLT, ver: upper}}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q on wildcard version", operator)
	}
}

func tryParseHyphen(text string) ([]clause, bool, error) {
	idx := strings.Index(text, " - ")
	if idx < 0 {
		return nil, false, nil
	}
	lowText := strings.TrimSpace(text[:idx])
	highText := strings.TrimSpace(text[idx+3:])

	low, err := parsePadded(lowText)
	if err != nil {
		return nil, true, fmt.Errorf("invalid hyphen range lower bound %q: %w", lowText, err)
	}
	high, err := parsePadded(highText)
	if err != nil {
		return nil, true, fmt.Errorf("invalid hyphen range upper bound %q: %w", highText, err)
	}
	return []clause{{op: opGTE, ver: low}, {op: opLTE, ver: high}}, true, nil
}

// parseCaret implements spec.md §4.1's caret semantics: compatible with the
// leftmost non-zero component.
func parseCaret(text string) ([]clause, error) {
	v, err := parsePadded(text)
	if err != nil {
		return nil, err
	}
	var upper Version
	switch {
	case v.Major() > 0:
		upper, err = ParseVersion(fmt.Sprintf("%d.0.0", v.Major()+1))
	case v.Minor() > 0:
		upper, err = ParseVersion(fmt.Sprintf("0.%d.0", v.Minor()+1))
	default:
		upper, err = ParseVersion(fmt.Sprintf("0.0.%d", v.Patch()+1))
	}
	if err != nil {
		return nil, err
	}
	return []clause{{op: opGTE, ver: v}, {op: opLT, ver: upper}}, nil
}

// parseTilde implements spec.md §4.1's tilde semantics: patch-level changes
// if minor is specified, minor-level changes otherwise.
func parseTilde(text string) ([]clause, error) {
	m := looseVersionFormat.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("invalid tilde version %q", text)
	}
	v, err := parsePadded(text)
	if err != nil {
		return nil, err
	}
	var upper Version
	if m[2] == "" { // only major given: minor-level changes allowed
		upper, err = ParseVersion(fmt.Sprintf("%d.0.0", v.Major()+1))
	} else {
		upper, err = ParseVersion(fmt.Sprintf("%d.%d.0", v.Major(), v.Minor()+1))
	}
	if err != nil {
		return nil, err
	}
	return []clause{{op: opGTE, ver: v}, {op: opLT, ver: upper}}, nil
}

// parsePadded parses a version text that may be missing trailing components
// ("1.2" or "1"), padding them with zero, and preserves any pre-release /
// build metadata suffix attached directly to the last numeric component.
func parsePadded(text string) (Version, error) {
	m := looseVersionFormat.FindStringSubmatch(text)
	if m == nil {
		return ParseVersion(text)
	}
	major, minor, patch, rest := m[1], m[2], m[3], m[4]
	if !numericComponent.MatchString(major) {
		return ParseVersion(text)
	}
	if minor == "" {
		minor = "0"
	}
	if patch == "" {
		patch = "0"
	}
	return ParseVersion(fmt.Sprintf("%s.%s.%s%s", major, minor, patch, rest))
}
