// Package audit implements the advisory-lookup command of spec.md §4's
// supplemented feature set: submit the installed (name, version) pairs to
// the registry's bulk advisory endpoint and summarize the response.
// Grounded on the teacher's internal/client request/response pattern,
// reusing the same shared registry.Client rather than opening a second
// HTTP client.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/a-khushal/rnp/internal/lockfile"
	"github.com/a-khushal/rnp/internal/registry"
	"github.com/a-khushal/rnp/internal/rnperrors"
)

// Advisory is one vulnerability record returned by the registry's audit
// endpoint for a single package.
type Advisory struct {
	Package  string `json:"module_name"`
	Version  string `json:"version"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	URL      string `json:"url"`
}

// Report summarizes an audit run.
type Report struct {
	Advisories []Advisory
}

// HasFindings reports whether any advisory was returned.
func (r Report) HasFindings() bool { return len(r.Advisories) > 0 }

type auditRequestPackage struct {
	Version string `json:"version"`
}

// Run submits every locked package to the registry's bulk advisory
// endpoint ("/-/npm/v1/security/audits/quick") and parses the response.
func Run(ctx context.Context, client *registry.Client, packages []lockfile.DecodedPackage) (Report, error) {
	requirements := map[string]map[string]auditRequestPackage{}
	for _, pkg := range packages {
		if _, ok := requirements[pkg.Name]; !ok {
			requirements[pkg.Name] = map[string]auditRequestPackage{}
		}
		requirements[pkg.Name][pkg.Version] = auditRequestPackage{Version: pkg.Version}
	}

	body, err := json.Marshal(map[string]interface{}{
		"name":        "rnp-audit",
		"version":     "0.0.0",
		"requires":    requirementVersionMap(packages),
		"dependencies": requirements,
	})
	if err != nil {
		return Report{}, &rnperrors.ParseError{Subject: "audit request", Cause: err}
	}

	url := client.BaseURL() + "/-/npm/v1/security/audits/quick"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Report{}, &rnperrors.NetworkError{URL: url, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Report{}, &rnperrors.NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Report{}, &rnperrors.NetworkError{URL: url, Status: resp.StatusCode}
	}

	var parsed struct {
		Advisories map[string]json.RawMessage `json:"advisories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Report{}, &rnperrors.ParseError{Subject: "audit response", Cause: err}
	}

	var report Report
	for _, raw := range parsed.Advisories {
		var list []Advisory
		if err := json.Unmarshal(raw, &list); err == nil {
			report.Advisories = append(report.Advisories, list...)
			continue
		}
		var single Advisory
		if err := json.Unmarshal(raw, &single); err == nil {
			report.Advisories = append(report.Advisories, single)
		}
	}
	return report, nil
}

func requirementVersionMap(packages []lockfile.DecodedPackage) map[string]string {
	out := make(map[string]string, len(packages))
	for _, pkg := range packages {
		out[pkg.Name] = pkg.Version
	}
	return out
}

// Summary formats a human-readable one-line-per-advisory report.
func Summary(r Report) string {
	if !r.HasFindings() {
		return "found 0 vulnerabilities"
	}
	out := fmt.Sprintf("found %d %s\n", len(r.Advisories), pluralize(len(r.Advisories)))
	for _, a := range r.Advisories {
		out += fmt.Sprintf("  %s@%s: %s (%s) %s\n", a.Package, a.Version, a.Title, a.Severity, a.URL)
	}
	return out
}

func pluralize(n int) string {
	if n == 1 {
		return "vulnerability"
	}
	return "vulnerabilities"
}
