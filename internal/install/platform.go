package install

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/a-khushal/rnp/internal/rnperrors"
	"github.com/a-khushal/rnp/internal/semver"
)

// validateEngines implements C6a's engines.node check: if the package names
// an engines.node range and it does not match runtimeNode, install fails
// unless the package is optional (the caller decides that).
func validateEngines(pkg, version string, req *semver.Requirement, runtimeNode semver.Version) error {
	if req == nil || req.Matches(runtimeNode) {
		return nil
	}
	return &rnperrors.ConstraintError{
		Package: pkg,
		Version: version,
		Reason:  fmt.Sprintf("requires node %s, runtime is %s", req.Display(), runtimeNode.String()),
	}
}

// canonicalOS maps Go's runtime.GOOS vocabulary onto npm's os field
// vocabulary, per spec.md §4.6: macos -> darwin, windows -> win32.
func canonicalOS(goos string) string {
	switch goos {
	case "darwin":
		return "darwin"
	case "windows":
		return "win32"
	default:
		return goos
	}
}

// canonicalCPU maps Go's runtime.GOARCH vocabulary onto npm's cpu field
// vocabulary: x86_64/amd64 -> x64, x86/386 -> ia32, aarch64/arm64 -> arm64,
// arm -> arm.
func canonicalCPU(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "ia32"
	case "arm64":
		return "arm64"
	case "arm":
		return "arm"
	default:
		return goarch
	}
}

// validatePlatform implements the os/cpu token-matching half of C6a.
// Each list may contain positive tokens (must match) and negative tokens
// prefixed with "!" (must not match); an empty list matches everything.
func validatePlatform(pkg, version string, osConstraints, cpuConstraints []string) error {
	if err := matchTokens(osConstraints, canonicalOS(runtime.GOOS)); err != nil {
		return &rnperrors.ConstraintError{Package: pkg, Version: version, Reason: "os: " + err.Error()}
	}
	if err := matchTokens(cpuConstraints, canonicalCPU(runtime.GOARCH)); err != nil {
		return &rnperrors.ConstraintError{Package: pkg, Version: version, Reason: "cpu: " + err.Error()}
	}
	return nil
}

func matchTokens(tokens []string, actual string) error {
	if len(tokens) == 0 {
		return nil
	}

	var positives, negatives []string
	for _, t := range tokens {
		if strings.HasPrefix(t, "!") {
			negatives = append(negatives, strings.TrimPrefix(t, "!"))
		} else {
			positives = append(positives, t)
		}
	}

	for _, neg := range negatives {
		if neg == actual {
			return fmt.Errorf("platform %s is explicitly excluded", actual)
		}
	}
	if len(positives) == 0 {
		return nil // negative-only list: anything not excluded passes
	}
	for _, pos := range positives {
		if pos == actual {
			return nil
		}
	}
	return fmt.Errorf("platform %s is not in the supported list %v", actual, positives)
}
