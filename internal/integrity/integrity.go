// Package integrity implements the two checksum checks of spec.md §4.4:
// Subresource-Integrity sha512 verification and legacy sha1 "shasum"
// verification. Both checks are plain crypto/sha1 and crypto/sha512 from
// the standard library; no third-party library in the example pack offers
// SRI-style "sha512-<base64>" comparison, so this one component is stdlib
// by necessity (see DESIGN.md).
package integrity

import (
	"crypto/sha1"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/a-khushal/rnp/internal/rnperrors"
)

// Spec describes the integrity fields a PackageInfo carries.
type Spec struct {
	Integrity string // "sha512-<base64>" or empty
	Shasum    string // lowercase hex sha1, or empty
}

// Verify checks blob against spec, in the order specified by spec.md §4.4:
// integrity (sha512) first if present, else shasum (sha1), else accept.
func Verify(pkg, version string, spec Spec, blob []byte) error {
	if spec.Integrity != "" {
		return verifySRI(pkg, version, spec.Integrity, blob)
	}
	if spec.Shasum != "" {
		return verifyShasum(pkg, version, spec.Shasum, blob)
	}
	return nil
}

func verifySRI(pkg, version, integrity string, blob []byte) error {
	const prefix = "sha512-"
	if !strings.HasPrefix(integrity, prefix) {
		return &rnperrors.IntegrityError{Package: pkg, Version: version, Kind: "sha512"}
	}
	expected, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(integrity, prefix))
	if err != nil {
		return &rnperrors.IntegrityError{Package: pkg, Version: version, Kind: "sha512"}
	}
	actual := sha512.Sum512(blob)
	if !hashesEqual(expected, actual[:]) {
		return &rnperrors.IntegrityError{Package: pkg, Version: version, Kind: "sha512"}
	}
	return nil
}

func verifyShasum(pkg, version, shasum string, blob []byte) error {
	actual := sha1.Sum(blob)
	if !strings.EqualFold(hex.EncodeToString(actual[:]), shasum) {
		return &rnperrors.IntegrityError{Package: pkg, Version: version, Kind: "sha1"}
	}
	return nil
}

func hashesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
