// Package cmdutil holds the flag parsing and shared-component wiring used
// by every rnp subcommand, mirroring the teacher's internal/cmdutil.Helper:
// a small struct built once from pflag values that knows how to construct
// the registry client, the UI, and the resolved project paths each command
// needs.
package cmdutil

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/a-khushal/rnp/internal/registry"
	"github.com/a-khushal/rnp/internal/rnpconfig"
	"github.com/a-khushal/rnp/internal/tarcache"
	"github.com/a-khushal/rnp/internal/ui"
)

// Version is stamped by the build, mirroring the teacher's TurboVersion.
var Version = "dev"

// Helper holds configuration gathered from global flags, shared across
// every subcommand invocation.
type Helper struct {
	verbose  bool
	quiet    bool
	cwd      string
	registry string
}

// AddFlags registers the global flags every subcommand inherits.
func (h *Helper) AddFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(&h.verbose, "verbose", "v", false, "verbose logging")
	flags.BoolVarP(&h.quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVar(&h.cwd, "cwd", "", "the project directory to operate in (default: current directory)")
	flags.StringVar(&h.registry, "registry", "", "override the package registry base URL")
}

// NewHelper constructs a Helper with defaults.
func NewHelper() *Helper {
	return &Helper{}
}

// ProjectRoot resolves the directory a command should treat as the project
// root, canonicalised through rnpconfig.ResolveProjectRoot.
func (h *Helper) ProjectRoot() (string, error) {
	dir := h.cwd
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	return rnpconfig.ResolveProjectRoot(dir)
}

// UI builds the output surface for this invocation.
func (h *Helper) UI() *ui.UI {
	switch {
	case h.quiet:
		return ui.New(ui.Quiet)
	case h.verbose:
		return ui.New(ui.Verbose)
	default:
		return ui.New(ui.Normal)
	}
}

// RegistryClient builds the shared registry.Client for this invocation.
func (h *Helper) RegistryClient(u *ui.UI) *registry.Client {
	return registry.New(registry.Options{
		BaseURL:    h.registry,
		RnpVersion: Version,
		Logger:     u.Logger.Named("registry"),
	})
}

// TarCache opens the tarball cache at its default location.
func (h *Helper) TarCache() (*tarcache.Cache, error) {
	dir, err := rnpconfig.CacheDir("")
	if err != nil {
		return nil, err
	}
	return tarcache.New(dir)
}
