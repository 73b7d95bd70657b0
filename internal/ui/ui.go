// Package ui is the operator-facing output layer: a structured hclog.Logger
// for diagnostics, a mitchellh/cli.Ui for direct prompts and errors, and a
// schollz/progressbar-driven install.Reporter for the package-by-package
// progress display. Grounded on the teacher's internal/cmdutil, which
// assembles the same kind of logger+Ui pair once per command invocation.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/cli"
	"github.com/schollz/progressbar/v3"
)

// Verbosity selects the hclog level mapped from -v/-q flags.
type Verbosity int

const (
	Quiet Verbosity = iota
	Normal
	Verbose
)

// UI bundles the three output surfaces a command needs.
type UI struct {
	Logger hclog.Logger
	Cli    cli.Ui

	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	colorize bool
}

// New builds a UI writing to stdout/stderr, colorized only when stdout is a
// real terminal (github.com/mattn/go-isatty), matching the teacher's
// posture of never emitting ANSI codes into a redirected pipe or CI log.
func New(verbosity Verbosity) *UI {
	level := hclog.Info
	switch verbosity {
	case Quiet:
		level = hclog.Error
	case Verbose:
		level = hclog.Debug
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "rnp",
		Level: level,
	})

	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	color.NoColor = !isTTY

	return &UI{
		Logger: logger,
		Cli: &cli.ColoredUi{
			Ui:          &cli.BasicUi{Reader: os.Stdin, Writer: os.Stdout, ErrorWriter: os.Stderr},
			OutputColor: cli.UiColorNone,
			InfoColor:   cli.UiColorBlue,
			ErrorColor:  cli.UiColorRed,
			WarnColor:   cli.UiColorYellow,
		},
		colorize: isTTY,
	}
}

// StartSpinner begins an indeterminate spinner for a phase with no known
// item count (dependency resolution), stopping when the returned func runs.
func (u *UI) StartSpinner(message string) func() {
	if !u.colorize {
		u.Cli.Info(message)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100_000_000) // 100ms, avoiding a time import here
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}

// BeginProgress creates a determinate progress bar for total package
// installs; PackageDone advances it by one per package.
func (u *UI) BeginProgress(total int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var writer io.Writer = os.Stderr
	if !u.colorize {
		writer = io.Discard
	}
	u.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetDescription("installing"),
		progressbar.OptionShowCount(),
	)
}

// PackageStarted implements install.Reporter.
func (u *UI) PackageStarted(name, version string) {
	u.Logger.Debug("installing", "package", name, "version", version)
}

// PackageDone implements install.Reporter.
func (u *UI) PackageDone(name, version string, err error) {
	u.mu.Lock()
	if u.bar != nil {
		_ = u.bar.Add(1)
	}
	u.mu.Unlock()

	if err != nil {
		u.Cli.Warn(fmt.Sprintf("%s@%s: %v", name, version, err))
		return
	}
	u.Logger.Debug("installed", "package", name, "version", version)
}
