package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/a-khushal/rnp/internal/cmdutil"
	"github.com/a-khushal/rnp/internal/manifest"
)

func newRunCommand(helper *cmdutil.Helper) *cobra.Command {
	c := &cobra.Command{
		Use:   "run <script> [args...]",
		Short: "Run a package.json script with node_modules/.bin on PATH",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := helper.ProjectRoot()
			if err != nil {
				return err
			}
			m, err := manifest.Read(filepath.Join(root, "package.json"))
			if err != nil {
				return fmt.Errorf("reading package.json: %w", err)
			}

			scriptName := args[0]
			script, ok := m.Scripts[scriptName]
			if !ok {
				return fmt.Errorf("no script named %q in package.json", scriptName)
			}

			shell, shellFlag := "sh", "-c"
			if runtime.GOOS == "windows" {
				shell, shellFlag = "cmd", "/C"
			}
			fullCommand := script
			for _, extra := range args[1:] {
				fullCommand += " " + extra
			}

			execCmd := exec.CommandContext(cmd.Context(), shell, shellFlag, fullCommand)
			execCmd.Dir = root
			execCmd.Stdout = os.Stdout
			execCmd.Stderr = os.Stderr
			execCmd.Stdin = os.Stdin
			execCmd.Env = append(os.Environ(), "PATH="+filepath.Join(root, "node_modules", ".bin")+string(os.PathListSeparator)+os.Getenv("PATH"))
			return execCmd.Run()
		},
	}
	return c
}
