package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/justinlietz93/streamtool"
)

type pkgArgs struct {
	Action  string `json:"action" jsonschema:"description=One of: install uninstall list show"`
	Package string `json:"package,omitempty" jsonschema:"description=Package name (required except for list)"`
}

// Validate implements streamtool.Validatable.
func (a pkgArgs) Validate() error {
	switch a.Action {
	case "install", "uninstall", "list", "show":
	default:
		return fmt.Errorf("unsupported action %q", a.Action)
	}
	if a.Action != "list" && a.Package == "" {
		return fmt.Errorf("package is required for action %q", a.Action)
	}
	return nil
}

// PackageManager returns the descriptor for the package_manager tool. It
// shells out to pip; the argv is built explicitly, never through a shell, so
// a package name cannot smuggle extra commands.
func PackageManager() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("package_manager", "Install, uninstall, or inspect Python packages via pip.",
		func(ctx context.Context, a pkgArgs) (*streamtool.Result, error) {
			argv := []string{"-m", "pip"}
			switch a.Action {
			case "install":
				argv = append(argv, "install", a.Package)
			case "uninstall":
				argv = append(argv, "uninstall", "-y", a.Package)
			case "list":
				argv = append(argv, "list")
			case "show":
				argv = append(argv, "show", a.Package)
			}
			cmd := exec.CommandContext(ctx, "python3", argv...)
			var buf bytes.Buffer
			cmd.Stdout = &buf
			cmd.Stderr = &buf
			if err := cmd.Run(); err != nil {
				return nil, fmt.Errorf("%s\n%s", err, truncate(buf.String(), maxShellOutput))
			}
			return &streamtool.Result{Content: truncate(buf.String(), maxShellOutput)}, nil
		})
}
