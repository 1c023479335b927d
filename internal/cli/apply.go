package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/diligence/internal/model"
)

// applyCmd imports applications
var applyCmd = &cobra.Command{
	Use:   "apply <file>...",
	Short: "Import applications from YAML or JSON files",
	Long: `Apply creates or updates applications from YAML or JSON files.
A file may hold a single application or a list of them. Updating an
application keeps its DD state; run it again with --force to refresh.

Example:
  diligence apply acme.yaml
  diligence apply applications/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx := cmd.Context()

	for _, path := range args {
		apps, err := readApplications(path)
		if err != nil {
			return err
		}
		for _, app := range apps {
			app.DDStatus = ""
			if err := rt.store.SaveApplication(ctx, app); err != nil {
				return fmt.Errorf("save %s: %w", app.CompanyName, err)
			}
			fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", app.CompanyName, app.ID)
			fmt.Fprintln(cmd.OutOrStdout(), app.ID)
		}
	}
	return nil
}

// readApplications parses one application or a list; JSON is read as YAML
func readApplications(path string) ([]*model.Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var list []*model.Application
	if err := yaml.Unmarshal(data, &list); err != nil {
		var single model.Application
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		list = []*model.Application{&single}
	}

	for i, app := range list {
		if app == nil || app.CompanyName == "" {
			return nil, fmt.Errorf("%s: application %d has no company_name", path, i+1)
		}
	}
	return list, nil
}
