// Command edactl inspects studies and saved analyses from the terminal using the same
// configuration as the web workspace.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
	"edaworkspace/internal/config"
	"edaworkspace/internal/container"
	"edaworkspace/internal/export"
	"edaworkspace/internal/fieldtree"
	"edaworkspace/internal/logging"
	"edaworkspace/internal/migration"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "edactl",
		Short:         "Explore studies and analyses of the EDA workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newStudiesCmd(),
		newTreeCmd(),
		newExportCmd(),
		newChartsCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// openContainer loads the environment configuration; withStore also connects the analysis store
func openContainer(ctx context.Context, withStore bool) (*container.Container, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, false)
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if withStore {
		if err := c.InitStore(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newStudiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "studies",
		Short: "List the available studies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()

			studies, err := c.Catalog.Studies(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(studies))
			for _, s := range studies {
				rows = append(rows, []string{s.ID, s.DisplayName, s.DatasetID})
			}
			fmt.Println(table([]string{"STUDY", "NAME", "DATASET"}, rows))
			return nil
		},
	}
}

func newTreeCmd() *cobra.Command {
	var query string
	var numeric bool

	cmd := &cobra.Command{
		Use:   "tree <study-id>",
		Short: "Print the variable tree of a study",
		Long: `Print the entity and variable tree of a study.

Example: edactl tree DS_demo01 --query temperature`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()

			studyID, err := core.ParseStudyID(args[0])
			if err != nil {
				return err
			}
			meta := c.Catalog.Metadata.Load(cmd.Context(), studyID)
			if meta.Stub {
				return fmt.Errorf("metadata of study %s could not be loaded", studyID)
			}

			var opts fieldtree.Options
			if numeric {
				opts.Constraint = &fieldtree.Constraint{Types: []study.VariableType{study.TypeNumber, study.TypeInteger}}
			}
			tree := fieldtree.Prune(fieldtree.BuildForStudy(meta, opts), query)
			printTree(tree.Children, 0)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Only show fields matching every word")
	cmd.Flags().BoolVar(&numeric, "numeric", false, "Mark non-numeric variables as disabled")
	return cmd
}

func printTree(nodes []*fieldtree.Node, depth int) {
	for _, n := range nodes {
		f := n.Field
		indent := strings.Repeat("  ", depth)
		switch {
		case f.IsEntity:
			fmt.Println(indent + entityStyle.Render(f.DisplayName))
		case f.Disabled:
			fmt.Println(indent + mutedStyle.Render(f.DisplayName))
		case f.IsSelectable():
			fmt.Println(indent + f.DisplayName + " " + mutedStyle.Render(string(f.Type)+" "+f.Term))
		default:
			fmt.Println(indent + categoryStyle.Render(f.DisplayName))
		}
		printTree(n.Children, depth+1)
	}
}

func newExportCmd() *cobra.Command {
	var variables []string
	var out string

	cmd := &cobra.Command{
		Use:   "export <study-id> <entity-id>",
		Short: "Download the rows of an entity as an Excel workbook",
		Long: `Download the rows of an entity as an Excel workbook. Without --vars every data
variable of the entity is exported.

Example: edactl export DS_demo01 participant --vars age,sex --out participants.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx, false)
			if err != nil {
				return err
			}
			defer c.Close()

			studyID, err := core.ParseStudyID(args[0])
			if err != nil {
				return err
			}
			ws := c.Workspace(ctx, studyID)
			if !ws.Available() {
				return fmt.Errorf("metadata of study %s could not be loaded", studyID)
			}
			entity, err := ws.Entity(args[1])
			if err != nil {
				return err
			}
			if out == "" {
				out = export.Filename(studyID.String(), entity)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Workbook(ctx, ws, entity.ID, variables, nil, f); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Println(okStyle.Render("wrote ") + out)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&variables, "vars", nil, "Variable IDs to export (comma separated)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to <study>_<entities>.xlsx)")
	return cmd
}

func newChartsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "charts <analysis-id>",
		Short: "Compute every chart of a saved analysis and report its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx, true)
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := core.ParseAnalysisID(args[0])
			if err != nil {
				return err
			}
			a, err := c.Analyses.Get(ctx, id)
			if err != nil {
				return err
			}
			ws := c.Workspace(ctx, a.StudyID)
			if !ws.Available() {
				return fmt.Errorf("metadata of study %s could not be loaded", a.StudyID)
			}

			fmt.Println(titleStyle.Render(a.Name) + " " + mutedStyle.Render(fmt.Sprintf("%d filters", len(a.Filters))))
			rows := [][]string{}
			for _, r := range c.Charts.RunAll(ctx, ws, a) {
				status := okStyle.Render("ok")
				detail := ""
				if r.Err != nil {
					status = errorStyle.Render("failed")
					detail = r.Err.Error()
				} else {
					detail = fmt.Sprintf("%d of %d records plotted", r.Data.Coverage.CompleteCasesAxesVars, r.Data.Coverage.FilteredCount)
				}
				rows = append(rows, []string{r.Visualization.DisplayName, string(r.Visualization.Type), status, detail})
			}
			fmt.Println(table([]string{"CHART", "TYPE", "STATUS", "DETAIL"}, rows))
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the analysis database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx, true)
			if err != nil {
				return err
			}
			defer c.Close()

			if c.DB == nil {
				fmt.Println(mutedStyle.Render("analyses are stored remotely; nothing to migrate"))
				return nil
			}
			applied, err := migration.NewRunner().Applied(ctx, c.DB)
			if err != nil {
				return err
			}
			for _, v := range applied {
				fmt.Println(okStyle.Render("applied ") + v)
			}
			return nil
		},
	}
}
