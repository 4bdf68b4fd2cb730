package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sitemaster/internal/model"
	"sitemaster/internal/schedule"
	"sitemaster/internal/taskimport"
)

type scheduleFlags struct {
	file     string
	timezone string
	today    string
}

func (f *scheduleFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "JSON file holding an array of projects with their tasks (- for stdin)")
	cmd.Flags().StringVar(&f.timezone, "tz", "UTC", "IANA timezone used for month boundaries and today")
	cmd.Flags().StringVar(&f.today, "today", "", "override today's date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("file")
}

func (f *scheduleFlags) resolver() (*schedule.Resolver, error) {
	loc, err := time.LoadLocation(f.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz %q: %w", f.timezone, err)
	}
	opts := []schedule.Option{schedule.WithLocation(loc)}
	if f.today != "" {
		d, err := model.ParseDate(f.today)
		if err != nil {
			return nil, fmt.Errorf("invalid --today: %w", err)
		}
		opts = append(opts, schedule.WithClock(func() time.Time { return d.Time }))
	}
	return schedule.NewResolver(opts...), nil
}

// loadProjects reads and validates the project file. A malformed entry fails the whole command.
func loadProjects(path string, stdin io.Reader) ([]model.Project, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var projects []model.Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i := range projects {
		p := &projects[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("project %q: %w", p.ID, err)
		}
		for j := range p.Tasks {
			if err := p.Tasks[j].Validate(); err != nil {
				return nil, fmt.Errorf("project %q task %q: %w", p.ID, p.Tasks[j].ID, err)
			}
		}
	}
	return projects, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newGanttCmd() *cobra.Command {
	var flags scheduleFlags
	var mode, projectID string

	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Print the Gantt view (range, bars and financials) for a project file",
		RunE: func(cmd *cobra.Command, args []string) error {
			viewMode, err := schedule.ParseViewMode(mode)
			if err != nil {
				return err
			}
			resolver, err := flags.resolver()
			if err != nil {
				return err
			}
			projects, err := loadProjects(flags.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if viewMode == schedule.ViewSingle && projectID == "" && len(projects) > 0 {
				projectID = projects[0].ID
			}

			v := schedule.BuildView(schedule.Select(projects, viewMode, projectID), viewMode, resolver)
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&mode, "mode", string(schedule.ViewAll), "view mode: all or single")
	cmd.Flags().StringVar(&projectID, "project", "", "project id for single mode (defaults to the first project)")
	return cmd
}

func newEarnedCmd() *cobra.Command {
	var flags scheduleFlags

	cmd := &cobra.Command{
		Use:   "earned",
		Short: "Print the earned-value totals for a project file",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := loadProjects(flags.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), schedule.Aggregate(projects))
		},
	}
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "JSON file holding an array of projects with their tasks (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the CSV task import template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				_, err := cmd.OutOrStdout().Write(taskimport.Template())
				return err
			}
			if err := os.WriteFile(out, taskimport.Template(), 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "template written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default stdout; try "+taskimport.TemplateFilename+")")
	return cmd
}
