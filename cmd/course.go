package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var courseCmd = &cobra.Command{
	Use:     "course",
	Aliases: []string{"courses"},
	Short:   "Manage courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return courseListRun()
	},
}

var courseAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a course",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return courseAddRun(strings.Join(args, " "))
	},
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return courseListRun()
	},
}

func init() {
	courseCmd.AddCommand(courseAddCmd)
	courseCmd.AddCommand(courseListCmd)
	rootCmd.AddCommand(courseCmd)
}

func courseAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would add course %q", strings.TrimSpace(name))
		return nil
	}

	c, created, err := s.AddCourse(cmdContext(), name)
	if err != nil {
		return err
	}
	if !created {
		ui.Info("Course already exists: %s", c.Name)
		return nil
	}
	ui.Success("Added course: %s", c.Name)
	return nil
}

func courseListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	courses, err := s.ListCourses(cmdContext())
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		ui.Info("No courses. Use 'focuswin course add <name>' to add one.")
		return nil
	}

	table := ui.Table([]string{"Course", "Added"})
	for _, c := range courses {
		_ = table.Append([]string{c.Name, c.CreatedAt.Local().Format("2006-01-02")})
	}
	return table.Render()
}
