// Package cli implements the pathway command line tool on top of the same
// services the HTTP API uses.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/degree-pathway-api/internal/app"
	"github.com/noah-isme/degree-pathway-api/internal/models"
	"github.com/noah-isme/degree-pathway-api/internal/repository"
	"github.com/noah-isme/degree-pathway-api/internal/service"
	"github.com/noah-isme/degree-pathway-api/pkg/config"
	"github.com/noah-isme/degree-pathway-api/pkg/database"
	"github.com/noah-isme/degree-pathway-api/pkg/logger"
)

// Builder produces the service container for a command run.
type Builder func(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*app.Container, error)

// PostgresOpener returns the Postgres course store and its closer.
type PostgresOpener func(ctx context.Context, cfg config.DatabaseConfig) (service.CourseStore, func() error, error)

// Deps are the collaborators of the command tree. Nil fields fall back to
// the production implementations.
type Deps struct {
	LoadConfig   func() (*config.Config, error)
	Build        Builder
	OpenPostgres PostgresOpener
}

func (d Deps) withDefaults() Deps {
	if d.LoadConfig == nil {
		d.LoadConfig = config.Load
	}
	if d.Build == nil {
		d.Build = app.Build
	}
	if d.OpenPostgres == nil {
		d.OpenPostgres = openPostgres
	}
	return d
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (service.CourseStore, func() error, error) {
	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewCourseRepository(db), db.Close, nil
}

type options struct {
	csvPath string
	verbose bool
}

// NewRootCommand returns the pathway command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	deps = deps.withDefaults()
	opts := &options{}
	root := &cobra.Command{
		Use:           "pathway",
		Short:         "Track degree requirements, recommend courses and project graduation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.csvPath, "file", "", "course CSV file (overrides STORE_CSV_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	run := func(fn func(ctx context.Context, c *app.Container, out io.Writer) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if opts.csvPath != "" {
				cfg.Store.Backend = config.StoreBackendCSV
				cfg.Store.CSVPath = opts.csvPath
			}
			// The CLI never needs metrics or the shared cache.
			cfg.Metrics.Enabled = false
			cfg.Cache.Enabled = false

			logr := zap.NewNop()
			if opts.verbose {
				cfg.Log.Format = "console"
				if logr, err = logger.New(cfg); err != nil {
					return err
				}
				defer logr.Sync() //nolint:errcheck
			}

			c, err := deps.Build(cmd.Context(), cfg, logr)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck
			return fn(cmd.Context(), c, cmd.OutOrStdout())
		}
	}

	root.AddCommand(
		newListCommand(run),
		newStatusCommand(run),
		newActionCommand(run),
		newRecommendCommand(run),
		newAuditCommand(run),
		newMigrateCommand(deps, opts),
		newVerifyCommand(deps, opts),
	)
	return root
}

type runner func(fn func(ctx context.Context, c *app.Container, out io.Writer) error) func(cmd *cobra.Command, args []string) error

func newListCommand(run runner) *cobra.Command {
	var (
		filter   models.CourseFilter
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List courses, optionally filtered",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "substring of code or title")
	cmd.Flags().StringSliceVar(&filter.Categories, "category", nil, "category filter")
	cmd.Flags().StringSliceVar(&filter.Days, "day", nil, "meeting day filter")
	cmd.Flags().StringSliceVar(&filter.Times, "time", nil, "time slot filter")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "status filter")

	cmd.RunE = run(func(ctx context.Context, c *app.Container, out io.Writer) error {
		for _, raw := range statuses {
			status, err := models.ParseCourseStatus(raw)
			if err != nil {
				return err
			}
			filter.Statuses = append(filter.Statuses, status)
		}
		courses, err := c.Courses.List(ctx, filter)
		if err != nil {
			return err
		}
		return printCourses(out, courses)
	})
	return cmd
}

func newStatusCommand(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <code> <status>",
		Short: "Set a course status without checking its current one",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		status, err := models.ParseCourseStatus(args[1])
		if err != nil {
			return err
		}
		return run(func(ctx context.Context, c *app.Container, out io.Writer) error {
			course, err := c.Courses.SetStatus(ctx, args[0], service.SetStatusRequest{Status: status})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s is now %s\n", course.CourseCode, course.Status)
			return err
		})(cmd, args)
	}
	return cmd
}

func newActionCommand(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "action <code> <enroll|plan|unenroll|remove>",
		Short:     "Apply a dashboard action to a course",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"enroll", "plan", "unenroll", "remove"},
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		action := models.CourseAction(strings.ToLower(args[1]))
		return run(func(ctx context.Context, c *app.Container, out io.Writer) error {
			course, err := c.Courses.ApplyAction(ctx, args[0], action)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s is now %s\n", course.CourseCode, course.Status)
			return err
		})(cmd, args)
	}
	return cmd
}

func newRecommendCommand(run runner) *cobra.Command {
	var (
		maxCount int
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Pick eligible recommended courses and enroll them",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVarP(&maxCount, "max", "n", 0, "maximum courses to pick (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for a reproducible pick")

	cmd.RunE = run(func(ctx context.Context, c *app.Container, out io.Writer) error {
		req := service.RecommendRequest{MaxCount: maxCount}
		if cmd.Flags().Changed("seed") {
			req.Seed = &seed
		}
		result, err := c.Courses.Recommend(ctx, req)
		if err != nil {
			return err
		}
		if len(result.Courses) == 0 {
			_, err = fmt.Fprintln(out, "no eligible courses to recommend")
			return err
		}
		if _, err := fmt.Fprintf(out, "enrolled %d course(s) (seed %d)\n", len(result.Courses), result.Seed); err != nil {
			return err
		}
		return printCourses(out, result.Courses)
	})
	return cmd
}

func newAuditCommand(run runner) *cobra.Command {
	var (
		creditsPerSemester float64
		monthsPerSemester  int
		format             string
		outPath            string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show credit totals and the projected graduation date",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Float64Var(&creditsPerSemester, "credits-per-semester", 0, "credits taken per semester (default from config)")
	cmd.Flags().IntVar(&monthsPerSemester, "months-per-semester", 0, "months per semester (default from config)")
	cmd.Flags().StringVar(&format, "export", "", "write the audit as csv or pdf")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "export destination (default: generated name in the working directory)")

	cmd.RunE = run(func(ctx context.Context, c *app.Container, out io.Writer) error {
		var req service.GraduationRequest
		if cmd.Flags().Changed("credits-per-semester") {
			req.CreditsPerSemester = &creditsPerSemester
		}
		if cmd.Flags().Changed("months-per-semester") {
			req.MonthsPerSemester = &monthsPerSemester
		}

		if format != "" {
			auditFormat, err := service.ParseAuditFormat(format)
			if err != nil {
				return err
			}
			result, err := c.Audit.Export(ctx, auditFormat, req, false)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = result.Filename
			}
			if err := os.WriteFile(outPath, result.Body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			_, err = fmt.Fprintf(out, "audit written to %s\n", outPath)
			return err
		}

		summary, _, err := c.Courses.Summary(ctx, req)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, status := range models.AllCourseStatuses() {
			fmt.Fprintf(w, "%s\t%g\n", status, summary.CreditsByStatus[status])
		}
		fmt.Fprintf(w, "Total\t%g\n", summary.TotalCredits)
		fmt.Fprintf(w, "Complete\t%.1f%%\n", summary.PercentComplete)
		fmt.Fprintf(w, "Semesters remaining\t%d\n", summary.Graduation.SemestersRemaining)
		fmt.Fprintf(w, "Estimated graduation\t%s\n", summary.Graduation.Label)
		if len(summary.DanglingPrereqs) > 0 {
			fmt.Fprintf(w, "Unknown prerequisites\t%s\n", strings.Join(summary.DanglingPrereqs, ", "))
		}
		return w.Flush()
	})
	return cmd
}

// storePair opens the CSV store named by config or --file alongside the
// Postgres store.
func storePair(ctx context.Context, deps Deps, opts *options) (csv, pg service.CourseStore, closer func() error, err error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	path := cfg.Store.CSVPath
	if opts.csvPath != "" {
		path = opts.csvPath
	}
	csvRepo, err := repository.NewCourseCSVRepository(path)
	if err != nil {
		return nil, nil, nil, err
	}
	pg, closer, err = deps.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return csvRepo, pg, closer, nil
}

func newMigrateCommand(deps Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Copy every course from the CSV file into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			csvStore, pgStore, closer, err := storePair(cmd.Context(), deps, opts)
			if err != nil {
				return err
			}
			defer closer() //nolint:errcheck

			n, err := service.CopyCourses(cmd.Context(), csvStore, pgStore)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "copied %d course(s) to postgres\n", n)
			return err
		},
	}
}

func newVerifyCommand(deps Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare the CSV file with Postgres and report differences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			csvStore, pgStore, closer, err := storePair(cmd.Context(), deps, opts)
			if err != nil {
				return err
			}
			defer closer() //nolint:errcheck

			baseline, err := csvStore.Load(cmd.Context())
			if err != nil {
				return err
			}
			candidate, err := pgStore.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			diffs := service.CompareCourses(baseline, candidate)
			if len(diffs) == 0 {
				_, err = fmt.Fprintf(out, "stores match (%d courses)\n", len(baseline))
				return err
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tDIFFERENCE")
			for _, d := range diffs {
				detail := strings.Join(d.Fields, ", ")
				if d.OnlyIn != "" {
					if d.OnlyIn == "baseline" {
						detail = "only in csv"
					} else {
						detail = "only in postgres"
					}
				}
				fmt.Fprintf(w, "%s\t%s\n", d.CourseCode, detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%d course(s) differ", len(diffs))
		},
	}
}

func printCourses(out io.Writer, courses []models.Course) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tTITLE\tCREDITS\tCATEGORY\tPREREQ\tSTATUS")
	for _, c := range courses {
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%s\t%s\n", c.CourseCode, c.CourseTitle, c.Credits, c.Category, c.Prerequisite, c.Status)
	}
	return w.Flush()
}
