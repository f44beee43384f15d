package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vizart/internal/artifacts"
	"vizart/internal/config"
	"vizart/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage processing jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsCancelCommand(ctx))
	jobsCmd.AddCommand(newJobsCleanupCommand(ctx))
	jobsCmd.AddCommand(newJobsHealthCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlag string
		typeFlag   string
		limitFlag  int
		offsetFlag int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				filter, err := buildFilter(statusFlag, typeFlag)
				if err != nil {
					return err
				}
				items, err := store.List(cmd.Context(), filter, limitFlag, offsetFlag)
				if err != nil {
					return err
				}
				total, err := store.Count(cmd.Context(), filter)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(items))
				for _, job := range items {
					rows = append(rows, []string{
						job.ID,
						string(job.JobType),
						renderStatus(job.Status),
						fmt.Sprintf("%.0f%%", job.Progress),
						job.Message,
						job.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"ID", "TYPE", "STATUS", "PROGRESS", "MESSAGE", "CREATED"}, rows))
				if offsetFlag+limitFlag < total {
					fmt.Fprintf(out, "Showing %d of %d jobs (use --offset %d for more)\n", len(items), total, offsetFlag+limitFlag)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status ("+statusFlagValues()+")")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Filter by job type (try-on, try-off)")
	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum rows to display")
	cmd.Flags().IntVar(&offsetFlag, "offset", 0, "Rows to skip")
	return cmd
}

// statusFlagValues renders the accepted --status values for flag help.
func statusFlagValues() string {
	statuses := jobs.AllStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

func buildFilter(statusFlag, typeFlag string) (jobs.Filter, error) {
	var filter jobs.Filter
	if strings.TrimSpace(statusFlag) != "" {
		status, ok := jobs.ParseStatus(statusFlag)
		if !ok {
			return jobs.Filter{}, fmt.Errorf("unknown status %q", statusFlag)
		}
		filter.Status = status
	}
	if strings.TrimSpace(typeFlag) != "" {
		jobType, ok := jobs.ParseType(typeFlag)
		if !ok {
			return jobs.Filter{}, fmt.Errorf("unknown job type %q", typeFlag)
		}
		filter.JobType = jobType
	}
	return filter, nil
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show full details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", args[0])
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:          %s\n", job.ID)
				fmt.Fprintf(out, "Type:        %s\n", job.JobType)
				fmt.Fprintf(out, "Status:      %s\n", renderStatus(job.Status))
				fmt.Fprintf(out, "Progress:    %.0f%%\n", job.Progress)
				fmt.Fprintf(out, "Message:     %s\n", job.Message)
				fmt.Fprintf(out, "Model image: %s\n", job.ModelImagePath)
				if job.GarmentImagePath != "" {
					fmt.Fprintf(out, "Garment:     %s\n", job.GarmentImagePath)
				}
				fmt.Fprintf(out, "Created:     %s\n", job.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				if job.CompletedAt != nil {
					fmt.Fprintf(out, "Completed:   %s\n", job.CompletedAt.Local().Format("2006-01-02 15:04:05"))
					fmt.Fprintf(out, "Duration:    %.2fs\n", job.ProcessingTime)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:       %s\n", job.ErrorMessage)
				}
				result, err := job.Result()
				if err != nil {
					return fmt.Errorf("decode result: %w", err)
				}
				if result != nil {
					encoded, err := json.MarshalIndent(result, "", "  ")
					if err != nil {
						return fmt.Errorf("encode result: %w", err)
					}
					fmt.Fprintf(out, "Result:\n%s\n", encoded)
				}
				return nil
			})
		},
	}
}

func newJobsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending or processing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.Cancel(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s cancelled\n", job.ID)
				return nil
			})
		},
	}
}

func newJobsCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <job-id>",
		Short: "Delete a job, its inputs, and its result artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				results := artifacts.NewResultStore(cfg.Paths.ResultsDir, cfg.Processing.JPEGQuality)
				if err := store.Cleanup(cmd.Context(), args[0], results.PathForURL); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s removed\n", args[0])
				return nil
			})
		},
	}
}

func newJobsHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check job database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:  %s\n", health.DBPath)
				fmt.Fprintf(out, "Readable:  %t\n", health.DatabaseReadable)
				fmt.Fprintf(out, "Integrity: %t\n", health.IntegrityCheck)
				if health.Error != "" {
					fmt.Fprintf(out, "Error:     %s\n", health.Error)
				}
				fmt.Fprintf(out, "Jobs:      %d total, %d pending, %d processing, %d completed, %d failed, %d cancelled\n",
					summary.Total, summary.Pending, summary.Processing, summary.Completed, summary.Failed, summary.Cancelled)
				return nil
			})
		},
	}
}
