package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ethicsbot/backend/config"
	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
	"github.com/ethicsbot/backend/internal/repository"
	"github.com/ethicsbot/backend/internal/service/grading"
	"github.com/ethicsbot/backend/internal/service/orchestrator"
)

var (
	gradeDir      string
	gradeOut      string
	gradeDeadline string
	gradeFeedback bool
)

// gradeCmd 汇总成绩并写出 CSV
var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Aggregate evaluations into final grades",
	Long: `Aggregate stored evaluations (or a directory of submissions with --dir)
into final grades. Late submissions score zero, missing assignments are
padded with zero and the class is curved so the best normalized score is 1.`,
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().StringVar(&gradeDir, "dir", "", "Grade a directory of submissions instead of stored evaluations")
	gradeCmd.Flags().StringVarP(&gradeOut, "out", "o", "gradebook.csv", "Output CSV path")
	gradeCmd.Flags().StringVar(&gradeDeadline, "deadline", "", "Deadline in the configured timezone, e.g. \"2024-03-08 23:59:59\"")
	gradeCmd.Flags().BoolVar(&gradeFeedback, "feedback", true, "Summarize feedback with the oracle")
}

func runGrade(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gradeDeadline != "" {
		cfg.Grading.Deadline = gradeDeadline
	}
	deadline, err := cfg.Grading.DeadlineUTC()
	if err != nil {
		return err
	}
	policy := grading.Policy{
		Deadline:       deadline,
		Assignments:    cfg.Grading.Assignments,
		Scale:          cfg.Grading.PointScale,
		LateMessage:    cfg.Grading.LateMessage,
		MissingMessage: cfg.Grading.MissingMessage,
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	roster, err := loadRoster(cmd.Context(), cfg, repository.NewParticipantRepository(db))
	if err != nil {
		return err
	}

	var records map[string][]*domain.EvaluationRecord
	if gradeDir != "" {
		_, coll, err := collect(cmd.Context(), cfg, gradeDir, roster)
		if err != nil {
			return err
		}
		records = coll.Records
	} else {
		rows, err := repository.NewEvaluationRepository(db).List(cmd.Context())
		if err != nil {
			return err
		}
		records = grading.GroupEvaluations(rows)
	}

	pipeline, stop, err := newGradePipeline(cmd, cfg)
	if err != nil {
		return err
	}
	defer stop()

	results, err := pipeline.Grade(cmd.Context(), roster, records, policy)
	if err != nil {
		return err
	}

	f, err := os.Create(gradeOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := grading.WriteGradebook(f, results); err != nil {
		return fmt.Errorf("write gradebook: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "warning %s: %s\n", r.Participant, w)
		}
	}
	fmt.Fprintf(out, "graded %d participants into %s\n", len(results), gradeOut)
	return nil
}

func newGradePipeline(cmd *cobra.Command, cfg *config.Config) (*grading.Pipeline, func(), error) {
	orch, err := orchestrator.NewOrchestrator(cfg.Grading.Workers)
	if err != nil {
		return nil, nil, err
	}
	if !gradeFeedback || !cfg.Grading.Feedback {
		return grading.NewPipeline(orch, nil, nil), orch.Stop, nil
	}

	catalog, err := directive.Load(cfg.Data.PromptDir)
	if err != nil {
		orch.Stop()
		return nil, nil, err
	}
	client, err := oracle.New(cmd.Context(), cfg.Oracle)
	if err != nil {
		orch.Stop()
		return nil, nil, err
	}
	return grading.NewPipeline(orch, nil, grading.NewSummarizer(client, catalog)), orch.Stop, nil
}
