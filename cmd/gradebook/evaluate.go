package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/config"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
	"github.com/ethicsbot/backend/internal/repository"
	"github.com/ethicsbot/backend/internal/service"
	"github.com/ethicsbot/backend/internal/service/evaluator"
	"github.com/ethicsbot/backend/internal/service/grading"
	"github.com/ethicsbot/backend/internal/service/orchestrator"
)

// evaluateCmd 评估目录下的提交并落库
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [dir]",
	Short: "Evaluate a directory of submissions",
	Long: `Scan a directory for exported transcripts (.json) and evaluation
records (.json or legacy .muef), evaluate every transcript and store the
results.

When no directory is given the configured transcript directory is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Data.TranscriptDir
	if len(args) == 1 {
		dir = args[0]
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	participantRepo := repository.NewParticipantRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	roster, err := loadRoster(cmd.Context(), cfg, participantRepo)
	if err != nil {
		return err
	}

	subs, coll, err := collect(cmd.Context(), cfg, dir, roster)
	if err != nil {
		return err
	}

	rows := grading.PersistableEvaluations(subs, coll)
	for _, row := range rows {
		if err := evaluationRepo.Create(cmd.Context(), row); err != nil {
			return fmt.Errorf("save evaluation for %s: %w", row.Username, err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "evaluated %d transcripts, stored %d records\n", len(coll.Evaluated), len(rows))
	for _, s := range coll.Skipped {
		fmt.Fprintf(out, "skipped %s: %s\n", s.Path, s.Reason)
	}
	return nil
}

// collect 扫描目录并评估其中的导出记录
func collect(ctx context.Context, cfg *config.Config, dir string, roster []string) ([]grading.Submission, *grading.Collection, error) {
	scan, err := grading.Scan(dir, grading.ScanOptions{
		Extensions: cfg.Grading.Extensions,
		PruneStray: cfg.Grading.PruneStray,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, path := range scan.Removed {
		klog.V(6).Infof("已删除无关文件: %s", path)
	}

	catalog, err := directive.Load(cfg.Data.PromptDir)
	if err != nil {
		return nil, nil, err
	}
	client, err := oracle.New(ctx, cfg.Oracle)
	if err != nil {
		return nil, nil, err
	}
	orch, err := orchestrator.NewOrchestrator(cfg.Grading.Workers)
	if err != nil {
		return nil, nil, err
	}
	defer orch.Stop()

	pipeline := grading.NewPipeline(orch, newEvaluator(client, catalog, cfg), nil)
	coll, err := pipeline.Collect(ctx, roster, scan.Submissions)
	if err != nil {
		return nil, nil, err
	}
	coll.Skipped = append(scan.Skipped, coll.Skipped...)
	return scan.Submissions, coll, nil
}

func newEvaluator(client oracle.Client, catalog *directive.Catalog, cfg *config.Config) *evaluator.Evaluator {
	return evaluator.New(client, catalog, evaluator.Options{
		Rubric:              cfg.Evaluation.Rubric,
		Obfuscate:           cfg.Evaluation.Obfuscate,
		HighEffortMinutes:   cfg.Evaluation.HighEffortMinutes,
		HighEffortResponses: cfg.Evaluation.HighEffortResponses,
		HighEffortWords:     cfg.Evaluation.HighEffortWords,
	})
}

// loadRoster 优先使用数据库中的名册，为空时读取名册文件
func loadRoster(ctx context.Context, cfg *config.Config, repo repository.ParticipantRepository) ([]string, error) {
	list, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		roster := make([]string, 0, len(list))
		for _, p := range list {
			roster = append(roster, p.Username)
		}
		return roster, nil
	}

	f, err := os.Open(cfg.Data.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("no roster in database and roster file unavailable: %w", err)
	}
	defer f.Close()
	return service.ReadRoster(f)
}
