package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

var errAborted = errors.New("aborted by user")

var screenCmd = &cobra.Command{
	Use:   "screen [files or directories...]",
	Short: "Evaluate resumes against a job description and write the ranked CSV",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return screen(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().String("job", "", "job description text")
	screenCmd.Flags().String("job-file", "", "file with the job description")
	screenCmd.Flags().StringP("out-dir", "o", "", "directory for the CSV export (default EXPORT_PATH)")
	screenCmd.Flags().BoolP("yes", "y", false, "overwrite an existing export without asking")
	screenCmd.MarkFlagsMutuallyExclusive("job", "job-file")
	screenCmd.MarkFlagsOneRequired("job", "job-file")

	viper.BindPFlag("export.path", screenCmd.Flags().Lookup("out-dir"))
}

func screen(cmd *cobra.Command, args []string) error {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	jobDescription, err := readJobDescription(cmd)
	if err != nil {
		return err
	}

	docs, err := collectDocuments(args, cfg.Storage.MaxFileSize)
	if err != nil {
		return err
	}

	intake := services.NewIntake(cfg.Intake.MaxDocuments, cfg.Storage.MaxFileSize, log)
	intake.SetJobDescription(jobDescription)
	accepted := intake.Accept(docs)
	log.Info("documents collected",
		zap.Int("accepted", accepted.Accepted),
		zap.Int("rejected", accepted.Rejected),
		zap.Int("over_limit", accepted.Truncated),
	)

	submission, err := intake.Submit()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch, err := evaluate(ctx, cfg, log, submission)
	if err != nil {
		return err
	}

	result := services.BuildResult(batch)
	log.Info("screening completed",
		zap.String("role", result.RoleTitle),
		zap.Int("candidates", result.Summary.TotalCandidates),
		zap.Int("average_score", result.Summary.AverageScore),
		zap.Int("top_candidates", result.Summary.TopCandidateCount),
		zap.Int("flagged", result.Summary.FlaggedCandidateCount),
	)
	for _, c := range result.Candidates {
		log.Info("ranked candidate",
			zap.Int("rank", c.Rank),
			zap.String("name", c.DisplayName),
			zap.Int("score", c.Score),
			zap.String("band", c.Band),
			zap.Int("red_flags", len(c.RedFlags)),
		)
	}
	for _, f := range batch.Failures {
		log.Warn("document not evaluated", zap.String("file", f.FileName), zap.String("reason", f.Reason))
	}

	return writeExport(cmd, cfg, log, batch)
}

// evaluate runs the submission on a single-use runner and waits for it.
// An interrupt cancels the run and nothing is exported.
func evaluate(ctx context.Context, cfg *config.Config, log *zap.Logger, submission *services.Submission) (*models.EvaluationBatch, error) {
	scorer, err := services.NewScorer(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating scorer: %w", err)
	}

	repo := repositories.NewMemoryScreeningRepository()
	runner := services.NewRunner(repo, services.NewEvaluator(scorer, cfg.Worker.Concurrency, log), 1, log)
	runner.Start(context.Background())
	defer runner.Stop()

	screening, err := runner.Submit(submission)
	if err != nil {
		return nil, err
	}

	select {
	case <-runner.Done(screening.ID):
	case <-ctx.Done():
		runner.Cancel(screening.ID)
		<-runner.Done(screening.ID)
		return nil, fmt.Errorf("screening cancelled: %w", ctx.Err())
	}

	finished, err := repo.FindByID(screening.ID)
	if err != nil {
		return nil, err
	}
	if finished.Status != models.StatusCompleted {
		return nil, fmt.Errorf("screening %s: %s", finished.Status, finished.ErrorMessage)
	}

	return finished.Batch(), nil
}

func writeExport(cmd *cobra.Command, cfg *config.Config, log *zap.Logger, batch *models.EvaluationBatch) error {
	at := time.Now()
	data, err := services.SerializeCSV(batch.JobDescription, services.Rank(batch.Candidates), at, cfg.Export.DateLayout)
	if err != nil {
		return err
	}

	storage := services.NewStorageService(cfg.Storage.ExportPath)
	name := services.ExportFileName(batch.JobDescription, at)

	yes, _ := cmd.Flags().GetBool("yes")
	if storage.Exists(name) && !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s exists. Overwrite", storage.GetFilePath(name)),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			return errAborted
		}
	}

	path, err := storage.SaveExport(name, data)
	if err != nil {
		return err
	}

	log.Info("export written", zap.String("path", path), zap.String("size", services.FormatFileSize(int64(len(data)))))
	return nil
}

func readJobDescription(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("job-file"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job description: %w", err)
		}
		return string(content), nil
	}

	job, _ := cmd.Flags().GetString("job")
	return job, nil
}

// collectDocuments expands directories one level deep, keeping argument order
// and the directory listing order. Files above maxFileSize are listed without
// content so intake can reject them.
func collectDocuments(paths []string, maxFileSize int64) ([]models.Document, error) {
	var docs []models.Document

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}

		if !info.IsDir() {
			doc, err := readDocument(p, info, maxFileSize)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", p, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			entryInfo, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
			}
			doc, err := readDocument(filepath.Join(p, entry.Name()), entryInfo, maxFileSize)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

func readDocument(path string, info os.FileInfo, maxFileSize int64) (models.Document, error) {
	doc := models.Document{
		FileName:  filepath.Base(path),
		SizeBytes: info.Size(),
	}
	if info.Size() > maxFileSize {
		return doc, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("reading %s: %w", path, err)
	}
	doc.Content = content
	return doc, nil
}
