package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/scholar-cli/internal/model"
	"github.com/sells-group/scholar-cli/internal/pipeline"
	"github.com/sells-group/scholar-cli/internal/registry"
	"github.com/sells-group/scholar-cli/pkg/anthropic"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the integration pipeline over a directory of raw results",
	Long:  "Loads per-source result files, normalizes and deduplicates the records, tags them against the configured vocabularies, and classifies each record with Claude. Progress is checkpointed after every stage so an interrupted run can be resumed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		inputDir, _ := cmd.Flags().GetString("input")
		resumeID, _ := cmd.Flags().GetString("resume")
		skipClassify, _ := cmd.Flags().GetBool("skip-classification")
		retryDefaulted, _ := cmd.Flags().GetBool("retry-defaulted")

		mode := "classify"
		if skipClassify {
			mode = "tag"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "cmd: init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "cmd: migrate store")
		}

		vocabs, err := registry.LoadVocabularies(cfg.Tagger.VocabFiles)
		if err != nil {
			return eris.Wrap(err, "cmd: load vocabularies")
		}

		var questions []model.Question
		var asker *anthropic.Asker
		if !skipClassify {
			questions, err = registry.LoadQuestions(cfg.Classify.QuestionsFile)
			if err != nil {
				return eris.Wrap(err, "cmd: load questions")
			}
			asker = anthropic.NewAsker(anthropic.NewClient(cfg.Anthropic.Key), anthropic.AskerConfig{
				Model:          cfg.Anthropic.Model,
				MaxTokens:      int64(cfg.Anthropic.MaxTokens),
				RequestTimeout: cfg.RequestTimeout(),
			})
		}

		p := pipeline.New(st, asker, questions, vocabs, pipeline.Config{
			SourcePriority: cfg.Sources.Priority,
			Dedupe:         cfg.DedupeOptions(),
			Classify:       cfg.ClassifyOptions(),
		})

		report, _, err := p.Run(ctx, pipeline.Options{
			InputDir:           inputDir,
			ResumeRunID:        resumeID,
			SkipClassification: skipClassify,
			RetryDefaulted:     retryDefaulted,
		})
		if err != nil {
			return eris.Wrap(err, "cmd: run pipeline")
		}

		if asker != nil {
			asker.LogUsage(cfg.Anthropic.Model)
		}
		zap.L().Info("pipeline complete", zap.String("run_id", report.RunID))

		fmt.Println(pipeline.FormatReport(report))

		return nil
	},
}

func init() {
	runCmd.Flags().String("input", "", "directory containing per-source raw result files")
	runCmd.Flags().String("resume", "", "run ID to resume from its latest checkpoint")
	runCmd.Flags().Bool("skip-classification", false, "stop the pipeline after tagging")
	runCmd.Flags().Bool("retry-defaulted", false, "re-ask questions that previously fell back to defaults")
	rootCmd.AddCommand(runCmd)
}
