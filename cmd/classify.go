package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scholar-cli/internal/pipeline"
	"github.com/sells-group/scholar-cli/internal/registry"
	"github.com/sells-group/scholar-cli/pkg/anthropic"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a checkpointed run",
	Long:  "Resumes a run from its latest checkpoint and drives the remaining stages through classification. Records that already carry answers for every question are skipped, so re-running after an interruption only pays for the unfinished tail.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runID, _ := cmd.Flags().GetString("run")
		retryDefaulted, _ := cmd.Flags().GetBool("retry-defaulted")

		if runID == "" {
			return eris.New("cmd: --run is required")
		}
		if err := cfg.Validate("classify"); err != nil {
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
		questions, err := registry.LoadQuestions(cfg.Classify.QuestionsFile)
		if err != nil {
			return eris.Wrap(err, "cmd: load questions")
		}

		asker := anthropic.NewAsker(anthropic.NewClient(cfg.Anthropic.Key), anthropic.AskerConfig{
			Model:          cfg.Anthropic.Model,
			MaxTokens:      int64(cfg.Anthropic.MaxTokens),
			RequestTimeout: cfg.RequestTimeout(),
		})

		p := pipeline.New(st, asker, questions, vocabs, pipeline.Config{
			SourcePriority: cfg.Sources.Priority,
			Dedupe:         cfg.DedupeOptions(),
			Classify:       cfg.ClassifyOptions(),
		})

		report, _, err := p.Run(ctx, pipeline.Options{
			ResumeRunID:    runID,
			RetryDefaulted: retryDefaulted,
		})
		if err != nil {
			return eris.Wrap(err, "cmd: classify run")
		}

		asker.LogUsage(cfg.Anthropic.Model)

		fmt.Println(pipeline.FormatReport(report))

		return nil
	},
}

func init() {
	classifyCmd.Flags().String("run", "", "run ID to classify (required)")
	classifyCmd.Flags().Bool("retry-defaulted", false, "re-ask questions that previously fell back to defaults")
	rootCmd.AddCommand(classifyCmd)
}
