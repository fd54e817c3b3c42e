package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"resume-screener/internal/criteria"
	"resume-screener/internal/logger"
	"resume-screener/internal/model"
	"resume-screener/internal/processor"
	"resume-screener/internal/report"
	"resume-screener/internal/screening"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var resumeExtensions = map[string]struct{}{".pdf": {}, ".docx": {}, ".txt": {}, ".md": {}}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files or directories...]",
	Short: "Analyze resumes against job criteria",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("skills", "s", "", "required skills, comma separated")
	analyzeCmd.Flags().StringP("education", "e", "", "accepted education terms, comma separated")
	analyzeCmd.Flags().String("job-description", "", "job description file (.txt or .html)")
	analyzeCmd.Flags().String("criteria", "", "criteria yaml file, overrides criteria.file")
	analyzeCmd.Flags().Int("cutoff", -1, "selection cutoff 0-100")
	analyzeCmd.Flags().String("strategy", "", "weighted, fuzzy or similarity")
	analyzeCmd.Flags().String("csv", "", "write the ranked records as CSV to this path, - for stdout")
	analyzeCmd.Flags().Bool("persist", false, "save records to the database")
	analyzeCmd.Flags().Bool("notify", false, "notify candidates and recruiters")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before notifying")
}

func analyze(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	flags := cmd.Flags()
	persist, _ := flags.GetBool("persist")
	notify, _ := flags.GetBool("notify")
	autoApprove, _ := flags.GetBool("auto-approve")
	if !persist {
		cfg.Database.Driver = driverNone
	}
	if path, _ := flags.GetString("criteria"); path != "" {
		cfg.Criteria.File = path
	}

	docs, err := collectDocuments(args)
	if err != nil {
		logger.Fatal("collecting resumes", zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Fatal("no resumes found", zap.Strings("paths", args))
	}

	deps, cleanup, err := buildApp(cfg, logger)
	if err != nil {
		logger.Fatal("building app", zap.Error(err))
	}
	defer cleanup()

	req, err := requestFromFlags(cmd)
	if err != nil {
		logger.Fatal("reading criteria flags", zap.Error(err))
	}
	jc, err := deps.criteria.Build(criteria.Merge(deps.defaults, req))
	if err != nil {
		logger.Fatal("building criteria", zap.Error(err))
	}
	logger.Info("analyzing resumes", append(criteriaSummary(jc), zap.Int("resumes", len(docs)))...)

	if notify && !autoApprove {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Notify candidates from %d resumes?", len(docs)),
			Items: []string{PromptYes, PromptNo},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			logger.Fatal("prompt failed", zap.Error(err))
		}
		notify = answer == PromptYes
	}

	strategy, _ := flags.GetString("strategy")
	res, err := deps.screener.Screen(ctx, docs, jc, screening.Options{
		Strategy: strategy,
		Persist:  persist,
		Notify:   notify,
		Progress: func(done, total int) {
			logger.Debug("progress", zap.Int("done", done), zap.Int("total", total))
		},
	})
	if err != nil && len(res.Batch.Records) == 0 {
		logger.Fatal("screening failed", zap.Error(err))
	}
	if err != nil {
		logger.Error("screening finished with errors", zap.Error(err))
	}

	records := append([]model.AnalysisRecord(nil), res.Batch.Records...)
	processor.SortByScore(records)

	if err := printRecords(os.Stdout, records); err != nil {
		logger.Fatal("printing records", zap.Error(err))
	}

	if path, _ := flags.GetString("csv"); path != "" {
		if err := writeCSVFile(path, records); err != nil {
			logger.Fatal("writing csv", zap.Error(err))
		}
	}

	logger.Info("analysis finished",
		zap.String("run_id", res.Batch.RunID),
		zap.String("strategy", res.Batch.Strategy),
		zap.Int("selected", res.Batch.Selected),
		zap.Int("rejected", res.Batch.Rejected),
		zap.Int("created", res.Save.Created),
		zap.Int("skipped", res.Save.Skipped),
	)
}

func requestFromFlags(cmd *cobra.Command) (criteria.Request, error) {
	flags := cmd.Flags()
	var req criteria.Request

	skills, _ := flags.GetString("skills")
	req.Skills = criteria.SplitList(skills)
	education, _ := flags.GetString("education")
	req.Education = criteria.SplitList(education)

	if path, _ := flags.GetString("job-description"); path != "" {
		jd, err := criteria.LoadJobDescription(path)
		if err != nil {
			return req, err
		}
		req.JobDescription = jd
	}

	if cutoff, _ := flags.GetInt("cutoff"); cutoff >= 0 {
		req.Cutoff = &cutoff
	}
	return req, nil
}

// collectDocuments 读取参数中的文件，目录只取第一层支持的简历文件。
func collectDocuments(paths []string) ([]model.ResumeDocument, error) {
	var docs []model.ResumeDocument
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			doc, err := readDocument(p)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		for _, entry := range entries {
			if !isResumeFile(entry) {
				continue
			}
			doc, err := readDocument(filepath.Join(p, entry.Name()))
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func isResumeFile(entry fs.DirEntry) bool {
	if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
		return false
	}
	_, ok := resumeExtensions[strings.ToLower(filepath.Ext(entry.Name()))]
	return ok
}

func readDocument(path string) (model.ResumeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ResumeDocument{}, fmt.Errorf("read resume %s: %w", path, err)
	}
	return model.ResumeDocument{Name: filepath.Base(path), Data: data}, nil
}

func printRecords(w io.Writer, records []model.AnalysisRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tNAME\tEMAIL\tSCORE\tSTATUS\tMISSING")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			rec.Filename, rec.Name, rec.Email, rec.Score, rec.Status, strings.Join(rec.Missing, ", "))
	}
	return tw.Flush()
}

func writeCSVFile(path string, records []model.AnalysisRecord) error {
	if path == "-" {
		return report.WriteCSV(os.Stdout, records)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := report.WriteCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
