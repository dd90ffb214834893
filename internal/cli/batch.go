package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/pipeline"
	"github.com/pkravets/revscout/internal/scrape"
)

var (
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Collect feedback for multiple subjects from a file",
	Long: `Batch reads subjects from a file (one per line, # comments allowed)
and runs a collection for each, writing one JSON artifact per subject.

Subjects are processed sequentially: rate limiting is built on mandatory
inter-request pacing, so parallel subjects against the same site would
defeat it.

Example:
  revscout batch subjects.txt --source g2 --start-date 2024-01-01 --end-date 2024-12-31
  revscout batch subjects.txt --source capterra --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./revscout-reports", "output directory for per-subject artifacts")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for the batch")

	batchCmd.Flags().StringVar(&source, "source", "", "feedback source (g2, capterra, trustradius, github)")
	batchCmd.Flags().StringVar(&startDate, "start-date", "", "window start, inclusive (YYYY-MM-DD)")
	batchCmd.Flags().StringVar(&endDate, "end-date", "", "window end, inclusive (YYYY-MM-DD)")
	batchCmd.Flags().BoolVar(&useMock, "mock", false, "skip collection and emit synthetic records")
	batchCmd.Flags().StringVar(&githubToken, "token", "", "GitHub API token (github source only)")
	batchCmd.Flags().IntVar(&maxPages, "max-pages", 10, "pagination safety bound per source")
	batchCmd.Flags().DurationVar(&minDelay, "min-delay", 2*time.Second, "minimum pause before each request")
	batchCmd.Flags().DurationVar(&maxDelay, "max-delay", 5*time.Second, "maximum pause before each request")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the per-run page cache")
	batchCmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "honor robots.txt disallow rules")

	_ = batchCmd.MarkFlagRequired("source")
	_ = batchCmd.MarkFlagRequired("start-date")
	_ = batchCmd.MarkFlagRequired("end-date")
}

func runBatch(cmd *cobra.Command, args []string) error {
	subjects, err := readSubjects(args[0])
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		return fmt.Errorf("no subjects in %s", args[0])
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := buildConfig()
	if githubToken == "" {
		githubToken = os.Getenv("GITHUB_TOKEN")
	}

	// One session for the whole batch keeps pacing and the page cache
	// shared across subjects.
	session := fetch.NewSession(cfg, fetch.DefaultPolicy(cfg.HTTP.MinDelay, cfg.HTTP.MaxDelay))
	p := pipeline.NewWithSession(cfg, session, githubToken)

	failed := 0
	for i, subject := range subjects {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", i+1, len(subjects), subject)

		reviews, err := p.Run(ctx, pipeline.RunOptions{
			Subject:   subject,
			StartDate: startDate,
			EndDate:   endDate,
			Source:    source,
			Mock:      useMock,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "  failed: %v\n", err)
			failed++
			continue
		}

		path := filepath.Join(outputDir, subjectFilename(subject))
		if err := pipeline.WriteJSON(reviews, path); err != nil {
			fmt.Fprintf(os.Stderr, "  failed: %v\n", err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stderr, "  %d records -> %s\n", len(reviews), path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d subjects failed", failed, len(subjects))
	}
	return nil
}

func readSubjects(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subjects file: %w", err)
	}
	defer f.Close()

	var subjects []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		subjects = append(subjects, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subjects file: %w", err)
	}
	return subjects, nil
}

// subjectFilename derives a filesystem-safe artifact name from a
// subject. "owner/repo" subjects flatten to "owner-repo".
func subjectFilename(subject string) string {
	name := strings.ReplaceAll(subject, "/", "-")
	name = scrape.Slug(name)
	if name == "" {
		name = "subject"
	}
	return name + ".json"
}
