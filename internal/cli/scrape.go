package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/model"
	"github.com/pkravets/revscout/internal/pipeline"
)

var (
	source        string
	startDate     string
	endDate       string
	outputPath    string
	useMock       bool
	githubToken   string
	runTimeout    time.Duration
	maxPages      int
	minDelay      time.Duration
	maxDelay      time.Duration
	noCache       bool
	respectRobots bool
	insecureTLS   bool
	httpProxy     string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <subject>",
	Short: "Collect feedback about a subject from one source",
	Long: `Scrape collects feedback records about a subject within a date window:
- Locates the subject's feedback page via URL-pattern discovery
- Walks result pages, newest first, until the window's lower bound
- Normalizes every item into the common record schema
- Falls back to clearly synthetic records when collection yields nothing

The subject is a product name for review sites, or owner/repo for GitHub.

Example:
  revscout scrape "Acme CRM" --source g2 --start-date 2024-01-01 --end-date 2024-12-31
  revscout scrape golang/go --source github --start-date 2024-06-01 --end-date 2024-06-30 --token $GITHUB_TOKEN
  revscout scrape "Acme CRM" --source capterra --mock --output demo.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&source, "source", "", "feedback source (g2, capterra, trustradius, github)")
	scrapeCmd.Flags().StringVar(&startDate, "start-date", "", "window start, inclusive (YYYY-MM-DD)")
	scrapeCmd.Flags().StringVar(&endDate, "end-date", "", "window end, inclusive (YYYY-MM-DD)")
	scrapeCmd.Flags().StringVar(&outputPath, "output", "reviews.json", "output JSON path")
	scrapeCmd.Flags().BoolVar(&useMock, "mock", false, "skip collection and emit synthetic records")
	scrapeCmd.Flags().StringVar(&githubToken, "token", "", "GitHub API token (github source only)")

	scrapeCmd.Flags().DurationVar(&runTimeout, "timeout", 15*time.Minute, "overall run timeout")
	scrapeCmd.Flags().IntVar(&maxPages, "max-pages", 10, "pagination safety bound per source")
	scrapeCmd.Flags().DurationVar(&minDelay, "min-delay", 2*time.Second, "minimum pause before each request")
	scrapeCmd.Flags().DurationVar(&maxDelay, "max-delay", 5*time.Second, "maximum pause before each request")
	scrapeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the per-run page cache")
	scrapeCmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "honor robots.txt disallow rules")
	scrapeCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	scrapeCmd.Flags().StringVar(&httpProxy, "proxy", "", "proxy URL (overrides HTTP_PROXY/HTTPS_PROXY)")

	_ = scrapeCmd.MarkFlagRequired("source")
	_ = scrapeCmd.MarkFlagRequired("start-date")
	_ = scrapeCmd.MarkFlagRequired("end-date")
}

func runScrape(cmd *cobra.Command, args []string) error {
	subject := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := buildConfig()

	if githubToken == "" {
		githubToken = os.Getenv("GITHUB_TOKEN")
	}

	session := fetch.NewSession(cfg, fetch.DefaultPolicy(cfg.HTTP.MinDelay, cfg.HTTP.MaxDelay))
	p := pipeline.NewWithSession(cfg, session, githubToken)

	reviews, err := p.Run(ctx, pipeline.RunOptions{
		Subject:   subject,
		StartDate: startDate,
		EndDate:   endDate,
		Source:    source,
		Mock:      useMock,
	})
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	if err := pipeline.WriteJSON(reviews, outputPath); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	pipeline.RenderSummary(os.Stdout, reviews, outputPath)
	return nil
}

// buildConfig merges defaults with flag overrides.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.MinDelay = minDelay
	cfg.HTTP.MaxDelay = maxDelay
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.Proxy = httpProxy
	cfg.Scrape.MaxPages = maxPages
	cfg.Cache.Enabled = !noCache
	cfg.Robots.Respect = respectRobots
	cfg.Output.Verbose = verbose
	return cfg
}
