// Command veracity fact-checks free-form text from the command line.
//
// The text to check is taken from the arguments, or from stdin when no
// arguments are given:
//
//	veracity "GPT-4 was released in March 2023."
//	cat article.txt | veracity --format markdown
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veracity-ai/veracity"
	"github.com/veracity-ai/veracity/config"
	"github.com/veracity-ai/veracity/synthesis"
)

var (
	configPath string
	format     string
)

var rootCmd = &cobra.Command{
	Use:   "veracity [text]",
	Short: "Fact-check free-form text with an LLM research pipeline",
	Long: `veracity extracts atomic claims from the input text, researches the
most error-prone ones on the web, and adjudicates the evidence into a
verdict report.

Configuration comes from a YAML file (--config) and VERACITY_* environment
variables; provider API keys are also picked up from the usual provider
environment variables.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(args)
		if err != nil {
			return err
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		p, err := veracity.New(cfg)
		if err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := p.Check(ctx, text)
		if err != nil {
			return err
		}

		return printReport(cmd.OutOrStdout(), report)
	},
}

func inputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no input text: pass it as an argument or on stdin")
	}

	return text, nil
}

func printReport(w io.Writer, report *synthesis.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "markdown":
		fmt.Fprintf(w, "# Fact-check: %s (factuality %.2f)\n\n", report.OverallLabel, report.Factuality)
		if report.ReasonSummary != "" {
			fmt.Fprintln(w, report.ReasonSummary)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, report.Reason)
		if len(report.References) > 0 {
			fmt.Fprintln(w, "\n## References")
			for i, ref := range report.References {
				fmt.Fprintf(w, "%d. %s (%s)\n", i+1, ref.URL, ref.Citation)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or markdown)", format)
	}
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or markdown")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
