package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/synth"
	recommenduc "github.com/kailas-cloud/collabmatch/internal/usecase/recommend"
)

func newRecommendCmd() *cobra.Command {
	var (
		modeName   string
		resumeFile string
		summarize  bool
	)

	cmd := &cobra.Command{
		Use:   "recommend [query]",
		Short: "Recommend colleagues for a query or a resume file",
		Example: `  collabmatch recommend "Find Python experts"
  collabmatch recommend --resume-file cv.pdf --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" && resumeFile == "" {
				return fmt.Errorf("a query or --resume-file is required")
			}

			cfg, logger, err := setup("warn")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApplication(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			req := recommenduc.Request{Mode: modeName, SearchQuery: query}
			if resumeFile != "" {
				data, err := os.ReadFile(filepath.Clean(resumeFile))
				if err != nil {
					return fmt.Errorf("read resume: %w", err)
				}
				text, err := a.extractor.Extract(cmd.Context(), filepath.Base(resumeFile), data)
				if err != nil {
					return err
				}
				req = recommenduc.Request{Mode: modeName, ResumeText: text}
				if req.Mode == "" {
					req.Mode = "resume"
				}
				query = text
			}

			resp, err := a.recommend.Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printResults(out, resp)
			if summarize && len(resp.Results) > 0 {
				_, _ = fmt.Fprintf(out, "\n%s\n", a.recommend.Summarize(cmd.Context(), query, resp.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeName, "mode", "m", "", "force a mode: resume, keyword_search or name_search")
	cmd.Flags().StringVarP(&resumeFile, "resume-file", "f", "", "PDF or text resume to match against")
	cmd.Flags().BoolVarP(&summarize, "summary", "s", false, "print a collaboration summary for the results")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	var (
		count int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Print a synthetic employee data set as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(synth.Generate(count, seed))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of profiles")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "random seed; the same seed yields the same data set")
	return cmd
}

func printResults(w io.Writer, resp recommenduc.Response) {
	if resp.NoMatch {
		_, _ = fmt.Fprintf(w, "No matching colleagues found (mode: %s).\n", resp.Mode)
		return
	}

	_, _ = fmt.Fprintf(w, "Top %d colleagues (mode: %s)\n", len(resp.Results), resp.Mode)
	for i := range resp.Results {
		printResult(w, i+1, &resp.Results[i])
	}
}

func printResult(w io.Writer, rank int, r *match.Result) {
	p := r.Profile()
	_, _ = fmt.Fprintf(w, "\n%d. %s, %s (%s) [%s]\n", rank, p.Name, p.Title, p.Department, p.ID)
	_, _ = fmt.Fprintf(w, "   Match: %.0f%%  Email: %s\n", r.Score()*100, p.Email)
	if s := r.Summary(); s != "" {
		_, _ = fmt.Fprintf(w, "   Why: %s\n", s)
	}
	if skills := r.Overlap().SharedSkills; len(skills) > 0 {
		_, _ = fmt.Fprintf(w, "   Shared skills: %s\n", strings.Join(skills, ", "))
	}
	for _, s := range r.Suggestions() {
		_, _ = fmt.Fprintf(w, "   - %s\n", s)
	}
}
