package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	recommenduc "github.com/kailas-cloud/collabmatch/internal/usecase/recommend"
)

const (
	menuSimilar = "Find colleagues similar to an employee"
	menuSearch  = "Search by skills, name or resume text"
	menuExit    = "Exit"
	promptBack  = "back"
)

var errExit = errors.New("exit requested")

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Explore recommendations from an interactive menu",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Welcome to collabmatch! %d profiles loaded.\n", a.profiles.Len())

			for {
				err := interactiveStep(cmd.Context(), a, out)
				switch {
				case err == nil:
				case errors.Is(err, errExit),
					errors.Is(err, promptui.ErrInterrupt),
					errors.Is(err, promptui.ErrEOF):
					_, _ = fmt.Fprintln(out, "Exiting...")
					return nil
				default:
					_, _ = fmt.Fprintf(out, "Error: %v\n", err)
				}
			}
		},
	}
}

func interactiveStep(ctx context.Context, a *application, out io.Writer) error {
	menu := promptui.Select{
		Label: "Choose a command",
		Items: []string{menuSimilar, menuSearch, menuExit},
	}
	_, choice, err := menu.Run()
	if err != nil {
		return err
	}

	switch choice {
	case menuSimilar:
		return similarFlow(ctx, a, out)
	case menuSearch:
		return searchFlow(ctx, a, out)
	default:
		return errExit
	}
}

func similarFlow(ctx context.Context, a *application, out io.Writer) error {
	input := promptui.Prompt{
		Label:    "Employee name or ID",
		Validate: notBlank,
	}
	query, err := input.Run()
	if err != nil {
		return err
	}

	found := findEmployees(a.profiles.All(), query)
	if len(found) == 0 {
		_, _ = fmt.Fprintln(out, "Employee not found.")
		return nil
	}

	target := found[0]
	if len(found) > 1 {
		items := make([]string, 0, len(found)+1)
		for _, p := range found {
			items = append(items, employeeLabel(p))
		}
		pick := promptui.Select{
			Label: "Choose an employee and press ENTER",
			Items: append(items, promptBack),
			Size:  10,
		}
		i, selected, err := pick.Run()
		if err != nil {
			return err
		}
		if selected == promptBack {
			return nil
		}
		target = found[i]
	}

	_, _ = fmt.Fprintf(out, "\nFinding matches for: %s (%s)\n", target.Name, target.Title)
	results, err := a.recommend.Similar(ctx, target.ID)
	if err != nil {
		return err
	}
	resp := recommenduc.Response{Results: results, NoMatch: len(results) == 0}
	printResults(out, resp)

	if len(results) > 0 {
		_, _ = fmt.Fprintf(out, "\n--- Collaboration Summary ---\n%s\n\n",
			a.recommend.Summarize(ctx, target.EmbeddingText(), results))
	}
	return nil
}

func searchFlow(ctx context.Context, a *application, out io.Writer) error {
	input := promptui.Prompt{
		Label:    "Query",
		Validate: notBlank,
	}
	query, err := input.Run()
	if err != nil {
		return err
	}

	resp, err := a.recommend.Recommend(ctx, recommenduc.Request{SearchQuery: query})
	if err != nil {
		return err
	}
	printResults(out, resp)
	_, _ = fmt.Fprintln(out)
	return nil
}

// findEmployees matches an exact ID first, then a case-insensitive name fragment.
func findEmployees(profiles []profile.Profile, query string) []profile.Profile {
	query = strings.TrimSpace(query)
	for _, p := range profiles {
		if strings.EqualFold(p.ID, query) {
			return []profile.Profile{p}
		}
	}

	needle := strings.ToLower(query)
	var found []profile.Profile
	for _, p := range profiles {
		if needle != "" && strings.Contains(strings.ToLower(p.Name), needle) {
			found = append(found, p)
		}
	}
	return found
}

func employeeLabel(p profile.Profile) string {
	return fmt.Sprintf("%s %s / %s / %s", p.ID, p.Name, p.Title, p.Department)
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}
