// datareview is an operator utility for inspecting welcome-book and
// feedback data files without going through the API.
//
//	datareview welcome [-limit N] [-answers] [-detail ID]
//	datareview feedback [-limit N] [-detail ID]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"graysky/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	limit := fs.Int("limit", 0, "limit number of entries to display")
	answers := fs.Bool("answers", false, "show answers in output (welcome only)")
	detail := fs.String("detail", "", "show full record for the entry whose id starts with this prefix")
	fs.Parse(os.Args[2:])

	var err error
	switch os.Args[1] {
	case "welcome":
		err = reviewWelcomeBook(filepath.Join(dataDir, "welcome_book.json"), *limit, *answers, *detail)
	case "feedback":
		err = reviewFeedback(filepath.Join(dataDir, "feedback.json"), *limit, *detail)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: datareview welcome|feedback [-limit N] [-answers] [-detail ID]")
}

func reviewWelcomeBook(path string, limit int, showAnswers bool, detail string) error {
	var visitors []models.Visitor
	if err := loadJSON(path, &visitors); err != nil {
		return err
	}
	if len(visitors) == 0 {
		fmt.Println("No welcome book entries found.")
		return nil
	}

	if detail != "" {
		for _, v := range visitors {
			if strings.HasPrefix(v.ID, detail) {
				return printDetail(v)
			}
		}
		return fmt.Errorf("no entry found with id prefix %q", detail)
	}

	sort.SliceStable(visitors, func(i, j int) bool {
		return visitors[i].VisitTime.After(visitors[j].VisitTime)
	})
	total := len(visitors)
	if limit > 0 && limit < len(visitors) {
		visitors = visitors[:limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	if showAnswers {
		fmt.Fprintln(w, "ID\tNAME\tAGENT TYPE\tVISIT TIME\tVISITS\tANSWERS")
	} else {
		fmt.Fprintln(w, "ID\tNAME\tAGENT TYPE\tVISIT TIME\tVISITS\tPURPOSE")
	}
	for _, v := range visitors {
		if showAnswers {
			encoded, _ := json.Marshal(v.Answers)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				shortID(v.ID), v.Name, orNA(v.AgentType), v.VisitTime.Format("2006-01-02 15:04"), v.VisitCount, encoded)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				shortID(v.ID), v.Name, orNA(v.AgentType), v.VisitTime.Format("2006-01-02 15:04"), v.VisitCount, orNA(v.Purpose))
		}
	}
	w.Flush()
	fmt.Printf("Total entries: %d\n", total)
	return nil
}

func reviewFeedback(path string, limit int, detail string) error {
	var entries []models.Feedback
	if err := loadJSON(path, &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No feedback entries found.")
		return nil
	}

	if detail != "" {
		for _, e := range entries {
			if strings.HasPrefix(e.ID, detail) {
				return printDetail(e)
			}
		}
		return fmt.Errorf("no entry found with id prefix %q", detail)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SubmissionTime.After(entries[j].SubmissionTime)
	})
	total := len(entries)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAGENT NAME\tAGENT TYPE\tSUBMITTED\tRATING\tISSUES")
	for _, e := range entries {
		rating := "N/A"
		if e.UsabilityRating != nil {
			rating = fmt.Sprintf("%d", *e.UsabilityRating)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID), e.AgentName, orNA(e.AgentType), e.SubmissionTime.Format("2006-01-02 15:04"), rating, truncate(orNA(e.Issues), 30))
	}
	w.Flush()
	fmt.Printf("Total entries: %d\n", total)
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s is corrupted: %w", path, err)
	}
	return nil
}

func printDetail(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
