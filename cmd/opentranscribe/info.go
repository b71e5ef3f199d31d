package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/leonardotrapani/opentranscribe/internal/capture"
	"github.com/leonardotrapani/opentranscribe/internal/deps"
	"github.com/leonardotrapani/opentranscribe/internal/history"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
	"github.com/spf13/cobra"
)

func backendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Show the detected audio backend and recorder tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			rec := capture.NewManager(cfg.ToCaptureOptions(logger))
			fmt.Printf("Backend: %s\n\n", rec.Backend())

			fmt.Println("External recorders:")
			for _, st := range deps.CheckRecorders() {
				if !st.Installed {
					fmt.Printf("  [ ] %s\n", st.Name)
					continue
				}
				line := fmt.Sprintf("  [x] %s (%s)", st.Name, st.Path)
				if st.Version != "" {
					line += " - " + st.Version
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func promptsCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List the available prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def := transcriber.DefaultPrompt().Name
			for _, p := range transcriber.Prompts() {
				marker := " "
				if p.Name == def {
					marker = "*"
				}
				fmt.Printf("%s %s - %s\n", marker, p.Name, p.Description)
				if verbose {
					fmt.Printf("\n%s\n\n", indent(p.Template, "    "))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the prompt templates")
	return cmd
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show recent sessions, or the full text of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			path, err := cfg.HistoryPath()
			if err != nil {
				return err
			}
			store, err := history.Open(path, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				var id int64
				if _, err := fmt.Sscan(args[0], &id); err != nil {
					return fmt.Errorf("invalid id %q", args[0])
				}
				return showRecord(cmd.Context(), store, id)
			}
			return listRecords(cmd.Context(), store, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to show")
	return cmd
}

func listRecords(ctx context.Context, store *history.Store, limit int) error {
	records, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tSTATUS\tLENGTH\tTEXT")
	for _, r := range records {
		summary := r.Text
		if r.Error != "" {
			summary = r.Error
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Status,
			r.Duration.Round(time.Second),
			truncate(strings.ReplaceAll(summary, "\n", " "), 60))
	}
	return w.Flush()
}

func showRecord(ctx context.Context, store *history.Store, id int64) error {
	r, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Session %d (%s) at %s\n", r.ID, r.Status, r.CreatedAt.Local().Format(time.RFC1123))
	fmt.Printf("Backend: %s, length %s\n", r.Backend, r.Duration.Round(time.Second))
	if r.Prompt != "" {
		fmt.Printf("Prompt: %s, languages: %s\n", r.Prompt, strings.Join(r.Languages, ", "))
	}
	if r.ArtifactPath != "" {
		fmt.Printf("Recording: %s\n", r.ArtifactPath)
	}
	if r.Error != "" {
		fmt.Printf("Error: %s\n", r.Error)
	}
	if r.Text != "" {
		fmt.Printf("\n%s\n", r.Text)
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
