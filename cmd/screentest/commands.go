package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/extract"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/llm"
	"jobboard-backend/internal/screening"
	"jobboard-backend/internal/shared/config"
)

type completerFactory func(ctx context.Context, cfg config.Config) (llm.Completer, error)

func newRootCmd(newCompleter completerFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "screentest",
		Short:         "screentest extracts a local resume and runs one screening decision",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExtractCmd(), newDecideCmd(newCompleter))
	return root
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <resume>",
		Short: "Print the plain text extracted from a resume file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readResume(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newDecideCmd(newCompleter completerFactory) *cobra.Command {
	var (
		title, role, description, company string
		skills, certs                     []string
		provider, model                   string
		timeout                           time.Duration
	)
	cmd := &cobra.Command{
		Use:   "decide <resume>",
		Short: "Run one decision against the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readResume(args[0])
			if err != nil {
				return err
			}

			cfg := config.Load()
			if provider != "" {
				cfg.LLMProvider = provider
			}
			if model != "" {
				cfg.LLMModel = model
			}
			completer, err := newCompleter(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			job := jobs.Job{
				Title:                  title,
				Role:                   role,
				Description:            description,
				Company:                company,
				RequiredSkills:         skills,
				RequiredCertifications: certs,
			}
			app := applications.Application{ResumePath: args[0], ResumeText: text}
			result := screening.NewRequester(completer, timeout).Decide(cmd.Context(), job, app, text)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"decision":  string(result.Status),
				"reasoning": result.Reasoning,
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&title, "title", "Software Engineer", "job title")
	flags.StringVar(&role, "role", "Engineer", "job role")
	flags.StringVar(&description, "description", "", "job description")
	flags.StringVar(&company, "company", "Example Co", "company name")
	flags.StringSliceVar(&skills, "skills", nil, "required skills, comma separated")
	flags.StringSliceVar(&certs, "certifications", nil, "required certifications, comma separated")
	flags.StringVar(&provider, "provider", "", "override LLM_PROVIDER")
	flags.StringVar(&model, "model", "", "override LLM_MODEL")
	flags.DurationVar(&timeout, "timeout", screening.DefaultDecisionTimeout, "decision timeout")
	return cmd
}

func readResume(path string) (string, error) {
	if !extract.Supported(path) {
		return "", fmt.Errorf("unsupported resume type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	text, err := extract.FromBytes(data, path)
	if err != nil {
		return "", fmt.Errorf("extract resume text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
