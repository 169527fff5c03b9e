package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promoforge/promoforge/internal/plan"
	"github.com/promoforge/promoforge/internal/types"
)

var (
	previewSuggestionFile string
	previewAnswers        []string
	listStatus            string
	reviseFeedback        string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build, inspect, revise, and approve campaign plans",
}

var planPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Expand a suggestion into a scored plan",
	RunE:  runPlanPreview,
}

var planGetCmd = &cobra.Command{
	Use:   "get <plan-id>",
	Short: "Show one plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanGet,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your plans",
	RunE:  runPlanList,
}

var planReviseCmd = &cobra.Command{
	Use:   "revise <plan-id>",
	Short: "Revise a plan with free-text feedback",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanRevise,
}

var planApproveCmd = &cobra.Command{
	Use:   "approve <plan-id>",
	Short: "Approve a draft plan for execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanApprove,
}

var planScoreCmd = &cobra.Command{
	Use:   "score <plan-id>",
	Short: "Re-run the approval scorer on a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanScore,
}

func init() {
	planPreviewCmd.Flags().StringVar(&previewSuggestionFile, "suggestion", "", "suggestion JSON file (from 'suggest')")
	planPreviewCmd.Flags().StringSliceVar(&previewAnswers, "answer", nil, "clarifying answer as field=value")
	planPreviewCmd.MarkFlagRequired("suggestion")

	planListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")

	planReviseCmd.Flags().StringVar(&reviseFeedback, "feedback", "", "revision feedback")
	planReviseCmd.MarkFlagRequired("feedback")

	planCmd.AddCommand(planPreviewCmd)
	planCmd.AddCommand(planGetCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planReviseCmd)
	planCmd.AddCommand(planApproveCmd)
	planCmd.AddCommand(planScoreCmd)
}

func runPlanPreview(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(previewSuggestionFile)
	if err != nil {
		return fmt.Errorf("failed to read suggestion file: %w", err)
	}
	var suggestion plan.Suggestion
	if err := json.Unmarshal(data, &suggestion); err != nil {
		return fmt.Errorf("failed to parse suggestion file: %w", err)
	}

	answers := make(map[string]string, len(previewAnswers))
	for _, raw := range previewAnswers {
		field, value, found := strings.Cut(raw, "=")
		if !found {
			return fmt.Errorf("invalid answer %q, expected field=value", raw)
		}
		answers[field] = value
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p, questions, err := a.builder.BuildPlanPreview(cmd.Context(), uid, suggestion, answers)
	if err != nil {
		return err
	}

	return printJSON(map[string]any{
		"plan":                 p,
		"clarifying_questions": questions,
	})
}

func runPlanGet(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	planID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.plans.Get(cmd.Context(), uid, planID)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func runPlanList(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	plans, err := a.plans.List(cmd.Context(), uid, plan.Status(listStatus))
	if err != nil {
		return err
	}
	return printJSON(plans)
}

func runPlanRevise(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	planID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.builder.Revise(cmd.Context(), uid, planID, reviseFeedback)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func runPlanApprove(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	planID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.builder.Approve(cmd.Context(), uid, planID)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func runPlanScore(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	planID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.builder.Rescore(cmd.Context(), uid, planID)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"plan_id":         p.ID,
		"approval_score":  p.ApprovalScore,
		"score_breakdown": p.ScoreBreakdown,
	})
}
