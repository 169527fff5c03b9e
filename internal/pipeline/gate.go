package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/promoforge/promoforge/internal/llm"
)

// Gate thresholds. Below GateAbortBelow the generation call is never made;
// below GateWarnBelow the pipeline proceeds with a warning.
const (
	GateAbortBelow = 40
	GateWarnBelow  = 60
)

// InsufficientInputError is the one expected content failure: the assembled
// prompt and context are too thin to spend a generation call on. It carries
// the score, a per-component breakdown, and concrete improvement
// suggestions so callers can render it distinctly from a transport error.
type InsufficientInputError struct {
	Score       int
	Breakdown   map[string]int
	Suggestions []string
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("insufficient input for generation (score %d/100): %s",
		e.Score, strings.Join(e.Suggestions, "; "))
}

// gateResult is the evaluator's verdict before thresholding.
type gateResult struct {
	Score       int
	Breakdown   map[string]int
	Suggestions []string
}

// evaluateGateHeuristic scores prompt + context completeness 0-100 without
// any model call. Prompt detail earns up to 40; product context 25; brand
// context 20; reference imagery 15.
func evaluateGateHeuristic(prompt string, fragments []Fragment) gateResult {
	byLabel := make(map[string]bool, len(fragments))
	for _, f := range fragments {
		byLabel[f.Label] = true
	}

	breakdown := make(map[string]int, 4)
	var suggestions []string

	detail := len(strings.Fields(prompt)) * 4
	if detail > 40 {
		detail = 40
	}
	breakdown["prompt_detail"] = detail
	if detail < 20 {
		suggestions = append(suggestions, "describe the desired image in more detail (subject, setting, mood)")
	}

	if byLabel["product_context"] {
		breakdown["product_context"] = 25
	} else {
		breakdown["product_context"] = 0
		suggestions = append(suggestions, "attach catalog items so the product can be described accurately")
	}

	if byLabel["brand_context"] || byLabel["style_directives"] {
		breakdown["brand_context"] = 20
	} else {
		breakdown["brand_context"] = 0
		suggestions = append(suggestions, "fill in a brand profile (voice, colors, style notes)")
	}

	if byLabel["visual_analysis"] {
		breakdown["reference_imagery"] = 15
	} else {
		breakdown["reference_imagery"] = 0
		suggestions = append(suggestions, "add a reference image to anchor the visual style")
	}

	total := 0
	for _, v := range breakdown {
		total += v
	}

	return gateResult{Score: total, Breakdown: breakdown, Suggestions: suggestions}
}

// gateRefineResponse is the strict contract for the optional model pass.
type gateRefineResponse struct {
	Score *int `json:"score"`
}

// evaluateGate runs the heuristic and, when enabled, refines the score with
// one cheap model call. Evaluator failure of any kind keeps the heuristic
// verdict; the gate itself never blocks on its own machinery.
func (p *Pipeline) evaluateGate(ctx context.Context, prompt string, fragments []Fragment) gateResult {
	result := evaluateGateHeuristic(prompt, fragments)
	if !p.gateRefine {
		return result
	}

	resp, err := p.model.GenerateText(ctx, llm.TextRequest{
		System:      "You judge whether an image generation prompt has enough context to produce on-brand marketing imagery. Respond only with the JSON object requested.",
		Prompt:      fmt.Sprintf("Prompt:\n%s\n\nScore its completeness 0-100.\n\nRespond with JSON only:\n{\"score\": 0}", prompt),
		Temperature: 0.1,
		MaxTokens:   50,
	})
	if err != nil {
		p.logger.Warn("gate refinement call failed, keeping heuristic score", "error", err)
		return result
	}

	parsed, err := llm.ExtractJSONAs[gateRefineResponse](resp.Text)
	if err != nil || parsed.Score == nil {
		p.logger.Warn("gate refinement response unparsable, keeping heuristic score", "error", err)
		return result
	}

	refined := *parsed.Score
	if refined < 0 {
		refined = 0
	}
	if refined > 100 {
		refined = 100
	}
	result.Score = refined
	return result
}
