// Package copywriter generates platform-appropriate marketing copy for a
// finished artifact. Copy failures are hard failures: the engine surfaces
// them as a failed step rather than degrading silently.
package copywriter

import (
	"context"
)

// Copy is the full set of text pieces for one post.
type Copy struct {
	Headline string   `json:"headline"`
	Hook     string   `json:"hook"`
	Body     string   `json:"body"`
	CTA      string   `json:"cta"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// Request describes the post the copy must fit.
type Request struct {
	Channel          string   `json:"channel"`
	ContentType      string   `json:"content_type"`
	Objective        string   `json:"objective"`
	HookAngle        string   `json:"hook_angle,omitempty"`
	ItemNames        []string `json:"item_names"`
	ItemDescriptions []string `json:"item_descriptions,omitempty"`
	BrandVoice       string   `json:"brand_voice,omitempty"`
}

// Generator produces copy honoring per-channel character limits.
type Generator interface {
	GenerateCopy(ctx context.Context, req Request) (*Copy, error)
}

// Limits are the per-channel character budgets enforced on generated copy.
type Limits struct {
	CaptionMax int
	BodyMax    int
}

// channelLimits maps channels to their character budgets. Short-form
// channels cap the caption hard; long-form channels allow extended body text.
var channelLimits = map[string]Limits{
	"twitter":   {CaptionMax: 280, BodyMax: 280},
	"instagram": {CaptionMax: 2200, BodyMax: 2200},
	"facebook":  {CaptionMax: 2200, BodyMax: 3000},
	"linkedin":  {CaptionMax: 1300, BodyMax: 3000},
	"tiktok":    {CaptionMax: 2200, BodyMax: 2200},
	"pinterest": {CaptionMax: 500, BodyMax: 800},
}

// defaultLimits applies to channels without an explicit entry.
var defaultLimits = Limits{CaptionMax: 2200, BodyMax: 3000}

// LimitsFor returns the character budgets for a channel.
func LimitsFor(channel string) Limits {
	if l, ok := channelLimits[channel]; ok {
		return l
	}
	return defaultLimits
}

// Clamp trims copy fields to the channel's budgets. Truncation cuts on a
// rune boundary and appends no ellipsis; the model is prompted with the
// budget first, so clamping is a backstop.
func Clamp(c Copy, limits Limits) Copy {
	c.Caption = truncateRunes(c.Caption, limits.CaptionMax)
	c.Body = truncateRunes(c.Body, limits.BodyMax)
	return c
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
