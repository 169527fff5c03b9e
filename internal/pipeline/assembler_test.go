package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemble_PriorityOrder(t *testing.T) {
	fragments := []Fragment{
		{Label: "template", Priority: priorityTemplate, Text: "template text"},
		{Label: "product_context", Priority: priorityProduct, Text: "product text"},
		{Label: "brand_context", Priority: priorityBrand, Text: "brand text"},
	}

	prompt, images := Assemble("base prompt", fragments)

	assert.Equal(t, "base prompt\n\nproduct text\n\nbrand text\n\ntemplate text", prompt)
	assert.Empty(t, images)
}

func TestAssemble_Deterministic(t *testing.T) {
	fragments := []Fragment{
		{Label: "knowledge", Priority: priorityKnowledge, Text: "k"},
		{Label: "style_directives", Priority: priorityStyle, Text: "s"},
	}

	first, _ := Assemble("p", fragments)
	second, _ := Assemble("p", fragments)

	assert.Equal(t, first, second)
}

func TestAssemble_CollectsImagesInPriorityOrder(t *testing.T) {
	ref := []byte{1, 2, 3}
	fragments := []Fragment{
		{Label: "visual_analysis", Priority: priorityVisual, Text: "visual", Images: [][]byte{ref}},
		{Label: "product_context", Priority: priorityProduct, Text: "product"},
	}

	_, images := Assemble("p", fragments)

	assert.Equal(t, [][]byte{ref}, images)
}

func TestAssemble_SkipsEmptyText(t *testing.T) {
	fragments := []Fragment{
		{Label: "visual_analysis", Priority: priorityVisual, Images: [][]byte{{1}}},
		{Label: "product_context", Priority: priorityProduct, Text: "product"},
	}

	prompt, images := Assemble("", fragments)

	assert.Equal(t, "product", prompt)
	assert.Len(t, images, 1)
}

func TestAssemble_TieKeepsStageOrder(t *testing.T) {
	fragments := []Fragment{
		{Label: "a", Priority: 50, Text: "first"},
		{Label: "b", Priority: 50, Text: "second"},
	}

	prompt, _ := Assemble("", fragments)

	assert.Equal(t, "first\n\nsecond", prompt)
}
