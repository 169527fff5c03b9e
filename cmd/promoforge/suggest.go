package main

import (
	"github.com/spf13/cobra"

	"github.com/promoforge/promoforge/internal/types"
)

var (
	suggestItems []string
	suggestLimit int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Propose content suggestions from catalog items",
	Long: `Proposes ranked content suggestions for the given catalog items.
Suggestions are ephemeral; pipe the output to a file and pass one back
to 'plan preview'.`,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringSliceVar(&suggestItems, "items", nil, "catalog item ids")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 6, "number of suggestions")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	itemIDs := make([]types.ID, 0, len(suggestItems))
	for _, raw := range suggestItems {
		id, err := types.ParseID(raw)
		if err != nil {
			return err
		}
		itemIDs = append(itemIDs, id)
	}

	suggestions, err := a.builder.GenerateSuggestions(cmd.Context(), uid, itemIDs, suggestLimit)
	if err != nil {
		return err
	}

	return printJSON(suggestions)
}
