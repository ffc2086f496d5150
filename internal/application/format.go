package application

import (
	"fmt"
	"strings"

	"trello-mcp-server/internal/domain"
)

func formatCardCreated(card *domain.Card, args *domain.CreateCardArgs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Card created: %s\n", card.Name)
	fmt.Fprintf(&b, "URL: %s\n", card.URL)
	fmt.Fprintf(&b, "List: %s", args.ListName)
	if len(args.Labels) > 0 {
		fmt.Fprintf(&b, "\nLabels: %s", strings.Join(args.Labels, ", "))
	}
	return b.String()
}

// formatBoardView renders lists and cards in the order Trello returned them.
func formatBoardView(view *domain.BoardView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board: %s\n", view.Board.Name)
	fmt.Fprintf(&b, "URL: %s\n", view.Board.URL)

	for _, list := range view.Lists {
		fmt.Fprintf(&b, "\n%s (%d %s)\n", list.Name, len(list.Cards), plural(len(list.Cards), "card", "cards"))
		for _, card := range list.Cards {
			fmt.Fprintf(&b, "  - %s\n", card.Name)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatEpicCreated(epic *domain.Card, args *domain.CreateEpicArgs, subCards int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Epic created: %s\n", args.EpicName)
	fmt.Fprintf(&b, "URL: %s\n", epic.URL)
	fmt.Fprintf(&b, "Sub-cards created: %d\n", subCards)
	fmt.Fprintf(&b, "Label color: %s", args.EpicColor)
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
