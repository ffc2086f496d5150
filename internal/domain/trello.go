package domain

// Board represents the metadata of a Trello board.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// List represents a column on a Trello board.
type List struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IDBoard string `json:"idBoard,omitempty"`
}

// Card represents a Trello card as returned by the API.
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	URL      string `json:"url"`
	ShortURL string `json:"shortUrl,omitempty"`
	IDList   string `json:"idList"`
}

// CardCreate is the body of a card creation request.
type CardCreate struct {
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	IDList string `json:"idList"`
}

// Params converts the creation request into the parameter bag sent to the API.
func (c *CardCreate) Params() map[string]interface{} {
	return map[string]interface{}{
		"name":   c.Name,
		"desc":   c.Desc,
		"idList": c.IDList,
	}
}

// CardSummary is the view of a card nested under its list in a BoardView.
type CardSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ListView is a list together with the cards that belong to it.
type ListView struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Cards []CardSummary `json:"cards"`
}

// BoardView is the nested lists-and-cards view of a board.
// Lists and cards keep the order the API returned them in.
type BoardView struct {
	Board Board      `json:"board"`
	Lists []ListView `json:"lists"`
}

// NewBoardView nests cards under their lists by matching Card.IDList.
// Cards whose list is not among lists are dropped.
func NewBoardView(board Board, lists []List, cards []Card) *BoardView {
	view := &BoardView{
		Board: board,
		Lists: make([]ListView, 0, len(lists)),
	}

	for _, list := range lists {
		lv := ListView{
			ID:    list.ID,
			Name:  list.Name,
			Cards: []CardSummary{},
		}
		for _, card := range cards {
			if card.IDList != list.ID {
				continue
			}
			lv.Cards = append(lv.Cards, CardSummary{
				ID:          card.ID,
				Name:        card.Name,
				Description: card.Desc,
				URL:         card.URL,
			})
		}
		view.Lists = append(view.Lists, lv)
	}

	return view
}
