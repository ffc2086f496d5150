package domain

import (
	"fmt"
	"strings"
)

// Tool names published in the catalogue.
const (
	ToolCreateCard   = "create_card"
	ToolGetBoardInfo = "get_board_info"
	ToolCreateEpic   = "create_epic"
)

// EpicColors enumerates the accepted epicColor values.
var EpicColors = []string{"red", "orange", "yellow", "green", "blue", "purple", "pink", "sky", "lime", "black"}

// DefaultEpicColor is used when create_epic is called without epicColor.
const DefaultEpicColor = "purple"

// ToolArguments is the typed argument set of exactly one tool.
type ToolArguments interface {
	// ToolName returns the tool these arguments belong to.
	ToolName() string

	// Validate checks required fields and enumerations.
	Validate() error
}

// CreateCardArgs are the arguments of create_card.
// Labels are accepted and echoed back but never sent to Trello.
type CreateCardArgs struct {
	Name        string   `json:"name"`
	ListName    string   `json:"listName"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// ToolName returns create_card.
func (a *CreateCardArgs) ToolName() string { return ToolCreateCard }

// Validate requires a non-blank card name and list name.
func (a *CreateCardArgs) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return missingParam("name")
	}
	if strings.TrimSpace(a.ListName) == "" {
		return missingParam("listName")
	}
	return nil
}

// GetBoardInfoArgs are the (empty) arguments of get_board_info.
type GetBoardInfoArgs struct{}

// ToolName returns get_board_info.
func (a *GetBoardInfoArgs) ToolName() string { return ToolGetBoardInfo }

// Validate always succeeds; the tool takes no arguments.
func (a *GetBoardInfoArgs) Validate() error { return nil }

// SubTask is one planned child card of an epic.
type SubTask struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ListName    string `json:"listName,omitempty"`
}

// CreateEpicArgs are the arguments of create_epic.
type CreateEpicArgs struct {
	EpicName        string    `json:"epicName"`
	ListName        string    `json:"listName"`
	EpicDescription string    `json:"epicDescription,omitempty"`
	SubTasks        []SubTask `json:"subTasks,omitempty"`
	EpicColor       string    `json:"epicColor,omitempty"`
}

// ToolName returns create_epic.
func (a *CreateEpicArgs) ToolName() string { return ToolCreateEpic }

// Validate checks the arguments and fills in the default color.
func (a *CreateEpicArgs) Validate() error {
	if strings.TrimSpace(a.EpicName) == "" {
		return missingParam("epicName")
	}
	if strings.TrimSpace(a.ListName) == "" {
		return missingParam("listName")
	}

	for i, task := range a.SubTasks {
		if strings.TrimSpace(task.Name) == "" {
			return missingParam(fmt.Sprintf("subTasks[%d].name", i))
		}
	}

	if a.EpicColor == "" {
		a.EpicColor = DefaultEpicColor
		return nil
	}
	for _, c := range EpicColors {
		if a.EpicColor == c {
			return nil
		}
	}
	return &Error{
		Code:    InvalidParams,
		Message: fmt.Sprintf("parameter epicColor must be one of %s", strings.Join(EpicColors, ", ")),
	}
}

func missingParam(name string) *Error {
	return &Error{
		Code:    InvalidParams,
		Message: fmt.Sprintf("missing required parameter: %s", name),
	}
}
