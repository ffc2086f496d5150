package application

import (
	"encoding/json"
	"fmt"

	"trello-mcp-server/internal/domain"
)

// newArguments returns an empty typed argument value for each known tool.
var newArguments = map[string]func() domain.ToolArguments{
	domain.ToolCreateCard:   func() domain.ToolArguments { return &domain.CreateCardArgs{} },
	domain.ToolGetBoardInfo: func() domain.ToolArguments { return &domain.GetBoardInfoArgs{} },
	domain.ToolCreateEpic:   func() domain.ToolArguments { return &domain.CreateEpicArgs{} },
}

// decodeArguments converts the loose argument map of a tools/call request
// into the typed variant for tool and validates it.
func decodeArguments(tool string, args map[string]interface{}) (domain.ToolArguments, error) {
	factory, ok := newArguments[tool]
	if !ok {
		return nil, unknownToolError(tool)
	}

	typed := factory()
	if len(args) > 0 {
		// Round-trip through JSON so type mismatches surface as decode errors.
		data, err := json.Marshal(args)
		if err != nil {
			return nil, &domain.Error{
				Code:    domain.InvalidParams,
				Message: fmt.Sprintf("invalid arguments for %s: %v", tool, err),
			}
		}
		if err := json.Unmarshal(data, typed); err != nil {
			return nil, &domain.Error{
				Code:    domain.InvalidParams,
				Message: fmt.Sprintf("invalid arguments for %s: %s", tool, describeDecodeError(err)),
			}
		}
	}

	if err := typed.Validate(); err != nil {
		return nil, err
	}

	return typed, nil
}

// describeDecodeError names the offending field when the JSON decoder can.
func describeDecodeError(err error) string {
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
		return fmt.Sprintf("parameter %s must be of type %s", typeErr.Field, typeErr.Type.String())
	}
	return err.Error()
}

func unknownToolError(tool string) *domain.Error {
	return &domain.Error{
		Code:    domain.MethodNotFound,
		Message: fmt.Sprintf("unknown tool: %s", tool),
	}
}
