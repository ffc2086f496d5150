package domain

import (
	"errors"
	"fmt"
)

// DefaultResponseMapper is the default implementation of ResponseMapper.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// MapToToolResponse wraps text into a single text content block.
func (m *DefaultResponseMapper) MapToToolResponse(text string) *ToolResponse {
	return &ToolResponse{
		Content: []ContentBlock{
			{
				Type: "text",
				Text: text,
			},
		},
	}
}

// MapError converts a tool failure into a JSON-RPC error.
// Errors that are already protocol errors pass through untouched; anything
// else becomes an InternalError naming the tool and carrying the original
// message. The failure kind is reported in the data field.
func (m *DefaultResponseMapper) MapError(tool string, err error) *Error {
	if err == nil {
		return nil
	}

	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr
	}

	data := map[string]interface{}{
		"tool": tool,
		"kind": string(ClassifyError(err)),
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		data["statusCode"] = httpErr.StatusCode
	}

	var notFound *ListNotFoundError
	if errors.As(err, &notFound) {
		data["listName"] = notFound.Name
	}

	return &Error{
		Code:    InternalError,
		Message: fmt.Sprintf("error executing %s: %s", tool, err.Error()),
		Data:    data,
	}
}
