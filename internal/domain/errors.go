package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ListNotFoundError is returned when no list on the board matches a
// requested list name.
type ListNotFoundError struct {
	Name string
}

// Error implements the error interface for ListNotFoundError.
func (e *ListNotFoundError) Error() string {
	return fmt.Sprintf("list not found: %q", e.Name)
}

// HTTPError is a non-success response from the Trello API.
type HTTPError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Body       string
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("trello API %s %s returned HTTP %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("trello API %s %s returned HTTP %d", e.Method, e.Endpoint, e.StatusCode)
}

// ErrorKind classifies a failure for the error envelope sent to clients.
type ErrorKind string

const (
	KindLookup   ErrorKind = "lookup"
	KindRemote   ErrorKind = "remote"
	KindNetwork  ErrorKind = "network"
	KindInternal ErrorKind = "internal"
)

// ClassifyError reports which kind of failure err is.
func ClassifyError(err error) ErrorKind {
	var notFound *ListNotFoundError
	if errors.As(err, &notFound) {
		return KindLookup
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return KindRemote
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	return KindInternal
}
