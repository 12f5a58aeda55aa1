package visit

import (
	"context"
	"fmt"
)

const (
	EventDescendStart = iota
	EventDescendEnd
	EventDescendStartDirectory
	EventDescendEndDirectory
	EventProcessed
)

type Event struct {
	Target    string
	EventType int
	Message   string
}

// A document that was read from disk and round-tripped
type Document struct {
	Path   string
	Input  string
	Output string
}

// Round-trips N3 text; satisfied by *process.Processor
type Formatter interface {
	Process(ctx context.Context, input string) (string, error)
}

type Visitor interface {
	Walk(ctx context.Context, root string, filter, accept func(path string) bool)
}

type VisitErr struct {
	Path    string
	Message string
	Wrapped error
}

func (ve VisitErr) Error() string {
	return fmt.Sprintf("visit: error visiting %s, %s", ve.Path, ve.Message)
}

func (ve VisitErr) Unwrap() error {
	return ve.Wrapped
}
