//
// Copyright 2021 Johns Hopkins University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Traverses a directory tree and round-trips every accepted N3 document it finds.  Documents are processed in
// parallel.  Callers are expected to launch a ConcurrentVisitor in a background goroutine, and read processed documents
// and errors off of channels in separate goroutines, or use a Controller which does so on their behalf.
package visit

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"
	"strings"
	"sync"
)

type DocumentHandler func(Document)

type EventHandler func(Event)

type ErrorHandler func(error)

// A handler implementation which does nothing with its argument
var NoopEventHandler = func(e Event) {}

// A handler implementation which does nothing with its argument
var NoopErrorHandler = func(e error) {}

// A handler implementation which does nothing with its argument
var NoopDocumentHandler = func(d Document) {}

// A handler implementation which uses the log package to output a string representation of its argument
var LogEventHandler = func(e Event) { log.Printf("Target: %s Type: %d Message: %s", e.Target, e.EventType, e.Message) }

// A handler implementation which uses the log package to output a string representation of its argument
var LogErrorHandler = func(e error) { log.Printf("%s", e.Error()) }

// A handler implementation which uses the log package to output a string representation of its argument
var LogDocumentHandler = func(d Document) { log.Printf("Path: %s Bytes in: %d Bytes out: %d", d.Path, len(d.Input), len(d.Output)) }

// Accepts files carrying an N3 or Turtle extension
var AcceptN3Files = func(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".n3", ".ttl":
		return true
	}
	return false
}

// Descends into every directory except hidden ones
var SkipHiddenFilter = func(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}

type ConcurrentVisitor struct {
	formatter Formatter
	// gates the maximum number of documents which may be processed in parallel
	semaphore chan int
	// Documents which are accepted and processed are written to this channel
	Documents chan Document
	// Any errors encountered when traversing the tree are written to this channel
	Errors chan error
	// Events recording the start and end of traversing directories and documents are written to this channel
	Events chan Event
}

// Constructs a new ConcurrentVisitor instance using the supplied Formatter.  At most maxConcurrent documents are
// processed in parallel.
func New(formatter Formatter, maxConcurrent int) ConcurrentVisitor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return ConcurrentVisitor{
		formatter: formatter,
		semaphore: make(chan int, maxConcurrent),
		Documents: make(chan Document),
		Errors:    make(chan error),
		Events:    make(chan Event),
	}
}

// Given a root directory, test each contained directory for recursion using the supplied filter, and each contained
// file for acceptance.  Accepted files are read and round-tripped, and the result written to the Documents channel.
// The root itself is always descended into.
//
// This function blocks until all messages have been read off of the Documents, Errors and Events channels, and closes
// them before returning.
//
// Both filter and accept may be nil, in which case hidden directories are skipped, and files with N3 extensions are
// accepted.
func (v ConcurrentVisitor) Walk(ctx context.Context, root string, filter, accept func(path string) bool) {
	if filter == nil {
		filter = SkipHiddenFilter
	}

	if accept == nil {
		accept = AcceptN3Files
	}

	v.walkInternal(ctx, root, filter, accept)

	close(v.Documents)
	close(v.Errors)
	close(v.Events)
}

func (v ConcurrentVisitor) walkInternal(ctx context.Context, dir string, filter, accept func(path string) bool) {
	v.Events <- Event{dir, EventDescendStartDirectory, fmt.Sprintf("STARTDIRECTORY: %s", dir)}
	defer func() {
		v.Events <- Event{dir, EventDescendEndDirectory, fmt.Sprintf("ENDDIRECTORY: %s", dir)}
	}()

	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		v.Errors <- VisitErr{Path: dir, Message: err.Error(), Wrapped: err}
		return
	}

	// walkInternal blocks until every child has been visited, so an EventDescendEndDirectory is only observed after
	// the directory's children are done, and Walk may close the channels without risking a send on a closed channel.
	wg := sync.WaitGroup{}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if !filter(path) {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				v.walkInternal(ctx, path, filter, accept)
			}()
			continue
		}

		if !entry.Mode().IsRegular() || !accept(path) {
			continue
		}

		v.semaphore <- 1
		v.Events <- Event{path, EventDescendStart, fmt.Sprintf("START: %s", path)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := v.process(ctx, path)
			<-v.semaphore
			if err != nil {
				v.Errors <- VisitErr{Path: path, Message: err.Error(), Wrapped: err}
			} else {
				v.Documents <- doc
				v.Events <- Event{path, EventProcessed, fmt.Sprintf("PROCESSED: %s", path)}
			}
			v.Events <- Event{path, EventDescendEnd, fmt.Sprintf("END: %s", path)}
		}()
	}

	wg.Wait()
}

func (v ConcurrentVisitor) process(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return Document{}, err
	}

	out, err := v.formatter.Process(ctx, string(b))
	if err != nil {
		return Document{}, err
	}

	return Document{Path: path, Input: string(b), Output: out}, nil
}

// Presents a facade of ConcurrentVisitor, insuring that the necessary channels are drained by the configured
// handlers.  Handlers which are not set default to their Noop implementation.
//
// A Controller may be re-used; that is, Begin may be invoked multiple times.  The Controller is not safe for
// concurrent use; it may only be invoked by one goroutine at a time.
type Controller struct {
	wg             sync.WaitGroup
	errorReader    ErrorHandler
	eventReader    EventHandler
	documentReader DocumentHandler
	formatter      Formatter
	maxConcurrent  int
}

// Initializes a Controller with the supplied formatter, allowing at most maxConcurrent documents to be processed at any
// given time.
func NewController(f Formatter, maxConcurrent int) *Controller {
	return &Controller{
		errorReader:    NoopErrorHandler,
		eventReader:    NoopEventHandler,
		documentReader: NoopDocumentHandler,
		formatter:      f,
		maxConcurrent:  maxConcurrent,
	}
}

// Sets the ErrorHandler which is responsible for executing logic associated with errors emitted by the Visitor.
func (cr *Controller) ErrorHandler(handler ErrorHandler) {
	cr.errorReader = handler
}

// Sets the EventHandler which is responsible for executing logic associated with each event emitted by the Visitor.
func (cr *Controller) EventHandler(handler EventHandler) {
	cr.eventReader = handler
}

// Sets the DocumentHandler which is responsible for each Document processed by the Visitor.
func (cr *Controller) DocumentHandler(handler DocumentHandler) {
	cr.documentReader = handler
}

// Start walking the tree rooted at the supplied directory.  The acceptFn determines if a file is processed and sent
// to the DocumentHandler.  The filterFn determines if the visitor descends into a directory.
//
// This method blocks until all documents have been processed and all channels read.
func (cr *Controller) Begin(ctx context.Context, root string, acceptFn, filterFn func(path string) bool) {
	visitor := New(cr.formatter, cr.maxConcurrent)

	cr.wg.Add(4)

	go func() {
		defer cr.wg.Done()
		for err := range visitor.Errors {
			cr.errorReader(err)
		}
	}()

	go func() {
		defer cr.wg.Done()
		for event := range visitor.Events {
			cr.eventReader(event)
		}
	}()

	go func() {
		defer cr.wg.Done()
		for doc := range visitor.Documents {
			cr.documentReader(doc)
		}
	}()

	go func() {
		defer cr.wg.Done()
		visitor.Walk(ctx, root, filterFn, acceptFn)
	}()

	cr.wg.Wait()
}
