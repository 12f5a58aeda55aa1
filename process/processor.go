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

// Carries N3 text through the round-trip: optional reasoning, parsing, serialization in the requested format, and
// optional verification and caching of the result.
package process

import (
	"context"
	"errors"
	"fmt"
	"log"
	"n3fmt/canon"
	"n3fmt/engine"
	"n3fmt/model"
	"n3fmt/persistence"
	"n3fmt/reason"
	"sort"
	"strings"
)

const (
	FormatN3        = "n3"
	FormatNTriples  = "nt"
	FormatJsonLd    = "jsonld"
	FormatCanonical = "canonical"
)

var ErrNotIsomorphic = errors.New("process: serialized output does not denote the parsed graph")

type StatsHandler func(model.Stats)

// A handler implementation which uses the log package to output a string representation of its argument
var LogStatsHandler = func(s model.Stats) {
	log.Printf("Triples: %d Subjects: %d Predicates: %d Literals: %d Blank nodes: %d Components: %d",
		s.Triples, s.Subjects, s.Predicates, s.Literals, s.BlankNodes, s.Components)
}

type Processor struct {
	Format     string
	Parser     engine.Parser
	Serializer engine.Serializer
	// when non-nil, input is reasoned over before it is parsed
	Reasoner reason.Runner
	// when non-nil, results are cached; cache failures are logged, never returned
	Store persistence.Store
	// when true, the output is re-parsed and compared with the parsed input
	Check bool
	// when non-nil, receives the statistics of every parsed input, including inputs answered from the cache
	StatsHandler StatsHandler
}

var serializers = map[string]func() engine.Serializer{
	FormatN3:        func() engine.Serializer { return engine.New(engine.N3) },
	FormatNTriples:  func() engine.Serializer { return engine.New(engine.NTriples) },
	FormatJsonLd:    func() engine.Serializer { return canon.JsonLdSerializer{Indent: "  "} },
	FormatCanonical: func() engine.Serializer { return canon.CanonicalSerializer{} },
}

// Answers the supported output format names, sorted
func Formats() []string {
	formats := []string{}
	for f := range serializers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Answers the Serializer for the named format
func SerializerFor(format string) (engine.Serializer, error) {
	if s, ok := serializers[strings.ToLower(strings.TrimSpace(format))]; ok {
		return s(), nil
	}
	return nil, fmt.Errorf("process: unsupported format '%s', must be one of %s", format, strings.Join(Formats(), ", "))
}

// Answers a Processor which parses N3 and serializes in the named format
func New(format string) (*Processor, error) {
	s, err := SerializerFor(format)
	if err != nil {
		return nil, err
	}

	return &Processor{
		Format:     strings.ToLower(strings.TrimSpace(format)),
		Parser:     engine.New(engine.N3),
		Serializer: s,
	}, nil
}

// Answers the serialization of the graph denoted by the input
func (p *Processor) Process(ctx context.Context, input string) (string, error) {
	var err error

	if p.Reasoner != nil {
		if input, err = p.Reasoner.Run(ctx, input); err != nil {
			return "", err
		}
	}

	key := persistence.Key(p.Format, input)
	if p.Store != nil {
		if r, err := p.Store.Retrieve(key); err == nil {
			if p.StatsHandler != nil {
				if g, err := p.Parser.Parse(input); err == nil {
					p.StatsHandler(g.Stats())
				}
			}
			return r.Output, nil
		} else if !errors.Is(err, persistence.ErrNoResults) {
			log.Printf("process: ignoring cache error: %v", err)
		}
	}

	var g model.Graph
	if g, err = p.Parser.Parse(input); err != nil {
		return "", err
	}

	if p.StatsHandler != nil {
		p.StatsHandler(g.Stats())
	}

	var out string
	if out, err = p.Serializer.Serialize(g); err != nil {
		return "", err
	}

	if p.Check {
		if err = p.check(g, out); err != nil {
			return "", err
		}
	}

	if p.Store != nil {
		if err := p.Store.StoreResult(key, persistence.Result{Format: p.Format, Output: out, Triples: g.Len()}); err != nil {
			log.Printf("process: unable to cache result: %v", err)
		}
	}

	return out, nil
}

// Re-parses the output and verifies it denotes the same graph as g.  JSON-LD output is not re-parsed.
func (p *Processor) check(g model.Graph, out string) error {
	var reparser engine.Parser

	switch p.Format {
	case FormatN3:
		reparser = engine.New(engine.N3)
	case FormatNTriples, FormatCanonical:
		reparser = engine.New(engine.NTriples)
	default:
		log.Printf("process: output format %s cannot be checked, skipping", p.Format)
		return nil
	}

	reparsed, err := reparser.Parse(out)
	if err != nil {
		return fmt.Errorf("process: serialized output does not parse: %w", err)
	}

	iso, err := canon.Isomorphic(g, reparsed)
	if err != nil {
		return err
	}

	if !iso {
		return ErrNotIsomorphic
	}

	return nil
}
