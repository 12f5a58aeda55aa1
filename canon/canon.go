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

// Canonical and JSON-LD renderings of a Graph, computed by github.com/piprate/json-gold.  The canonical form is
// URDNA2015 N-Quads: identical for any two graphs that differ only in statement order or blank node labels.
package canon

import (
	"encoding/json"
	"fmt"
	"github.com/piprate/json-gold/ld"
	"n3fmt/engine"
	"n3fmt/model"
)

const (
	// media type json-gold uses to select its N-Quads reader and writer
	NQuadsMediaType = "application/n-quads"
	algorithm       = "URDNA2015"
)

type CanonErr struct {
	Message string
	Wrapped error
}

func (ce CanonErr) Error() string {
	return ce.Message
}

func (ce CanonErr) Unwrap() error {
	return ce.Wrapped
}

// Serializes a Graph as URDNA2015 canonical N-Quads
type CanonicalSerializer struct{}

// Serializes a Graph as JSON-LD.  Prefixes declared by the source document become the JSON-LD context.
type JsonLdSerializer struct {
	Indent string
}

func (CanonicalSerializer) Serialize(g model.Graph) (string, error) {
	return Canonicalize(g)
}

func (s JsonLdSerializer) Serialize(g model.Graph) (string, error) {
	var doc interface{}
	var err error

	if doc, err = JsonLd(g); err != nil {
		return "", err
	}

	var out []byte
	if s.Indent == "" {
		out, err = json.Marshal(doc)
	} else {
		out, err = json.MarshalIndent(doc, "", s.Indent)
	}

	if err != nil {
		return "", CanonErr{fmt.Sprintf("canon: error marshaling JSON-LD document: %s", err), err}
	}

	return string(out), nil
}

// Answers the URDNA2015 canonical N-Quads of the graph.  An empty graph canonicalizes to the empty string.
func Canonicalize(g model.Graph) (string, error) {
	var nt string
	var err error

	if nt, err = nquads(g); err != nil {
		return "", err
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.InputFormat = NQuadsMediaType
	opts.Format = NQuadsMediaType
	opts.Algorithm = algorithm

	normalized, err := proc.Normalize(nt, opts)
	if err != nil {
		return "", CanonErr{fmt.Sprintf("canon: error normalizing graph of %d triples: %s", g.Len(), err), err}
	}

	if s, ok := normalized.(string); ok {
		return s, nil
	}

	return "", CanonErr{Message: fmt.Sprintf("canon: unexpected normalization result %T", normalized)}
}

// Answers true when a and b denote the same set of triples, disregarding blank node labels
func Isomorphic(a, b model.Graph) (bool, error) {
	var ca, cb string
	var err error

	if ca, err = Canonicalize(a); err != nil {
		return false, err
	}

	if cb, err = Canonicalize(b); err != nil {
		return false, err
	}

	return ca == cb, nil
}

// Answers the expanded JSON-LD document of the graph, compacted against the graph's declared prefixes when it has
// any.
func JsonLd(g model.Graph) (interface{}, error) {
	var nt string
	var err error

	if nt, err = nquads(g); err != nil {
		return nil, err
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = NQuadsMediaType

	doc, err := proc.FromRDF(nt, opts)
	if err != nil {
		return nil, CanonErr{fmt.Sprintf("canon: error converting graph to JSON-LD: %s", err), err}
	}

	context := map[string]interface{}{}
	for prefix, ns := range g.Prefixes() {
		// JSON-LD has no notion of a default prefix
		if prefix == "" {
			continue
		}
		context[prefix] = ns
	}

	if len(context) == 0 {
		return doc, nil
	}

	compacted, err := proc.Compact(doc, map[string]interface{}{"@context": context}, ld.NewJsonLdOptions(""))
	if err != nil {
		return nil, CanonErr{fmt.Sprintf("canon: error compacting JSON-LD document: %s", err), err}
	}

	return compacted, nil
}

// N-Triples is the N-Quads default graph, so the N-Triples engine output feeds json-gold directly
func nquads(g model.Graph) (string, error) {
	nt, err := engine.New(engine.NTriples).Serialize(g)
	if err != nil {
		return "", CanonErr{fmt.Sprintf("canon: error writing graph as N-Triples: %s", err), err}
	}
	return nt, nil
}
