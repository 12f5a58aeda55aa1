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

// Parses N3 text into a Graph and serializes a Graph back into text.  All of the grammar work is delegated to
// github.com/knakk/rdf; this package only adapts it to the two operations callers need.
package engine

import (
	"bytes"
	"fmt"
	"github.com/knakk/rdf"
	"n3fmt/model"
	"regexp"
	"strings"
)

type Format int

const (
	// Notation3, restricted to the Turtle subset understood by the underlying library
	N3 Format = iota
	NTriples
)

// @prefix ex: <http://example.org/> .  or  PREFIX ex: <http://example.org/>
var prefixDecl = regexp.MustCompile(`(?mi)^[ \t]*@?prefix[ \t]+([A-Za-z][\w.-]*)?:[ \t]*<([^>\s]*)>`)

// local part of a prefixed name that the Turtle decoder reads back unchanged
var localName = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_-]*$`)

func (f Format) String() string {
	switch f {
	case N3:
		return "n3"
	case NTriples:
		return "nt"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func (f Format) rdfFormat() rdf.Format {
	if f == NTriples {
		return rdf.NTriples
	}
	return rdf.Turtle
}

type Parser interface {
	Parse(text string) (model.Graph, error)
}

type Serializer interface {
	Serialize(g model.Graph) (string, error)
}

// Parses and serializes a single text format
type Engine interface {
	Parser
	Serializer
}

type knakkEngine struct {
	format Format
}

// Answers an Engine which parses and serializes the supplied format
func New(format Format) Engine {
	return knakkEngine{format}
}

// Parses the text and serializes the resulting graph using the same engine.
func RoundTrip(e Engine, text string) (string, error) {
	g, err := e.Parse(text)
	if err != nil {
		return "", err
	}

	return e.Serialize(g)
}

func (e knakkEngine) Parse(text string) (model.Graph, error) {
	dec := rdf.NewTripleDecoder(strings.NewReader(text), e.format.rdfFormat())

	triples, err := dec.DecodeAll()
	if err != nil {
		return model.Graph{}, ParseErr{
			Message: fmt.Sprintf("engine: unable to parse %s input: %s", e.format, err.Error()),
			Wrapped: err,
		}
	}

	var prefixes map[string]string
	if e.format == N3 {
		prefixes = DeclaredPrefixes(text)
	}

	return model.NewGraph(triples, prefixes), nil
}

func (e knakkEngine) Serialize(g model.Graph) (string, error) {
	// the encoder abbreviates IRIs without escaping their local part, so a graph holding an IRI which cannot be
	// abbreviated is written with full IRIs; N-Triples is a subset of N3
	format := e.format
	if format == N3 && !abbreviable(g) {
		format = NTriples
	}

	buf := bytes.Buffer{}
	enc := rdf.NewTripleEncoder(&buf, format.rdfFormat())

	if format == N3 && len(g.Prefixes()) > 0 {
		enc.Namespaces = g.Namespaces()
	}

	for _, t := range g.Triples() {
		if err := enc.Encode(t); err != nil {
			return "", SerializeErr{
				Message: fmt.Sprintf("engine: unable to serialize triple %s as %s: %s", t.Serialize(rdf.NTriples), e.format, err.Error()),
				Wrapped: err,
			}
		}
	}

	if err := enc.Close(); err != nil {
		return "", SerializeErr{
			Message: fmt.Sprintf("engine: unable to flush %s output: %s", e.format, err.Error()),
			Wrapped: err,
		}
	}

	return buf.String(), nil
}

// Answers the prefixes declared in the text, keyed by prefix name.  Only absolute namespace IRIs are answered; a
// later declaration of the same prefix replaces an earlier one.
func DeclaredPrefixes(text string) map[string]string {
	prefixes := map[string]string{}
	for _, m := range prefixDecl.FindAllStringSubmatch(text, -1) {
		if !strings.Contains(m[2], ":") {
			continue
		}
		prefixes[m[1]] = m[2]
	}
	return prefixes
}

// Answers false when some IRI of the graph, or of a literal's datatype, would be abbreviated to a prefixed name whose
// local part the Turtle grammar rejects, e.g. http://example.org/x. or http://example.org/a#b(c)
func abbreviable(g model.Graph) bool {
	namespaces := g.Prefixes()
	for _, t := range g.Triples() {
		for _, term := range []rdf.Term{t.Subj, t.Pred, t.Obj} {
			var iri string
			switch v := term.(type) {
			case rdf.IRI:
				iri = v.String()
			case rdf.Literal:
				iri = v.DataType.String()
			default:
				continue
			}
			if !abbreviates(iri, namespaces) {
				return false
			}
		}
	}
	return true
}

// Every way the encoder may split the IRI, after its last '/' or '#' or after a declared namespace, must leave a
// legal local name.
func abbreviates(iri string, namespaces map[string]string) bool {
	locals := []string{}
	if i := strings.LastIndexAny(iri, "/#"); i >= 0 {
		locals = append(locals, iri[i+1:])
	}
	for _, ns := range namespaces {
		if ns != "" && strings.HasPrefix(iri, ns) {
			locals = append(locals, iri[len(ns):])
		}
	}

	for _, local := range locals {
		if !localName.MatchString(local) {
			return false
		}
	}
	return true
}
