package model

import (
	"github.com/knakk/rdf"
	"github.com/yourbasic/graph"
	"sort"
)

const (
	RdfTypeUri   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	XsdStringUri = "http://www.w3.org/2001/XMLSchema#string"
)

// An RDF graph as produced by a parser.  The round-trip never looks inside a Graph; the accessors exist for reporting
// and for tests.
type Graph struct {
	triples []rdf.Triple
	// prefix -> namespace IRI, as declared by the parsed document
	prefixes map[string]string
}

// Summary counts of a Graph
type Stats struct {
	Triples    int
	Subjects   int
	Predicates int
	Literals   int
	BlankNodes int
	// weakly connected components of the graph formed by subjects and their non-literal objects
	Components int
}

// Answers a Graph of the distinct triples, in order of first appearance
func NewGraph(triples []rdf.Triple, prefixes map[string]string) Graph {
	if prefixes == nil {
		prefixes = map[string]string{}
	}

	seen := map[string]struct{}{}
	set := make([]rdf.Triple, 0, len(triples))
	for _, t := range triples {
		k := t.Serialize(rdf.NTriples)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		set = append(set, t)
	}

	return Graph{set, prefixes}
}

func (g Graph) Triples() []rdf.Triple {
	return g.triples
}

func (g Graph) Len() int {
	return len(g.triples)
}

func (g Graph) IsEmpty() bool {
	return len(g.triples) == 0
}

// Answers the prefix bindings declared by the source document, keyed by prefix.  The empty string is the default
// prefix.
func (g Graph) Prefixes() map[string]string {
	return g.prefixes
}

// Distinct subjects, in N-Triples form, in order of first appearance
func (g Graph) Subjects() []string {
	return distinct(g.triples, func(t rdf.Triple) rdf.Term { return t.Subj })
}

// Distinct predicate IRIs in order of first appearance
func (g Graph) Predicates() []string {
	seen := map[string]struct{}{}
	preds := []string{}
	for _, t := range g.triples {
		if _, ok := seen[t.Pred.String()]; !ok {
			seen[t.Pred.String()] = struct{}{}
			preds = append(preds, t.Pred.String())
		}
	}
	return preds
}

// Answers the string value of every object asserted with the predicate
func (g Graph) Objects(pred string) []string {
	return g.filterPred(func(p string) bool {
		return p == pred
	})
}

func (g Graph) Types() []string {
	return g.Objects(RdfTypeUri)
}

// Answers the triples whose subject serializes to subj, e.g. "<urn:a>" or "_:b0"
func (g Graph) About(subj string) []rdf.Triple {
	return g.filterTriple(func(triple rdf.Triple) bool {
		return key(triple.Subj) == subj
	})
}

func (g Graph) Stats() Stats {
	nodes := map[string]int{}
	blanks := map[string]struct{}{}
	literals := 0

	index := func(t rdf.Term) int {
		k := key(t)
		if i, ok := nodes[k]; ok {
			return i
		}
		nodes[k] = len(nodes)
		if t.Type() == rdf.TermBlank {
			blanks[k] = struct{}{}
		}
		return nodes[k]
	}

	type edge struct{ v, w int }
	edges := []edge{}
	for _, t := range g.triples {
		s := index(t.Subj)
		if t.Obj.Type() == rdf.TermLiteral {
			literals++
			continue
		}
		edges = append(edges, edge{s, index(t.Obj)})
	}

	gr := graph.New(len(nodes))
	for _, e := range edges {
		gr.AddBoth(e.v, e.w)
	}

	return Stats{
		Triples:    len(g.triples),
		Subjects:   len(g.Subjects()),
		Predicates: len(g.Predicates()),
		Literals:   literals,
		BlankNodes: len(blanks),
		Components: len(graph.Components(gr)),
	}
}

// Answers the namespace IRI -> prefix mapping, the inverse of Prefixes().  When two prefixes are bound to the same
// namespace the lexically smallest prefix wins.
func (g Graph) Namespaces() map[string]string {
	prefixes := make([]string, 0, len(g.prefixes))
	for p := range g.prefixes {
		prefixes = append(prefixes, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(prefixes)))

	ns := map[string]string{}
	for _, p := range prefixes {
		ns[g.prefixes[p]] = p
	}
	return ns
}

func (g Graph) filterTriple(tripleFilter func(triple rdf.Triple) bool) []rdf.Triple {
	triples := []rdf.Triple{}
	for _, triple := range g.triples {
		if tripleFilter(triple) {
			triples = append(triples, triple)
		}
	}
	return triples
}

func (g Graph) filterPred(predFilter func(string) bool) []string {
	objects := []string{}
	for _, triple := range g.triples {

		if predFilter(triple.Pred.String()) {
			objects = append(objects, triple.Obj.String())
		}
	}

	return objects
}

func distinct(triples []rdf.Triple, term func(rdf.Triple) rdf.Term) []string {
	seen := map[string]struct{}{}
	result := []string{}
	for _, t := range triples {
		k := key(term(t))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, k)
	}
	return result
}

// N-Triples form of a term, which keeps IRIs, blank nodes and literals from colliding
func key(t rdf.Term) string {
	return t.Serialize(rdf.NTriples)
}
