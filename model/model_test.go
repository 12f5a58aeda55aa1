package model

import (
	_ "embed"
	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"strings"
	"testing"
)

//go:embed testdata/people.ttl
var people string

func readGraph(t *testing.T, ttl string) Graph {
	dec := rdf.NewTripleDecoder(strings.NewReader(ttl), rdf.Turtle)
	triples, err := dec.DecodeAll()
	assert.Nil(t, err)
	return NewGraph(triples, nil)
}

func Test_Graph_Accessors(t *testing.T) {
	g := readGraph(t, people)

	assert.Equal(t, 7, g.Len())
	assert.False(t, g.IsEmpty())
	assert.Equal(t, []string{"<http://example.org/alice>", "<http://example.org/bob>"}, g.Subjects())
	assert.Equal(t, []string{
		RdfTypeUri,
		"http://xmlns.com/foaf/0.1/name",
		"http://xmlns.com/foaf/0.1/knows",
	}, g.Predicates())
	assert.ElementsMatch(t, []string{"http://xmlns.com/foaf/0.1/Person", "http://xmlns.com/foaf/0.1/Person"}, g.Types())
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, g.Objects("http://xmlns.com/foaf/0.1/name"))
	assert.Equal(t, 4, len(g.About("<http://example.org/alice>")))
	assert.Equal(t, 0, len(g.About("<http://example.org/carol>")))
}

func Test_Graph_Stats(t *testing.T) {
	g := readGraph(t, people)
	s := g.Stats()

	assert.Equal(t, 7, s.Triples)
	assert.Equal(t, 2, s.Subjects)
	assert.Equal(t, 3, s.Predicates)
	assert.Equal(t, 2, s.Literals)
	assert.Equal(t, 1, s.BlankNodes)
	// alice, bob, foaf:Person and the blank node are all reachable from one another
	assert.Equal(t, 1, s.Components)
}

func Test_Graph_StatsDisconnected(t *testing.T) {
	g := readGraph(t, `
<urn:a> <urn:p> <urn:b> .
<urn:c> <urn:p> "lonely" .
<urn:d> <urn:p> <urn:e> .
`)
	s := g.Stats()

	assert.Equal(t, 3, s.Triples)
	assert.Equal(t, 1, s.Literals)
	assert.Equal(t, 0, s.BlankNodes)
	assert.Equal(t, 3, s.Components)
}

func Test_Graph_RepeatedTriples(t *testing.T) {
	g := readGraph(t, `
<urn:a> <urn:p> <urn:b> .
<urn:a> <urn:p> "lit" .
<urn:a> <urn:p> <urn:b> .
<urn:a> <urn:p> "lit" .
`)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 2, g.Stats().Triples)
	assert.Equal(t, 1, g.Stats().Literals)
	assert.Equal(t, "<urn:b>", g.Triples()[0].Obj.Serialize(rdf.NTriples))
}

func Test_Graph_Empty(t *testing.T) {
	g := NewGraph(nil, nil)

	assert.True(t, g.IsEmpty())
	assert.Equal(t, 0, len(g.Subjects()))
	assert.NotNil(t, g.Prefixes())
	assert.Equal(t, Stats{}, g.Stats())
}

func Test_Graph_Namespaces(t *testing.T) {
	g := NewGraph(nil, map[string]string{
		"foaf":  "http://xmlns.com/foaf/0.1/",
		"ex":    "http://example.org/",
		"other": "http://example.org/",
	})

	ns := g.Namespaces()
	assert.Equal(t, 2, len(ns))
	assert.Equal(t, "foaf", ns["http://xmlns.com/foaf/0.1/"])
	assert.Equal(t, "ex", ns["http://example.org/"])
}
