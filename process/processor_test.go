package process

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"n3fmt/engine"
	"n3fmt/model"
	"n3fmt/persistence"
	"strings"
	"testing"
)

const simple = `<urn:a> <urn:p> <urn:b> .`

// Substitutes for the RDF engine, recording what it was asked to do
type probeEngine struct {
	parsed     []string
	serialized int
	out        string
}

func (p *probeEngine) Parse(text string) (model.Graph, error) {
	p.parsed = append(p.parsed, text)
	return model.NewGraph(nil, nil), nil
}

func (p *probeEngine) Serialize(g model.Graph) (string, error) {
	p.serialized++
	return p.out, nil
}

type probeReasoner struct {
	in  string
	out string
	err error
}

func (p *probeReasoner) Run(ctx context.Context, n3 string) (string, error) {
	p.in = n3
	return p.out, p.err
}

// A Serializer which drops the last triple
type lossySerializer struct{}

func (lossySerializer) Serialize(g model.Graph) (string, error) {
	triples := g.Triples()
	return engine.New(engine.N3).Serialize(model.NewGraph(triples[:len(triples)-1], nil))
}

func memoryStore(t *testing.T) persistence.Store {
	store, err := persistence.NewSqliteStore(":memory:", persistence.SqliteParams{MaxIdleConn: 1, MaxOpenConn: 1}, nil)
	require.Nil(t, err)
	return store
}

func Test_SerializerFor(t *testing.T) {
	for _, f := range Formats() {
		s, err := SerializerFor(f)
		assert.Nil(t, err)
		assert.NotNil(t, s)
	}

	_, err := SerializerFor(" N3 ")
	assert.Nil(t, err)

	_, err = SerializerFor("rdfxml")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "canonical, jsonld, n3, nt")
}

func Test_Process_DelegatesToEngine(t *testing.T) {
	probe := &probeEngine{out: "serialized"}
	p := &Processor{Format: FormatN3, Parser: probe, Serializer: probe}

	out, err := p.Process(context.Background(), simple)

	assert.Nil(t, err)
	assert.Equal(t, "serialized", out)
	assert.Equal(t, []string{simple}, probe.parsed)
	assert.Equal(t, 1, probe.serialized)
}

func Test_Process_N3(t *testing.T) {
	p, err := New(FormatN3)
	require.Nil(t, err)

	out, err := p.Process(context.Background(), `<urn:a> <urn:p> "hello" .`)

	assert.Nil(t, err)
	assert.Contains(t, out, "<urn:a>")
	assert.Contains(t, out, `"hello"`)
}

func Test_Process_ParseError(t *testing.T) {
	p, err := New(FormatN3)
	require.Nil(t, err)

	out, err := p.Process(context.Background(), `<urn:a> <urn:p> "abc`)

	assert.Equal(t, "", out)
	var parseErr engine.ParseErr
	assert.True(t, errors.As(err, &parseErr))
}

func Test_Process_Canonical(t *testing.T) {
	p, err := New(FormatCanonical)
	require.Nil(t, err)
	p.Check = true

	a, err := p.Process(context.Background(), `_:x <urn:p> "one" . _:y <urn:p> "two" .`)
	assert.Nil(t, err)
	b, err := p.Process(context.Background(), `_:second <urn:p> "two" . _:first <urn:p> "one" .`)
	assert.Nil(t, err)

	assert.Equal(t, a, b)
}

func Test_Process_Stats(t *testing.T) {
	p, err := New(FormatNTriples)
	require.Nil(t, err)

	var stats model.Stats
	p.StatsHandler = func(s model.Stats) { stats = s }

	_, err = p.Process(context.Background(), `<urn:a> <urn:p> <urn:b> . <urn:a> <urn:q> "lit" .`)
	assert.Nil(t, err)
	assert.Equal(t, 2, stats.Triples)
	assert.Equal(t, 1, stats.Subjects)
	assert.Equal(t, 1, stats.Literals)
}

func Test_Process_CheckRepeatedTriples(t *testing.T) {
	repeated := `<urn:a> <urn:p> <urn:b> .
<urn:a> <urn:p> <urn:b> .`

	for _, format := range []string{FormatN3, FormatNTriples, FormatCanonical} {
		p, err := New(format)
		require.Nil(t, err)
		p.Check = true

		var stats model.Stats
		p.StatsHandler = func(s model.Stats) { stats = s }

		out, err := p.Process(context.Background(), repeated)
		assert.Nil(t, err, "format %s", format)
		assert.NotEmpty(t, out)
		assert.Equal(t, 1, stats.Triples)
	}
}

func Test_Process_CheckDetectsLoss(t *testing.T) {
	p := &Processor{Format: FormatN3, Parser: engine.New(engine.N3), Serializer: lossySerializer{}, Check: true}

	_, err := p.Process(context.Background(), `<urn:a> <urn:p> <urn:b> . <urn:a> <urn:p> <urn:c> .`)

	assert.True(t, errors.Is(err, ErrNotIsomorphic))
}

func Test_Process_CheckSkipsJsonLd(t *testing.T) {
	p, err := New(FormatJsonLd)
	require.Nil(t, err)
	p.Check = true

	out, err := p.Process(context.Background(), simple)
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(out, "["))
}

func Test_Process_Reasoner(t *testing.T) {
	probe := &probeEngine{out: "serialized"}
	reasoner := &probeReasoner{out: "<urn:a> <urn:p> <urn:derived> ."}
	p := &Processor{Format: FormatN3, Parser: probe, Serializer: probe, Reasoner: reasoner}

	_, err := p.Process(context.Background(), simple)

	assert.Nil(t, err)
	assert.Equal(t, simple, reasoner.in)
	assert.Equal(t, []string{"<urn:a> <urn:p> <urn:derived> ."}, probe.parsed)
}

func Test_Process_ReasonerFailure(t *testing.T) {
	probe := &probeEngine{}
	failure := errors.New("reasoner exploded")
	p := &Processor{Format: FormatN3, Parser: probe, Serializer: probe, Reasoner: &probeReasoner{err: failure}}

	_, err := p.Process(context.Background(), simple)

	assert.Equal(t, failure, err)
	assert.Equal(t, 0, len(probe.parsed))
}

func Test_Process_Cache(t *testing.T) {
	store := memoryStore(t)
	defer store.Close()

	probe := &probeEngine{out: "serialized"}
	p := &Processor{Format: FormatN3, Parser: probe, Serializer: probe, Store: store}

	first, err := p.Process(context.Background(), simple)
	assert.Nil(t, err)
	second, err := p.Process(context.Background(), simple)
	assert.Nil(t, err)

	assert.Equal(t, "serialized", first)
	assert.Equal(t, first, second)
	// the second invocation is answered from the cache
	assert.Equal(t, 1, len(probe.parsed))

	r, err := store.Retrieve(persistence.Key(FormatN3, simple))
	assert.Nil(t, err)
	assert.Equal(t, "serialized", r.Output)

	// a different format is cached separately
	p.Format = FormatNTriples
	_, err = p.Process(context.Background(), simple)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(probe.parsed))
}

func Test_Process_StatsOnCacheHit(t *testing.T) {
	store := memoryStore(t)
	defer store.Close()

	p, err := New(FormatN3)
	require.Nil(t, err)
	p.Store = store

	reported := []model.Stats{}
	p.StatsHandler = func(s model.Stats) { reported = append(reported, s) }

	input := `<urn:a> <urn:p> <urn:b> . <urn:a> <urn:q> "lit" .`
	first, err := p.Process(context.Background(), input)
	assert.Nil(t, err)
	second, err := p.Process(context.Background(), input)
	assert.Nil(t, err)

	assert.Equal(t, first, second)
	require.Equal(t, 2, len(reported))
	assert.Equal(t, reported[0], reported[1])
	assert.Equal(t, 2, reported[1].Triples)
}

func Test_Process_ParseErrorsAreNotCached(t *testing.T) {
	store := memoryStore(t)
	defer store.Close()

	p, err := New(FormatN3)
	require.Nil(t, err)
	p.Store = store

	_, err = p.Process(context.Background(), `"abc`)
	assert.NotNil(t, err)

	_, err = store.Retrieve(persistence.Key(FormatN3, `"abc`))
	assert.True(t, errors.Is(err, persistence.ErrNoResults))
}
