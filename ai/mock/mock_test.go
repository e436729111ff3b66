package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)
	c, err := m.EmbedText(ctx, "world")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DefaultDimension)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	assert.Equal(t, 3, m.CallCount())
}

func TestMockEmbedder_Batch(t *testing.T) {
	m := &MockEmbedder{Dimension: 4}
	vecs, err := m.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Len(t, vecs[0], 4)
	assert.Equal(t, DeterministicVector("b", 4), vecs[1])
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, 3, m.TextCount())
}

func TestMockEmbedder_CustomFunc(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}

	_, err := m.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedTexts(context.Background(), []string{"x"})
	assert.NoError(t, err)
}

func TestMockEmbedder_Concurrent(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedTexts(context.Background(), []string{"a", "b"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())
	assert.Equal(t, 40, m.TextCount())
}

func TestMockGenerator(t *testing.T) {
	g := NewMockGenerator("42")

	_, ok := g.LastCall()
	assert.False(t, ok)

	answer, err := g.Generate(context.Background(), "inst", "ctx", "q?")
	require.NoError(t, err)
	assert.Equal(t, "42", answer)
	assert.Equal(t, 1, g.CallCount())

	call, ok := g.LastCall()
	require.True(t, ok)
	assert.Equal(t, GenerateCall{Instruction: "inst", Context: "ctx", Question: "q?"}, call)

	g.GenerateFunc = func(ctx context.Context, instruction, contextText, question string) (string, error) {
		return "", errors.New("down")
	}
	_, err = g.Generate(context.Background(), "", "", "")
	assert.Error(t, err)

	g.Reset()
	assert.Equal(t, 0, g.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	mp := p.(*MockProvider)

	assert.Same(t, mp.GetMockEmbedder(), p.Embedder())
	assert.Same(t, mp.GetMockGenerator(), p.Generator())
	assert.False(t, mp.Closed())
	require.NoError(t, p.Close())
	assert.True(t, mp.Closed())
}
