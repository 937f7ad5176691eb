package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/types"
)

func TestMatchCaseInsensitiveSubstring(t *testing.T) {
	assert.Equal(t, []string{"python"}, Match("Python Developer", Normalize("python")))
	assert.Equal(t, []string{"python"}, Match("PYTHON", Normalize("PyThOn")))
	assert.Empty(t, Match("Golang only", Normalize("rust")))
}

func TestMatchNoSpaceVariant(t *testing.T) {
	terms := Normalize("machine learning")

	assert.Equal(t, []string{"machine learning"}, Match("Experiência em MachineLearning e dados", terms))
	assert.Equal(t, []string{"machine learning"}, Match("machine learning aplicado", terms))
}

func TestMatchCountsTermOnce(t *testing.T) {
	terms := Normalize("machine learning, go")
	matched := Match("machine learning, machinelearning, go, go, go", terms)

	assert.Equal(t, []string{"machine learning", "go"}, matched, "两种写法同时出现也只计一次")
	assert.LessOrEqual(t, len(matched), terms.Len())
}

func TestMatchSubstringOverlapIsKept(t *testing.T) {
	// java 出现在 javascript 中同样算命中
	assert.Equal(t, []string{"java"}, Match("Frontend JavaScript developer", Normalize("java")))
}

func TestMatchEmptyQuery(t *testing.T) {
	assert.Empty(t, Match("anything at all", Normalize("")))
}

func TestScoreKeepsZeroMatchesAndOrders(t *testing.T) {
	a := &types.CandidateRecord{Filename: "a.pdf", RawText: "go"}
	b := &types.CandidateRecord{Filename: "b.pdf", RawText: "go rust"}
	c := &types.CandidateRecord{Filename: "c.pdf", RawText: "java"}
	d := &types.CandidateRecord{Filename: "d.pdf", RawText: "rust"}

	results := Score([]*types.CandidateRecord{a, b, c, d}, Normalize("go, rust"))
	require.Len(t, results, 4)

	assert.Equal(t, "b.pdf", results[0].Record.Filename)
	assert.Equal(t, 2, results[0].MatchedCount)
	assert.Equal(t, "a.pdf", results[1].Record.Filename, "同分保持输入顺序")
	assert.Equal(t, "d.pdf", results[2].Record.Filename)
	assert.Equal(t, "c.pdf", results[3].Record.Filename)
	assert.Equal(t, 0, results[3].MatchedCount)
	assert.Empty(t, results[3].MatchedTerms)
}
