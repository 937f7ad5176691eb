package triage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/types"
)

func TestRenderBankTable(t *testing.T) {
	rec := &types.CandidateRecord{
		Filename:      "ana.pdf",
		FullName:      "Ana <Souza>",
		LinkedInLinks: []string{"https://www.linkedin.com/in/ana", "https://linkedin.com/in/ana-2"},
	}
	var buf bytes.Buffer
	err := RenderBankTable(&buf, []*types.CandidateRecord{rec}, func(name string) string { return "/files/" + name })
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<a href="https://www.linkedin.com/in/ana" target="_blank">`)
	assert.Contains(t, html, `<a href="https://linkedin.com/in/ana-2" target="_blank">`)
	assert.Contains(t, html, `<a href="/files/ana.pdf" download>ana.pdf</a>`)
	assert.Contains(t, html, "Ana &lt;Souza&gt;", "单元格内容需要转义")
}

func TestRenderGroupTables(t *testing.T) {
	groups := []types.RankedGroup{
		{Count: 2, Members: []*types.CandidateRecord{record("a.pdf", "")}},
		{Count: 1, Members: []*types.CandidateRecord{record("b.pdf", "")}},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderGroupTables(&buf, groups, nil))

	html := buf.String()
	assert.Equal(t, 2, strings.Count(html, "<table>"))
	assert.Less(t, strings.Index(html, "2 palavras-chave encontradas"), strings.Index(html, "1 palavra-chave encontrada"))
}
