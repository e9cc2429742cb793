package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuiltIn(t *testing.T) {
	entries, err := Load()
	require.NoError(t, err)
	require.Len(t, entries, 100)

	assert.Equal(t, "What made you smile today?", entries[0].Text)
	assert.Empty(t, entries[0].Options)

	var withOptions int
	for _, e := range entries {
		assert.NotEmpty(t, e.Text)
		if len(e.Options) > 0 {
			withOptions++
		}
	}
	assert.Equal(t, 40, withOptions)
}

func TestParse(t *testing.T) {
	entries, err := Parse([]byte(`
free_text:
  - "How was work?"
options:
  - text: "Tea or coffee?"
    options: ["Tea", "Coffee"]
`))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Text: "How was work?"},
		{Text: "Tea or coffee?", Options: []string{"Tea", "Coffee"}},
	}, entries)

	_, err = Parse([]byte("options:\n  - text: \"Pick one\"\n"))
	assert.ErrorContains(t, err, "has no options")

	_, err = Parse([]byte("free_text: {"))
	assert.Error(t, err)
}
