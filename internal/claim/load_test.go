package claim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_YAML(t *testing.T) {
	raws, err := LoadFile(filepath.Join("testdata", "claims.yaml"))
	require.NoError(t, err)
	require.Len(t, raws, 5)

	assert.Equal(t, "main", raws[0].Caller)
	assert.Equal(t, "calls", raws[1].Relation)
	require.NotNil(t, raws[1].Confidence)
	assert.InDelta(t, 0.8, *raws[1].Confidence, 1e-9)
	assert.Equal(t, []string{"main", "process", "Calculator.add"}, raws[2].Path)
	assert.Equal(t, "process", raws[3].Caller)
	assert.Equal(t, "Calculator", raws[3].Callee)
	assert.Equal(t, "save_result", raws[4].Callee)

	b := NormalizeBatch(raws)
	assert.Len(t, b.Claims, 5)
	assert.NoError(t, b.Err())
}

func TestParse_JSON(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		raws, err := Parse([]byte(`[{"caller":"main","callee":"process"}]`), FormatJSON)
		require.NoError(t, err)
		require.Len(t, raws, 1)
		assert.Equal(t, "process", raws[0].Callee)
	})

	t.Run("Fenced functions document", func(t *testing.T) {
		text := "Here is the call structure:\n```json\n" +
			`{"functions": [{"name": "main", "calls": ["process", "print"]}]}` +
			"\n```\n"
		raws, err := Parse([]byte(text), FormatJSON)
		require.NoError(t, err)
		require.Len(t, raws, 2)
		assert.Equal(t, RawClaim{Caller: "main", Callee: "print", Text: "main calls print"}, raws[1])
	})

	t.Run("Empty", func(t *testing.T) {
		raws, err := Parse([]byte("  \n"), FormatJSON)
		require.NoError(t, err)
		assert.Empty(t, raws)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := Parse([]byte(`{"claims": 3}`), FormatJSON)
		assert.Error(t, err)
	})
}

func TestParse_YAMLList(t *testing.T) {
	raws, err := Parse([]byte("- caller: a\n  callee: b\n- subject: a\n  relation: exists\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "exists", raws[1].Relation)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("claims: [\n"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)

	_, err = Parse([]byte("[]"), Format("toml"))
	assert.Error(t, err)
}
