package claim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("Caller and callee become a CALL claim", func(t *testing.T) {
		c, err := Normalize(RawClaim{Caller: `  "main()" `, Callee: "`process`"})
		require.NoError(t, err)
		assert.Equal(t, "main", c.Subject)
		assert.Equal(t, "process", c.Object)
		assert.Equal(t, KindCall, c.Kind)
		assert.True(t, c.Normalized())
	})

	t.Run("Relation keywords are case-insensitive", func(t *testing.T) {
		tests := map[string]Kind{
			"Calls":        KindCall,
			"INVOKES":      KindCall,
			"flows to":     KindDataFlow,
			"data-flow":    KindDataFlow,
			"exists":       KindExistence,
			"has_method":   KindAttribute,
			" Attribute  ": KindAttribute,
		}
		for relation, want := range tests {
			c, err := Normalize(RawClaim{Subject: "a", Relation: relation, Object: "b"})
			require.NoError(t, err, relation)
			assert.Equal(t, want, c.Kind, relation)
		}
	})

	t.Run("Existence needs no object", func(t *testing.T) {
		c, err := Normalize(RawClaim{Subject: "Calculator", Relation: "exists"})
		require.NoError(t, err)
		assert.Equal(t, KindExistence, c.Kind)
		assert.Empty(t, c.Object)
	})

	t.Run("Empty fields are rejected", func(t *testing.T) {
		_, err := Normalize(RawClaim{Caller: "  ''  ", Callee: "b"})
		var malformed *MalformedClaimError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "subject", malformed.Field)
		assert.Equal(t, -1, malformed.Index)

		_, err = Normalize(RawClaim{Subject: "a", Relation: "calls"})
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "object", malformed.Field)
	})

	t.Run("Unknown relation is rejected", func(t *testing.T) {
		_, err := Normalize(RawClaim{Subject: "a", Relation: "inherits", Object: "b"})
		var malformed *MalformedClaimError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "relation", malformed.Field)
		assert.Contains(t, err.Error(), "inherits")
	})

	t.Run("Confidence outside range is rejected", func(t *testing.T) {
		bad := 1.5
		_, err := Normalize(RawClaim{Caller: "a", Callee: "b", Confidence: &bad})
		var malformed *MalformedClaimError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "confidence", malformed.Field)
	})

	t.Run("Path claims", func(t *testing.T) {
		c, err := Normalize(RawClaim{Path: []string{"main", "process()", "save"}})
		require.NoError(t, err)
		assert.Equal(t, "main", c.Subject)
		assert.Equal(t, "save", c.Object)
		assert.True(t, c.IsPath())
		assert.Equal(t, [][2]string{{"main", "process"}, {"process", "save"}}, c.Hops())

		single, err := Normalize(RawClaim{Path: []string{"main", "process"}})
		require.NoError(t, err)
		assert.False(t, single.IsPath())
		assert.Equal(t, [][2]string{{"main", "process"}}, single.Hops())

		_, err = Normalize(RawClaim{Path: []string{"main"}})
		assert.Error(t, err)

		_, err = Normalize(RawClaim{Relation: "exists", Path: []string{"a", "b"}})
		assert.Error(t, err)
	})
}

func TestNormalizeBatch(t *testing.T) {
	raws := []RawClaim{
		{Caller: "main", Callee: "process"},
		{Subject: "main", Relation: "calls", Object: "process()"},
		{Caller: "", Callee: "process"},
		{Caller: "process", Callee: "save"},
		{Subject: "x", Relation: "teleports", Object: "y"},
		{Caller: "main", Callee: "process"},
	}

	b := NormalizeBatch(raws)

	require.Len(t, b.Claims, 2)
	assert.Equal(t, "main", b.Claims[0].Subject)
	assert.Equal(t, "process", b.Claims[1].Subject)
	assert.Equal(t, 2, b.Duplicates)

	require.Len(t, b.Rejected, 2)
	assert.Equal(t, 2, b.Rejected[0].Index)
	assert.Equal(t, 4, b.Rejected[1].Index)

	err := b.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")

	assert.NoError(t, NormalizeBatch(raws[:2]).Err())
}

func TestClaim_Validate(t *testing.T) {
	assert.NoError(t, New("main", KindCall, "process").Validate())
	assert.NoError(t, New("main", KindExistence, "").Validate())

	err := Claim{Subject: "main", Kind: KindCall, Object: "process"}.Validate()
	assert.True(t, errors.Is(err, ErrNotNormalized))

	err = New("main", KindCall, " ").Validate()
	var malformed *MalformedClaimError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "object", malformed.Field)

	err = New("main", Kind("INHERITS"), "Base").Validate()
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "kind", malformed.Field)
}

func TestClaim_String(t *testing.T) {
	assert.Equal(t, "CALL main -> process", New("main", KindCall, "process").String())
	assert.Equal(t, "EXISTENCE Calculator", New("Calculator", KindExistence, "").String())
	assert.Equal(t, "CALL a -> b -> c", NewPath("a", "b", "c").String())
}
