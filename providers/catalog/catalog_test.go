package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	Register(DialectInfo{
		ID:         "testlang",
		Aliases:    []string{"TL", "test-lang"},
		Extensions: []string{".TL", ".tl", ".tl"},
	})

	info, ok := LookupByAlias("tl")
	require.True(t, ok)
	assert.Equal(t, "testlang", info.ID)

	info, ok = LookupByAlias("TESTLANG")
	require.True(t, ok)
	assert.Equal(t, "testlang", info.ID)

	info, ok = LookupByExtension(".tl")
	require.True(t, ok)
	assert.Equal(t, []string{".tl"}, info.Extensions, "extensions deduplicated and lowercased")

	_, ok = LookupByExtension(".nope")
	assert.False(t, ok)
}

func TestRegisterMergesExistingEntry(t *testing.T) {
	Register(DialectInfo{
		ID:         "mergelang",
		Aliases:    []string{"ml", "merge-lang"},
		Extensions: []string{".ml"},
	})
	Register(DialectInfo{
		ID:         "mergelang",
		Extensions: []string{".mlx"},
	})

	info, ok := LookupByAlias("merge-lang")
	require.True(t, ok, "aliases survive a sparse re-registration")
	assert.Equal(t, "mergelang", info.ID)
	assert.ElementsMatch(t, []string{"ml", "merge-lang"}, info.Aliases)
	assert.ElementsMatch(t, []string{".ml", ".mlx"}, info.Extensions)

	for _, d := range Dialects() {
		if d.ID == "mergelang" {
			assert.ElementsMatch(t, []string{"ml", "merge-lang"}, d.Aliases)
			return
		}
	}
	t.Fatal("mergelang missing from Dialects()")
}

func TestRegisterIgnoresEmptyID(t *testing.T) {
	before := len(Dialects())
	Register(DialectInfo{})
	assert.Len(t, Dialects(), before)
}

func TestDialectsSorted(t *testing.T) {
	Register(DialectInfo{ID: "zzz"})
	Register(DialectInfo{ID: "aaa"})

	infos := Dialects()
	for i := 1; i < len(infos); i++ {
		assert.LessOrEqual(t, infos[i-1].ID, infos[i].ID)
	}
}
