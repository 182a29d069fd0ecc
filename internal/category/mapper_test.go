package category

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

func TestMapper_MapsEveryTableEntry(t *testing.T) {
	m := NewDefaultMapper()

	for raw, want := range DefaultMapping() {
		got, ok := m.Map(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	assert.Equal(t, 12, m.Len())
}

func TestMapper_UnknownIsMissing(t *testing.T) {
	m := NewDefaultMapper()

	for _, raw := range []string{"", "fiction", "Cooking", "Juvenile Fiction ", "Computers"} {
		got, ok := m.Map(raw)
		assert.False(t, ok, raw)
		assert.Empty(t, got, raw)
	}
}

func TestMapper_Apply(t *testing.T) {
	in := []domain.Book{
		{ISBN13: 1, Categories: "Juvenile Fiction"},
		{ISBN13: 2, Categories: "Cooking", SimpleCategory: "stale"},
		{ISBN13: 3, Categories: "Poetry"},
	}

	out := NewDefaultMapper().Apply(in)

	require.Len(t, out, 3)
	assert.Equal(t, domain.CategoryChildrensFiction, out[0].SimpleCategory)
	assert.Empty(t, out[1].SimpleCategory)
	assert.Equal(t, domain.CategoryFiction, out[2].SimpleCategory)
	assert.Equal(t, "stale", in[1].SimpleCategory, "input must not be mutated")
}

func TestNewMapper_RejectsUnknownTarget(t *testing.T) {
	_, err := NewMapper(map[string]string{"Cooking": "Food"})
	assert.ErrorIs(t, err, domainerrors.ErrConfiguration)
}

func TestNewMapper_CopiesTable(t *testing.T) {
	table := map[string]string{"Cooking": domain.CategoryNonfiction}
	m, err := NewMapper(table)
	require.NoError(t, err)

	table["Cooking"] = domain.CategoryFiction
	got, _ := m.Map("Cooking")
	assert.Equal(t, domain.CategoryNonfiction, got)
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "mapping.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mapping:\n  Cooking: Nonfiction\n  Fantasy: Fiction\n"), 0o600))

		m, err := LoadMapping(path)
		require.NoError(t, err)
		got, ok := m.Map("Fantasy")
		assert.True(t, ok)
		assert.Equal(t, domain.CategoryFiction, got)
		_, ok = m.Map("Fiction")
		assert.False(t, ok, "file replaces the default table")
	})

	t.Run("empty mapping", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mapping: {}\n"), 0o600))

		_, err := LoadMapping(path)
		assert.ErrorIs(t, err, domainerrors.ErrConfiguration)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mapping: [unclosed"), 0o600))

		_, err := LoadMapping(path)
		assert.ErrorIs(t, err, domainerrors.ErrConfiguration)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMapping(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
