package shader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultExtensions = []string{"vs.sc", "fs.sc"}

func TestResolveOne(t *testing.T) {
	root := t.TempDir()
	flat := touch(t, root, "a.vs.sc")
	nested := touch(t, root, "water", "deep", "water.fs.sc")
	touch(t, root, "dup", "b.vs.sc")
	touch(t, root, "other", "b.vs.sc")

	r := NewResolver(root, defaultExtensions)

	t.Run("flat match", func(t *testing.T) {
		got, err := r.ResolveOne("a.vs.sc")
		require.NoError(t, err)
		assert.Equal(t, []string{flat}, got)
	})

	t.Run("recursive match", func(t *testing.T) {
		got, err := r.ResolveOne("**/water.fs.sc")
		require.NoError(t, err)
		assert.Equal(t, []string{nested}, got)
	})

	t.Run("double star matches zero directories", func(t *testing.T) {
		got, err := r.ResolveOne("**/a.vs.sc")
		require.NoError(t, err)
		assert.Equal(t, []string{flat}, got)
	})

	t.Run("not found", func(t *testing.T) {
		got, err := r.ResolveOne("missing.vs.sc")
		assert.Nil(t, got)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, "file 'missing.vs.sc' not found", err.Error())

		var resErr *ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.Equal(t, "missing.vs.sc", resErr.Pattern)
	})

	t.Run("ambiguous", func(t *testing.T) {
		got, err := r.ResolveOne("**/b.vs.sc")
		assert.Nil(t, got)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAmbiguous))

		var resErr *ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.Len(t, resErr.Matches, 2)
		assert.Contains(t, err.Error(), "matches 2 files")
	})

	t.Run("empty pattern", func(t *testing.T) {
		_, err := r.ResolveOne("")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("directories never match", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "c.vs.sc"), 0755))
		_, err := r.ResolveOne("c.vs.sc")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestResolveOneAbsolutePattern(t *testing.T) {
	root := t.TempDir()
	src := touch(t, root, "nested", "a.vs.sc")

	r := NewResolver(filepath.Join(root, "elsewhere"), defaultExtensions)
	got, err := r.ResolveOne(src)
	require.NoError(t, err)
	assert.Equal(t, []string{src}, got)
}

func TestResolveAll(t *testing.T) {
	root := t.TempDir()
	want := []string{
		touch(t, root, "a.vs.sc"),
		touch(t, root, "a.fs.sc"),
		touch(t, root, "water", "water.vs.sc"),
		touch(t, root, "water", "deep", "water.fs.sc"),
	}
	touch(t, root, "varying.def.sc")
	touch(t, root, "README.md")
	touch(t, root, "common", "shaderlib.sh")

	r := NewResolver(root, defaultExtensions)
	got, err := r.ResolveAll()
	require.NoError(t, err)

	sort.Strings(want)
	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	assert.Equal(t, want, sorted)

	// vertex sources are grouped before fragment sources
	for i, p := range got {
		if i < 2 {
			assert.Equal(t, StageVertex, StageOf(p), p)
		} else {
			assert.Equal(t, StageFragment, StageOf(p), p)
		}
	}
}

func TestResolveSkipsHiddenFiles(t *testing.T) {
	root := t.TempDir()
	a := touch(t, root, "a.vs.sc")
	touch(t, root, "._a.vs.sc")
	touch(t, root, ".#b.fs.sc")
	touch(t, root, ".cache", "c.fs.sc")
	hidden := touch(t, root, ".hidden.vs.sc")

	r := NewResolver(root, defaultExtensions)

	all, err := r.ResolveAll()
	require.NoError(t, err)
	assert.Equal(t, []string{a}, all)

	got, err := r.ResolveOne("*a.vs.sc")
	require.NoError(t, err, "resource fork must not make the pattern ambiguous")
	assert.Equal(t, []string{a}, got)

	_, err = r.ResolveOne("**/c.fs.sc")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = r.ResolveOne(".hidden.vs.sc")
	require.NoError(t, err, "a pattern naming a hidden file still matches it")
	assert.Equal(t, []string{hidden}, got)
}

func TestResolveAllEmptyRoot(t *testing.T) {
	r := NewResolver(t.TempDir(), defaultExtensions)
	got, err := r.ResolveAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveMissingRoot(t *testing.T) {
	r := NewResolver(filepath.Join(t.TempDir(), "nope"), defaultExtensions)

	_, err := r.ResolveAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = r.ResolveOne("a.vs.sc")
	require.Error(t, err)
	var resErr *ResolutionError
	assert.False(t, errors.As(err, &resErr), "a missing root is not a resolution error")
}

func TestOwns(t *testing.T) {
	r := NewResolver("/shaders", defaultExtensions)

	assert.True(t, r.Owns("/shaders/a.vs.sc"))
	assert.True(t, r.Owns("/shaders/deep/a.fs.sc"))
	assert.False(t, r.Owns("/shaders/varying.def.sc"))
	assert.False(t, r.Owns("/shaders/a.cs.sc"))
	assert.False(t, r.Owns("/shaders/a.vs.sc.swp"))
	assert.False(t, r.Owns("/shaders/._a.vs.sc"))
	assert.False(t, r.Owns("/shaders/.git/a.vs.sc"))
}
