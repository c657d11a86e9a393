package clips

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-org/vigil-sim/internal/core"
)

func testPools() map[core.ClipSubtype][]core.Clip {
	mk := func(st core.ClipSubtype, names ...string) []core.Clip {
		out := make([]core.Clip, 0, len(names))
		for _, n := range names {
			out = append(out, core.Clip{Ref: string(st) + "/" + n, Class: st.Class(), Subtype: st})
		}
		return out
	}
	return map[core.ClipSubtype][]core.Clip{
		core.SubtypeViolence:   mk(core.SubtypeViolence, "fight1.mp4", "fight2.mp4"),
		core.SubtypeCrash:      mk(core.SubtypeCrash, "crash1.mp4"),
		core.SubtypeNoViolence: mk(core.SubtypeNoViolence, "lobby.mp4"),
		core.SubtypeNoCrash:    mk(core.SubtypeNoCrash, "traffic.mp4"),
	}
}

func TestSelectByCategory(t *testing.T) {
	s := NewSelector(testPools(), zerolog.Nop())

	c := s.Select(core.CategoryViolence)
	assert.Equal(t, core.SubtypeViolence, c.Subtype)
	assert.Equal(t, core.ClipClassViolence, c.Class)

	c = s.Select(core.CategoryCrash)
	assert.Equal(t, core.SubtypeCrash, c.Subtype)
	assert.Equal(t, core.ClipClassCrash, c.Class)
}

func TestGenericOnlyServesNeutralClips(t *testing.T) {
	s := NewSelector(testPools(), zerolog.Nop())

	for i := 0; i < 100; i++ {
		c := s.Select(core.CategoryGeneric)
		require.False(t, c.IsZero())
		assert.False(t, c.Subtype.Incident(), "câmera genérica sorteou clipe de incidente: %s", c.Ref)
	}
}

func TestGenericFallsBackWhenPreferredPoolEmpty(t *testing.T) {
	pools := testPools()
	delete(pools, core.SubtypeNoCrash)
	s := NewSelector(pools, zerolog.Nop())

	for i := 0; i < 50; i++ {
		c := s.Select(core.CategoryGeneric)
		require.False(t, c.IsZero())
		assert.Equal(t, core.SubtypeNoViolence, c.Subtype)
	}
}

func TestEmptyPoolReturnsZeroClip(t *testing.T) {
	s := NewSelector(nil, zerolog.Nop())
	assert.True(t, s.Select(core.CategoryViolence).IsZero())
	assert.True(t, s.Select(core.CategoryGeneric).IsZero())
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	write := func(sub, name string) {
		folder := filepath.Join(dir, sub)
		require.NoError(t, os.MkdirAll(folder, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), []byte("x"), 0o644))
	}
	write("violence", "fight.mp4")
	write("violence", "notes.txt") // ignorado
	write("no_crash", "traffic.MP4")

	s, err := LoadFromDir(dir, zerolog.Nop())
	require.NoError(t, err)

	sizes := s.PoolSizes()
	assert.Equal(t, 1, sizes[core.SubtypeViolence])
	assert.Equal(t, 1, sizes[core.SubtypeNoCrash])
	assert.Equal(t, 0, sizes[core.SubtypeCrash])

	c := s.Select(core.CategoryViolence)
	assert.Equal(t, "violence/fight.mp4", c.Ref)
	assert.Equal(t, core.SubtypeViolence, c.Subtype)
}

func TestLoadFromDirMissingFoldersAreEmptyPools(t *testing.T) {
	s, err := LoadFromDir(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, s.Select(core.CategoryCrash).IsZero())
}
