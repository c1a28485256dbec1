package network

import (
	"testing"

	"vidanet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sponsor(id uint) *uint { return &id }

// chain: 1 <- 2 <- 3, and 4 is a second direct of 1.
func testMembers() []models.Member {
	return []models.Member{
		{ID: 1},
		{ID: 2, SponsorID: sponsor(1), Position: 1},
		{ID: 3, SponsorID: sponsor(2), Position: 1},
		{ID: 4, SponsorID: sponsor(1), Position: 2},
	}
}

func TestBuildArena(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		arena, err := BuildArena(testMembers())
		require.NoError(t, err)
		assert.Equal(t, 4, arena.Size())
		assert.Equal(t, []uint{1}, arena.Roots())
		assert.Equal(t, []uint{2, 4}, arena.DirectReferrals(1))
	})

	t.Run("dangling sponsor", func(t *testing.T) {
		_, err := BuildArena([]models.Member{
			{ID: 1, SponsorID: sponsor(99)},
		})
		assert.ErrorIs(t, err, ErrGraphIntegrity)
	})

	t.Run("self sponsor", func(t *testing.T) {
		_, err := BuildArena([]models.Member{
			{ID: 1, SponsorID: sponsor(1)},
		})
		assert.ErrorIs(t, err, ErrGraphIntegrity)
	})

	t.Run("sponsor cycle", func(t *testing.T) {
		_, err := BuildArena([]models.Member{
			{ID: 1, SponsorID: sponsor(2)},
			{ID: 2, SponsorID: sponsor(1)},
		})
		assert.ErrorIs(t, err, ErrGraphIntegrity)
	})

	t.Run("duplicate member", func(t *testing.T) {
		_, err := BuildArena([]models.Member{
			{ID: 1},
			{ID: 1},
		})
		assert.ErrorIs(t, err, ErrGraphIntegrity)
	})
}

func TestAncestors(t *testing.T) {
	arena, err := BuildArena(testMembers())
	require.NoError(t, err)

	t.Run("nearest first up to root", func(t *testing.T) {
		line, err := arena.Ancestors(3)
		require.NoError(t, err)
		assert.Equal(t, []uint{2, 1}, line)
	})

	t.Run("root has no ancestors", func(t *testing.T) {
		line, err := arena.Ancestors(1)
		require.NoError(t, err)
		assert.Empty(t, line)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := arena.Ancestors(42)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})
}

func TestWalkDownline(t *testing.T) {
	arena, err := BuildArena(testMembers())
	require.NoError(t, err)

	type visit struct {
		ID    uint
		Depth int
	}

	t.Run("depth first in placement order", func(t *testing.T) {
		var visits []visit
		err := arena.WalkDownline(1, 0, func(id uint, depth int) error {
			visits = append(visits, visit{id, depth})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []visit{{2, 1}, {3, 2}, {4, 1}}, visits)
	})

	t.Run("max depth limits traversal", func(t *testing.T) {
		var visits []visit
		err := arena.WalkDownline(1, 1, func(id uint, depth int) error {
			visits = append(visits, visit{id, depth})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []visit{{2, 1}, {4, 1}}, visits)
	})

	t.Run("deterministic across rebuilds", func(t *testing.T) {
		collect := func() []visit {
			a, err := BuildArena(testMembers())
			require.NoError(t, err)
			var visits []visit
			require.NoError(t, a.WalkDownline(1, 0, func(id uint, depth int) error {
				visits = append(visits, visit{id, depth})
				return nil
			}))
			return visits
		}
		assert.Equal(t, collect(), collect())
	})
}

func TestMembersAtDepth(t *testing.T) {
	arena, err := BuildArena(testMembers())
	require.NoError(t, err)

	level1, err := arena.MembersAtDepth(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 4}, level1)

	level2, err := arena.MembersAtDepth(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, level2)
}
