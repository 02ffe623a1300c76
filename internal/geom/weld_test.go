package geom

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeldMergesDuplicates(t *testing.T) {
	verts := []mgl64.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{1.00005, 0, 0},
	}
	tris := []int{0, 1, 2, 2, 3, 0}

	res, err := Weld(verts, tris, nil, 1e-4)
	require.NoError(t, err)

	assert.Len(t, res.Vertices, 3)
	assert.Equal(t, []int{0, 1, 2, 1}, res.Remap)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 0}, res.Triangles)
}

func TestWeldKeepsDistinctVertices(t *testing.T) {
	verts := []mgl64.Vec3{{0, 0, 0}, {0.001, 0, 0}}

	res, err := Weld(verts, nil, nil, 1e-4)
	require.NoError(t, err)
	assert.Len(t, res.Vertices, 2)
}

func TestWeldAveragesUVs(t *testing.T) {
	verts := []mgl64.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{1, 0, 0},
	}
	uvs := []mgl64.Vec2{{0, 0}, {0.2, 0}, {0, 1}, {0.4, 0}}

	res, err := Weld(verts, []int{0, 1, 2, 0, 3, 2}, uvs, 1e-4)
	require.NoError(t, err)
	require.Len(t, res.UVs, 3)

	assert.InDelta(t, 0.3, res.UVs[1].X(), 1e-12)
	assert.InDelta(t, 0.0, res.UVs[1].Y(), 1e-12)
}

func TestWeldIndexContract(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	verts := make([]mgl64.Vec3, 0, 600)
	tris := make([]int, 0, 600)
	for i := 0; i < 200; i++ {
		v := mgl64.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
		verts = append(verts, v, v, v.Add(mgl64.Vec3{5e-5, 0, 0}))
		tris = append(tris, 3*i, 3*i+1, 3*i+2)
	}

	res, err := Weld(verts, tris, nil, 1e-4)
	require.NoError(t, err)

	for _, idx := range res.Triangles {
		assert.Less(t, idx, len(res.Vertices))
		assert.GreaterOrEqual(t, idx, 0)
	}
	for _, m := range res.Remap {
		assert.Less(t, m, len(res.Vertices))
	}
	assert.Less(t, len(res.Vertices), len(verts))
}

func TestWeldErrors(t *testing.T) {
	one := []mgl64.Vec3{{0, 0, 0}}

	_, err := Weld(nil, nil, nil, 1e-4)
	assert.ErrorIs(t, err, ErrEmptyMesh)

	_, err = Weld(one, []int{0, 0}, nil, 1e-4)
	assert.ErrorIs(t, err, ErrTriangleCount)

	_, err = Weld(one, []int{0, 0, 3}, nil, 1e-4)
	assert.ErrorIs(t, err, ErrIndexRange)

	_, err = Weld(one, nil, []mgl64.Vec2{{0, 0}, {1, 1}}, 1e-4)
	assert.ErrorIs(t, err, ErrUVCount)
}
