package edm

import (
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/flywave/go3d/vec3"
)

// scenarioPart builds the single "Body" triangle used across the tests.
func scenarioPart(t *testing.T) *Part {
	t.Helper()
	verts := []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	normals := []vec3.T{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	uvs := []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	tangents, _, err := NewTangentComputer().ComputeTangents(uvs, verts)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPart("Body", 3, 1)
	mustNoErr(t, p.SetVertices(verts))
	mustNoErr(t, p.SetNormals(normals))
	mustNoErr(t, p.SetTangents(tangents))
	mustNoErr(t, p.SetIndices([]Triangle{{0, 1, 2}}))
	mustNoErr(t, p.SetUVs(uvs))
	mustNoErr(t, p.Finalize())
	return p
}

func scenarioStructure(t *testing.T) *Structure {
	t.Helper()
	s := NewStructure("Root", 1)
	s.AddPart(scenarioPart(t))
	return s
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func sameBits(a, b []vec3.T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		for c := 0; c < 3; c++ {
			if math.Float32bits(a[i][c]) != math.Float32bits(b[i][c]) {
				return false
			}
		}
	}
	return true
}

func assertPartsEqual(t *testing.T, want, got *Part) {
	t.Helper()
	if want.Name != got.Name {
		t.Errorf("name: want %q, got %q", want.Name, got.Name)
	}
	if want.VertexCount() != got.VertexCount() || want.IndexCount() != got.IndexCount() || want.UVCount() != got.UVCount() {
		t.Errorf("counts: want %d/%d/%d, got %d/%d/%d",
			want.VertexCount(), want.IndexCount(), want.UVCount(),
			got.VertexCount(), got.IndexCount(), got.UVCount())
	}
	for _, c := range []struct {
		name      string
		want, got []vec3.T
	}{
		{"positions", want.Vertices(), got.Vertices()},
		{"normals", want.Normals(), got.Normals()},
		{"tangents", want.Tangents(), got.Tangents()},
		{"uvs", want.UVs(), got.UVs()},
	} {
		if !sameBits(c.want, c.got) {
			t.Errorf("%s differ:\nwant %s\ngot %s", c.name, spew.Sdump(c.want), spew.Sdump(c.got))
		}
	}
	if len(want.Indices()) != len(got.Indices()) {
		t.Fatalf("indices: want %d, got %d", len(want.Indices()), len(got.Indices()))
	}
	for i := range want.Indices() {
		if want.Indices()[i] != got.Indices()[i] {
			t.Errorf("index %d: want %v, got %v", i, want.Indices()[i], got.Indices()[i])
		}
	}
}
