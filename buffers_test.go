package edm

import (
	"testing"

	"github.com/flywave/go3d/vec3"
)

func TestAttributeBuffersSetters(t *testing.T) {
	tests := []struct {
		name string
		set  func(b *AttributeBuffers) error
	}{
		{"positions", func(b *AttributeBuffers) error { return b.SetPositions(make([]vec3.T, 2)) }},
		{"normals", func(b *AttributeBuffers) error { return b.SetNormals(make([]vec3.T, 2)) }},
		{"tangents", func(b *AttributeBuffers) error { return b.SetTangents(make([]vec3.T, 4)) }},
		{"uvs", func(b *AttributeBuffers) error { return b.SetUVs(nil) }},
		{"indices", func(b *AttributeBuffers) error { return b.SetIndices(make([]Triangle, 2)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewAttributeBuffers(3, 1)
			expectErr(t, tt.set(b), ErrSizeMismatch)
			expectErr(t, b.Complete(), ErrIncompleteAttributeSet)
		})
	}
}

func TestAttributeBuffersNoTruncation(t *testing.T) {
	b := NewAttributeBuffers(3, 1)
	want := []vec3.T{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	mustNoErr(t, b.SetNormals(want))

	expectErr(t, b.SetNormals(want[:2]), ErrSizeMismatch)
	if len(b.Normals()) != 3 || !sameBits(b.Normals(), want) {
		t.Errorf("failed set changed the buffer: %v", b.Normals())
	}
}

func TestAttributeBuffersCopiesInput(t *testing.T) {
	b := NewAttributeBuffers(1, 0)
	src := []vec3.T{{1, 2, 3}}
	mustNoErr(t, b.SetPositions(src))
	src[0] = vec3.T{9, 9, 9}
	if b.Positions()[0] != (vec3.T{1, 2, 3}) {
		t.Errorf("buffer aliases caller slice: %v", b.Positions()[0])
	}
}

func TestAttributeBuffersIndexBounds(t *testing.T) {
	b := NewAttributeBuffers(3, 2)
	err := b.SetIndices([]Triangle{{0, 1, 2}, {1, 2, 3}})
	expectErr(t, err, ErrIndexOutOfRange)
	for _, tri := range b.Indices() {
		if tri != (Triangle{}) {
			t.Fatalf("rejected indices were stored: %v", b.Indices())
		}
	}
	mustNoErr(t, b.SetIndices([]Triangle{{0, 1, 2}, {2, 1, 0}}))
}

func TestAttributeBuffersComplete(t *testing.T) {
	b := NewAttributeBuffers(1, 0)
	mustNoErr(t, b.SetPositions([]vec3.T{{}}))
	mustNoErr(t, b.SetNormals([]vec3.T{{}}))
	mustNoErr(t, b.SetTangents([]vec3.T{{}}))
	mustNoErr(t, b.SetUVs([]vec3.T{{}}))
	expectErr(t, b.Complete(), ErrIncompleteAttributeSet)

	mustNoErr(t, b.SetIndices(nil))
	mustNoErr(t, b.Complete())
	mustNoErr(t, b.validate())
}

func TestAttributeBuffersNegativeCounts(t *testing.T) {
	b := NewAttributeBuffers(-1, -5)
	if b.VertexCount() != 0 || b.IndexCount() != 0 {
		t.Errorf("expected zero counts, got %d/%d", b.VertexCount(), b.IndexCount())
	}
}
