package edm

import (
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

type attribute uint8

const (
	attrPositions attribute = 1 << iota
	attrNormals
	attrTangents
	attrIndices
	attrUVs

	attrAll = attrPositions | attrNormals | attrTangents | attrIndices | attrUVs
)

var attributeNames = map[attribute]string{
	attrPositions: "positions",
	attrNormals:   "normals",
	attrTangents:  "tangents",
	attrIndices:   "indices",
	attrUVs:       "uvs",
}

func (a attribute) String() string {
	return attributeNames[a]
}

// AttributeBuffers holds the parallel per-vertex arrays and the triangle list
// of one part. Lengths are fixed at construction; setters replace a whole
// array and must match the declared length.
type AttributeBuffers struct {
	vertexCount int
	indexCount  int

	positions []vec3.T
	normals   []vec3.T
	tangents  []vec3.T
	uvs       []vec3.T
	indices   []Triangle

	filled attribute
}

func NewAttributeBuffers(vertexCount, indexCount int) *AttributeBuffers {
	if vertexCount < 0 {
		vertexCount = 0
	}
	if indexCount < 0 {
		indexCount = 0
	}
	return &AttributeBuffers{
		vertexCount: vertexCount,
		indexCount:  indexCount,
		positions:   make([]vec3.T, vertexCount),
		normals:     make([]vec3.T, vertexCount),
		tangents:    make([]vec3.T, vertexCount),
		uvs:         make([]vec3.T, vertexCount),
		indices:     make([]Triangle, indexCount),
	}
}

func (b *AttributeBuffers) VertexCount() int { return b.vertexCount }
func (b *AttributeBuffers) IndexCount() int  { return b.indexCount }

func (b *AttributeBuffers) Positions() []vec3.T { return b.positions }
func (b *AttributeBuffers) Normals() []vec3.T   { return b.normals }
func (b *AttributeBuffers) Tangents() []vec3.T  { return b.tangents }
func (b *AttributeBuffers) UVs() []vec3.T       { return b.uvs }
func (b *AttributeBuffers) Indices() []Triangle { return b.indices }

func (b *AttributeBuffers) setVec3(attr attribute, dst []vec3.T, src []vec3.T) error {
	if len(src) != len(dst) {
		return errors.Wrapf(ErrSizeMismatch, "%s: got %d, declared %d", attr, len(src), len(dst))
	}
	copy(dst, src)
	b.filled |= attr
	return nil
}

func (b *AttributeBuffers) SetPositions(v []vec3.T) error {
	return b.setVec3(attrPositions, b.positions, v)
}

func (b *AttributeBuffers) SetNormals(v []vec3.T) error {
	return b.setVec3(attrNormals, b.normals, v)
}

func (b *AttributeBuffers) SetTangents(v []vec3.T) error {
	return b.setVec3(attrTangents, b.tangents, v)
}

func (b *AttributeBuffers) SetUVs(v []vec3.T) error {
	return b.setVec3(attrUVs, b.uvs, v)
}

// SetIndices stores the triangle list. Every index must address an existing
// vertex; nothing is stored when the check fails.
func (b *AttributeBuffers) SetIndices(tris []Triangle) error {
	if len(tris) != len(b.indices) {
		return errors.Wrapf(ErrSizeMismatch, "%s: got %d, declared %d", attrIndices, len(tris), len(b.indices))
	}
	if err := checkIndices(tris, b.vertexCount); err != nil {
		return err
	}
	copy(b.indices, tris)
	b.filled |= attrIndices
	return nil
}

func checkIndices(tris []Triangle, vertexCount int) error {
	for i, t := range tris {
		if int64(t.maxIndex()) >= int64(vertexCount) {
			return errors.Wrapf(ErrIndexOutOfRange, "triangle %d %v, vertex count %d", i, t, vertexCount)
		}
	}
	return nil
}

// Complete reports ErrIncompleteAttributeSet naming the first array that was
// never set.
func (b *AttributeBuffers) Complete() error {
	if b.filled == attrAll {
		return nil
	}
	for _, a := range []attribute{attrPositions, attrNormals, attrTangents, attrIndices, attrUVs} {
		if b.filled&a == 0 {
			return errors.Wrapf(ErrIncompleteAttributeSet, "%s not set", a)
		}
	}
	return ErrIncompleteAttributeSet
}

func (b *AttributeBuffers) validate() error {
	if err := b.Complete(); err != nil {
		return err
	}
	if len(b.positions) != b.vertexCount || len(b.normals) != b.vertexCount ||
		len(b.tangents) != b.vertexCount || len(b.uvs) != b.vertexCount {
		return errors.Wrapf(ErrIncompleteAttributeSet, "vertex arrays differ from vertex count %d", b.vertexCount)
	}
	if len(b.indices) != b.indexCount {
		return errors.Wrapf(ErrIncompleteAttributeSet, "index array differs from index count %d", b.indexCount)
	}
	return checkIndices(b.indices, b.vertexCount)
}
