package edm

import (
	"math"

	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// Part is one named mesh unit of a structure. UVs are stored per vertex, so
// the uv count always equals the vertex count; a mesh with UV seams has to be
// split by the host before it reaches this type.
type Part struct {
	Name string

	vertexCount int
	indexCount  int
	uvCount     int

	buffers *AttributeBuffers

	// DegenerateTangents counts vertices whose tangent used the fallback.
	DegenerateTangents int
}

// NewPart declares the counts of a part and allocates its buffers.
// indexCount is the number of triangles.
func NewPart(name string, vertexCount, indexCount int) *Part {
	b := NewAttributeBuffers(vertexCount, indexCount)
	return &Part{
		Name:        name,
		vertexCount: b.VertexCount(),
		indexCount:  b.IndexCount(),
		uvCount:     b.VertexCount(),
		buffers:     b,
	}
}

func (p *Part) VertexCount() int { return p.vertexCount }
func (p *Part) IndexCount() int  { return p.indexCount }
func (p *Part) UVCount() int     { return p.uvCount }

func (p *Part) Buffers() *AttributeBuffers { return p.buffers }

func (p *Part) Vertices() []vec3.T  { return p.buffers.Positions() }
func (p *Part) Normals() []vec3.T   { return p.buffers.Normals() }
func (p *Part) Tangents() []vec3.T  { return p.buffers.Tangents() }
func (p *Part) UVs() []vec3.T       { return p.buffers.UVs() }
func (p *Part) Indices() []Triangle { return p.buffers.Indices() }

func (p *Part) SetVertices(v []vec3.T) error {
	return p.wrap(p.buffers.SetPositions(v))
}

func (p *Part) SetNormals(v []vec3.T) error {
	return p.wrap(p.buffers.SetNormals(v))
}

func (p *Part) SetTangents(v []vec3.T) error {
	return p.wrap(p.buffers.SetTangents(v))
}

func (p *Part) SetUVs(v []vec3.T) error {
	return p.wrap(p.buffers.SetUVs(v))
}

func (p *Part) SetIndices(t []Triangle) error {
	return p.wrap(p.buffers.SetIndices(t))
}

// Finalize checks that every buffer was populated to its declared count and
// that all indices are in range.
func (p *Part) Finalize() error {
	if p.buffers == nil {
		return errors.Wrapf(ErrIncompleteAttributeSet, "part %q has no buffers", p.Name)
	}
	if p.uvCount != p.vertexCount {
		return errors.Wrapf(ErrUVCountMismatch, "part %q: uv %d, vertex %d", p.Name, p.uvCount, p.vertexCount)
	}
	if p.buffers.VertexCount() != p.vertexCount || p.buffers.IndexCount() != p.indexCount {
		return errors.Wrapf(ErrIncompleteAttributeSet, "part %q: buffers sized %d/%d, declared %d/%d",
			p.Name, p.buffers.VertexCount(), p.buffers.IndexCount(), p.vertexCount, p.indexCount)
	}
	return p.wrap(p.buffers.validate())
}

// BoundingBox returns min x,y,z followed by max x,y,z of the vertices.
func (p *Part) BoundingBox() [6]float64 {
	minX := math.MaxFloat64
	minY := math.MaxFloat64
	minZ := math.MaxFloat64
	maxX := -math.MaxFloat64
	maxY := -math.MaxFloat64
	maxZ := -math.MaxFloat64
	vs := p.Vertices()
	if len(vs) == 0 {
		return [6]float64{}
	}
	for i := range vs {
		minX = math.Min(minX, float64(vs[i][0]))
		minY = math.Min(minY, float64(vs[i][1]))
		minZ = math.Min(minZ, float64(vs[i][2]))

		maxX = math.Max(maxX, float64(vs[i][0]))
		maxY = math.Max(maxY, float64(vs[i][1]))
		maxZ = math.Max(maxZ, float64(vs[i][2]))
	}
	return [6]float64{minX, minY, minZ, maxX, maxY, maxZ}
}

// size is the encoded length of the part in bytes.
func (p *Part) size() int64 {
	return 4 + int64(len(p.Name)) + 12 +
		int64(p.vertexCount)*3*vec3Size +
		int64(p.indexCount)*triangleSize +
		int64(p.uvCount)*vec3Size
}

func (p *Part) wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "part %q", p.Name)
}
