package edm

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// Exporter turns the children of a selected host node into a Structure and
// writes it out.
type Exporter struct {
	// UVChannel is the host mapping channel sampled for UVs and tangents.
	UVChannel int
	Tangents  *TangentComputer
	Logger    *log.Logger
}

func NewExporter() *Exporter {
	return &Exporter{
		UVChannel: DEFAULT_UV_CHANNEL,
		Tangents:  NewTangentComputer(),
		Logger:    log.Default(),
	}
}

func (ex *Exporter) logger() *log.Logger {
	if ex.Logger == nil {
		return log.Default()
	}
	return ex.Logger
}

func (ex *Exporter) tangents() *TangentComputer {
	if ex.Tangents == nil {
		return NewTangentComputer()
	}
	return ex.Tangents
}

// meshValidator is implemented by mesh views that can check their own
// array lengths before they are sampled.
type meshValidator interface {
	Validate() error
}

// BuildPart reads the mesh of node into a new part.
func (ex *Exporter) BuildPart(node Node) (*Part, error) {
	mesh, err := node.Mesh()
	if err != nil {
		return nil, err
	}
	vertexCount, faceCount := mesh.VertexCount(), mesh.FaceCount()
	if vertexCount < 0 || faceCount < 0 {
		return nil, errors.Wrapf(ErrSizeMismatch, "node %q: vertex count %d, face count %d",
			node.Name(), vertexCount, faceCount)
	}
	if v, ok := mesh.(meshValidator); ok {
		if err := v.Validate(); err != nil {
			return nil, errors.Wrapf(err, "node %q", node.Name())
		}
	}
	part := NewPart(node.Name(), vertexCount, faceCount)

	verts := make([]vec3.T, vertexCount)
	normals := make([]vec3.T, vertexCount)
	for i := range verts {
		verts[i] = mesh.Vertex(i)
		normals[i] = mesh.Normal(i)
	}

	indices := make([]Triangle, faceCount)
	for i := range indices {
		indices[i] = mesh.Face(i)
	}

	channel, err := mesh.UVChannel(ex.UVChannel)
	if err != nil {
		return nil, errors.Wrapf(err, "node %q", node.Name())
	}
	if len(channel) != vertexCount {
		return nil, errors.Wrapf(ErrSizeMismatch, "node %q: uv channel %d has %d entries, %d vertices",
			node.Name(), ex.UVChannel, len(channel), vertexCount)
	}
	uvs := make([]vec3.T, vertexCount)
	copy(uvs, channel)

	tangents, degenerate, err := ex.tangents().ComputeTangents(uvs, verts)
	if err != nil {
		return nil, err
	}
	part.DegenerateTangents = degenerate

	if err := part.SetVertices(verts); err != nil {
		return nil, err
	}
	if err := part.SetNormals(normals); err != nil {
		return nil, err
	}
	if err := part.SetTangents(tangents); err != nil {
		return nil, err
	}
	if err := part.SetIndices(indices); err != nil {
		return nil, err
	}
	if err := part.SetUVs(uvs); err != nil {
		return nil, err
	}
	if err := part.Finalize(); err != nil {
		return nil, err
	}

	ex.logger().Debug("part assembled", "name", part.Name, "vertices", vertexCount,
		"triangles", faceCount, "degenerateTangents", degenerate)
	return part, nil
}

// BuildStructure exports every child of root, in order, as one part.
func (ex *Exporter) BuildStructure(root Node) (*Structure, error) {
	children := root.Children()
	s := NewStructure(root.Name(), len(children))
	for _, child := range children {
		p, err := ex.BuildPart(child)
		if err != nil {
			return nil, errors.Wrapf(err, "structure %q", root.Name())
		}
		s.AddPart(p)
	}
	return s, nil
}

func (ex *Exporter) build(sel Selection) (*Structure, error) {
	root, err := sel.SelectedRoot()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrNoSelection
	}
	return ex.BuildStructure(root)
}

// ExportTo writes the selected root to wt and returns the structure written.
func (ex *Exporter) ExportTo(sel Selection, wt io.Writer) (*Structure, error) {
	s, err := ex.build(sel)
	if err != nil {
		return nil, err
	}
	n, err := structureMarshal(wt, s)
	if err != nil {
		return nil, err
	}
	ex.logger().Info("exported", "structure", s.Name, "parts", len(s.Parts), "bytes", n)
	return s, nil
}

// Export builds the selected root and writes it to path. The file is only
// created once the structure has been assembled and validated.
func (ex *Exporter) Export(sel Selection, path string) (*Structure, error) {
	s, err := ex.build(sel)
	if err != nil {
		return nil, err
	}
	n, err := StructureWriteTo(path, s)
	if err != nil {
		return nil, errors.Wrapf(err, "export %s", path)
	}
	ex.logger().Info("exported", "path", path, "structure", s.Name, "parts", len(s.Parts), "bytes", n)
	return s, nil
}
