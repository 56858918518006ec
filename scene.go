package edm

import (
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// MeshView is the read-only geometry a host exposes for one node. Vertex,
// Normal and Face are indexed from 0 to VertexCount/FaceCount.
type MeshView interface {
	VertexCount() int
	FaceCount() int
	Vertex(i int) vec3.T
	Normal(i int) vec3.T
	Face(i int) Triangle
	// UVChannel returns one UV per vertex for the given host channel.
	UVChannel(n int) ([]vec3.T, error)
}

// Node is a host scene node. Children are exported as parts in the order
// returned.
type Node interface {
	Name() string
	Children() []Node
	Mesh() (MeshView, error)
}

// Selection yields the root the user picked, or ErrNoSelection.
type Selection interface {
	SelectedRoot() (Node, error)
}

// MeshData is a MeshView over plain slices. UVs maps a channel number to
// its per-vertex coordinates.
type MeshData struct {
	Vertices []vec3.T
	Normals  []vec3.T
	Faces    []Triangle
	UVs      map[int][]vec3.T
}

func (m *MeshData) VertexCount() int    { return len(m.Vertices) }
func (m *MeshData) FaceCount() int      { return len(m.Faces) }
func (m *MeshData) Vertex(i int) vec3.T { return m.Vertices[i] }
func (m *MeshData) Face(i int) Triangle { return m.Faces[i] }

func (m *MeshData) Normal(i int) vec3.T { return m.Normals[i] }

// Validate reports ErrSizeMismatch when the normals are not one per vertex.
func (m *MeshData) Validate() error {
	if len(m.Normals) != len(m.Vertices) {
		return errors.Wrapf(ErrSizeMismatch, "%d normals, %d vertices", len(m.Normals), len(m.Vertices))
	}
	return nil
}

func (m *MeshData) UVChannel(n int) ([]vec3.T, error) {
	uvs, ok := m.UVs[n]
	if !ok {
		return nil, errors.Wrapf(ErrMissingUVChannel, "channel %d", n)
	}
	return uvs, nil
}

// SceneNode is an in-memory Node.
type SceneNode struct {
	NodeName  string
	Geometry  MeshView
	ChildList []*SceneNode
}

func (n *SceneNode) Name() string { return n.NodeName }

func (n *SceneNode) Children() []Node {
	nodes := make([]Node, len(n.ChildList))
	for i, c := range n.ChildList {
		nodes[i] = c
	}
	return nodes
}

func (n *SceneNode) Mesh() (MeshView, error) {
	if n.Geometry == nil {
		return nil, errors.Wrapf(ErrNoMesh, "node %q", n.NodeName)
	}
	return n.Geometry, nil
}

// StaticSelection selects a fixed node; a nil Root means nothing is selected.
type StaticSelection struct {
	Root Node
}

func (s StaticSelection) SelectedRoot() (Node, error) {
	if s.Root == nil {
		return nil, ErrNoSelection
	}
	return s.Root, nil
}
