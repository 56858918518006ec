package edm

import (
	"bytes"
	"io"

	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const GLTF_VERSION = "2.0"

// StructureToGltf converts an EDM structure into a glTF document for
// previewing. Each part becomes a mesh node under a root node carrying the
// structure name.
func StructureToGltf(s *Structure) (*gltf.Document, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	doc := CreateDoc()
	BuildGltf(doc, s)
	return doc, nil
}

func CreateDoc() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = GLTF_VERSION
	doc.Asset.Generator = "go-edm"
	srcIndex := uint32(0)
	doc.Scene = &srcIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	return doc
}

// BuildGltf appends s to the default scene of doc.
func BuildGltf(doc *gltf.Document, s *Structure) {
	root := &gltf.Node{Name: s.Name}
	rootIndex := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, root)
	doc.Scenes[*doc.Scene].Nodes = append(doc.Scenes[*doc.Scene].Nodes, rootIndex)

	for _, p := range s.Parts {
		attrs := gltf.Attribute{}
		attrs[gltf.POSITION] = modeler.WritePosition(doc, toFloat3(p.Vertices()))
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, toFloat3(p.Normals()))
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, toFloat2(p.UVs()))
		if tangents, ok := unitTangents(p.Tangents()); ok {
			attrs[gltf.TANGENT] = modeler.WriteTangent(doc, tangents)
		}

		indices := make([]uint32, 0, len(p.Indices())*3)
		for _, t := range p.Indices() {
			indices = append(indices, t[0], t[1], t[2])
		}
		ps := &gltf.Primitive{Attributes: attrs, Mode: gltf.PrimitiveTriangles}
		if len(indices) > 0 {
			idx := modeler.WriteIndices(doc, indices)
			ps.Indices = &idx
		}

		meshIndex := uint32(len(doc.Meshes))
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: p.Name, Primitives: []*gltf.Primitive{ps}})

		nodeIndex := uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: p.Name, Mesh: &meshIndex})
		root.Children = append(root.Children, nodeIndex)
	}
}

func toFloat3(vs []vec3.T) [][3]float32 {
	out := make([][3]float32, len(vs))
	for i := range vs {
		out[i] = [3]float32(vs[i])
	}
	return out
}

func toFloat2(vs []vec3.T) [][2]float32 {
	out := make([][2]float32, len(vs))
	for i := range vs {
		out[i] = [2]float32{vs[i][0], vs[i][1]}
	}
	return out
}

// unitTangents normalizes the tangents for glTF, which requires unit length.
// It reports false when any tangent is zero.
func unitTangents(vs []vec3.T) ([][4]float32, bool) {
	out := make([][4]float32, len(vs))
	for i := range vs {
		t := vs[i]
		l := t.Length()
		if l == 0 {
			return nil, false
		}
		out[i] = [4]float32{t[0] / l, t[1] / l, t[2] / l, 1}
	}
	return out, len(out) > 0
}

type calcSizeWriter struct {
	writer io.Writer
	Size   int
}

func (w *calcSizeWriter) Write(p []byte) (n int, err error) {
	n, err = w.writer.Write(p)
	w.Size += n
	return n, err
}

func (w *calcSizeWriter) Bytes() []byte {
	return w.writer.(*bytes.Buffer).Bytes()
}

func newSizeWriter() *calcSizeWriter {
	return &calcSizeWriter{writer: bytes.NewBuffer(nil)}
}

func calcPadding(offset, paddingUnit int) int {
	padding := offset % paddingUnit
	if padding != 0 {
		padding = paddingUnit - padding
	}
	return padding
}

// GetGltfBinary encodes doc as GLB, padded with spaces to a multiple of
// paddingUnit bytes.
func GetGltfBinary(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	w := newSizeWriter()
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if paddingUnit <= 0 {
		return w.Bytes(), nil
	}
	padding := calcPadding(w.Size, paddingUnit)
	if padding == 0 {
		return w.Bytes(), nil
	}
	w.Write(bytes.Repeat([]byte{0x20}, padding))
	return w.Bytes(), nil
}
