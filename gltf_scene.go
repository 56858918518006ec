package edm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const texCoordPrefix = "TEXCOORD_"

// GltfScene exposes a glTF document as a host scene. Mapping channel n reads
// the TEXCOORD_{n-1} attribute; primitives of one mesh are merged into a
// single vertex list.
type GltfScene struct {
	Doc *gltf.Document
	// RootName selects a node by name. When empty the first node of the
	// default scene is used.
	RootName string
	Logger   *log.Logger
}

func OpenGltfScene(path string) (*GltfScene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gltf %s", path)
	}
	return &GltfScene{Doc: doc}, nil
}

func (s *GltfScene) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func (s *GltfScene) SelectedRoot() (Node, error) {
	if s.Doc == nil {
		return nil, ErrNoSelection
	}
	if s.RootName != "" {
		for i, nd := range s.Doc.Nodes {
			if nd != nil && nd.Name == s.RootName {
				return &gltfNode{scene: s, index: uint32(i)}, nil
			}
		}
		return nil, errors.Wrapf(ErrNoSelection, "node %q not found", s.RootName)
	}
	var scene uint32
	if s.Doc.Scene != nil {
		scene = *s.Doc.Scene
	}
	if int(scene) >= len(s.Doc.Scenes) || s.Doc.Scenes[scene] == nil || len(s.Doc.Scenes[scene].Nodes) == 0 {
		return nil, ErrNoSelection
	}
	return &gltfNode{scene: s, index: s.Doc.Scenes[scene].Nodes[0]}, nil
}

type gltfNode struct {
	scene *GltfScene
	index uint32
}

func (n *gltfNode) node() *gltf.Node {
	return n.scene.Doc.Nodes[n.index]
}

func (n *gltfNode) Name() string {
	if nm := n.node().Name; nm != "" {
		return nm
	}
	return fmt.Sprintf("node_%d", n.index)
}

func (n *gltfNode) Children() []Node {
	children := n.node().Children
	nodes := make([]Node, 0, len(children))
	for _, c := range children {
		if int(c) < len(n.scene.Doc.Nodes) {
			nodes = append(nodes, &gltfNode{scene: n.scene, index: c})
		}
	}
	return nodes
}

func (n *gltfNode) Mesh() (MeshView, error) {
	nd := n.node()
	if nd.Mesh == nil || int(*nd.Mesh) >= len(n.scene.Doc.Meshes) {
		return nil, errors.Wrapf(ErrNoMesh, "node %q", n.Name())
	}
	return n.scene.loadMesh(n.scene.Doc.Meshes[*nd.Mesh])
}

func texCoordSet(attrs gltf.Attribute) map[int]uint32 {
	sets := make(map[int]uint32)
	for name, acc := range attrs {
		if !strings.HasPrefix(name, texCoordPrefix) {
			continue
		}
		set, err := strconv.Atoi(strings.TrimPrefix(name, texCoordPrefix))
		if err != nil || set < 0 {
			continue
		}
		sets[set] = acc
	}
	return sets
}

func (s *GltfScene) accessor(idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(s.Doc.Accessors) || s.Doc.Accessors[idx] == nil {
		return nil, errors.Errorf("accessor %d out of range", idx)
	}
	return s.Doc.Accessors[idx], nil
}

func (s *GltfScene) loadMesh(mh *gltf.Mesh) (*MeshData, error) {
	md := &MeshData{UVs: make(map[int][]vec3.T)}
	var channels map[int]bool
	for pi, ps := range mh.Primitives {
		if ps.Mode != gltf.PrimitiveTriangles {
			s.logger().Warn("skipping non-triangle primitive", "mesh", mh.Name, "primitive", pi, "mode", ps.Mode)
			continue
		}
		posIdx, ok := ps.Attributes[gltf.POSITION]
		if !ok {
			s.logger().Warn("skipping primitive without positions", "mesh", mh.Name, "primitive", pi)
			continue
		}
		acc, err := s.accessor(posIdx)
		if err != nil {
			return nil, err
		}
		positions, err := modeler.ReadPosition(s.Doc, acc, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %q primitive %d positions", mh.Name, pi)
		}
		base := uint32(len(md.Vertices))
		for _, p := range positions {
			md.Vertices = append(md.Vertices, vec3.T(p))
		}

		var tris []Triangle
		if ps.Indices != nil {
			acc, err := s.accessor(*ps.Indices)
			if err != nil {
				return nil, err
			}
			indices, err := modeler.ReadIndices(s.Doc, acc, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %q primitive %d indices", mh.Name, pi)
			}
			if len(indices)%3 != 0 {
				return nil, errors.Wrapf(ErrNotTriangulated, "mesh %q primitive %d has %d indices", mh.Name, pi, len(indices))
			}
			for i := 0; i < len(indices); i += 3 {
				tris = append(tris, Triangle{indices[i] + base, indices[i+1] + base, indices[i+2] + base})
			}
		} else {
			if len(positions)%3 != 0 {
				return nil, errors.Wrapf(ErrNotTriangulated, "mesh %q primitive %d has %d vertices", mh.Name, pi, len(positions))
			}
			for i := uint32(0); i < uint32(len(positions)); i += 3 {
				tris = append(tris, Triangle{base + i, base + i + 1, base + i + 2})
			}
		}
		md.Faces = append(md.Faces, tris...)

		if nlIdx, ok := ps.Attributes[gltf.NORMAL]; ok {
			acc, err := s.accessor(nlIdx)
			if err != nil {
				return nil, err
			}
			normals, err := modeler.ReadNormal(s.Doc, acc, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %q primitive %d normals", mh.Name, pi)
			}
			if len(normals) != len(positions) {
				return nil, errors.Wrapf(ErrSizeMismatch, "mesh %q primitive %d normals", mh.Name, pi)
			}
			for _, n := range normals {
				md.Normals = append(md.Normals, vec3.T(n))
			}
		} else {
			md.Normals = append(md.Normals, faceNormals(md.Vertices[base:], tris, base)...)
		}

		sets := texCoordSet(ps.Attributes)
		present := make(map[int]bool, len(sets))
		for set, idx := range sets {
			acc, err := s.accessor(idx)
			if err != nil {
				return nil, err
			}
			tcs, err := modeler.ReadTextureCoord(s.Doc, acc, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %q primitive %d %s%d", mh.Name, pi, texCoordPrefix, set)
			}
			if len(tcs) != len(positions) {
				return nil, errors.Wrapf(ErrSizeMismatch, "mesh %q primitive %d %s%d", mh.Name, pi, texCoordPrefix, set)
			}
			channel := set + 1
			for _, tc := range tcs {
				md.UVs[channel] = append(md.UVs[channel], uvFromVec2(vec2.T(tc)))
			}
			present[channel] = true
		}
		// a channel survives only when every merged primitive provides it
		if channels == nil {
			channels = present
		} else {
			for ch := range channels {
				if !present[ch] {
					delete(channels, ch)
				}
			}
		}
	}
	for ch := range md.UVs {
		if !channels[ch] {
			delete(md.UVs, ch)
		}
	}
	return md, nil
}

// Channels lists the mapping channels available on a loaded mesh.
func (m *MeshData) Channels() []int {
	chs := make([]int, 0, len(m.UVs))
	for ch := range m.UVs {
		chs = append(chs, ch)
	}
	sort.Ints(chs)
	return chs
}

func uvFromVec2(tc vec2.T) vec3.T {
	return vec3.T{tc[0], tc[1], 0}
}

// faceNormals averages the unit normals of the triangles around each vertex.
// tris index the whole mesh, verts starts at base.
func faceNormals(verts []vec3.T, tris []Triangle, base uint32) []vec3.T {
	normals := make([]vec3.T, len(verts))
	for _, f := range tris {
		i0, i1, i2 := f[0]-base, f[1]-base, f[2]-base
		if int(i0) >= len(verts) || int(i1) >= len(verts) || int(i2) >= len(verts) {
			continue
		}
		pt1 := verts[i0]
		pt2 := verts[i1]
		pt3 := verts[i2]

		sub1 := vec3.Sub(&pt3, &pt2)
		sub2 := vec3.Sub(&pt1, &pt2)

		cro := vec3.Cross(&sub1, &sub2)
		l := cro.Length()
		if l == 0 {
			continue
		}
		weighted := cro.Scale(1 / l)

		normals[i0].Add(weighted)
		normals[i1].Add(weighted)
		normals[i2].Add(weighted)
	}
	for i := range normals {
		if normals[i].Length() > 0 {
			normals[i].Normalize()
		}
	}
	return normals
}
