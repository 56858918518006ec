package edm

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// Container layout, all values little-endian:
//
//	Structure: name string, part_count u32, parts[part_count]
//	Part:      name string, vertex_count u32, index_count u32, uv_count u32,
//	           positions[vertex_count] vec3, normals[vertex_count] vec3,
//	           tangents[vertex_count] vec3, indices[index_count] [3]u32,
//	           uvs[uv_count] vec3
//
// A string is a u32 byte length followed by the bytes. A vec3 is three
// IEEE-754 float32.

type encoder struct {
	wt      io.Writer
	scratch [12]byte
	n       int64
}

func (e *encoder) write(p []byte) error {
	n, err := e.wt.Write(p)
	e.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return ioError("write", err)
}

func (e *encoder) writeUint32(v uint32) error {
	binary.LittleEndian.PutUint32(e.scratch[:4], v)
	return e.write(e.scratch[:4])
}

func (e *encoder) writeString(s string) error {
	if err := e.writeUint32(uint32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return e.write([]byte(s))
}

func (e *encoder) writeVec3s(vs []vec3.T) error {
	for i := range vs {
		binary.LittleEndian.PutUint32(e.scratch[0:4], math.Float32bits(vs[i][0]))
		binary.LittleEndian.PutUint32(e.scratch[4:8], math.Float32bits(vs[i][1]))
		binary.LittleEndian.PutUint32(e.scratch[8:12], math.Float32bits(vs[i][2]))
		if err := e.write(e.scratch[:12]); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeTriangles(ts []Triangle) error {
	for i := range ts {
		binary.LittleEndian.PutUint32(e.scratch[0:4], ts[i][0])
		binary.LittleEndian.PutUint32(e.scratch[4:8], ts[i][1])
		binary.LittleEndian.PutUint32(e.scratch[8:12], ts[i][2])
		if err := e.write(e.scratch[:12]); err != nil {
			return err
		}
	}
	return nil
}

func PartMarshal(wt io.Writer, p *Part) error {
	if err := p.Finalize(); err != nil {
		return err
	}
	return (&encoder{wt: wt}).part(p)
}

func (e *encoder) part(p *Part) error {
	if err := e.writeString(p.Name); err != nil {
		return err
	}
	if err := e.writeUint32(uint32(p.VertexCount())); err != nil {
		return err
	}
	if err := e.writeUint32(uint32(p.IndexCount())); err != nil {
		return err
	}
	if err := e.writeUint32(uint32(p.UVCount())); err != nil {
		return err
	}
	if err := e.writeVec3s(p.Vertices()); err != nil {
		return err
	}
	if err := e.writeVec3s(p.Normals()); err != nil {
		return err
	}
	if err := e.writeVec3s(p.Tangents()); err != nil {
		return err
	}
	if err := e.writeTriangles(p.Indices()); err != nil {
		return err
	}
	return e.writeVec3s(p.UVs())
}

// StructureMarshal validates s and then writes it to wt. Nothing is written
// when validation fails. A sink error aborts the write and is returned as an
// *IOError; bytes already accepted by wt stay there.
func StructureMarshal(wt io.Writer, s *Structure) error {
	_, err := structureMarshal(wt, s)
	return err
}

func structureMarshal(wt io.Writer, s *Structure) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	e := &encoder{wt: wt}
	if err := e.writeString(s.Name); err != nil {
		return e.n, err
	}
	if err := e.writeUint32(uint32(len(s.Parts))); err != nil {
		return e.n, err
	}
	for _, p := range s.Parts {
		if err := e.part(p); err != nil {
			return e.n, errors.Wrapf(err, "part %q", p.Name)
		}
	}
	return e.n, nil
}

// StructureWriteTo validates s, creates path and writes the container. The
// file is closed on every return path.
func StructureWriteTo(path string, s *Structure) (n int64, err error) {
	if err = s.Validate(); err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err = os.MkdirAll(dir, os.ModePerm); err != nil {
			return 0, ioError("mkdir", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, ioError("create", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ioError("close", cerr)
		}
	}()
	bw := bufio.NewWriter(f)
	if n, err = structureMarshal(bw, s); err != nil {
		return n, err
	}
	if ferr := bw.Flush(); ferr != nil {
		return n, ioError("flush", ferr)
	}
	return n, nil
}

type decoder struct {
	rd      io.Reader
	scratch [12]byte
}

func (d *decoder) read(p []byte) error {
	if _, err := io.ReadFull(d.rd, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return ioError("read", err)
	}
	return nil
}

func (d *decoder) readUint32() (uint32, error) {
	if err := d.read(d.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(d.scratch[:4]), nil
}

func (d *decoder) readString() (string, error) {
	size, err := d.readUint32()
	if err != nil {
		return "", err
	}
	if size > MaxNameLength {
		return "", errors.Wrapf(ErrNameTooLong, "%d bytes", size)
	}
	buf := make([]byte, size)
	if err := d.read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// preallocation cap so a corrupt count cannot force a huge allocation before
// the stream runs dry
const maxPrealloc = 1 << 16

func capHint(n uint32) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return int(n)
}

func (d *decoder) readVec3s(n uint32) ([]vec3.T, error) {
	vs := make([]vec3.T, 0, capHint(n))
	for i := uint32(0); i < n; i++ {
		if err := d.read(d.scratch[:12]); err != nil {
			return nil, err
		}
		vs = append(vs, vec3.T{
			math.Float32frombits(binary.LittleEndian.Uint32(d.scratch[0:4])),
			math.Float32frombits(binary.LittleEndian.Uint32(d.scratch[4:8])),
			math.Float32frombits(binary.LittleEndian.Uint32(d.scratch[8:12])),
		})
	}
	return vs, nil
}

func (d *decoder) readTriangles(n uint32) ([]Triangle, error) {
	ts := make([]Triangle, 0, capHint(n))
	for i := uint32(0); i < n; i++ {
		if err := d.read(d.scratch[:12]); err != nil {
			return nil, err
		}
		ts = append(ts, Triangle{
			binary.LittleEndian.Uint32(d.scratch[0:4]),
			binary.LittleEndian.Uint32(d.scratch[4:8]),
			binary.LittleEndian.Uint32(d.scratch[8:12]),
		})
	}
	return ts, nil
}

func (d *decoder) part() (*Part, error) {
	name, err := d.readString()
	if err != nil {
		return nil, err
	}
	var counts [3]uint32
	for i := range counts {
		if counts[i], err = d.readUint32(); err != nil {
			return nil, errors.Wrapf(err, "part %q header", name)
		}
	}
	vertexCount, indexCount, uvCount := counts[0], counts[1], counts[2]
	if uvCount != vertexCount {
		return nil, errors.Wrapf(ErrUVCountMismatch, "part %q: uv %d, vertex %d", name, uvCount, vertexCount)
	}

	var attrs [3][]vec3.T
	for i := range attrs {
		if attrs[i], err = d.readVec3s(vertexCount); err != nil {
			return nil, errors.Wrapf(err, "part %q", name)
		}
	}
	tris, err := d.readTriangles(indexCount)
	if err != nil {
		return nil, errors.Wrapf(err, "part %q", name)
	}
	uvs, err := d.readVec3s(uvCount)
	if err != nil {
		return nil, errors.Wrapf(err, "part %q", name)
	}

	p := NewPart(name, int(vertexCount), int(indexCount))
	if err := p.SetVertices(attrs[0]); err != nil {
		return nil, err
	}
	if err := p.SetNormals(attrs[1]); err != nil {
		return nil, err
	}
	if err := p.SetTangents(attrs[2]); err != nil {
		return nil, err
	}
	if err := p.SetIndices(tris); err != nil {
		return nil, err
	}
	if err := p.SetUVs(uvs); err != nil {
		return nil, err
	}
	return p, nil
}

func PartUnMarshal(rd io.Reader) (*Part, error) {
	return (&decoder{rd: rd}).part()
}

// StructureUnMarshal decodes a container written by StructureMarshal.
func StructureUnMarshal(rd io.Reader) (*Structure, error) {
	d := &decoder{rd: rd}
	name, err := d.readString()
	if err != nil {
		return nil, errors.Wrap(err, "structure header")
	}
	count, err := d.readUint32()
	if err != nil {
		return nil, errors.Wrap(err, "structure header")
	}
	s := &Structure{Name: name, PartCount: int(count), Parts: make([]*Part, 0, capHint(count))}
	for i := uint32(0); i < count; i++ {
		p, err := d.part()
		if err != nil {
			return nil, errors.Wrapf(err, "part %d", i)
		}
		s.AddPart(p)
	}
	return s, nil
}

func StructureReadFrom(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", err)
	}
	defer f.Close()
	return StructureUnMarshal(bufio.NewReader(f))
}
