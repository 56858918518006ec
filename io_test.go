package edm

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/flywave/go3d/vec3"
)

type failWriter struct {
	limit int
	n     int
	err   error
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, w.err
	}
	w.n += len(p)
	return len(p), nil
}

func TestStructureRoundTrip(t *testing.T) {
	want := scenarioStructure(t)
	var buf bytes.Buffer
	mustNoErr(t, StructureMarshal(&buf, want))

	got, err := StructureUnMarshal(&buf)
	mustNoErr(t, err)
	if got.Name != "Root" || got.PartCount != 1 || len(got.Parts) != 1 {
		t.Fatalf("header: got %q, %d, %d parts", got.Name, got.PartCount, len(got.Parts))
	}
	assertPartsEqual(t, want.Parts[0], got.Parts[0])
	if buf.Len() != 0 {
		t.Errorf("%d trailing bytes left", buf.Len())
	}
}

func TestScenarioValues(t *testing.T) {
	var buf bytes.Buffer
	mustNoErr(t, StructureMarshal(&buf, scenarioStructure(t)))
	s, err := StructureUnMarshal(&buf)
	mustNoErr(t, err)

	p := s.Parts[0]
	if p.Name != "Body" || p.VertexCount() != 3 || p.IndexCount() != 1 || p.UVCount() != 3 {
		t.Fatalf("part header: %q %d/%d/%d", p.Name, p.VertexCount(), p.IndexCount(), p.UVCount())
	}
	checks := []struct {
		name string
		got  []vec3.T
		want []vec3.T
	}{
		{"positions", p.Vertices(), []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
		{"normals", p.Normals(), []vec3.T{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}},
		{"uvs", p.UVs(), []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
		{"tangents", p.Tangents(), []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 0, 0}}},
	}
	for _, c := range checks {
		if !sameBits(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if p.Indices()[0] != (Triangle{0, 1, 2}) {
		t.Errorf("indices = %v", p.Indices())
	}
}

func TestScenarioLayout(t *testing.T) {
	var buf bytes.Buffer
	s := scenarioStructure(t)
	mustNoErr(t, StructureMarshal(&buf, s))
	if int64(buf.Len()) != s.Size() || buf.Len() != 188 {
		t.Fatalf("len = %d, Size() = %d, want 188", buf.Len(), s.Size())
	}

	header := []byte{
		4, 0, 0, 0, 'R', 'o', 'o', 't',
		1, 0, 0, 0,
		4, 0, 0, 0, 'B', 'o', 'd', 'y',
		3, 0, 0, 0,
		1, 0, 0, 0,
		3, 0, 0, 0,
	}
	b := buf.Bytes()
	if !bytes.Equal(b[:len(header)], header) {
		t.Fatalf("header = % x, want % x", b[:len(header)], header)
	}
	// second position (1,0,0)
	off := len(header) + 12
	if !bytes.Equal(b[off:off+12], []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("position 1 = % x", b[off:off+12])
	}
	// indices follow three vec3 arrays
	off = len(header) + 3*3*12
	if !bytes.Equal(b[off:off+12], []byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}) {
		t.Errorf("indices = % x", b[off:off+12])
	}
}

func TestStructureDeterministic(t *testing.T) {
	s := scenarioStructure(t)
	var a, b bytes.Buffer
	mustNoErr(t, StructureMarshal(&a, s))
	mustNoErr(t, StructureMarshal(&b, s))
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Errorf("two writes differ")
	}
}

func TestEmptyStructure(t *testing.T) {
	s := NewStructure("Empty", 0)
	var buf bytes.Buffer
	mustNoErr(t, StructureMarshal(&buf, s))

	want := []byte{5, 0, 0, 0, 'E', 'm', 'p', 't', 'y', 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("empty container = % x, want % x", buf.Bytes(), want)
	}
	got, err := StructureUnMarshal(&buf)
	mustNoErr(t, err)
	if got.Name != "Empty" || got.PartCount != 0 || len(got.Parts) != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestRoundTripBitExact(t *testing.T) {
	odd := []vec3.T{
		{float32(math.Copysign(0, -1)), math.Float32frombits(1), math.MaxFloat32},
		{-math.MaxFloat32, math.SmallestNonzeroFloat32, 0.1},
	}
	p := NewPart("odd", 2, 0)
	mustNoErr(t, p.SetVertices(odd))
	mustNoErr(t, p.SetNormals(odd))
	mustNoErr(t, p.SetTangents(odd))
	mustNoErr(t, p.SetIndices(nil))
	mustNoErr(t, p.SetUVs(odd))

	a := NewStructure("", 2)
	a.AddPart(p)
	a.AddPart(scenarioPart(t))

	var buf bytes.Buffer
	mustNoErr(t, StructureMarshal(&buf, a))
	b, err := StructureUnMarshal(&buf)
	mustNoErr(t, err)
	if len(b.Parts) != 2 {
		t.Fatalf("parts = %d", len(b.Parts))
	}
	for i := range a.Parts {
		assertPartsEqual(t, a.Parts[i], b.Parts[i])
	}
}

func TestMarshalFailsBeforeWriting(t *testing.T) {
	tests := []struct {
		name   string
		build  func(t *testing.T) *Structure
		target error
	}{
		{"part count", func(t *testing.T) *Structure {
			s := scenarioStructure(t)
			s.PartCount = 3
			return s
		}, ErrStructureSizeMismatch},
		{"incomplete part", func(t *testing.T) *Structure {
			s := scenarioStructure(t)
			s.PartCount = 2
			s.AddPart(NewPart("Half", 3, 1))
			return s
		}, ErrIncompleteAttributeSet},
		{"index out of range", func(t *testing.T) *Structure {
			s := scenarioStructure(t)
			s.Parts[0].Buffers().indices[0] = Triangle{3, 0, 0}
			return s
		}, ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			expectErr(t, StructureMarshal(&buf, tt.build(t)), tt.target)
			if buf.Len() != 0 {
				t.Errorf("%d bytes written before failing", buf.Len())
			}
		})
	}
}

func TestMarshalSinkFailure(t *testing.T) {
	sinkErr := errors.New("disk full")
	s := scenarioStructure(t)
	for _, limit := range []int{0, 3, 8, 40, 187} {
		w := &failWriter{limit: limit, err: sinkErr}
		err := StructureMarshal(w, s)
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("limit %d: expected *IOError, got %v", limit, err)
		}
		if !errors.Is(err, sinkErr) {
			t.Errorf("limit %d: underlying error lost: %v", limit, err)
		}
	}

	// a writer that reports a short count without an error
	w := &failWriter{limit: 10}
	expectErr(t, StructureMarshal(w, s), io.ErrShortWrite)
}

func TestUnMarshalTruncated(t *testing.T) {
	var buf bytes.Buffer
	mustNoErr(t, StructureMarshal(&buf, scenarioStructure(t)))
	full := buf.Bytes()
	for _, n := range []int{0, 2, 8, 11, 20, 50, 187} {
		_, err := StructureUnMarshal(bytes.NewReader(full[:n]))
		expectErr(t, err, io.ErrUnexpectedEOF)
	}
}

func TestUnMarshalRejects(t *testing.T) {
	t.Run("uv count", func(t *testing.T) {
		raw := []byte{
			0, 0, 0, 0, 1, 0, 0, 0,
			0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0,
		}
		_, err := StructureUnMarshal(bytes.NewReader(raw))
		expectErr(t, err, ErrUVCountMismatch)
	})
	t.Run("name length", func(t *testing.T) {
		raw := []byte{0xff, 0xff, 0xff, 0xff}
		_, err := StructureUnMarshal(bytes.NewReader(raw))
		expectErr(t, err, ErrNameTooLong)
	})
	t.Run("index", func(t *testing.T) {
		var buf bytes.Buffer
		mustNoErr(t, StructureMarshal(&buf, scenarioStructure(t)))
		b := buf.Bytes()
		off := 32 + 3*3*12
		b[off] = 9
		_, err := StructureUnMarshal(bytes.NewReader(b))
		expectErr(t, err, ErrIndexOutOfRange)
	})
}

func TestPartMarshal(t *testing.T) {
	p := scenarioPart(t)
	var buf bytes.Buffer
	mustNoErr(t, PartMarshal(&buf, p))
	if int64(buf.Len()) != p.size() {
		t.Errorf("part len = %d, size() = %d", buf.Len(), p.size())
	}
	got, err := PartUnMarshal(&buf)
	mustNoErr(t, err)
	assertPartsEqual(t, p, got)

	expectErr(t, PartMarshal(&buf, NewPart("x", 1, 0)), ErrIncompleteAttributeSet)
}

func TestStructureFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Root"+EDM_EXT)
	s := scenarioStructure(t)
	n, err := StructureWriteTo(path, s)
	mustNoErr(t, err)
	if n != s.Size() {
		t.Errorf("wrote %d bytes, want %d", n, s.Size())
	}

	got, err := StructureReadFrom(path)
	mustNoErr(t, err)
	assertPartsEqual(t, s.Parts[0], got.Parts[0])
}

func TestStructureWriteToNoFileOnValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+EDM_EXT)
	s := scenarioStructure(t)
	s.PartCount = 0
	_, err := StructureWriteTo(path, s)
	expectErr(t, err, ErrStructureSizeMismatch)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file created despite validation failure: %v", err)
	}
}

func TestStructureReadFromMissing(t *testing.T) {
	_, err := StructureReadFrom(filepath.Join(t.TempDir(), "missing.EDM"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) || !os.IsNotExist(ioErr.Err) {
		t.Errorf("expected *IOError wrapping not-exist, got %v", err)
	}
}
