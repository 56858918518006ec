package edm

import (
	"math"

	"github.com/pkg/errors"
)

// Structure is the top-level container of one export. Part order is the
// order parts are written in.
type Structure struct {
	Name      string
	PartCount int
	Parts     []*Part
}

// NewStructure declares the number of parts the structure will hold.
func NewStructure(name string, partCount int) *Structure {
	return &Structure{
		Name:      name,
		PartCount: partCount,
		Parts:     make([]*Part, 0, partCount),
	}
}

func (s *Structure) AddPart(p *Part) {
	s.Parts = append(s.Parts, p)
}

// SetParts replaces the part list. The declared count is left alone so a
// short or long list is still caught when the structure is written.
func (s *Structure) SetParts(parts []*Part) {
	s.Parts = parts
}

func (s *Structure) PartByName(name string) *Part {
	for _, p := range s.Parts {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// Validate runs every check the writer performs before emitting a byte.
func (s *Structure) Validate() error {
	if s.PartCount != len(s.Parts) {
		return errors.Wrapf(ErrStructureSizeMismatch, "structure %q: declared %d, have %d", s.Name, s.PartCount, len(s.Parts))
	}
	if uint64(len(s.Name)) > uint64(MaxNameLength) {
		return errors.Wrapf(ErrNameTooLong, "structure name %d bytes", len(s.Name))
	}
	if uint64(len(s.Parts)) > math.MaxUint32 {
		return errors.Wrapf(ErrCountOverflow, "structure %q: %d parts", s.Name, len(s.Parts))
	}
	seen := make(map[*Part]int, len(s.Parts))
	for i, p := range s.Parts {
		if p == nil {
			return errors.Wrapf(ErrIncompleteAttributeSet, "structure %q: part %d is nil", s.Name, i)
		}
		if j, ok := seen[p]; ok {
			return errors.Wrapf(ErrSharedPart, "structure %q: part %q at %d and %d", s.Name, p.Name, j, i)
		}
		seen[p] = i
		if uint64(p.vertexCount) > math.MaxUint32 || uint64(p.indexCount) > math.MaxUint32 {
			return errors.Wrapf(ErrCountOverflow, "part %q: %d vertices, %d triangles", p.Name, p.vertexCount, p.indexCount)
		}
		if uint64(len(p.Name)) > uint64(MaxNameLength) {
			return errors.Wrapf(ErrNameTooLong, "part %d name %d bytes", i, len(p.Name))
		}
		if err := p.Finalize(); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the exact number of bytes StructureMarshal emits.
func (s *Structure) Size() int64 {
	n := 4 + int64(len(s.Name)) + 4
	for _, p := range s.Parts {
		if p != nil {
			n += p.size()
		}
	}
	return n
}
