package edm

import (
	"errors"
	"fmt"
)

var (
	ErrNoSelection            = errors.New("no root node selected")
	ErrSizeMismatch           = errors.New("attribute length does not match declared count")
	ErrIncompleteAttributeSet = errors.New("attribute set is not fully populated")
	ErrIndexOutOfRange        = errors.New("triangle index out of range")
	ErrStructureSizeMismatch  = errors.New("declared part count does not match parts")
	ErrUVCountMismatch        = errors.New("uv count differs from vertex count")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrMissingUVChannel       = errors.New("uv channel not present")
	ErrNotTriangulated        = errors.New("mesh is not triangulated")
	ErrNoMesh                 = errors.New("node has no mesh")
	ErrSharedPart             = errors.New("part appears more than once in structure")
	ErrCountOverflow          = errors.New("count does not fit in uint32")
)

// IOError reports a failure of the underlying sink or source. Err is the
// error returned by the stream, untouched.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("edm: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}
