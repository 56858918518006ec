package edm

const EDM_EXT string = ".EDM"

// DEFAULT_UV_CHANNEL is the host's first texture mapping channel.
const DEFAULT_UV_CHANNEL int = 1

// MaxNameLength bounds part and structure names accepted by the reader.
const MaxNameLength uint32 = 1 << 20

const (
	vec3Size     = 12
	triangleSize = 12
)

// Triangle 三角形顶点索引
type Triangle [3]uint32

func (t Triangle) maxIndex() uint32 {
	m := t[0]
	if t[1] > m {
		m = t[1]
	}
	if t[2] > m {
		m = t[2]
	}
	return m
}
