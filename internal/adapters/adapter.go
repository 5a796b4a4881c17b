package adapters

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Adapter is the transport surface an instrument owner drives. Write sends
// one command, Read receives one reply; framing is the adapter's business.
type Adapter interface {
	Write(command string) error
	Read() (string, error)
	Close() error
}

// Logger is the logging interface adapters use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// decodeBinaryBlock parses an IEEE 488.2 definite-length block
// ("#<n><length><payload>") of little-endian float32 samples.
func decodeBinaryBlock(block []byte) ([]float64, error) {
	if len(block) < 2 || block[0] != '#' {
		return nil, fmt.Errorf("%w: missing '#' header", ErrBadBinaryBlock)
	}
	nDigits := int(block[1] - '0')
	if nDigits < 1 || nDigits > 9 {
		return nil, fmt.Errorf("%w: bad digit count %q", ErrBadBinaryBlock, block[1])
	}
	if len(block) < 2+nDigits {
		return nil, fmt.Errorf("%w: truncated length field", ErrBadBinaryBlock)
	}
	length, err := strconv.Atoi(string(block[2 : 2+nDigits]))
	if err != nil {
		return nil, fmt.Errorf("%w: length field: %v", ErrBadBinaryBlock, err)
	}
	payload := block[2+nDigits:]
	if len(payload) < length {
		return nil, fmt.Errorf("%w: payload %d bytes, header says %d",
			ErrBadBinaryBlock, len(payload), length)
	}
	payload = payload[:length]
	if length%4 != 0 {
		return nil, fmt.Errorf("%w: payload not a whole number of float32", ErrBadBinaryBlock)
	}

	out := make([]float64, length/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(payload[i*4:])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out, nil
}

// encodeBinaryBlock renders samples as an IEEE 488.2 definite-length block
// of little-endian float32, the inverse of decodeBinaryBlock. The test
// adapters use it to script binary replies.
func encodeBinaryBlock(samples []float64) []byte {
	payload := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(float32(s)))
	}
	length := strconv.Itoa(len(payload))
	block := make([]byte, 0, 2+len(length)+len(payload))
	block = append(block, '#', byte('0'+len(length)))
	block = append(block, length...)
	block = append(block, payload...)
	return block
}
