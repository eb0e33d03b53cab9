package wordfreq

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// decode reads one MessagePack value. Maps decode to map[string]any and
// reject non-string keys; extension types are unsupported.
func decode(r io.Reader) (any, error) {
	d := &decoder{r: bufio.NewReader(r)}
	return d.value()
}

type decoder struct {
	r   *bufio.Reader
	buf [8]byte
}

func (d *decoder) uint(size int) (uint64, error) {
	if _, err := io.ReadFull(d.r, d.buf[:size]); err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(d.buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(d.buf[:2])), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(d.buf[:4])), nil
	default:
		return binary.BigEndian.Uint64(d.buf[:8]), nil
	}
}

func (d *decoder) value() (any, error) {
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch {
	case tag <= 0x7f:
		return int64(tag), nil
	case tag >= 0xe0:
		return int64(int8(tag)), nil
	case tag&0xf0 == 0x80:
		return d.mapOf(int(tag & 0x0f))
	case tag&0xf0 == 0x90:
		return d.array(int(tag & 0x0f))
	case tag&0xe0 == 0xa0:
		return d.str(int(tag & 0x1f))
	}

	switch tag {
	case 0xc0:
		return nil, nil
	case 0xc2:
		return false, nil
	case 0xc3:
		return true, nil
	case 0xca:
		v, err := d.uint(4)
		return float64(math.Float32frombits(uint32(v))), err
	case 0xcb:
		v, err := d.uint(8)
		return math.Float64frombits(v), err
	case 0xcc, 0xcd, 0xce, 0xcf:
		v, err := d.uint(1 << (tag - 0xcc))
		return int64(v), err
	case 0xd0:
		v, err := d.uint(1)
		return int64(int8(v)), err
	case 0xd1:
		v, err := d.uint(2)
		return int64(int16(v)), err
	case 0xd2:
		v, err := d.uint(4)
		return int64(int32(v)), err
	case 0xd3:
		v, err := d.uint(8)
		return int64(v), err
	}

	var kind byte
	var size int
	switch tag {
	case 0xc4, 0xd9:
		kind, size = tag, 1
	case 0xc5, 0xda, 0xdc, 0xde:
		kind, size = tag, 2
	case 0xc6, 0xdb, 0xdd, 0xdf:
		kind, size = tag, 4
	default:
		return nil, fmt.Errorf("unsupported msgpack tag 0x%02x", tag)
	}
	n, err := d.uint(size)
	if err != nil {
		return nil, err
	}
	switch kind {
	case 0xc4, 0xc5, 0xc6:
		return d.bytes(int(n))
	case 0xd9, 0xda, 0xdb:
		return d.str(int(n))
	case 0xdc, 0xdd:
		return d.array(int(n))
	default:
		return d.mapOf(int(n))
	}
}

func (d *decoder) bytes(n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(d.r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *decoder) str(n int) (string, error) {
	b, err := d.bytes(n)
	return string(b), err
}

func (d *decoder) array(n int) ([]any, error) {
	out := make([]any, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) mapOf(n int) (map[string]any, error) {
	out := make(map[string]any, min(n, 1<<10))
	for i := 0; i < n; i++ {
		k, err := d.value()
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("msgpack map key is %T, want string", k)
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
