// Package wire frames cached renditions for byte providers that have no
// native object metadata.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindEntry byte = 1

	hdrLen = 4 + 1 + 1 + 2 // magic | ver | kind | mlen
	// MaxMeta is the largest metadata block an entry can carry.
	MaxMeta = 0xFFFF
)

var (
	ErrCorrupt      = errors.New("resizecache: corrupt entry")
	ErrMetaTooLarge = errors.New("resizecache: entry metadata too large")
	magic4          = [...]byte{'R', 'S', 'Z', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1=entry) | mlen(u16 be) | meta(mlen) | dlen(u32 be) | data(dlen)
func EncodeEntry(meta, data []byte) ([]byte, error) {
	if len(meta) > MaxMeta {
		return nil, ErrMetaTooLarge
	}
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(meta) + 4 + len(data))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u2 [2]byte
	var u4 [4]byte

	binary.BigEndian.PutUint16(u2[:], uint16(len(meta)))
	buf.Write(u2[:])
	buf.Write(meta)

	binary.BigEndian.PutUint32(u4[:], uint32(len(data)))
	buf.Write(u4[:])
	buf.Write(data)

	return buf.Bytes(), nil
}

// DecodeEntry returns sub-slices of b; callers must not mutate b afterwards.
func DecodeEntry(b []byte) (meta, data []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return nil, nil, ErrCorrupt
	}
	off := 6

	mlen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if mlen > len(b)-off {
		return nil, nil, ErrCorrupt
	}
	meta = b[off : off+mlen]
	off += mlen

	if off+4 > len(b) {
		return nil, nil, ErrCorrupt
	}
	dlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if dlen < 0 || dlen != len(b)-off { // exact: trailing bytes are corruption
		return nil, nil, ErrCorrupt
	}

	return meta, b[off : off+dlen], nil
}

// Sniff reports whether b looks like a framed entry without decoding it.
func Sniff(b []byte) bool {
	return len(b) >= hdrLen && hasMagic(b) && b[4] == version && b[5] == kindEntry
}
