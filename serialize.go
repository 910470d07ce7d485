package xorset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Magic identifies an encoded Xor8. The byte after it is the format version.
	Magic = "XF8"

	// Version is the format version written by MarshalBinary.
	Version byte = 1

	// HeaderSize is Magic (3) + Version (1) + Seed (8) + BlockLength (4).
	HeaderSize = 16

	// maxBlockLength keeps 3*BlockLength inside uint32.
	maxBlockLength = (1<<32 - 1) / 3
)

// MarshalBinary encodes the filter as:
//   - Magic and Version (4 bytes)
//   - Seed (8 bytes, little-endian)
//   - BlockLength (4 bytes, little-endian)
//   - Fingerprints (3*BlockLength bytes)
func (filter *Xor8) MarshalBinary() ([]byte, error) {
	buf := make([]byte, filter.SizeInBytes())
	filter.putHeader(buf)
	copy(buf[HeaderSize:], filter.Fingerprints)
	return buf, nil
}

func (filter *Xor8) putHeader(buf []byte) {
	copy(buf[0:3], Magic)
	buf[3] = Version
	binary.LittleEndian.PutUint64(buf[4:12], filter.Seed)
	binary.LittleEndian.PutUint32(buf[12:16], filter.BlockLength)
}

// UnmarshalBinary decodes a filter written by MarshalBinary.
func UnmarshalBinary(data []byte) (*Xor8, error) {
	common, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	want := HeaderSize + common.tableBytes()
	if int64(len(data)) != want {
		return nil, fmt.Errorf("%w: data length mismatch (got %d bytes, expected %d)", ErrInvalidData, len(data), want)
	}
	filter := &Xor8{
		XorFilterCommon: common,
		Fingerprints:    make([]uint8, 3*common.BlockLength),
	}
	copy(filter.Fingerprints, data[HeaderSize:])
	return filter, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. filter is left
// untouched on error.
func (filter *Xor8) UnmarshalBinary(data []byte) error {
	decoded, err := UnmarshalBinary(data)
	if err != nil {
		return err
	}
	*filter = *decoded
	return nil
}

// WriteTo writes the MarshalBinary encoding to w.
func (filter *Xor8) WriteTo(w io.Writer) (int64, error) {
	var hdr [HeaderSize]byte
	filter.putHeader(hdr[:])
	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(filter.Fingerprints)
	return int64(n + m), err
}

// ReadFrom reads exactly one encoded filter from r.
func ReadFrom(r io.Reader) (*Xor8, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidData, err)
	}
	common, err := decodeHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	// the header's length is not trusted: memory grows with the bytes
	// actually read
	want := common.tableBytes()
	var table bytes.Buffer
	n, err := table.ReadFrom(io.LimitReader(r, want))
	if err != nil {
		return nil, fmt.Errorf("%w: reading fingerprints: %v", ErrInvalidData, err)
	}
	if n != want {
		return nil, fmt.Errorf("%w: got %d fingerprint bytes, expected %d", ErrInvalidData, n, want)
	}
	fingerprints := table.Bytes()
	return &Xor8{XorFilterCommon: common, Fingerprints: fingerprints[:n:n]}, nil
}

func (common XorFilterCommon) tableBytes() int64 {
	return 3 * int64(common.BlockLength)
}

func decodeHeader(data []byte) (XorFilterCommon, error) {
	if len(data) < HeaderSize {
		return XorFilterCommon{}, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), HeaderSize)
	}
	if string(data[0:3]) != Magic {
		return XorFilterCommon{}, fmt.Errorf("%w: %q", ErrBadMagic, data[0:3])
	}
	if data[3] != Version {
		return XorFilterCommon{}, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, data[3], Version)
	}
	common := XorFilterCommon{
		Seed:        binary.LittleEndian.Uint64(data[4:12]),
		BlockLength: binary.LittleEndian.Uint32(data[12:16]),
	}
	if common.BlockLength == 0 {
		return XorFilterCommon{}, fmt.Errorf("%w: block length cannot be zero", ErrInvalidData)
	}
	if common.BlockLength > maxBlockLength {
		return XorFilterCommon{}, fmt.Errorf("%w: block length too large (%d)", ErrInvalidData, common.BlockLength)
	}
	return common, nil
}
