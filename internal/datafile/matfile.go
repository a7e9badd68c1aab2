package datafile

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	matHeaderLen = 128

	miINT8       = 1
	miUINT32     = 6
	miINT32      = 5
	miMATRIX     = 14
	miCOMPRESSED = 15

	matFlagGlobal = 0x0400

	// matCompressedPrefix bounds how much of a compressed element is
	// inflated; the matrix header sits at its start
	matCompressedPrefix = 4096
)

var (
	// ErrMatV73 is returned for HDF5-based MAT files
	ErrMatV73 = errors.New("please use HDF reader for matlab v7.3 files")
	// ErrMatV4 is returned for the headerless Level 4 format
	ErrMatV4 = errors.New("MAT v4 files are not supported")
)

var matClassNames = map[byte]string{
	1:  "cell",
	2:  "struct",
	3:  "object",
	4:  "char",
	5:  "sparse",
	6:  "double",
	7:  "single",
	8:  "int8",
	9:  "uint8",
	10: "int16",
	11: "uint16",
	12: "int32",
	13: "uint32",
	14: "int64",
	15: "uint64",
}

// MatReader summarises the variables of a MATLAB Level 5 MAT-file
type MatReader struct{}

// Read implements Reader
func (MatReader) Read(_ context.Context, path string) (Content, error) {
	// #nosec G304 - path comes from the storage layer
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	mf, err := ParseMat(data)
	if err != nil {
		return nil, err
	}
	return &Object{Repr: mf.String()}, nil
}

// MatVariable is the header of one top-level array
type MatVariable struct {
	Name   string
	Class  string
	Dims   []int32
	Global bool
}

// MatFile is the decoded header and variable list of a MAT-file
type MatFile struct {
	Header    string
	Variables []MatVariable
}

// String mirrors the dictionary a MAT loader returns, with arrays summarised
// by shape and class
func (m *MatFile) String() string {
	items := []string{
		"'__header__': b" + Repr(m.Header),
		"'__version__': '1.0'",
	}

	var globals []string
	for _, v := range m.Variables {
		if v.Global {
			globals = append(globals, Repr(v.Name))
		}
	}
	items = append(items, "'__globals__': ["+strings.Join(globals, ", ")+"]")

	for _, v := range m.Variables {
		dims := make([]string, len(v.Dims))
		for i, d := range v.Dims {
			dims[i] = fmt.Sprint(d)
		}
		items = append(items, fmt.Sprintf("%s: <%s %s>", Repr(v.Name), strings.Join(dims, "x"), v.Class))
	}

	return "{" + strings.Join(items, ", ") + "}"
}

// ParseMat decodes the header and the top-level variable headers of a
// Level 5 MAT-file
func ParseMat(data []byte) (*MatFile, error) {
	if len(data) >= 4 && bytes.IndexByte(data[:4], 0) >= 0 {
		return nil, ErrMatV4
	}
	if len(data) < matHeaderLen {
		return nil, errors.New("mat file is too short")
	}

	var order binary.ByteOrder
	switch string(data[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, errors.New("mat file has no endian indicator")
	}

	version := order.Uint16(data[124:126])
	if version == 0x0200 {
		return nil, ErrMatV73
	}

	mf := &MatFile{
		Header: strings.TrimRight(string(data[:116]), " \x00"),
	}

	if err := walkElements(data[matHeaderLen:], order, mf); err != nil {
		return nil, err
	}
	return mf, nil
}

func walkElements(buf []byte, order binary.ByteOrder, mf *MatFile) error {
	for len(buf) >= 8 {
		typ, size, payload, rest, err := readTag(buf, order)
		if err != nil {
			return err
		}

		switch typ {
		case miCOMPRESSED:
			v, err := compressedMatrixHeader(payload, order)
			if err != nil {
				return err
			}
			if v != nil {
				mf.Variables = append(mf.Variables, *v)
			}
		case miMATRIX:
			if size == 0 {
				break
			}
			v, err := parseMatrixHeader(payload, order)
			if err != nil {
				return err
			}
			mf.Variables = append(mf.Variables, *v)
		}

		buf = rest
	}
	return nil
}

// compressedMatrixHeader inflates the first matCompressedPrefix bytes of a
// compressed element and decodes the matrix header found there. The matrix
// payload itself may be cut off. Elements holding anything but a non-empty
// matrix yield nil.
func compressedMatrixHeader(payload []byte, order binary.ByteOrder) (*MatVariable, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("opening compressed element: %w", err)
	}
	defer zr.Close()

	inner, err := io.ReadAll(io.LimitReader(zr, matCompressedPrefix))
	if err != nil {
		return nil, fmt.Errorf("decompressing element: %w", err)
	}
	if len(inner) < 8 {
		return nil, errors.New("truncated compressed element")
	}

	if order.Uint32(inner[0:4]) != miMATRIX {
		return nil, nil
	}
	size := order.Uint32(inner[4:8])
	if size == 0 {
		return nil, nil
	}
	body := inner[8:]
	if uint64(size) < uint64(len(body)) {
		body = body[:size]
	}
	return parseMatrixHeader(body, order)
}

// readTag splits one data element off buf. Compressed elements are not
// padded; everything else is aligned to eight bytes.
func readTag(buf []byte, order binary.ByteOrder) (typ, size uint32, payload, rest []byte, err error) {
	first := order.Uint32(buf[0:4])

	// Small data element: type and size packed into the first word.
	if first>>16 != 0 {
		typ = first & 0xffff
		size = first >> 16
		if size > 4 {
			return 0, 0, nil, nil, errors.New("invalid small data element")
		}
		return typ, size, buf[4 : 4+size], buf[8:], nil
	}

	typ = first
	size = order.Uint32(buf[4:8])
	end := 8 + int(size)
	if end > len(buf) || end < 8 {
		return 0, 0, nil, nil, fmt.Errorf("data element of %d bytes exceeds file", size)
	}
	payload = buf[8:end]

	if typ != miCOMPRESSED {
		if pad := end % 8; pad != 0 {
			end += 8 - pad
		}
		if end > len(buf) {
			end = len(buf)
		}
	}
	return typ, size, payload, buf[end:], nil
}

func parseMatrixHeader(buf []byte, order binary.ByteOrder) (*MatVariable, error) {
	typ, _, flags, rest, err := readSub(buf, order)
	if err != nil {
		return nil, err
	}
	if typ != miUINT32 || len(flags) < 8 {
		return nil, errors.New("matrix is missing array flags")
	}
	word := order.Uint32(flags[0:4])

	v := &MatVariable{
		Class:  matClassNames[byte(word&0xff)],
		Global: word&matFlagGlobal != 0,
	}
	if v.Class == "" {
		v.Class = fmt.Sprintf("class%d", word&0xff)
	}

	typ, _, dims, rest, err := readSub(rest, order)
	if err != nil {
		return nil, err
	}
	if typ != miINT32 {
		return nil, errors.New("matrix is missing dimensions")
	}
	for i := 0; i+4 <= len(dims); i += 4 {
		v.Dims = append(v.Dims, int32(order.Uint32(dims[i:i+4])))
	}

	typ, _, name, _, err := readSub(rest, order)
	if err != nil {
		return nil, err
	}
	if typ != miINT8 {
		return nil, errors.New("matrix is missing a name")
	}
	v.Name = string(name)

	return v, nil
}

func readSub(buf []byte, order binary.ByteOrder) (typ, size uint32, payload, rest []byte, err error) {
	if len(buf) < 8 {
		return 0, 0, nil, nil, errors.New("truncated matrix header")
	}
	return readTag(buf, order)
}
