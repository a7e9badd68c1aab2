package datafile

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/nlpodyssey/gopickle/pickle"
)

// PickleReader shows the unpickled object as a Python-style literal
type PickleReader struct{}

// Read implements Reader
func (PickleReader) Read(_ context.Context, path string) (Content, error) {
	// #nosec G304 - path comes from the storage layer
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := CheckPickleLengths(data); err != nil {
		return nil, err
	}

	u := pickle.NewUnpickler(bytes.NewReader(data))
	obj, err := u.Load()
	if err != nil {
		return nil, err
	}
	return &Object{Repr: Repr(obj)}, nil
}

// ErrPickleLength is returned for a pickle opcode that declares more bytes
// than the stream holds
var ErrPickleLength = errors.New("pickle declares a length beyond the end of the data")

// Arguments of fixed width, by opcode.
var pickleFixedArgs = map[byte]int{
	// BININT, BININT1, BININT2, BINFLOAT
	'J': 4, 'K': 1, 'M': 2, 'G': 8,
	// BINGET, LONG_BINGET, BINPUT, LONG_BINPUT
	'h': 1, 'j': 4, 'q': 1, 'r': 4,
	// PROTO, EXT1, EXT2, EXT4, FRAME
	0x80: 1, 0x82: 1, 0x83: 2, 0x84: 4, 0x95: 8,
}

// Opcodes whose argument is a little-endian byte count followed by that many
// bytes, mapped to the width of the count.
var pickleCountedArgs = map[byte]int{
	// BINSTRING, SHORT_BINSTRING
	'T': 4, 'U': 1,
	// BINUNICODE, SHORT_BINUNICODE, BINUNICODE8
	'X': 4, 0x8c: 1, 0x8d: 8,
	// BINBYTES, SHORT_BINBYTES, BINBYTES8, BYTEARRAY8
	'B': 4, 'C': 1, 0x8e: 8, 0x96: 8,
	// LONG1, LONG4
	0x8a: 1, 0x8b: 4,
}

// Opcodes taking newline-terminated text arguments, mapped to the line count.
var pickleLineArgs = map[byte]int{
	// INT, LONG, STRING, UNICODE, FLOAT, PERSID, GET, PUT
	'I': 1, 'L': 1, 'S': 1, 'V': 1, 'F': 1, 'P': 1, 'g': 1, 'p': 1,
	// GLOBAL, INST
	'c': 2, 'i': 2,
}

// CheckPickleLengths walks the opcodes of a pickle stream up to STOP and
// rejects any length or frame size that runs past the end of data. Unknown
// opcodes end the walk and are left to the unpickler.
func CheckPickleLengths(data []byte) error {
	pos := 0
	for pos < len(data) {
		op := data[pos]
		pos++

		if op == '.' { // STOP
			return nil
		}

		if n, ok := pickleFixedArgs[op]; ok {
			if n > len(data)-pos {
				return fmt.Errorf("%w: opcode 0x%02x at offset %d", ErrPickleLength, op, pos-1)
			}
			if op == 0x95 && binary.LittleEndian.Uint64(data[pos:pos+8]) > uint64(len(data)-pos-8) {
				return fmt.Errorf("%w: frame at offset %d", ErrPickleLength, pos-1)
			}
			pos += n
			continue
		}

		if width, ok := pickleCountedArgs[op]; ok {
			if width > len(data)-pos {
				return fmt.Errorf("%w: opcode 0x%02x at offset %d", ErrPickleLength, op, pos-1)
			}
			var count uint64
			switch width {
			case 1:
				count = uint64(data[pos])
			case 4:
				// BINSTRING and LONG4 counts are signed
				count = uint64(binary.LittleEndian.Uint32(data[pos : pos+4]))
				if (op == 'T' || op == 0x8b) && int32(count) < 0 {
					return fmt.Errorf("%w: negative length at offset %d", ErrPickleLength, pos-1)
				}
			case 8:
				count = binary.LittleEndian.Uint64(data[pos : pos+8])
			}
			pos += width
			if count > uint64(len(data)-pos) {
				return fmt.Errorf("%w: opcode 0x%02x at offset %d declares %d bytes", ErrPickleLength, op, pos-width-1, count)
			}
			pos += int(count)
			continue
		}

		if lines, ok := pickleLineArgs[op]; ok {
			for i := 0; i < lines; i++ {
				nl := bytes.IndexByte(data[pos:], '\n')
				if nl < 0 {
					return fmt.Errorf("%w: unterminated argument at offset %d", ErrPickleLength, pos-1)
				}
				pos += nl + 1
			}
			continue
		}

		if !pickleNoArgs[op] {
			return nil
		}
	}
	return nil
}

// Opcodes without arguments.
var pickleNoArgs = map[byte]bool{
	'(': true, ')': true, ']': true, '}': true, 'N': true, '0': true, '1': true, '2': true,
	'R': true, 'a': true, 'b': true, 'd': true, 'e': true, 'l': true, 'o': true, 's': true,
	't': true, 'u': true, 'Q': true, 0x81: true, 0x85: true, 0x86: true, 0x87: true,
	0x88: true, 0x89: true, 0x8f: true, 0x90: true, 0x91: true, 0x92: true, 0x93: true,
	0x94: true, 0x97: true, 0x98: true,
}

type orderedDict interface {
	Keys() []interface{}
	Get(key interface{}) (interface{}, bool)
}

// Repr renders a decoded pickle value the way Python's repr would
func Repr(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return "'" + strings.ReplaceAll(strings.ReplaceAll(t, `\`, `\\`), "'", `\'`) + "'"
	case []byte:
		return "b" + Repr(string(t))
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case orderedDict:
		keys := t.Keys()
		items := make([]string, 0, len(keys))
		for _, k := range keys {
			val, _ := t.Get(k)
			items = append(items, Repr(k)+": "+Repr(val))
		}
		return "{" + strings.Join(items, ", ") + "}"
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = Repr(rv.Index(i).Interface())
		}
		open, closing := "[", "]"
		if strings.HasSuffix(rv.Type().Name(), "Tuple") {
			open, closing = "(", ")"
		}
		return open + strings.Join(items, ", ") + closing
	case reflect.Map:
		items := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			items = append(items, Repr(iter.Key().Interface())+": "+Repr(iter.Value().Interface()))
		}
		// Go maps are unordered; sort for stable output.
		sort.Strings(items)
		return "{" + strings.Join(items, ", ") + "}"
	}

	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
