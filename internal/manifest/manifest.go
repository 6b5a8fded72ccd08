// Package manifest encodes the list of files announced at the start of a
// transfer into the fixed-size control frame.
package manifest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jaywantadh/treecast/internal/filetree"
)

// ControlFrameSize is the exact number of bytes of the control frame. Both
// sides must agree on it.
const ControlFrameSize = 1024

// fileInfoTag names the only message variant: the file list.
const fileInfoTag = "FileInfo"

// ErrFrameOverflow means the encoded manifest does not fit the control frame.
var ErrFrameOverflow = errors.New("manifest exceeds control frame size")

// Manifest is the ordered list of files a sender announces.
type Manifest []filetree.FileEntry

// TotalSize sums the announced sizes.
func (m Manifest) TotalSize() int64 {
	var total int64
	for _, f := range m {
		total += f.Size
	}
	return total
}

// EncodingError wraps a failure to produce a control frame.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return "encode manifest: " + e.Err.Error() }
func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError wraps a failure to read a manifest out of a control frame.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string { return "decode manifest: " + e.Err.Error() }
func (e *DecodingError) Unwrap() error { return e.Err }

// entry is the wire form of a FileEntry: a two element array.
type entry struct {
	_msgpack struct{} `msgpack:",as_array"`
	Path     string
	Size     int64
}

// Encode produces the tagged message {"FileInfo": [[path, size], ...]}.
func Encode(m Manifest) ([]byte, error) {
	entries := make([]entry, 0, len(m))
	for _, f := range m {
		if f.Size < 0 {
			return nil, &EncodingError{Err: fmt.Errorf("negative size for %s", f.Path)}
		}
		entries = append(entries, entry{Path: f.Path, Size: f.Size})
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(map[string][]entry{fileInfoTag: entries}); err != nil {
		return nil, &EncodingError{Err: err}
	}
	return buf.Bytes(), nil
}

// minEntrySize is the smallest encoding of one entry: a one byte array
// header, an empty fixstr and a positive fixint.
const minEntrySize = 3

// Decode reads the first message in b. Anything after it, such as frame
// padding, is ignored. The claimed entry count is checked against len(b)
// before anything is allocated for it.
func Decode(b []byte) (Manifest, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))

	keys, err := dec.DecodeMapLen()
	if err != nil {
		return nil, &DecodingError{Err: err}
	}
	if keys != 1 {
		return nil, &DecodingError{Err: fmt.Errorf("expected a single %q message, got %d keys", fileInfoTag, keys)}
	}
	tag, err := dec.DecodeString()
	if err != nil {
		return nil, &DecodingError{Err: err}
	}
	if tag != fileInfoTag {
		return nil, &DecodingError{Err: fmt.Errorf("unknown message %q", tag)}
	}

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, &DecodingError{Err: err}
	}
	if n < 0 || n > len(b)/minEntrySize {
		return nil, &DecodingError{Err: fmt.Errorf("implausible entry count %d for a %d byte frame", n, len(b))}
	}

	m := make(Manifest, 0, n)
	for i := 0; i < n; i++ {
		var e entry
		if err := dec.Decode(&e); err != nil {
			return nil, &DecodingError{Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		if e.Size < 0 {
			return nil, &DecodingError{Err: fmt.Errorf("negative size for %s", e.Path)}
		}
		m = append(m, filetree.FileEntry{Path: e.Path, Size: e.Size})
	}
	return m, nil
}

// Frame encodes m and zero-pads it to ControlFrameSize.
func Frame(m Manifest) ([]byte, error) {
	b, err := Encode(m)
	if err != nil {
		return nil, err
	}
	if len(b) > ControlFrameSize {
		return nil, &EncodingError{Err: fmt.Errorf("%w: %d > %d bytes", ErrFrameOverflow, len(b), ControlFrameSize)}
	}
	frame := make([]byte, ControlFrameSize)
	copy(frame, b)
	return frame, nil
}
