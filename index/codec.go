// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-crypt/x/blake2b"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/ragcore/core"
)

// File layout, version 1:
//
//	magic "RAGX" | version | dimension | count | metric | body_len | body | blake2b-256(body)
//	record := chunk_id | document_id | start | end | text | dimension x float32
//
// Integers are varints, strings are length-prefixed, floats are raw IEEE-754 bits.
const (
	FormatVersion = 1
	checksumSize  = 32
	// five length or varint prefixes of at least one byte each
	minRecordSize = 5
)

var magic = []byte("RAGX")

// Header describes a persisted index without decoding its entries.
type Header struct {
	Version   uint64
	Dimension int
	Count     int
	Metric    core.Metric
	BodyLen   int
	Checksum  []byte
}

// Save writes the index to path. The file is written next to path and renamed
// into place, so readers never observe a partial index.
func (idx *Index) Save(path string) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	return nil
}

// Load reads an index written by Save. Any structural problem or checksum
// mismatch is reported as core.ErrCorruptIndex.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	idx := &Index{}
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}

// ReadHeader reads and verifies the header and checksum of a saved index.
func ReadHeader(path string) (*Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	h, _, err := decodeHeader(data)
	return h, err
}

// MarshalBinary encodes the index in the on-disk format.
func (idx *Index) MarshalBinary() ([]byte, error) {
	body := make([]byte, idx.bodySize())
	n := 0
	for _, e := range idx.entries {
		n += ord.String.Marshal(e.Chunk.ID, body[n:])
		n += ord.String.Marshal(e.Chunk.DocumentID, body[n:])
		n += varint.Uint64.Marshal(uint64(e.Chunk.StartOffset), body[n:])
		n += varint.Uint64.Marshal(uint64(e.Chunk.EndOffset), body[n:])
		n += ord.String.Marshal(e.Chunk.Text, body[n:])
		for _, x := range e.Vector {
			n += raw.Float32.Marshal(x, body[n:])
		}
	}

	fields := []uint64{
		FormatVersion,
		uint64(idx.dimension),
		uint64(len(idx.entries)),
		uint64(idx.metric),
		uint64(len(body)),
	}
	size := len(magic) + len(body) + checksumSize
	for _, f := range fields {
		size += varint.Uint64.Size(f)
	}

	out := make([]byte, size)
	n = copy(out, magic)
	for _, f := range fields {
		n += varint.Uint64.Marshal(f, out[n:])
	}
	n += copy(out[n:], body)
	copy(out[n:], checksum(body))
	return out, nil
}

// UnmarshalBinary replaces the contents of idx with the decoded index.
func (idx *Index) UnmarshalBinary(data []byte) error {
	h, body, err := decodeHeader(data)
	if err != nil {
		return err
	}

	d := decoder{buf: body}
	entries := make([]core.IndexEntry, 0, h.Count)
	norms := make([]float64, 0, cap(entries))
	for i := 0; i < h.Count; i++ {
		var e core.IndexEntry
		e.Chunk.ID = d.string()
		e.Chunk.DocumentID = d.string()
		e.Chunk.StartOffset = d.int()
		e.Chunk.EndOffset = d.int()
		e.Chunk.Text = d.string()
		e.Vector = make([]float32, h.Dimension)
		for j := range e.Vector {
			e.Vector[j] = d.float32()
		}
		if d.err != nil {
			return corrupt("entry %d: %v", i, d.err)
		}
		if err := core.ValidateChunk(&e.Chunk); err != nil {
			return corrupt("entry %d: %v", i, err)
		}
		entries = append(entries, e)
		norms = append(norms, norm(e.Vector))
	}
	if d.pos != len(body) {
		return corrupt("%d trailing bytes after %d entries", len(body)-d.pos, h.Count)
	}

	idx.metric = h.Metric
	idx.dimension = h.Dimension
	idx.entries = entries
	idx.norms = norms
	return nil
}

func (idx *Index) bodySize() int {
	size := 0
	for _, e := range idx.entries {
		size += ord.String.Size(e.Chunk.ID)
		size += ord.String.Size(e.Chunk.DocumentID)
		size += varint.Uint64.Size(uint64(e.Chunk.StartOffset))
		size += varint.Uint64.Size(uint64(e.Chunk.EndOffset))
		size += ord.String.Size(e.Chunk.Text)
		size += len(e.Vector) * raw.Float32.Size(0)
	}
	return size
}

func decodeHeader(data []byte) (*Header, []byte, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, nil, corrupt("bad magic")
	}
	d := decoder{buf: data, pos: len(magic)}
	h := &Header{
		Version:   d.uint(),
		Dimension: d.int(),
		Count:     d.int(),
		Metric:    core.Metric(d.int()),
	}
	h.BodyLen = d.int()
	if d.err != nil {
		return nil, nil, corrupt("header: %v", d.err)
	}
	if h.Version != FormatVersion {
		return nil, nil, corrupt("unsupported version %d", h.Version)
	}
	if err := core.ValidateMetric(h.Metric); err != nil {
		return nil, nil, corrupt("%v", err)
	}
	if (h.Count == 0) != (h.Dimension == 0) {
		return nil, nil, corrupt("%d entries with dimension %d", h.Count, h.Dimension)
	}
	if h.Count > 0 && (h.Dimension > h.BodyLen/4 || h.Count > h.BodyLen/(minRecordSize+4*h.Dimension)) {
		return nil, nil, corrupt("%d entries of dimension %d cannot fit in %d bytes", h.Count, h.Dimension, h.BodyLen)
	}
	if len(data)-d.pos != h.BodyLen+checksumSize {
		return nil, nil, corrupt("body length %d does not match file size", h.BodyLen)
	}

	body := data[d.pos : d.pos+h.BodyLen]
	h.Checksum = data[d.pos+h.BodyLen:]
	if !bytes.Equal(h.Checksum, checksum(body)) {
		return nil, nil, corrupt("checksum mismatch")
	}
	return h, body, nil
}

func checksum(body []byte) []byte {
	h, _ := blake2b.New(checksumSize, nil)
	h.Write(body)
	return h.Sum(nil)
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrCorruptIndex, fmt.Sprintf(format, args...))
}

var errOverflow = errors.New("value out of range")

// decoder reads sequential mus-encoded values, keeping the first error.
type decoder struct {
	buf []byte
	pos int
	err error
}

func (d *decoder) uint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.buf[d.pos:])
	d.pos += n
	d.err = err
	return v
}

func (d *decoder) int() int {
	v := d.uint()
	if v > math.MaxInt32 && d.err == nil {
		d.err = errOverflow
		return 0
	}
	return int(v)
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.buf[d.pos:])
	d.pos += n
	d.err = err
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.buf[d.pos:])
	d.pos += n
	d.err = err
	return v
}
