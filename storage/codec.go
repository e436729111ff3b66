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


package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// encoder appends mus-encoded values to a byte slice.
type encoder struct {
	buf []byte
}

func (e *encoder) reserve(n int) []byte {
	e.buf = slices.Grow(e.buf, n)
	start := len(e.buf)
	e.buf = e.buf[:start+n]
	return e.buf[start:]
}

func (e *encoder) uint(v uint64) {
	varint.Uint64.Marshal(v, e.reserve(varint.Uint64.Size(v)))
}

func (e *encoder) int(v int64) {
	varint.Int64.Marshal(v, e.reserve(varint.Int64.Size(v)))
}

func (e *encoder) bool(v bool) {
	ord.Bool.Marshal(v, e.reserve(ord.Bool.Size(v)))
}

func (e *encoder) string(v string) {
	ord.String.Marshal(v, e.reserve(ord.String.Size(v)))
}

func (e *encoder) time(t time.Time) {
	e.bool(!t.IsZero())
	if !t.IsZero() {
		e.int(t.UnixMicro())
	}
}

func (e *encoder) vector(v []float32) {
	e.uint(uint64(len(v)))
	for _, x := range v {
		raw.Float32.Marshal(x, e.reserve(raw.Float32.Size(x)))
	}
}

// decoder reads mus-encoded values, keeping the first error.
type decoder struct {
	buf []byte
	pos int
	err error
}

func (d *decoder) track(n int, err error) {
	d.pos += n
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (d *decoder) uint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.buf[d.pos:])
	d.track(n, err)
	return v
}

func (d *decoder) int() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.buf[d.pos:])
	d.track(n, err)
	return v
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.buf[d.pos:])
	d.track(n, err)
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.buf[d.pos:])
	d.track(n, err)
	return v
}

func (d *decoder) time() time.Time {
	if !d.bool() {
		return time.Time{}
	}
	micros := d.int()
	if d.err != nil {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}

func (d *decoder) vector() []float32 {
	n := d.uint()
	if d.err != nil {
		return nil
	}
	if n > uint64(len(d.buf)-d.pos)/4 {
		d.err = fmt.Errorf("%w: vector of %d floats", ErrTruncatedData, n)
		return nil
	}
	vec := make([]float32, n)
	for i := range vec {
		v, m, err := raw.Float32.Unmarshal(d.buf[d.pos:])
		d.track(m, err)
		if d.err != nil {
			return nil
		}
		vec[i] = v
	}
	return vec
}

// finish reports the first decoding error or unconsumed trailing bytes.
func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.pos != len(d.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(d.buf)-d.pos)
	}
	return nil
}
