// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datasets

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"
)

// MAT-file Level 5 data types.  Only what numeric event arrays need is
// implemented: numeric matrices, plain or zlib-compressed.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

const mat5HeaderSz = 128

// ReadMAT parses a MAT-file Level 5 stream and returns its numeric
// matrices as flattened float64 slices keyed by variable name.
// Non-numeric elements are skipped.
func ReadMAT(r io.Reader) (map[string][]float64, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < mat5HeaderSz {
		return nil, fmt.Errorf("datasets: mat: truncated header")
	}
	if data[126] != 'I' || data[127] != 'M' {
		return nil, fmt.Errorf("datasets: mat: not a little-endian level 5 MAT-file")
	}
	vars := map[string][]float64{}
	if err := matElements(data[mat5HeaderSz:], vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// ReadMATFile reads a MAT-file Level 5 file.
func ReadMATFile(fnm string) (map[string][]float64, error) {
	f, err := os.Open(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMAT(f)
}

// matElements parses top-level data elements into vars.
func matElements(data []byte, vars map[string][]float64) error {
	for len(data) > 0 {
		dtype, body, rest, err := matTag(data)
		if err != nil {
			return err
		}
		switch dtype {
		case miMATRIX:
			if err := matMatrix(body, vars); err != nil {
				return err
			}
		case miCOMPRESSED:
			zr, err := zlib.NewReader(bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("datasets: mat: compressed element: %w", err)
			}
			raw, err := ioutil.ReadAll(zr)
			zr.Close()
			if err != nil {
				return fmt.Errorf("datasets: mat: compressed element: %w", err)
			}
			if err := matElements(raw, vars); err != nil {
				return err
			}
		}
		data = rest
	}
	return nil
}

// matTag decodes one data element tag, handling the packed small
// element format, and returns the element type, its body, and the
// remaining stream after 8-byte alignment padding.
func matTag(data []byte) (dtype uint32, body, rest []byte, err error) {
	if len(data) < 8 {
		return 0, nil, nil, fmt.Errorf("datasets: mat: truncated element tag")
	}
	dtype = binary.LittleEndian.Uint32(data[0:4])
	if dtype>>16 != 0 {
		// small element: size in the upper half, data in bytes 4:8
		sz := dtype >> 16
		dtype &= 0xFFFF
		return dtype, data[4 : 4+sz], data[8:], nil
	}
	sz := binary.LittleEndian.Uint32(data[4:8])
	if int(8+sz) > len(data) {
		return 0, nil, nil, fmt.Errorf("datasets: mat: element size %d beyond stream", sz)
	}
	body = data[8 : 8+sz]
	pad := (8 - sz%8) % 8
	end := 8 + sz + pad
	if int(end) > len(data) {
		end = uint32(len(data))
	}
	return dtype, body, data[end:], nil
}

// matMatrix parses a miMATRIX element body: array flags, dimensions,
// name, then the real part.  Complex and non-numeric classes are
// skipped silently.
func matMatrix(body []byte, vars map[string][]float64) error {
	// array flags
	_, _, rest, err := matTag(body)
	if err != nil {
		return err
	}
	// dimensions
	_, _, rest, err = matTag(rest)
	if err != nil {
		return err
	}
	// name
	_, nameB, rest, err := matTag(rest)
	if err != nil {
		return err
	}
	name := string(nameB)
	// real part
	dtype, vals, _, err := matTag(rest)
	if err != nil {
		return err
	}
	out, err := matNumeric(dtype, vals)
	if err != nil || out == nil {
		return err
	}
	vars[name] = out
	return nil
}

// matNumeric converts a numeric element body to float64, or nil for
// unsupported types.
func matNumeric(dtype uint32, b []byte) ([]float64, error) {
	var esz int
	switch dtype {
	case miINT8, miUINT8:
		esz = 1
	case miINT16, miUINT16:
		esz = 2
	case miINT32, miUINT32, miSINGLE:
		esz = 4
	case miDOUBLE, miINT64, miUINT64:
		esz = 8
	default:
		return nil, nil
	}
	n := len(b) / esz
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		d := b[i*esz:]
		switch dtype {
		case miINT8:
			out[i] = float64(int8(d[0]))
		case miUINT8:
			out[i] = float64(d[0])
		case miINT16:
			out[i] = float64(int16(binary.LittleEndian.Uint16(d)))
		case miUINT16:
			out[i] = float64(binary.LittleEndian.Uint16(d))
		case miINT32:
			out[i] = float64(int32(binary.LittleEndian.Uint32(d)))
		case miUINT32:
			out[i] = float64(binary.LittleEndian.Uint32(d))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(d)))
		case miINT64:
			out[i] = float64(int64(binary.LittleEndian.Uint64(d)))
		case miUINT64:
			out[i] = float64(binary.LittleEndian.Uint64(d))
		case miDOUBLE:
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(d))
		}
	}
	return out, nil
}

// EventsFromMAT builds events from the ts, x, y, pol variables of a
// decoded MAT-file, as stored by the ASL-DVS recordings.
func EventsFromMAT(vars map[string][]float64) (*Events, error) {
	ts, ok := vars["ts"]
	if !ok {
		return nil, fmt.Errorf("datasets: mat: no ts variable")
	}
	xs, ok := vars["x"]
	if !ok {
		return nil, fmt.Errorf("datasets: mat: no x variable")
	}
	ys, ok := vars["y"]
	if !ok {
		return nil, fmt.Errorf("datasets: mat: no y variable")
	}
	ps, ok := vars["pol"]
	if !ok {
		return nil, fmt.Errorf("datasets: mat: no pol variable")
	}
	n := len(ts)
	if len(xs) != n || len(ys) != n || len(ps) != n {
		return nil, fmt.Errorf("datasets: mat: mismatched event array lengths")
	}
	ev := &Events{
		T: make([]int64, n),
		X: make([]int32, n),
		Y: make([]int32, n),
		P: make([]int8, n),
	}
	for i := 0; i < n; i++ {
		ev.T[i] = int64(ts[i])
		ev.X[i] = int32(xs[i])
		ev.Y[i] = int32(ys[i])
		ev.P[i] = int8(ps[i])
	}
	return ev, nil
}
