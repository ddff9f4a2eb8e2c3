// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datasets

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvents() *Events {
	ev := &Events{}
	// 8 events, 2x2 sensor, alternating polarity, t = 0..70
	for i := 0; i < 8; i++ {
		ev.Append(int64(i*10), int32(i%2), int32((i/2)%2), int8(i%2))
	}
	return ev
}

func TestTimeSlice(t *testing.T) {
	ev := testEvents()
	sl := ev.TimeSlice(10, 40)
	require.Equal(t, 3, sl.Len())
	assert.Equal(t, int64(10), sl.T[0])
	assert.Equal(t, int64(30), sl.T[2])
}

func TestIntegrateByNumber(t *testing.T) {
	frames, err := IntegrateToFrames(testEvents(), 2, 2, 2, SplitByNumber, NormNone)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2, 2, 2}, frames.Shp)
	// each frame gets 4 events, one per pixel, polarity = x
	sum := float32(0)
	for _, v := range frames.Values {
		sum += v
	}
	assert.Equal(t, float32(8), sum)
	// event 0: t=0 x=0 y=0 p=0 lands in frame 0, polarity 0, pixel (0,0)
	assert.Equal(t, float32(1), float32(frames.FloatVal([]int{0, 0, 0, 0})))
	// event 1: x=1 y=0 p=1
	assert.Equal(t, float32(1), float32(frames.FloatVal([]int{0, 1, 0, 1})))
}

func TestIntegrateByTime(t *testing.T) {
	ev := &Events{}
	// 3 early events and 1 late one: time split puts 3 in frame 0
	ev.Append(0, 0, 0, 0)
	ev.Append(1, 0, 0, 0)
	ev.Append(2, 0, 0, 0)
	ev.Append(100, 1, 1, 1)
	frames, err := IntegrateToFrames(ev, 2, 2, 2, SplitByTime, NormNone)
	require.NoError(t, err)
	assert.Equal(t, float32(3), float32(frames.FloatVal([]int{0, 0, 0, 0})))
	assert.Equal(t, float32(1), float32(frames.FloatVal([]int{1, 1, 1, 1})))
}

func TestIntegrateNormMax(t *testing.T) {
	frames, err := IntegrateToFrames(testEvents(), 2, 2, 1, SplitByNumber, NormMax)
	require.NoError(t, err)
	mx := float32(0)
	for _, v := range frames.Values {
		if v > mx {
			mx = v
		}
	}
	assert.Equal(t, float32(1), mx)
}

func TestIntegrateNormZScore(t *testing.T) {
	frames, err := IntegrateToFrames(testEvents(), 2, 2, 2, SplitByNumber, NormZScore)
	require.NoError(t, err)
	fsz := 2 * 2 * 2
	mean := float32(0)
	for _, v := range frames.Values[:fsz] {
		mean += v
	}
	assert.InDelta(t, 0, float64(mean/float32(fsz)), 1e-5)
}

func TestIntegrateErrors(t *testing.T) {
	_, err := IntegrateToFrames(&Events{}, 2, 2, 2, SplitByNumber, NormNone)
	assert.Error(t, err)
	_, err = IntegrateToFrames(testEvents(), 2, 2, 0, SplitByNumber, NormNone)
	assert.Error(t, err)
	_, err = IntegrateToFrames(testEvents(), 2, 2, 2, SplitByN, NormNone)
	assert.Error(t, err)
	_, err = IntegrateToFrames(testEvents(), 2, 2, 2, SplitByNumber, NormN)
	assert.Error(t, err)
}

// aedatEvent packs one polarity event data word.
func aedatEvent(buf *bytes.Buffer, t int64, x, y int32, p int8) {
	d := uint32(x)<<17 | uint32(y)<<2 | uint32(p)<<1
	binary.Write(buf, binary.LittleEndian, d)
	binary.Write(buf, binary.LittleEndian, uint32(t))
}

func TestReadAEDAT(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("#!AER-DAT3.1\r\n")
	buf.WriteString("# some comment\r\n")
	buf.WriteString("#!END-HEADER\r\n")
	hdr := aedatPacketHeader{
		EventType: aedatPolarityPkt,
		EventSize: 8,
		Capacity:  2,
		Number:    2,
		Valid:     2,
	}
	binary.Write(&buf, binary.LittleEndian, &hdr)
	aedatEvent(&buf, 100, 3, 7, 1)
	aedatEvent(&buf, 200, 120, 60, 0)
	// a non-polarity packet that must be skipped
	hdr.EventType = 2
	binary.Write(&buf, binary.LittleEndian, &hdr)
	buf.Write(make([]byte, 16))

	ev, err := ReadAEDAT(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, ev.Len())
	assert.Equal(t, int64(100), ev.T[0])
	assert.Equal(t, int32(3), ev.X[0])
	assert.Equal(t, int32(7), ev.Y[0])
	assert.Equal(t, int8(1), ev.P[0])
	assert.Equal(t, int32(120), ev.X[1])
	assert.Equal(t, int8(0), ev.P[1])
}

// matMatrixBytes encodes one named double matrix as a miMATRIX element.
func matMatrixBytes(name string, vals []float64) []byte {
	var body bytes.Buffer
	// array flags
	binary.Write(&body, binary.LittleEndian, uint32(miUINT32))
	binary.Write(&body, binary.LittleEndian, uint32(8))
	binary.Write(&body, binary.LittleEndian, uint32(6)) // mxDOUBLE_CLASS
	binary.Write(&body, binary.LittleEndian, uint32(0))
	// dimensions [1, n]
	binary.Write(&body, binary.LittleEndian, uint32(miINT32))
	binary.Write(&body, binary.LittleEndian, uint32(8))
	binary.Write(&body, binary.LittleEndian, int32(1))
	binary.Write(&body, binary.LittleEndian, int32(len(vals)))
	// name, padded to 8 bytes
	binary.Write(&body, binary.LittleEndian, uint32(miINT8))
	binary.Write(&body, binary.LittleEndian, uint32(len(name)))
	body.WriteString(name)
	for body.Len()%8 != 0 {
		body.WriteByte(0)
	}
	// real part
	binary.Write(&body, binary.LittleEndian, uint32(miDOUBLE))
	binary.Write(&body, binary.LittleEndian, uint32(8*len(vals)))
	for _, v := range vals {
		binary.Write(&body, binary.LittleEndian, v)
	}

	var el bytes.Buffer
	binary.Write(&el, binary.LittleEndian, uint32(miMATRIX))
	binary.Write(&el, binary.LittleEndian, uint32(body.Len()))
	el.Write(body.Bytes())
	return el.Bytes()
}

func matHeader() []byte {
	hdr := make([]byte, mat5HeaderSz)
	copy(hdr, "MATLAB 5.0 MAT-file")
	hdr[124] = 0
	hdr[125] = 1
	hdr[126] = 'I'
	hdr[127] = 'M'
	return hdr
}

func TestReadMAT(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(matHeader())
	buf.Write(matMatrixBytes("ts", []float64{5, 15, 25}))
	buf.Write(matMatrixBytes("x", []float64{1, 2, 3}))
	buf.Write(matMatrixBytes("y", []float64{4, 5, 6}))
	buf.Write(matMatrixBytes("pol", []float64{0, 1, 0}))

	vars, err := ReadMAT(&buf)
	require.NoError(t, err)
	require.Contains(t, vars, "ts")
	assert.Equal(t, []float64{5, 15, 25}, vars["ts"])

	ev, err := EventsFromMAT(vars)
	require.NoError(t, err)
	require.Equal(t, 3, ev.Len())
	assert.Equal(t, int64(15), ev.T[1])
	assert.Equal(t, int32(2), ev.X[1])
	assert.Equal(t, int32(5), ev.Y[1])
	assert.Equal(t, int8(1), ev.P[1])
}

func TestReadMATCompressed(t *testing.T) {
	var el bytes.Buffer
	zw := zlib.NewWriter(&el)
	zw.Write(matMatrixBytes("ts", []float64{7, 8}))
	zw.Close()

	var buf bytes.Buffer
	buf.Write(matHeader())
	binary.Write(&buf, binary.LittleEndian, uint32(miCOMPRESSED))
	binary.Write(&buf, binary.LittleEndian, uint32(el.Len()))
	buf.Write(el.Bytes())

	vars, err := ReadMAT(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, vars["ts"])
}

func TestEventsTableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fnm := filepath.Join(dir, "ev.tsv")
	ev := testEvents()
	require.NoError(t, SaveEvents(ev, fnm))
	got, err := OpenEvents(fnm)
	require.NoError(t, err)
	assert.Equal(t, ev.T, got.T)
	assert.Equal(t, ev.X, got.X)
	assert.Equal(t, ev.Y, got.Y)
	assert.Equal(t, ev.P, got.P)
}

func TestFramesTableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fnm := filepath.Join(dir, "fr.tsv")
	frames, err := IntegrateToFrames(testEvents(), 2, 2, 2, SplitByNumber, NormNone)
	require.NoError(t, err)
	require.NoError(t, SaveFrames(frames, fnm))
	got, err := OpenFrames(fnm)
	require.NoError(t, err)
	require.Equal(t, frames.Shp, got.Shp)
	assert.Equal(t, frames.Values, got.Values)
}

func TestLabelFromFileName(t *testing.T) {
	lbl, err := labelFromFileName("/tmp/user01_fluorescent_5_0.tsv")
	require.NoError(t, err)
	assert.Equal(t, 4, lbl)
	_, err = labelFromFileName("bad.tsv")
	assert.Error(t, err)
}

func TestFramesDirName(t *testing.T) {
	assert.Equal(t, "frames_num_10_split_by_number_normalization_max",
		FramesDirName(10, SplitByNumber, NormMax))
}

func writeTarGz(t *testing.T, path string, names map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for nm, body := range names {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: nm, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(body)),
		}))
		_, err = tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	arch := filepath.Join(dir, "ok.tar.gz")
	writeTarGz(t, arch, map[string]string{"DvsGesture/user01.aedat": "events"})
	dst := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(dst, 0755))
	require.NoError(t, extractTarGz(arch, dst))
	b, err := os.ReadFile(filepath.Join(dst, "user01.aedat"))
	require.NoError(t, err)
	assert.Equal(t, "events", string(b))
}

func TestExtractTarGzRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	arch := filepath.Join(dir, "bad.tar.gz")
	writeTarGz(t, arch, map[string]string{"DvsGesture/../../evil.txt": "x"})
	dst := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(dst, 0755))
	err := extractTarGz(arch, dst)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "evil.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFrameToImage(t *testing.T) {
	frames := etensor.NewFloat32([]int{1, 2, 2, 2}, nil, nil)
	frames.SetFloat([]int{0, 1, 0, 1}, 4) // on event at (1,0)
	img, err := FrameToImage(frames, 0)
	require.NoError(t, err)
	c := img.RGBAAt(1, 0)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(0), c.G)
	_, err = FrameToImage(frames, 3)
	assert.Error(t, err)
}
