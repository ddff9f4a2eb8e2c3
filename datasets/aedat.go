// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datasets

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// AEDAT 3.1 constants.  Format reference:
// https://gitlab.com/inivation/dv/dv-python/
const (
	aedatHeaderEnd   = "#!END-HEADER\r\n"
	aedatPacketHdrSz = 28
	aedatPolarityPkt = 1
)

// aedatPacketHeader is the fixed little-endian header preceding every
// event packet in an AEDAT 3.1 stream.
type aedatPacketHeader struct {
	EventType   uint16
	EventSource uint16
	EventSize   uint32
	TSOffset    uint32
	TSOverflow  uint32
	Capacity    uint32
	Number      uint32
	Valid       uint32
}

// ReadAEDAT decodes an AEDAT 3.1 stream into events.  ASCII header
// lines starting with '#' are skipped through the end-of-header marker;
// polarity event packets are decoded and every other packet type is
// skipped.
func ReadAEDAT(r io.Reader) (*Events, error) {
	br := bufio.NewReader(r)
	for {
		peek, err := br.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("datasets: aedat header: %w", err)
		}
		if peek[0] != '#' {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("datasets: aedat header: %w", err)
		}
		if line == aedatHeaderEnd {
			break
		}
	}

	ev := &Events{}
	hdr := make([]byte, aedatPacketHdrSz)
	var ph aedatPacketHeader
	for {
		if _, err := io.ReadFull(br, hdr); err != nil {
			if err == io.EOF {
				return ev, nil
			}
			return nil, fmt.Errorf("datasets: aedat packet header: %w", err)
		}
		if err := binary.Read(bytes.NewReader(hdr), binary.LittleEndian, &ph); err != nil {
			return nil, err
		}
		data := make([]byte, int(ph.Capacity)*int(ph.EventSize))
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("datasets: aedat packet data: %w", err)
		}
		if ph.EventType != aedatPolarityPkt {
			continue
		}
		esz := int(ph.EventSize)
		for off := 0; off+esz <= len(data); off += esz {
			d := binary.LittleEndian.Uint32(data[off : off+4])
			ts := binary.LittleEndian.Uint32(data[off+4 : off+8])
			ev.Append(
				int64(ts)|int64(ph.TSOverflow)<<31,
				int32((d>>17)&0x7FFF),
				int32((d>>2)&0x7FFF),
				int8((d>>1)&1),
			)
		}
	}
}

// ReadAEDATFile reads an AEDAT 3.1 file.
func ReadAEDATFile(fnm string) (*Events, error) {
	f, err := os.Open(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAEDAT(f)
}
