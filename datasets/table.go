// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datasets

import (
	"fmt"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/gi/gi"
)

// EventsToTable builds an etable with one row per event.
func EventsToTable(ev *Events) *etable.Table {
	dt := &etable.Table{}
	sch := etable.Schema{
		{Name: "T", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "X", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Y", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "P", Type: etensor.INT64, CellShape: nil, DimNames: nil},
	}
	dt.SetFromSchema(sch, ev.Len())
	for i := 0; i < ev.Len(); i++ {
		dt.SetCellFloat("T", i, float64(ev.T[i]))
		dt.SetCellFloat("X", i, float64(ev.X[i]))
		dt.SetCellFloat("Y", i, float64(ev.Y[i]))
		dt.SetCellFloat("P", i, float64(ev.P[i]))
	}
	return dt
}

// TableToEvents reads events back out of a table made by EventsToTable.
func TableToEvents(dt *etable.Table) *Events {
	n := dt.Rows
	ev := &Events{
		T: make([]int64, n),
		X: make([]int32, n),
		Y: make([]int32, n),
		P: make([]int8, n),
	}
	for i := 0; i < n; i++ {
		ev.T[i] = int64(dt.CellFloat("T", i))
		ev.X[i] = int32(dt.CellFloat("X", i))
		ev.Y[i] = int32(dt.CellFloat("Y", i))
		ev.P[i] = int8(dt.CellFloat("P", i))
	}
	return ev
}

// SaveEvents writes events to a tab-separated file with headers.
func SaveEvents(ev *Events, fnm string) error {
	return EventsToTable(ev).SaveCSV(gi.FileName(fnm), etable.Tab, etable.Headers)
}

// OpenEvents reads events from a file written by SaveEvents.
func OpenEvents(fnm string) (*Events, error) {
	dt := &etable.Table{}
	if err := dt.OpenCSV(gi.FileName(fnm), etable.Tab); err != nil {
		return nil, err
	}
	return TableToEvents(dt), nil
}

// FramesToTable builds an etable with one row per frame; the single
// Frame column holds [2, H, W] polarity-channel cells.
func FramesToTable(frames *etensor.Float32) *etable.Table {
	fn := frames.Dim(0)
	cshp := []int{frames.Dim(1), frames.Dim(2), frames.Dim(3)}
	dt := &etable.Table{}
	sch := etable.Schema{
		{Name: "Frame", Type: etensor.FLOAT32, CellShape: cshp, DimNames: []string{"Polarity", "Y", "X"}},
	}
	dt.SetFromSchema(sch, fn)
	fsz := cshp[0] * cshp[1] * cshp[2]
	cell := etensor.NewFloat32(cshp, nil, nil)
	for f := 0; f < fn; f++ {
		copy(cell.Values, frames.Values[f*fsz:(f+1)*fsz])
		dt.SetCellTensor("Frame", f, cell)
	}
	return dt
}

// TableToFrames reads a [frames, 2, H, W] tensor back out of a table
// made by FramesToTable.
func TableToFrames(dt *etable.Table) (*etensor.Float32, error) {
	fn := dt.Rows
	if fn == 0 {
		return nil, fmt.Errorf("datasets: TableToFrames: empty table")
	}
	c0, ok := dt.CellTensor("Frame", 0).(*etensor.Float32)
	if !ok {
		return nil, fmt.Errorf("datasets: TableToFrames: no Frame column")
	}
	cshp := c0.Shp
	fsz := c0.Len()
	frames := etensor.NewFloat32([]int{fn, cshp[0], cshp[1], cshp[2]}, nil, []string{"Frame", "Polarity", "Y", "X"})
	for f := 0; f < fn; f++ {
		ct := dt.CellTensor("Frame", f).(*etensor.Float32)
		copy(frames.Values[f*fsz:(f+1)*fsz], ct.Values)
	}
	return frames, nil
}

// SaveFrames writes a frames tensor to a tab-separated file.
func SaveFrames(frames *etensor.Float32, fnm string) error {
	return FramesToTable(frames).SaveCSV(gi.FileName(fnm), etable.Tab, etable.Headers)
}

// OpenFrames reads a frames tensor from a file written by SaveFrames.
func OpenFrames(fnm string) (*etensor.Float32, error) {
	dt := &etable.Table{}
	if err := dt.OpenCSV(gi.FileName(fnm), etable.Tab); err != nil {
		return nil, err
	}
	return TableToFrames(dt)
}
