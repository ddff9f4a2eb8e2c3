// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
)

// ChannelsMaxPool max-pools across the channel dimension (dim 0) of a
// [C, ...] input, reducing C channels to (C - Size)/Stride + 1.
type ChannelsMaxPool struct {
	Size   int             `desc:"pooling window size in channels"`
	Stride int             `desc:"pooling stride in channels"`
	Out    etensor.Float32 `view:"no-inline" desc:"output from the last Step"`
}

func (cp *ChannelsMaxPool) Defaults() {
	cp.Size = 2
	cp.Stride = 2
}

// Step pools one cycle of input across channels.
func (cp *ChannelsMaxPool) Step(x *etensor.Float32) *etensor.Float32 {
	nc := x.Dim(0)
	plane := x.Len() / nc
	nco := (nc-cp.Size)/cp.Stride + 1
	oshp := append([]int{nco}, x.Shp[1:]...)
	if !etensor.EqualInts(oshp, cp.Out.Shp) {
		cp.Out.SetShape(oshp, nil, nil)
	}
	for co := 0; co < nco; co++ {
		c0 := co * cp.Stride
		for i := 0; i < plane; i++ {
			mx := x.Values[c0*plane+i]
			for c := c0 + 1; c < c0+cp.Size; c++ {
				if v := x.Values[c*plane+i]; v > mx {
					mx = v
				}
			}
			cp.Out.Values[co*plane+i] = mx
		}
	}
	return &cp.Out
}

// Reset is a no-op: ChannelsMaxPool is stateless.
func (cp *ChannelsMaxPool) Reset() {}

var KiT_ChannelsMaxPool = kit.Types.AddType(&ChannelsMaxPool{}, nil)
