// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encoding

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/emer/etable/etensor"
	"github.com/emer/vision/gabor"
	"github.com/emer/vision/vfilter"
	"github.com/goki/ki/kit"
)

// GaborEncoder turns an image into a rate-coded drive tensor through a
// V1-style gabor filter bank: resize to ImgSize, convert to grayscale,
// convolve with oriented gabors, 2x2 max-pool, then normalize responses
// into [0, 1] so the result can feed a PoissonEncoder directly.
type GaborEncoder struct {
	Gabor    gabor.Filter    `desc:"gabor filter bank parameters"`
	Geom     vfilter.Geom    `inactive:"+" view:"inline" desc:"geometry of input and output for filtering"`
	ImgSize  image.Point     `desc:"target image size -- images are rescaled to this"`
	GaborTsr etensor.Float32 `view:"no-inline" desc:"gabor filter tensor"`
	ImgTsr   etensor.Float32 `view:"no-inline" desc:"input image as padded grayscale tensor"`
	Img      image.Image     `view:"-" desc:"current input image"`
	RespTsr  etensor.Float32 `view:"no-inline" desc:"raw gabor filter responses"`
	PoolTsr  etensor.Float32 `view:"no-inline" desc:"2x2 max-pooled responses"`
	RateTsr  etensor.Float32 `view:"no-inline" desc:"pooled responses normalized to [0,1]"`
}

func (ge *GaborEncoder) Defaults() {
	ge.Gabor.Defaults()
	sz := 6
	spc := 2
	ge.Gabor.SetSize(sz, spc)
	ge.Geom.Set(image.Point{0, 0}, image.Point{spc, spc}, image.Point{sz, sz})
	ge.ImgSize = image.Point{40, 40}
	ge.Gabor.ToTensor(&ge.GaborTsr)
	ge.ImgTsr.SetMetaData("grid-fill", "1")
}

// SetImage resizes and grayscales the image into ImgTsr with wrap
// padding for the filter.
func (ge *GaborEncoder) SetImage(img image.Image) {
	ge.Img = img
	isz := ge.Img.Bounds().Size()
	if isz != ge.ImgSize {
		ge.Img = transform.Resize(ge.Img, ge.ImgSize.X, ge.ImgSize.Y, transform.Linear)
	}
	vfilter.RGBToGrey(ge.Img, &ge.ImgTsr, ge.Geom.FiltRt.X, false)
	vfilter.WrapPad(&ge.ImgTsr, ge.Geom.FiltRt.X)
}

// Encode runs the full pipeline on img and returns the rate tensor.
func (ge *GaborEncoder) Encode(img image.Image) *etensor.Float32 {
	ge.SetImage(img)
	vfilter.Conv(&ge.Geom, &ge.GaborTsr, &ge.ImgTsr, &ge.RespTsr, ge.Gabor.Gain)
	vfilter.MaxPool(image.Point{2, 2}, image.Point{2, 2}, &ge.RespTsr, &ge.PoolTsr)
	if ge.RateTsr.Len() != ge.PoolTsr.Len() {
		ge.RateTsr.SetShape(ge.PoolTsr.Shp, nil, nil)
	}
	mx := float32(0)
	for _, v := range ge.PoolTsr.Values {
		if v > mx {
			mx = v
		}
	}
	if mx > 0 {
		for i, v := range ge.PoolTsr.Values {
			ge.RateTsr.Values[i] = v / mx
		}
	} else {
		ge.RateTsr.SetZeros()
	}
	return &ge.RateTsr
}

var KiT_GaborEncoder = kit.Types.AddType(&GaborEncoder{}, nil)
