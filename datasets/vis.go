// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datasets

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/emer/etable/etensor"
)

// FrameToImage renders one [2, H, W] polarity frame of a frames tensor
// as an RGB image: on events in red, off events in green, scaled by the
// frame maximum.
func FrameToImage(frames *etensor.Float32, frame int) (*image.RGBA, error) {
	if frames.NumDims() != 4 {
		return nil, fmt.Errorf("datasets: FrameToImage: want a [frames, 2, H, W] tensor, got %v", frames.Shp)
	}
	if frame < 0 || frame >= frames.Dim(0) {
		return nil, fmt.Errorf("datasets: FrameToImage: frame %d out of range", frame)
	}
	h := frames.Dim(2)
	w := frames.Dim(3)
	plane := h * w
	fv := frames.Values[frame*2*plane : (frame+1)*2*plane]
	mx := float32(0)
	for _, v := range fv {
		if v > mx {
			mx = v
		}
	}
	if mx == 0 {
		mx = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := fv[y*w+x] / mx
			on := fv[plane+y*w+x] / mx
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(on * 255),
				G: uint8(off * 255),
				A: 255,
			})
		}
	}
	return img, nil
}

// SaveFrameImage renders one frame to a PNG file.
func SaveFrameImage(frames *etensor.Float32, frame int, fnm string) error {
	img, err := FrameToImage(frames, frame)
	if err != nil {
		return err
	}
	return imgio.Save(fnm, img, imgio.PNGEncoder())
}
