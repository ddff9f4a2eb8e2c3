// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layer

import (
	"math/rand"

	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// NeuNorm is the spike-train normalization layer of Wu et al. (2019,
// Direct Training for Spiking Neural Networks), placed after the spiking
// neurons that follow a convolution: Conv -> LIF -> NeuNorm.  It tracks a
// momentum-weighted average of input across channels and subtracts a
// learnable per-channel multiple of it.  Input shape is [C, H, W].
type NeuNorm struct {
	C   int             `desc:"number of input channels"`
	K0  float32         `def:"0.9" desc:"momentum coefficient k_tau2"`
	K1  float32         `inactive:"+" desc:"(1 - K0) / C^2, the v/F weighting from the paper"`
	W   etensor.Float32 `view:"no-inline" desc:"learnable per-channel weights, shape [C]"`
	X   etensor.Float32 `view:"no-inline" desc:"auxiliary state, shape [H, W]"`
	Out etensor.Float32 `view:"no-inline" desc:"output from the last Step"`
}

// Config sets the channel count and initializes the weights
// kaiming-uniform as in the original.
func (nn *NeuNorm) Config(c int, k0 float32) {
	nn.C = c
	nn.K0 = k0
	nn.Update()
	nn.W.SetShape([]int{c}, nil, nil)
	bound := mat32.Sqrt(6 / (6 * float32(c))) // gain-adjusted fan-in bound
	for i := range nn.W.Values {
		nn.W.Values[i] = (rand.Float32()*2 - 1) * bound
	}
}

func (nn *NeuNorm) Update() {
	nn.K1 = (1 - nn.K0) / float32(nn.C*nn.C)
}

// Step normalizes one cycle of input spikes, shape [C, H, W].
func (nn *NeuNorm) Step(spikes *etensor.Float32) *etensor.Float32 {
	h := spikes.Dim(1)
	w := spikes.Dim(2)
	plane := h * w
	if nn.X.Len() != plane {
		nn.X.SetShape([]int{h, w}, nil, []string{"Y", "X"})
		nn.Out.SetShape(spikes.Shp, nil, nil)
	}
	for i := 0; i < plane; i++ {
		sum := float32(0)
		for c := 0; c < nn.C; c++ {
			sum += spikes.Values[c*plane+i]
		}
		nn.X.Values[i] = nn.K0*nn.X.Values[i] + nn.K1*sum
	}
	for c := 0; c < nn.C; c++ {
		for i := 0; i < plane; i++ {
			nn.Out.Values[c*plane+i] = spikes.Values[c*plane+i] - nn.W.Values[c]*nn.X.Values[i]
		}
	}
	return &nn.Out
}

// Reset clears the auxiliary state.
func (nn *NeuNorm) Reset() {
	nn.X.SetZeros()
}

// ChannelNorm normalizes each channel of a [C, H, W] input by mean and
// variance, with running statistics accumulated across steps and an
// optional learnable scaling.  It adapts batch normalization to the
// per-sample stepping used here: training steps normalize by the current
// step's statistics while updating the running ones, and evaluation steps
// normalize by the running statistics.
type ChannelNorm struct {
	C        int             `desc:"number of channels"`
	Eps      float32         `def:"1e-05" desc:"small constant for numerical stability"`
	Momentum float32         `def:"0.1" desc:"running mean / variance update rate"`
	Scaling  bool            `def:"true" desc:"apply the learnable per-channel scale Gamma"`
	Training bool            `desc:"training mode -- use and update step statistics"`
	Gamma    etensor.Float32 `view:"no-inline" desc:"learnable per-channel scale, shape [C]"`
	RunMean  etensor.Float32 `view:"no-inline" desc:"running per-channel mean"`
	RunVar   etensor.Float32 `view:"no-inline" desc:"running per-channel variance"`
	Out      etensor.Float32 `view:"no-inline" desc:"output from the last Step"`
}

func (cn *ChannelNorm) Config(c int) {
	cn.C = c
	cn.Eps = 1e-5
	cn.Momentum = 0.1
	cn.Scaling = true
	cn.Gamma.SetShape([]int{c}, nil, nil)
	cn.RunMean.SetShape([]int{c}, nil, nil)
	cn.RunVar.SetShape([]int{c}, nil, nil)
	for i := range cn.Gamma.Values {
		cn.Gamma.Values[i] = 1
		cn.RunVar.Values[i] = 1
	}
}

// Step normalizes one cycle of input, shape [C, H, W].
func (cn *ChannelNorm) Step(x *etensor.Float32) *etensor.Float32 {
	plane := x.Dim(1) * x.Dim(2)
	if cn.Out.Len() != x.Len() {
		cn.Out.SetShape(x.Shp, nil, nil)
	}
	for c := 0; c < cn.C; c++ {
		vals := x.Values[c*plane : (c+1)*plane]
		mean := cn.RunMean.Values[c]
		vr := cn.RunVar.Values[c]
		if cn.Training {
			mean = 0
			for _, v := range vals {
				mean += v
			}
			mean /= float32(plane)
			vr = 0
			for _, v := range vals {
				d := v - mean
				vr += d * d
			}
			vr /= float32(plane)
			cn.RunMean.Values[c] += cn.Momentum * (mean - cn.RunMean.Values[c])
			cn.RunVar.Values[c] += cn.Momentum * (vr - cn.RunVar.Values[c])
		}
		sd := mat32.Sqrt(vr + cn.Eps)
		gam := float32(1)
		if cn.Scaling {
			gam = cn.Gamma.Values[c]
		}
		for i, v := range vals {
			cn.Out.Values[c*plane+i] = (v - mean) / sd * gam
		}
	}
	return &cn.Out
}

// Reset is a no-op: running statistics persist across runs.
func (cn *ChannelNorm) Reset() {}

var (
	KiT_NeuNorm     = kit.Types.AddType(&NeuNorm{}, nil)
	KiT_ChannelNorm = kit.Types.AddType(&ChannelNorm{}, nil)
)
