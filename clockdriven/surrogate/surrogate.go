// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package surrogate provides the spike firing functions used by
// clock-driven neurons.  The firing nonlinearity is the Heaviside step,
// which has zero gradient almost everywhere; each function here pairs the
// step with a smooth primitive whose derivative serves as the surrogate
// gradient during training.
package surrogate

import (
	"math"

	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// Heaviside is the spike firing step function: 1 if x >= 0, else 0.
func Heaviside(x float32) float32 {
	if x >= 0 {
		return 1
	}
	return 0
}

// Function is a spike firing function with a surrogate gradient.
// Apply computes the firing output for membrane potential above threshold
// x = v - v_threshold: the Heaviside step in spiking mode, or the smooth
// primitive g(x) otherwise.  Deriv computes the surrogate gradient g'(x).
type Function interface {
	Apply(x float32) float32
	Deriv(x float32) float32

	// IsSpiking returns true if Apply emits discrete 0 / 1 spikes.
	IsSpiking() bool
}

// BilinearLeakyReLU fires with a piecewise-constant surrogate gradient:
// A within [-C, C] and B outside.  The primitive is the corresponding
// bilinear ramp.
type BilinearLeakyReLU struct {
	A       float32 `def:"1" desc:"gradient within [-C, C]"`
	B       float32 `def:"0.01" desc:"gradient outside [-C, C]"`
	C       float32 `def:"0.5" desc:"half-width of the inner gradient region"`
	Spiking bool    `def:"true" desc:"emit discrete spikes from Apply -- otherwise the smooth primitive"`
}

func (bl *BilinearLeakyReLU) Defaults() {
	bl.A = 1
	bl.B = 0.01
	bl.C = 0.5
	bl.Spiking = true
}

func (bl *BilinearLeakyReLU) IsSpiking() bool { return bl.Spiking }

func (bl *BilinearLeakyReLU) Apply(x float32) float32 {
	if bl.Spiking {
		return Heaviside(x)
	}
	switch {
	case x < -bl.C:
		return bl.B*x + bl.B*bl.C - bl.A*bl.C
	case x > bl.C:
		return bl.B*x - bl.B*bl.C + bl.A*bl.C
	default:
		return bl.A * x
	}
}

func (bl *BilinearLeakyReLU) Deriv(x float32) float32 {
	if x < -bl.C || x > bl.C {
		return bl.B
	}
	return bl.A
}

// Sigmoid fires with the derivative of a sigmoid of gain Alpha as the
// surrogate gradient: g'(x) = alpha * s(alpha x) * (1 - s(alpha x)).
type Sigmoid struct {
	Alpha   float32 `def:"1" desc:"gain controlling the smoothness of the gradient"`
	Spiking bool    `def:"true" desc:"emit discrete spikes from Apply -- otherwise the smooth primitive"`
}

func (sg *Sigmoid) Defaults() {
	sg.Alpha = 1
	sg.Spiking = true
}

func (sg *Sigmoid) IsSpiking() bool { return sg.Spiking }

func (sg *Sigmoid) Apply(x float32) float32 {
	if sg.Spiking {
		return Heaviside(x)
	}
	return sigmoid(sg.Alpha * x)
}

func (sg *Sigmoid) Deriv(x float32) float32 {
	s := sigmoid(sg.Alpha * x)
	return sg.Alpha * s * (1 - s)
}

// SignSwish fires with the swish-based surrogate gradient of BNN+
// (Darabi et al., 2018): g'(x) = beta*(2 - beta*x*tanh(beta*x/2)) /
// (1 + cosh(beta*x)).
type SignSwish struct {
	Beta    float32 `def:"5" desc:"gain controlling the sharpness of the gradient"`
	Spiking bool    `def:"true" desc:"emit discrete spikes from Apply -- otherwise the smooth primitive"`
}

func (sw *SignSwish) Defaults() {
	sw.Beta = 5
	sw.Spiking = true
}

func (sw *SignSwish) IsSpiking() bool { return sw.Spiking }

func (sw *SignSwish) Apply(x float32) float32 {
	if sw.Spiking {
		return Heaviside(x)
	}
	bx := sw.Beta * x
	s := sigmoid(bx)
	return 2*s*(1+bx*(1-s)) - 1
}

func (sw *SignSwish) Deriv(x float32) float32 {
	bx := sw.Beta * x
	return sw.Beta * (2 - bx*mat32.Tanh(bx/2)) / (1 + mat32.Cosh(bx))
}

// Erf fires with a gaussian surrogate gradient:
// g'(x) = (alpha / sqrt(pi)) * exp(-(alpha*x)^2), the derivative of the
// error-function primitive g(x) = (1 + erf(alpha*x)) / 2.
type Erf struct {
	Alpha   float32 `def:"2" desc:"gain controlling the width of the gaussian gradient"`
	Spiking bool    `def:"true" desc:"emit discrete spikes from Apply -- otherwise the smooth primitive"`
}

func (er *Erf) Defaults() {
	er.Alpha = 2
	er.Spiking = true
}

func (er *Erf) IsSpiking() bool { return er.Spiking }

func (er *Erf) Apply(x float32) float32 {
	if er.Spiking {
		return Heaviside(x)
	}
	// mat32 has no erf -- single call site, convert at the boundary
	return float32(1+math.Erf(float64(er.Alpha*x))) / 2
}

func (er *Erf) Deriv(x float32) float32 {
	ax := er.Alpha * x
	return er.Alpha / mat32.Sqrt(mat32.Pi) * mat32.Exp(-ax*ax)
}

func sigmoid(x float32) float32 {
	return 1 / (1 + mat32.FastExp(-x))
}

var (
	KiT_BilinearLeakyReLU = kit.Types.AddType(&BilinearLeakyReLU{}, nil)
	KiT_Sigmoid           = kit.Types.AddType(&Sigmoid{}, nil)
	KiT_SignSwish         = kit.Types.AddType(&SignSwish{}, nil)
	KiT_Erf               = kit.Types.AddType(&Erf{}, nil)
)
