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

// AXAT applies the bilinear transform A * X * A^T over the last two
// dimensions of the input: each [In, In] matrix slice maps to
// [NOut, NOut].  A is a learnable [NOut, In] matrix.
type AXAT struct {
	In   int             `desc:"input size of the last two dimensions"`
	NOut int             `desc:"output size of the last two dimensions"`
	A    etensor.Float32 `view:"no-inline" desc:"transform matrix, shape [NOut, In]"`
	Out  etensor.Float32 `view:"no-inline" desc:"output from the last Step"`

	tmp []float32
}

// Config sets the sizes and initializes A kaiming-uniform.
func (ax *AXAT) Config(in, out int) {
	ax.In = in
	ax.NOut = out
	ax.A.SetShape([]int{out, in}, nil, []string{"Out", "In"})
	bound := mat32.Sqrt(6 / (6 * float32(in)))
	for i := range ax.A.Values {
		ax.A.Values[i] = (rand.Float32()*2 - 1) * bound
	}
	ax.tmp = make([]float32, out*in)
}

// Step transforms one cycle of input with shape [..., In, In].
func (ax *AXAT) Step(x *etensor.Float32) *etensor.Float32 {
	nd := x.NumDims()
	n := x.Dim(nd - 1)
	nmat := x.Len() / (n * n)
	oshp := append([]int{}, x.Shp[:nd-2]...)
	oshp = append(oshp, ax.NOut, ax.NOut)
	if !etensor.EqualInts(oshp, ax.Out.Shp) {
		ax.Out.SetShape(oshp, nil, nil)
	}
	for m := 0; m < nmat; m++ {
		xv := x.Values[m*n*n : (m+1)*n*n]
		ov := ax.Out.Values[m*ax.NOut*ax.NOut : (m+1)*ax.NOut*ax.NOut]
		// tmp = A * X
		for i := 0; i < ax.NOut; i++ {
			for j := 0; j < n; j++ {
				sum := float32(0)
				for k := 0; k < n; k++ {
					sum += ax.A.Values[i*n+k] * xv[k*n+j]
				}
				ax.tmp[i*n+j] = sum
			}
		}
		// out = tmp * A^T
		for i := 0; i < ax.NOut; i++ {
			for j := 0; j < ax.NOut; j++ {
				sum := float32(0)
				for k := 0; k < n; k++ {
					sum += ax.tmp[i*n+k] * ax.A.Values[j*n+k]
				}
				ov[i*ax.NOut+j] = sum
			}
		}
	}
	return &ax.Out
}

// Reset is a no-op: AXAT is stateless.
func (ax *AXAT) Reset() {}

// DCT applies a blockwise discrete cosine transform over the last two
// dimensions of the input, a special case of AXAT with the fixed
// orthonormal DCT-II kernel.  Both of the last two dimensions must be
// divisible by KernelSize.
type DCT struct {
	KernelSize int             `desc:"size of the square transform blocks"`
	Kernel     etensor.Float32 `view:"no-inline" desc:"DCT-II kernel, shape [KernelSize, KernelSize]"`
	Out        etensor.Float32 `view:"no-inline" desc:"output from the last Step"`

	tmp []float32
}

// Config builds the orthonormal DCT-II kernel of the given size.
func (dc *DCT) Config(kernelSize int) {
	dc.KernelSize = kernelSize
	k := kernelSize
	dc.Kernel.SetShape([]int{k, k}, nil, nil)
	for i := 0; i < k; i++ {
		amp := mat32.Sqrt(2 / float32(k))
		if i == 0 {
			amp = mat32.Sqrt(1 / float32(k))
		}
		for j := 0; j < k; j++ {
			dc.Kernel.Values[i*k+j] = amp * mat32.Cos((float32(j)+0.5)*mat32.Pi*float32(i)/float32(k))
		}
	}
	dc.tmp = make([]float32, k*k)
}

// Step transforms one cycle of input with shape [..., H, W].
func (dc *DCT) Step(x *etensor.Float32) *etensor.Float32 {
	nd := x.NumDims()
	h := x.Dim(nd - 2)
	w := x.Dim(nd - 1)
	nmat := x.Len() / (h * w)
	if dc.Out.Len() != x.Len() {
		dc.Out.SetShape(x.Shp, nil, nil)
	}
	k := dc.KernelSize
	for m := 0; m < nmat; m++ {
		xv := x.Values[m*h*w : (m+1)*h*w]
		ov := dc.Out.Values[m*h*w : (m+1)*h*w]
		for bi := 0; bi < h; bi += k {
			for bj := 0; bj < w; bj += k {
				// tmp = K * block
				for i := 0; i < k; i++ {
					for j := 0; j < k; j++ {
						sum := float32(0)
						for l := 0; l < k; l++ {
							sum += dc.Kernel.Values[i*k+l] * xv[(bi+l)*w+bj+j]
						}
						dc.tmp[i*k+j] = sum
					}
				}
				// out block = tmp * K^T
				for i := 0; i < k; i++ {
					for j := 0; j < k; j++ {
						sum := float32(0)
						for l := 0; l < k; l++ {
							sum += dc.tmp[i*k+l] * dc.Kernel.Values[j*k+l]
						}
						ov[(bi+i)*w+bj+j] = sum
					}
				}
			}
		}
	}
	return &dc.Out
}

// Reset is a no-op: DCT is stateless.
func (dc *DCT) Reset() {}

var (
	KiT_AXAT = kit.Types.AddType(&AXAT{}, nil)
	KiT_DCT  = kit.Types.AddType(&DCT{}, nil)
)
