// Package convolution implements the instrument-response convolution of
// the image simulator: linear 2-D convolution of a model image with a
// pixelated point-spread-function kernel, preserving the image shape.
// Small kernels use direct summation; larger kernels go through a
// zero-padded FFT.
package convolution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Method selects the convolution implementation.
type Method int

const (
	// Auto picks Direct for small kernels and FFT otherwise.
	Auto Method = iota
	// Direct sums the kernel footprint per output pixel.
	Direct
	// FFT multiplies in the frequency domain on a zero-padded grid.
	FFT
)

// directKernelLimit is the kernel pixel count above which Auto switches
// to the FFT path.
const directKernelLimit = 33 * 33

// PixelKernel is a pixelated convolution kernel with odd dimensions so
// that it has an unambiguous central pixel. The kernel is read-only
// after construction and safe to share across concurrent callers.
type PixelKernel struct {
	kernel   []float64
	knx, kny int
	method   Method
}

// NewPixelKernel validates and wraps a row-major (kny, knx) kernel. Both
// dimensions must be odd; a malformed kernel is a configuration error.
func NewPixelKernel(kernel []float64, knx, kny int, method Method) (*PixelKernel, error) {
	if knx <= 0 || kny <= 0 || len(kernel) != knx*kny {
		return nil, fmt.Errorf("convolution: kernel length %d does not match %dx%d", len(kernel), knx, kny)
	}
	if knx%2 == 0 || kny%2 == 0 {
		return nil, fmt.Errorf("convolution: kernel dimensions must be odd, got %dx%d", knx, kny)
	}
	return &PixelKernel{
		kernel: append([]float64(nil), kernel...),
		knx:    knx,
		kny:    kny,
		method: method,
	}, nil
}

// NewDeltaKernel returns the identity kernel.
func NewDeltaKernel() *PixelKernel {
	k, _ := NewPixelKernel([]float64{1}, 1, 1, Direct)
	return k
}

// NewGaussianKernel builds a normalized circular Gaussian kernel with
// the given width in pixels, truncated at the given number of sigmas.
func NewGaussianKernel(sigmaPixels, truncation float64, method Method) (*PixelKernel, error) {
	if sigmaPixels <= 0 {
		return nil, fmt.Errorf("convolution: gaussian sigma must be positive, got %g", sigmaPixels)
	}
	if truncation <= 0 {
		truncation = 4
	}
	half := int(math.Ceil(truncation * sigmaPixels))
	size := 2*half + 1
	kernel := make([]float64, size*size)
	sum := 0.0
	for iy := 0; iy < size; iy++ {
		for ix := 0; ix < size; ix++ {
			dx := float64(ix - half)
			dy := float64(iy - half)
			v := math.Exp(-(dx*dx + dy*dy) / (2 * sigmaPixels * sigmaPixels))
			kernel[iy*size+ix] = v
			sum += v
		}
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return NewPixelKernel(kernel, size, size, method)
}

// Kernel returns a copy of the kernel values.
func (k *PixelKernel) Kernel() []float64 { return append([]float64(nil), k.kernel...) }

// Size returns the kernel dimensions (knx, kny).
func (k *PixelKernel) Size() (int, int) { return k.knx, k.kny }

// IsDelta reports whether convolution with this kernel is the identity.
func (k *PixelKernel) IsDelta() bool {
	return k.knx == 1 && k.kny == 1 && k.kernel[0] == 1
}

// Normalized returns a copy of the kernel scaled to unit sum, the usual
// flux-conserving PSF convention.
func (k *PixelKernel) Normalized() (*PixelKernel, error) {
	sum := 0.0
	for _, v := range k.kernel {
		sum += v
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("convolution: kernel sum %g cannot be normalized", sum)
	}
	scaled := make([]float64, len(k.kernel))
	for i, v := range k.kernel {
		scaled[i] = v / sum
	}
	return NewPixelKernel(scaled, k.knx, k.kny, k.method)
}

// Convolve performs the linear "same"-shape convolution of a row-major
// (ny, nx) image with the kernel, zero-padding beyond the image edges.
func (k *PixelKernel) Convolve(image []float64, nx, ny int) ([]float64, error) {
	if nx <= 0 || ny <= 0 || len(image) != nx*ny {
		return nil, fmt.Errorf("convolution: image length %d does not match %dx%d", len(image), nx, ny)
	}
	if k.IsDelta() {
		return append([]float64(nil), image...), nil
	}
	method := k.method
	if method == Auto {
		if k.knx*k.kny > directKernelLimit {
			method = FFT
		} else {
			method = Direct
		}
	}
	if method == FFT {
		return k.convolveFFT(image, nx, ny), nil
	}
	return k.convolveDirect(image, nx, ny), nil
}

func (k *PixelKernel) convolveDirect(image []float64, nx, ny int) []float64 {
	cx := k.knx / 2
	cy := k.kny / 2
	out := make([]float64, nx*ny)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			var acc float64
			for ky := 0; ky < k.kny; ky++ {
				sy := iy - (ky - cy)
				if sy < 0 || sy >= ny {
					continue
				}
				for kx := 0; kx < k.knx; kx++ {
					sx := ix - (kx - cx)
					if sx < 0 || sx >= nx {
						continue
					}
					acc += image[sy*nx+sx] * k.kernel[ky*k.knx+kx]
				}
			}
			out[iy*nx+ix] = acc
		}
	}
	return out
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (k *PixelKernel) convolveFFT(image []float64, nx, ny int) []float64 {
	px := nextPow2(nx + k.knx - 1)
	py := nextPow2(ny + k.kny - 1)

	imgF := make([]complex128, px*py)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			imgF[iy*px+ix] = complex(image[iy*nx+ix], 0)
		}
	}
	kerF := make([]complex128, px*py)
	for ky := 0; ky < k.kny; ky++ {
		for kx := 0; kx < k.knx; kx++ {
			kerF[ky*px+kx] = complex(k.kernel[ky*k.knx+kx], 0)
		}
	}

	fft2(imgF, px, py, false)
	fft2(kerF, px, py, false)
	for i := range imgF {
		imgF[i] *= kerF[i]
	}
	fft2(imgF, px, py, true)

	// crop the "same" window: the full convolution starts at the kernel
	// center offset
	cx := k.knx / 2
	cy := k.kny / 2
	out := make([]float64, nx*ny)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			out[iy*nx+ix] = real(imgF[(iy+cy)*px+(ix+cx)])
		}
	}
	return out
}

// fft2 performs an in-place 2-D FFT (or unnormalized-inverse, then
// normalized here) on a row-major (py, px) complex field, row transforms
// followed by column transforms.
func fft2(data []complex128, px, py int, inverse bool) {
	fx := fourier.NewCmplxFFT(px)
	fy := fourier.NewCmplxFFT(py)

	row := make([]complex128, px)
	for iy := 0; iy < py; iy++ {
		copy(row, data[iy*px:(iy+1)*px])
		if inverse {
			fx.Sequence(data[iy*px:(iy+1)*px], row)
		} else {
			fx.Coefficients(data[iy*px:(iy+1)*px], row)
		}
	}

	col := make([]complex128, py)
	res := make([]complex128, py)
	for ix := 0; ix < px; ix++ {
		for iy := 0; iy < py; iy++ {
			col[iy] = data[iy*px+ix]
		}
		if inverse {
			fy.Sequence(res, col)
		} else {
			fy.Coefficients(res, col)
		}
		for iy := 0; iy < py; iy++ {
			data[iy*px+ix] = res[iy]
		}
	}

	if inverse {
		norm := complex(float64(px*py), 0)
		for i := range data {
			data[i] /= norm
		}
	}
}
