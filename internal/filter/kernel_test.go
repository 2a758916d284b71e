package filter

import (
	"math"
	"testing"
)

func TestGaussianKernelZeroSigma(t *testing.T) {
	for _, sigma := range []float64{0, -5} {
		kernel := GaussianKernel(sigma)
		if len(kernel) != 1 || kernel[0] != 1.0 {
			t.Errorf("GaussianKernel(%v) = %v, want [1]", sigma, kernel)
		}
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	for _, sigma := range []float64{0.08, 0.5, 1, 2.6, 10} {
		kernel := GaussianKernel(sigma)

		var sum float32
		for _, v := range kernel {
			sum += v
		}
		if math.Abs(float64(sum)-1.0) > 0.001 {
			t.Errorf("GaussianKernel(%v) sum = %v, want 1.0", sigma, sum)
		}
		wantLen := 2*int(math.Ceil(sigma*3)) + 1
		if len(kernel) != wantLen {
			t.Errorf("GaussianKernel(%v) len = %d, want %d", sigma, len(kernel), wantLen)
		}
	}
}

func TestGaussianKernelSymmetric(t *testing.T) {
	kernel := GaussianKernel(2)
	n := len(kernel)
	for i := 0; i < n/2; i++ {
		if math.Abs(float64(kernel[i]-kernel[n-1-i])) > 1e-7 {
			t.Errorf("kernel[%d] = %v, kernel[%d] = %v, want equal", i, kernel[i], n-1-i, kernel[n-1-i])
		}
	}
}

func TestConeSigma(t *testing.T) {
	tests := []struct {
		exponent float64
		want     float64
	}{
		{0.01, 0.08},
		{0.5, 4},
		{10.0/32 + 0.01, 2.58},
	}
	for _, tt := range tests {
		if got := ConeSigma(tt.exponent, 32); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConeSigma(%v, 32) = %v, want %v", tt.exponent, got, tt.want)
		}
	}
}

func TestConeKernelWidensWithExponent(t *testing.T) {
	prev := 0
	for level := 0; level < 11; level++ {
		exponent := float64(level)/32 + 0.01
		n := len(ConeKernel(exponent, 32))
		if n < prev {
			t.Errorf("level %d kernel len %d narrower than previous %d", level, n, prev)
		}
		prev = n
	}
	// Level 0 is effectively an identity filter.
	k := ConeKernel(0.01, 32)
	if k[len(k)/2] < 0.999 {
		t.Errorf("level 0 center weight = %v, want ~1", k[len(k)/2])
	}
}

func TestKernelCache(t *testing.T) {
	c := newKernelCache(4)
	a := c.get(1.5)
	b := c.get(1.5)
	if &a[0] != &b[0] {
		t.Error("expected cached kernel to be reused")
	}
	for i := 0; i < 10; i++ {
		c.get(float64(i) + 0.25)
	}
	if c.len() > 4 {
		t.Errorf("cache len = %d, want <= 4", c.len())
	}
}
