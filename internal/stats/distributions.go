package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// StatisticalDistributions provides the reference distributions the tests
// need for p-values and quantiles.
type StatisticalDistributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

// ChiSquarePValue computes the upper-tail p-value for a chi-square statistic
func (sd *StatisticalDistributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return chiDist.Survival(chiSquare)
}

// NormalCDF computes cumulative distribution function for standard normal
func (sd *StatisticalDistributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// TwoSidedNormalPValue returns 2*(1-Phi(|z|))
func (sd *StatisticalDistributions) TwoSidedNormalPValue(z float64) float64 {
	return 2 * (1 - sd.NormalCDF(math.Abs(z)))
}

// UniformQuantile is the inverse CDF of uniform(loc, loc+scale).
func (sd *StatisticalDistributions) UniformQuantile(p, loc, scale float64) float64 {
	if scale == 0 {
		return loc
	}
	return distuv.Uniform{Min: loc, Max: loc + scale}.Quantile(p)
}

// KolmogorovPValue is the two-sided p-value of the one-sample KS statistic
// d for sample size n. Small samples use the exact distribution of
// Marsaglia, Tsang and Wang (2003); larger ones the Pelz-Good expansion,
// and the far upper tail its exponential approximation.
func (sd *StatisticalDistributions) KolmogorovPValue(d float64, n int) float64 {
	if math.IsNaN(d) || n <= 0 {
		return math.NaN()
	}
	p := 1 - kolmogorovCDF(d, n)
	return math.Min(1, math.Max(0, p))
}

// exactKSMaxN is the largest n always evaluated with the exact matrix
// method. Above it the matrix is used only while it stays small.
const exactKSMaxN = 140

// kolmogorovCDF returns P(D_n < d).
func kolmogorovCDF(d float64, n int) float64 {
	if d <= 0 {
		return 0
	}
	if d >= 1 {
		return 1
	}
	nf := float64(n)
	s := d * d * nf
	if s > 7.24 || (s > 3.76 && n > 99) {
		return 1 - 2*math.Exp(-(2.000071+0.331/math.Sqrt(nf)+1.409/nf)*s)
	}
	if n <= exactKSMaxN || (n <= 100000 && nf*math.Pow(d, 1.5) <= 1.4) {
		return exactKolmogorovCDF(d, n)
	}
	return pelzGoodCDF(d, n)
}

// exactKolmogorovCDF evaluates P(D_n < d) by the Marsaglia-Tsang-Wang
// matrix power. The matrix has about 2nd rows, so cost grows quickly with n*d.
func exactKolmogorovCDF(d float64, n int) float64 {
	nf := float64(n)
	k := int(nf*d) + 1
	m := 2*k - 1
	h := float64(k) - nf*d

	H := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 >= 0 {
				H.Set(i, j, 1)
			}
		}
	}
	for i := 0; i < m; i++ {
		H.Set(i, 0, H.At(i, 0)-math.Pow(h, float64(i+1)))
		H.Set(m-1, i, H.At(m-1, i)-math.Pow(h, float64(m-i)))
	}
	if 2*h-1 > 0 {
		H.Set(m-1, 0, H.At(m-1, 0)+math.Pow(2*h-1, float64(m)))
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 > 0 {
				v := H.At(i, j)
				for g := 1; g <= i-j+1; g++ {
					v /= float64(g)
				}
				H.Set(i, j, v)
			}
		}
	}

	Q, exp := scaledPower(H, n)
	p := Q.At(k-1, k-1)
	for i := 1; i <= n; i++ {
		p = p * float64(i) / nf
		if p < 1e-140 {
			p *= 1e140
			exp -= 140
		}
	}
	return p * math.Pow(10, float64(exp))
}

// pelzGoodCDF is the Pelz-Good (1976) asymptotic expansion of P(D_n < d)
// in powers of 1/sqrt(n).
func pelzGoodCDF(d float64, n int) float64 {
	z := math.Sqrt(float64(n)) * d
	z2 := z * z
	z4 := z2 * z2
	z6 := z4 * z2

	pi2 := math.Pi * math.Pi
	pi4 := pi2 * pi2
	pi6 := pi4 * pi2
	sqrt2pi := math.Sqrt(2 * math.Pi)

	qlog := -pi2 / 8 / z2
	if qlog < math.Log(math.SmallestNonzeroFloat64) {
		return 0
	}
	q := math.Exp(qlog)

	k1a, k1b := -z2, pi2/4
	k2a := 6*z6 + 2*z4
	k2b := (2*z4 - 5*z2) * pi2 / 4
	k2c := pi4 * (1 - 2*z2) / 16
	k3a := -30*z6 - 90*z4*z4
	k3b := pi2 * (135*z4 - 96*z6) / 4
	k3c := pi4 * (212*z4 - 60*z2) / 16
	k3d := pi6 * (5 - 30*z2) / 64

	// Sums over odd m of c(m)*q^(m^2), accumulated Horner-style from the
	// largest term.
	var terms [4]float64
	maxK := int(math.Ceil(16 * z / math.Pi))
	for k := maxK; k >= 1; k-- {
		m2 := float64((2*k - 1) * (2*k - 1))
		m4 := m2 * m2
		qk := math.Pow(q, float64(8*k))
		coeffs := [4]float64{
			1,
			k1a + k1b*m2,
			k2a + k2b*m2 + k2c*m4,
			k3a + k3b*m2 + k3c*m4 + k3d*m4*m2,
		}
		for i := range terms {
			terms[i] = terms[i]*qk + coeffs[i]
		}
	}
	scale := [4]float64{z, 6 * z4, 72 * z6 * z, 6480 * z6 * z4}
	for i := range terms {
		terms[i] *= q * sqrt2pi / scale[i]
	}

	// Remaining sums over all integers k for the second and third terms.
	qe := math.Exp(-pi2 / 2 / z2)
	sqrt3z := math.Sqrt(3) * z
	var k2extra, k3extra float64
	for k := maxK; k >= 1; k-- {
		kf := float64(k)
		w := kf * kf * math.Pow(qe, kf*kf)
		k2extra += w
		k3extra += (sqrt3z + math.Pi*kf) * (sqrt3z - math.Pi*kf) * w
	}
	terms[2] += k2extra * pi2 * sqrt2pi / (-36 * z2 * z)
	terms[3] += k3extra * pi2 * sqrt2pi / (216 * z6)

	sqrtN := math.Sqrt(float64(n))
	cdf := terms[0] + terms[1]/sqrtN + terms[2]/float64(n) + terms[3]/(float64(n)*sqrtN)
	return math.Min(1, math.Max(0, cdf))
}

// scaledPower computes a^n as (mantissa matrix, decimal exponent), keeping
// entries below 1e140 so large n cannot overflow.
func scaledPower(a *mat.Dense, n int) (*mat.Dense, int) {
	size, _ := a.Dims()
	result := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		result.Set(i, i, 1)
	}
	resultExp := 0

	base := mat.DenseCopyOf(a)
	baseExp := 0

	for n > 0 {
		if n&1 == 1 {
			next := mat.NewDense(size, size, nil)
			next.Mul(result, base)
			result = next
			resultExp += baseExp
			resultExp += rescale(result)
		}
		n >>= 1
		if n > 0 {
			next := mat.NewDense(size, size, nil)
			next.Mul(base, base)
			base = next
			baseExp *= 2
			baseExp += rescale(base)
		}
	}
	return result, resultExp
}

func rescale(m *mat.Dense) int {
	if mat.Norm(m, math.Inf(1)) <= 1e140 {
		return 0
	}
	m.Scale(1e-140, m)
	return 140
}
