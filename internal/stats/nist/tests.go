package nist

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"randlab/domain/analysis"
	"randlab/internal/stats"
)

const (
	// DefaultMatrixSize is the only supported rank-test matrix order.
	DefaultMatrixSize = 32
	// DefaultBlockSize is the only supported longest-run block length.
	DefaultBlockSize = 128
	// DefaultPatternLength is m in the approximate entropy test.
	DefaultPatternLength = 2
)

// Rank class probabilities for 32x32 matrices.
const (
	probFullRank   = 0.2888
	probRankMinus1 = 0.5776
	probRankLower  = 0.1336
)

// Longest-run class probabilities for 128-bit blocks, classes <=4, 5..8, >=9.
var longestRunProbabilities = []float64{0.1174, 0.2430, 0.2493, 0.1752, 0.1027, 0.1124}

const (
	longestRunFirstClass = 4
	longestRunLastClass  = 9
)

var dist = stats.NewDistributions()

// RunsTest counts maximal runs of identical bits and compares the count to
// its expectation under independence with a two-sided normal test.
func RunsTest(bits []uint8) analysis.RunsTestResult {
	n := len(bits)
	if n < 2 {
		return analysis.RunsTestResult{TestOutcome: analysis.Inapplicable("Sequence too short")}
	}
	ones := countOnes(bits)
	zeros := n - ones
	if ones == 0 || zeros == 0 {
		return analysis.RunsTestResult{TestOutcome: analysis.Inapplicable("Sequence contains only one type of bit")}
	}

	runs := 1
	for i := 1; i < n; i++ {
		if bits[i] != bits[i-1] {
			runs++
		}
	}

	nf := float64(n)
	twoOZ := 2 * float64(ones) * float64(zeros)
	expected := twoOZ/nf + 1
	variance := twoOZ * (twoOZ - nf) / (nf * nf * (nf - 1))
	if variance <= 0 {
		return analysis.RunsTestResult{TestOutcome: analysis.Inapplicable("Invalid variance")}
	}

	z := (float64(runs) - expected) / math.Sqrt(variance)
	return analysis.RunsTestResult{
		TestOutcome: analysis.Evaluated(dist.TwoSidedNormalPValue(z), z),
		RunsDetail: &analysis.RunsDetail{
			Runs:         runs,
			ExpectedRuns: expected,
			Ones:         ones,
			Zeros:        zeros,
		},
	}
}

// BinaryMatrixRankTest fills consecutive size x size matrices row by row and
// classifies each by its numerical rank over the reals: full, one short, or
// lower. Only size 32 is supported.
func BinaryMatrixRankTest(bits []uint8, size int) analysis.MatrixRankTestResult {
	if size != DefaultMatrixSize {
		return analysis.MatrixRankTestResult{TestOutcome: analysis.Inapplicable("Only matrix_size=32 is supported")}
	}
	perMatrix := size * size
	if len(bits) < perMatrix {
		return analysis.MatrixRankTestResult{
			TestOutcome: analysis.Inapplicable(fmt.Sprintf("Sequence too short (need at least %d bits)", perMatrix)),
		}
	}

	numMatrices := len(bits) / perMatrix
	var full, minus1, lower int
	data := make([]float64, perMatrix)
	for m := 0; m < numMatrices; m++ {
		for i, b := range bits[m*perMatrix : (m+1)*perMatrix] {
			data[i] = float64(b)
		}
		switch rank := matrixRank(mat.NewDense(size, size, data)); rank {
		case size:
			full++
		case size - 1:
			minus1++
		default:
			lower++
		}
	}

	nm := float64(numMatrices)
	chi := chiTerm(full, nm*probFullRank) +
		chiTerm(minus1, nm*probRankMinus1) +
		chiTerm(lower, nm*probRankLower)

	return analysis.MatrixRankTestResult{
		TestOutcome: analysis.Evaluated(dist.ChiSquarePValue(chi, 2), chi),
		MatrixRankDetail: &analysis.MatrixRankDetail{
			NumMatrices:     numMatrices,
			FullRankCount:   full,
			RankMinus1Count: minus1,
			Rank0Count:      lower,
		},
	}
}

// matrixRank counts singular values above max(rows, cols) * eps * sigma_max.
func matrixRank(a mat.Matrix) int {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return 0
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return 0
	}
	r, c := a.Dims()
	order := r
	if c > order {
		order = c
	}
	eps := math.Nextafter(1, 2) - 1
	tol := values[0] * float64(order) * eps

	rank := 0
	for _, v := range values {
		if v > tol {
			rank++
		}
	}
	return rank
}

// LongestRunOfOnesTest classifies the longest run of ones in each block of
// blockSize bits and compares the class counts to their expected shares.
// Only block size 128 is supported.
func LongestRunOfOnesTest(bits []uint8, blockSize int) analysis.LongestRunTestResult {
	if blockSize != DefaultBlockSize {
		return analysis.LongestRunTestResult{TestOutcome: analysis.Inapplicable("Only block_size=128 is supported")}
	}
	if len(bits) < blockSize {
		return analysis.LongestRunTestResult{
			TestOutcome: analysis.Inapplicable(fmt.Sprintf("Sequence too short (need at least %d bits)", blockSize)),
		}
	}

	numBlocks := len(bits) / blockSize
	counts := make([]int, len(longestRunProbabilities))
	for b := 0; b < numBlocks; b++ {
		longest, current := 0, 0
		for _, bit := range bits[b*blockSize : (b+1)*blockSize] {
			if bit == 1 {
				current++
				if current > longest {
					longest = current
				}
			} else {
				current = 0
			}
		}
		switch {
		case longest <= longestRunFirstClass:
			counts[0]++
		case longest >= longestRunLastClass:
			counts[len(counts)-1]++
		default:
			counts[longest-longestRunFirstClass]++
		}
	}

	var chi float64
	runCounts := make(map[string]int, len(counts))
	for i, p := range longestRunProbabilities {
		chi += chiTerm(counts[i], float64(numBlocks)*p)
		runCounts[strconv.Itoa(longestRunFirstClass+i)] = counts[i]
	}

	return analysis.LongestRunTestResult{
		TestOutcome: analysis.Evaluated(dist.ChiSquarePValue(chi, len(counts)-1), chi),
		LongestRunDetail: &analysis.LongestRunDetail{
			NumBlocks: numBlocks,
			RunCounts: runCounts,
		},
	}
}

// ApproximateEntropyTest compares the frequencies of overlapping patterns of
// length m and m+1. The sequence is not wrapped, so each length sees
// n-len+1 patterns.
func ApproximateEntropyTest(bits []uint8, m int) analysis.ApproximateEntropyTestResult {
	n := len(bits)
	minRequired := 10 * (1 << uint(m))
	if m < 1 || n < minRequired {
		return analysis.ApproximateEntropyTestResult{
			TestOutcome: analysis.Inapplicable(fmt.Sprintf("Sequence too short (need at least %d bits for m=%d)", minRequired, m)),
		}
	}

	countsM, numM := countPatterns(bits, m)
	countsM1, numM1 := countPatterns(bits, m+1)
	phiM := phi(countsM, numM)
	phiM1 := phi(countsM1, numM1)
	apEn := phiM - phiM1

	chi := 2 * float64(n) * (math.Ln2 - apEn)
	if chi < 0 {
		chi = 0
	}

	return analysis.ApproximateEntropyTestResult{
		TestOutcome: analysis.Evaluated(dist.ChiSquarePValue(chi, 1<<uint(m)), chi),
		ApproximateEntropyDetail: &analysis.ApproximateEntropyDetail{
			ApproximateEntropy: apEn,
			PhiM:               phiM,
			PhiM1:              phiM1,
			PatternLengthM:     m,
			PatternLengthM1:    m + 1,
			NumPatternsM:       numM,
			NumPatternsM1:      numM1,
			UniquePatternsM:    len(countsM),
			UniquePatternsM1:   len(countsM1),
		},
	}
}

// countPatterns tallies every overlapping window of the given length, keyed
// by the window read as a binary number.
func countPatterns(bits []uint8, length int) (map[uint64]int, int) {
	total := len(bits) - length + 1
	counts := make(map[uint64]int)
	for i := 0; i < total; i++ {
		var key uint64
		for _, b := range bits[i : i+length] {
			key = key<<1 | uint64(b)
		}
		counts[key]++
	}
	return counts, total
}

func phi(counts map[uint64]int, total int) float64 {
	var sum float64
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		p := float64(counts[key]) / float64(total)
		sum += p * math.Log(p+1e-10)
	}
	return sum
}

func chiTerm(observed int, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	d := float64(observed) - expected
	return d * d / expected
}

// RunAll encodes xs and runs every test with its default parameters.
func RunAll(xs []float64) analysis.NISTTests {
	bits := NumbersToBinary(xs)
	return analysis.NISTTests{
		RunsTest:               RunsTest(bits),
		BinaryMatrixRankTest:   BinaryMatrixRankTest(bits, DefaultMatrixSize),
		LongestRunOfOnesTest:   LongestRunOfOnesTest(bits, DefaultBlockSize),
		ApproximateEntropyTest: ApproximateEntropyTest(bits, DefaultPatternLength),
		BinarySequenceLength:   len(bits),
	}
}
