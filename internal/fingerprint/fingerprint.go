package fingerprint

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Compute calculates the exact digest and all three perceptual hashes
// for an image. Pure function of the image content.
func Compute(imageData []byte) (*Fingerprints, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	f := &Fingerprints{
		Exact: md5.Sum(imageData),
		PHash: computePHash(img),
		DHash: computeDHash(img),
		WHash: computeWHash(img),
	}
	f.fillHex()
	return f, nil
}

// computePHash computes a 64-bit perceptual hash using DCT.
func computePHash(img image.Image) uint64 {
	// 1. Resize to 32x32 for DCT processing
	resized := resizeImage(img, 32, 32)

	// 2. Convert to grayscale
	gray := toGrayscale(resized)

	// 3. Compute 32x32 DCT (Discrete Cosine Transform)
	dct := computeDCT(gray)

	// 4. Extract top-left 8x8 DCT coefficients (low frequencies)
	//    excluding DC component (0,0)
	lowFreq := make([]float64, 64)
	idx := 0
	for u := range 8 {
		for v := range 8 {
			if u == 0 && v == 0 {
				continue // Skip DC component
			}
			if idx < 64 {
				lowFreq[idx] = dct[u][v]
				idx++
			}
		}
	}
	// Fill remaining with the last few coefficients.
	for ; idx < 64; idx++ {
		lowFreq[idx] = dct[idx/8][idx%8]
	}

	// 5. Compute median of the 64 values
	median := computeMedian(lowFreq)

	// 6. Generate hash: 1 if value > median, 0 otherwise
	var hash uint64
	for i := range 64 {
		if lowFreq[i] > median {
			hash |= 1 << (63 - i)
		}
	}

	return hash
}

// computeDHash computes a 64-bit difference hash.
func computeDHash(img image.Image) uint64 {
	// 1. Resize to 9x8 (we need 9 columns for 8 differences)
	resized := resizeImage(img, 9, 8)

	// 2. Convert to grayscale
	gray := toGrayscale(resized)

	// 3. Compare adjacent pixels horizontally
	//    Each row: compare pixel[x] vs pixel[x+1]
	//    8 rows * 8 comparisons = 64 bits
	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if gray[x][y] > gray[x+1][y] {
				hash |= 1 << bit
			}
			bit--
		}
	}

	return hash
}

// computeWHash computes a 64-bit wavelet hash.
func computeWHash(img image.Image) uint64 {
	// 1. Resize to 64x64 (power of two for the Haar decomposition)
	resized := resizeImage(img, 64, 64)

	// 2. Convert to grayscale
	gray := toGrayscale(resized)

	// 3. Apply a 3-level 2D Haar transform; the top-left 8x8 block then
	//    holds the low-frequency approximation of the image
	coeffs := haarTransform(gray, 3)

	// 4. Median-threshold the 8x8 approximation into 64 bits
	values := make([]float64, 0, 64)
	for y := range 8 {
		for x := range 8 {
			values = append(values, coeffs[x][y])
		}
	}
	median := computeMedian(values)

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if coeffs[x][y] > median {
				hash |= 1 << bit
			}
			bit--
		}
	}

	return hash
}

// haarTransform applies levels of the standard 2D Haar wavelet decomposition
// in place on a copy of the input. After each level the approximation lives
// in the top-left quadrant.
func haarTransform(gray [][]float64, levels int) [][]float64 {
	size := len(gray)
	out := make([][]float64, size)
	for x := range out {
		out[x] = make([]float64, size)
		copy(out[x], gray[x])
	}

	span := size
	for range levels {
		half := span / 2
		tmp := make([]float64, span)

		// Rows: average into the left half, difference into the right.
		for y := 0; y < span; y++ {
			for i := 0; i < half; i++ {
				a, b := out[2*i][y], out[2*i+1][y]
				tmp[i] = (a + b) / 2
				tmp[half+i] = (a - b) / 2
			}
			for x := 0; x < span; x++ {
				out[x][y] = tmp[x]
			}
		}

		// Columns: same split vertically.
		for x := 0; x < span; x++ {
			for i := 0; i < half; i++ {
				a, b := out[x][2*i], out[x][2*i+1]
				tmp[i] = (a + b) / 2
				tmp[half+i] = (a - b) / 2
			}
			for y := 0; y < span; y++ {
				out[x][y] = tmp[y]
			}
		}

		span = half
	}

	return out
}

// resizeImage scales an image to the specified dimensions.
func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// toGrayscale converts an image to a 2D array of grayscale values (0-255).
func toGrayscale(img *image.RGBA) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, width)
	for x := range width {
		gray[x] = make([]float64, height)
		for y := range height {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray[x][y] = luma
		}
	}

	return gray
}

// computeDCT computes the Discrete Cosine Transform of a grayscale image.
func computeDCT(gray [][]float64) [][]float64 {
	size := len(gray)
	dct := make([][]float64, size)
	for i := range dct {
		dct[i] = make([]float64, size)
	}

	// Precompute cosine values for efficiency.
	cosTable := make([][]float64, size)
	for i := range cosTable {
		cosTable[i] = make([]float64, size)
		for j := range size {
			cosTable[i][j] = math.Cos(math.Pi * float64(i) * (2*float64(j) + 1) / (2 * float64(size)))
		}
	}

	// DCT-II formula.
	for u := range size {
		for v := range size {
			var sum float64
			for x := range size {
				for y := range size {
					sum += gray[x][y] * cosTable[u][x] * cosTable[v][y]
				}
			}
			dct[u][v] = sum
		}
	}

	return dct
}

// computeMedian returns the median value from a slice.
func computeMedian(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
