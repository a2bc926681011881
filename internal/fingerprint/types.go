// Package fingerprint computes exact and perceptual image fingerprints.
//
// Each image gets one 128-bit digest over its raw bytes (equal only for
// byte-identical files) and three 64-bit perceptual hashes: a DCT hash robust
// to scaling and recompression, a gradient hash robust to layout-preserving
// edits, and a wavelet hash robust to compression artifacts. Perceptual
// hashes are compared via Hamming distance.
package fingerprint

import "fmt"

// Fingerprints contains all computed hashes for a single image.
type Fingerprints struct {
	Exact [16]byte `json:"-"`     // MD5 over raw file bytes
	PHash uint64   `json:"-"`     // DCT-based perceptual hash
	DHash uint64   `json:"-"`     // horizontal gradient hash
	WHash uint64   `json:"-"`     // Haar wavelet hash
	Hex   HexForms `json:"hashes"`
}

// HexForms carries the hashes as hex strings for JSON output.
type HexForms struct {
	Exact string `json:"exact"`
	PHash string `json:"phash"`
	DHash string `json:"dhash"`
	WHash string `json:"whash"`
}

// Perceptual returns the three perceptual hashes in a fixed order
// (pHash, dHash, wHash).
func (f *Fingerprints) Perceptual() [3]uint64 {
	return [3]uint64{f.PHash, f.DHash, f.WHash}
}

func (f *Fingerprints) fillHex() {
	f.Hex = HexForms{
		Exact: fmt.Sprintf("%032x", f.Exact),
		PHash: fmt.Sprintf("%016x", f.PHash),
		DHash: fmt.Sprintf("%016x", f.DHash),
		WHash: fmt.Sprintf("%016x", f.WHash),
	}
}

// HammingDistance computes the Hamming distance between two 64-bit hashes.
func HammingDistance(hash1, hash2 uint64) int {
	xor := hash1 ^ hash2
	distance := 0
	for xor != 0 {
		distance++
		xor &= xor - 1 // Clear lowest set bit
	}
	return distance
}

// Similar returns true if two hashes are within the given threshold.
func Similar(hash1, hash2 uint64, threshold int) bool {
	return HammingDistance(hash1, hash2) <= threshold
}

// Agreement counts how many of the three perceptual hash algorithms
// consider the two fingerprint sets similar under the threshold.
func Agreement(a, b *Fingerprints, threshold int) int {
	pa, pb := a.Perceptual(), b.Perceptual()
	count := 0
	for i := range pa {
		if Similar(pa[i], pb[i], threshold) {
			count++
		}
	}
	return count
}
