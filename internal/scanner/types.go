package scanner

import "github.com/kozaktomas/photo-dedup/internal/fingerprint"

// ImageRecord holds everything the engine knows about a single scanned file.
// Records are created once during extraction and are immutable afterwards;
// they are owned exclusively by the run that created them.
type ImageRecord struct {
	Path         string `json:"path"` // unique key within a run
	SourceFolder string `json:"source_folder"`

	Width      int   `json:"width"`
	Height     int   `json:"height"`
	PixelCount int   `json:"pixel_count"`
	ByteSize   int64 `json:"byte_size"`

	Fingerprints *fingerprint.Fingerprints `json:"fingerprints"`

	// FaceEmbeddings is filled by the face engine, one vector per detected
	// face, in detection order. Empty when no faces were found or face
	// detection was not requested.
	FaceEmbeddings [][]float32 `json:"-"`
}

// FileEntry is a discovered image file before extraction.
type FileEntry struct {
	Path         string
	SourceFolder string
}
