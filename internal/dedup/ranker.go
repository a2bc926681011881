package dedup

import "github.com/kozaktomas/photo-dedup/internal/scanner"

// Rank fills KeepPath and DeletePaths for every group. The keep candidate is
// the member with the highest pixel count; ties break by larger byte size,
// then by lexicographically smallest path. The final rule is arbitrary but
// stable so repeated runs over unchanged input produce identical output.
func Rank(groups []Group, byPath map[string]*scanner.ImageRecord) {
	for i := range groups {
		rankGroup(&groups[i], byPath)
	}
}

func rankGroup(g *Group, byPath map[string]*scanner.ImageRecord) {
	if len(g.Members) == 0 {
		return
	}

	keep := g.Members[0]
	for _, path := range g.Members[1:] {
		if better(byPath[path], byPath[keep], path, keep) {
			keep = path
		}
	}

	g.KeepPath = keep
	g.DeletePaths = g.DeletePaths[:0]
	for _, path := range g.Members {
		if path != keep {
			g.DeletePaths = append(g.DeletePaths, path)
		}
	}
}

// better reports whether candidate should be kept over current.
func better(candidate, current *scanner.ImageRecord, candidatePath, currentPath string) bool {
	// A record can be missing only if the caller passed inconsistent maps;
	// treat missing as worst so the run still completes.
	if candidate == nil {
		return false
	}
	if current == nil {
		return true
	}
	if candidate.PixelCount != current.PixelCount {
		return candidate.PixelCount > current.PixelCount
	}
	if candidate.ByteSize != current.ByteSize {
		return candidate.ByteSize > current.ByteSize
	}
	return candidatePath < currentPath
}

// SpaceSaved sums the byte sizes of all delete candidates across groups,
// the space reclaimed if every non-kept member is removed.
func SpaceSaved(groups []Group, byPath map[string]*scanner.ImageRecord) int64 {
	var total int64
	for _, g := range groups {
		for _, path := range g.DeletePaths {
			if rec := byPath[path]; rec != nil {
				total += rec.ByteSize
			}
		}
	}
	return total
}
