package dedup

import (
	"reflect"
	"sort"
	"testing"

	"github.com/kozaktomas/photo-dedup/internal/fingerprint"
	"github.com/kozaktomas/photo-dedup/internal/scanner"
)

// rec builds a synthetic record. The exact digest is derived from the given
// tag so records with the same tag are byte-identical for grouping purposes.
func rec(path string, exactTag byte, phash, dhash, whash uint64, pixels int, size int64) *scanner.ImageRecord {
	var digest [16]byte
	digest[0] = exactTag
	return &scanner.ImageRecord{
		Path:       path,
		PixelCount: pixels,
		ByteSize:   size,
		Fingerprints: &fingerprint.Fingerprints{
			Exact: digest,
			PHash: phash,
			DHash: dhash,
			WHash: whash,
		},
	}
}

func pathMap(records []*scanner.ImageRecord) map[string]*scanner.ImageRecord {
	m := make(map[string]*scanner.ImageRecord, len(records))
	for _, r := range records {
		m[r.Path] = r
	}
	return m
}

func memberSets(groups []Group) [][]string {
	sets := make([][]string, len(groups))
	for i, g := range groups {
		members := append([]string{}, g.Members...)
		sort.Strings(members)
		sets[i] = members
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i][0] < sets[j][0] })
	return sets
}

func TestBuildGroupsExactAlwaysConnects(t *testing.T) {
	// Same bytes, wildly different perceptual hashes, threshold zero:
	// the exact digest alone must still group them.
	records := []*scanner.ImageRecord{
		rec("/a.jpg", 1, 0x0, 0x0, 0x0, 100, 10),
		rec("/b.jpg", 1, 0xFFFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF, 100, 10),
		rec("/c.jpg", 2, 0x00FF, 0x00FF, 0x00FF, 100, 10),
	}

	groups := BuildGroups(records, Options{HashThreshold: 0, MinAgree: 3})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	want := []string{"/a.jpg", "/b.jpg"}
	if !reflect.DeepEqual(groups[0].Members, want) {
		t.Errorf("members = %v; want %v", groups[0].Members, want)
	}
	if groups[0].Type != GroupExact {
		t.Errorf("type = %s; want %s", groups[0].Type, GroupExact)
	}
}

func TestBuildGroupsMajorityVote(t *testing.T) {
	tests := []struct {
		name       string
		b          *scanner.ImageRecord
		minAgree   int
		wantGroups int
	}{
		{
			// All three hashes within threshold.
			"all agree", rec("/b.jpg", 2, 0x3, 0x3, 0x3, 100, 10), 2, 1,
		},
		{
			// Two of three within threshold: majority connects.
			"two agree", rec("/b.jpg", 2, 0x3, 0x3, 0xFFFF00FF00FF00FF, 100, 10), 2, 1,
		},
		{
			// Only one within threshold: majority rejects.
			"one agrees", rec("/b.jpg", 2, 0x3, 0xFFFF00FF00FF00FF, 0xFF00FF00FF00FF00, 100, 10), 2, 0,
		},
		{
			// Strict policy: all three must agree.
			"two agree but strict", rec("/b.jpg", 2, 0x3, 0x3, 0xFFFF00FF00FF00FF, 100, 10), 3, 0,
		},
		{
			// Loose policy: a single algorithm suffices.
			"one agrees loose", rec("/b.jpg", 2, 0x3, 0xFFFF00FF00FF00FF, 0xFF00FF00FF00FF00, 100, 10), 1, 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records := []*scanner.ImageRecord{
				rec("/a.jpg", 1, 0x0, 0x0, 0x0, 100, 10),
				tc.b,
			}
			groups := BuildGroups(records, Options{HashThreshold: 5, MinAgree: tc.minAgree})
			if len(groups) != tc.wantGroups {
				t.Errorf("got %d groups; want %d", len(groups), tc.wantGroups)
			}
			if tc.wantGroups == 1 && groups[0].Type != GroupSimilar {
				t.Errorf("type = %s; want %s", groups[0].Type, GroupSimilar)
			}
		})
	}
}

func TestBuildGroupsChainedMembers(t *testing.T) {
	// A~B and B~C but A and C are not directly similar: connected
	// components still put all three in one group.
	records := []*scanner.ImageRecord{
		rec("/a.jpg", 1, 0x00, 0x00, 0x00, 100, 10),
		rec("/b.jpg", 2, 0x0F, 0x0F, 0x0F, 100, 10), // 4 bits from both ends
		rec("/c.jpg", 3, 0xFF, 0xFF, 0xFF, 100, 10), // 8 bits from /a.jpg
	}

	groups := BuildGroups(records, Options{HashThreshold: 4, MinAgree: 2})

	if len(groups) != 1 {
		t.Fatalf("expected 1 chained group, got %d", len(groups))
	}
	if len(groups[0].Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(groups[0].Members))
	}
}

func TestBuildGroupsSingletonsDropped(t *testing.T) {
	records := []*scanner.ImageRecord{
		rec("/a.jpg", 1, 0x0, 0x0, 0x0, 100, 10),
		rec("/b.jpg", 2, 0xFFFF00FF00FF00FF, 0xFF00FF00FF00FF00, 0x00FF00FF00FF00FF, 100, 10),
	}

	groups := BuildGroups(records, Options{HashThreshold: 5, MinAgree: 2})
	if len(groups) != 0 {
		t.Errorf("unrelated images should form no groups, got %d", len(groups))
	}
}

func TestBuildGroupsEmptyAndSingleInput(t *testing.T) {
	if groups := BuildGroups(nil, Options{HashThreshold: 5, MinAgree: 2}); len(groups) != 0 {
		t.Errorf("empty input should yield no groups, got %d", len(groups))
	}
	one := []*scanner.ImageRecord{rec("/a.jpg", 1, 0, 0, 0, 100, 10)}
	if groups := BuildGroups(one, Options{HashThreshold: 5, MinAgree: 2}); len(groups) != 0 {
		t.Errorf("single input should yield no groups, got %d", len(groups))
	}
}

func TestBuildGroupsIdempotent(t *testing.T) {
	records := []*scanner.ImageRecord{
		rec("/a.jpg", 1, 0x0, 0x0, 0x0, 100, 10),
		rec("/b.jpg", 1, 0x1, 0x1, 0x1, 200, 20),
		rec("/c.jpg", 2, 0x3, 0x3, 0x3, 100, 10),
		rec("/d.jpg", 3, 0xFFFF00FF00FF00FF, 0xFF00FF00FF00FF00, 0x00FF00FF00FF00FF, 100, 10),
	}
	opts := Options{HashThreshold: 5, MinAgree: 2}

	first := memberSets(BuildGroups(records, opts))
	second := memberSets(BuildGroups(records, opts))

	if !reflect.DeepEqual(first, second) {
		t.Errorf("grouping not idempotent: %v vs %v", first, second)
	}
}

func TestRankKeepHighestResolution(t *testing.T) {
	records := []*scanner.ImageRecord{
		rec("/low.jpg", 1, 0, 0, 0, 100, 50),
		rec("/high.jpg", 2, 0, 0, 0, 400, 10),
	}
	groups := []Group{{Members: []string{"/high.jpg", "/low.jpg"}}}

	Rank(groups, pathMap(records))

	if groups[0].KeepPath != "/high.jpg" {
		t.Errorf("keep = %s; want /high.jpg", groups[0].KeepPath)
	}
	if !reflect.DeepEqual(groups[0].DeletePaths, []string{"/low.jpg"}) {
		t.Errorf("delete = %v; want [/low.jpg]", groups[0].DeletePaths)
	}
}

func TestRankTieBreaks(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *scanner.ImageRecord
		wantKeep string
	}{
		{
			"byte size breaks pixel tie",
			rec("/a.jpg", 1, 0, 0, 0, 100, 50),
			rec("/b.jpg", 2, 0, 0, 0, 100, 80),
			"/b.jpg",
		},
		{
			"path breaks full tie",
			rec("/z.jpg", 1, 0, 0, 0, 100, 50),
			rec("/a.jpg", 2, 0, 0, 0, 100, 50),
			"/a.jpg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			groups := []Group{{Members: []string{tc.a.Path, tc.b.Path}}}
			Rank(groups, pathMap([]*scanner.ImageRecord{tc.a, tc.b}))
			if groups[0].KeepPath != tc.wantKeep {
				t.Errorf("keep = %s; want %s", groups[0].KeepPath, tc.wantKeep)
			}
		})
	}
}

func TestSpaceSaved(t *testing.T) {
	records := []*scanner.ImageRecord{
		rec("/keep.jpg", 1, 0, 0, 0, 400, 100),
		rec("/del1.jpg", 2, 0, 0, 0, 100, 30),
		rec("/del2.jpg", 3, 0, 0, 0, 100, 20),
	}
	groups := []Group{{
		Members:     []string{"/keep.jpg", "/del1.jpg", "/del2.jpg"},
		KeepPath:    "/keep.jpg",
		DeletePaths: []string{"/del1.jpg", "/del2.jpg"},
	}}

	if got := SpaceSaved(groups, pathMap(records)); got != 50 {
		t.Errorf("SpaceSaved = %d; want 50", got)
	}
}
