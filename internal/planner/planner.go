package planner

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/photo-dedup/internal/cluster"
	"github.com/kozaktomas/photo-dedup/internal/dedup"
	"github.com/kozaktomas/photo-dedup/internal/scanner"
)

// Action selects what happens to the losing files of a duplicate group.
type Action string

const (
	ActionMove   Action = "move"
	ActionDelete Action = "delete"
)

// quarantineDirName is the directory under the first source folder where
// moved duplicates end up.
const quarantineDirName = "_duplicates"

// PlanDuplicates builds the operations that dispose of every non-kept
// member of the given groups. "move" quarantines them under
// <firstSourceDir>/_duplicates, "delete" removes them outright. Groups
// must already be ranked so KeepPath and DeletePaths are populated.
func PlanDuplicates(groups []dedup.Group, byPath map[string]*scanner.ImageRecord, action Action, sourceDirs []string) (*Summary, error) {
	switch action {
	case ActionMove, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown duplicate action %q", action)
	}
	if action == ActionMove && len(sourceDirs) == 0 {
		return nil, fmt.Errorf("move action requires at least one source directory")
	}

	summary := &Summary{}
	var quarantine string
	taken := map[string]struct{}{}
	if action == ActionMove {
		quarantine = filepath.Join(sourceDirs[0], quarantineDirName)
	}

	for _, g := range groups {
		for _, path := range g.DeletePaths {
			op := Operation{Kind: OpDelete, Source: path}
			if action == ActionMove {
				op = Operation{
					Kind:   OpMove,
					Source: path,
					Dest:   uniqueDest(quarantine, filepath.Base(path), taken),
				}
			}
			summary.Operations = append(summary.Operations, op)
			if rec := byPath[path]; rec != nil {
				summary.SpaceSavedBytes += rec.ByteSize
			}
		}
	}
	return summary, nil
}

// PlanPersons builds copy operations that lay images out under outputRoot
// by bucket. Originals stay in place; organizing must not destroy the
// source library.
func PlanPersons(assignments []cluster.Assignment, outputRoot string) *Summary {
	summary := &Summary{}
	taken := map[string]struct{}{}

	for _, a := range assignments {
		dir := filepath.Join(outputRoot, FolderName(a.Bucket))
		summary.Operations = append(summary.Operations, Operation{
			Kind:   OpCopy,
			Source: a.Path,
			Dest:   uniqueDest(dir, filepath.Base(a.Path), taken),
		})
	}
	return summary
}

// FolderName converts a bucket into a safe directory name, stripping
// diacritics so the layout stays portable across filesystems.
func FolderName(b cluster.Bucket) string {
	return RemoveDiacritics(b.FolderName())
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// uniqueDest joins dir and base, appending _1, _2, ... before the
// extension until the name is unused within this plan.
func uniqueDest(dir, base string, taken map[string]struct{}) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(dir, base)
	for n := 1; ; n++ {
		if _, used := taken[candidate]; !used {
			break
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	taken[candidate] = struct{}{}
	return candidate
}
