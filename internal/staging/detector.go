package staging

import (
	"strings"

	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

// Partition splits a staged list by whether each filename collides with a
// committed one. Both halves keep the staged order.
type Partition struct {
	Duplicates    []totalsdk.StagedFile `json:"duplicates"`
	NonDuplicates []totalsdk.StagedFile `json:"nonDuplicates"`
	HasDuplicates bool                  `json:"hasDuplicates"`
}

// DuplicateCandidate is a staged file and the committed files it collides with
type DuplicateCandidate struct {
	Staged  totalsdk.StagedFile      `json:"staged"`
	Matches []totalsdk.CommittedFile `json:"matches"`
}

// foldName is the only normalization applied before comparing names.
// No unicode normalization, no extension handling.
func foldName(name string) string {
	return strings.ToLower(name)
}

func committedByName(committed []totalsdk.CommittedFile) map[string][]totalsdk.CommittedFile {
	byName := make(map[string][]totalsdk.CommittedFile, len(committed))
	for _, c := range committed {
		key := foldName(c.Filename)
		byName[key] = append(byName[key], c)
	}
	return byName
}

// DetectDuplicates is pure: it neither mutates its inputs nor looks at
// checksums. A staged file is a duplicate iff its lowercased filename equals
// the lowercased filename of some committed file.
func DetectDuplicates(staged []totalsdk.StagedFile, committed []totalsdk.CommittedFile) Partition {
	byName := committedByName(committed)

	p := Partition{
		Duplicates:    make([]totalsdk.StagedFile, 0),
		NonDuplicates: make([]totalsdk.StagedFile, 0, len(staged)),
	}
	for _, s := range staged {
		if _, ok := byName[foldName(s.Filename)]; ok {
			p.Duplicates = append(p.Duplicates, s)
		} else {
			p.NonDuplicates = append(p.NonDuplicates, s)
		}
	}
	p.HasDuplicates = len(p.Duplicates) > 0
	return p
}

func duplicateCandidates(duplicates []totalsdk.StagedFile, committed []totalsdk.CommittedFile) []DuplicateCandidate {
	byName := committedByName(committed)

	out := make([]DuplicateCandidate, 0, len(duplicates))
	for _, d := range duplicates {
		out = append(out, DuplicateCandidate{
			Staged:  d,
			Matches: byName[foldName(d.Filename)],
		})
	}
	return out
}

func tempIDs(files []totalsdk.StagedFile) []string {
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.TempID
	}
	return ids
}
