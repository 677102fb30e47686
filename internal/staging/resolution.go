package staging

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Resolution is a pending decision about staged files whose names collide
// with committed ones. Selected entries are committed with overwrite, the
// rest are committed keeping both copies.
type Resolution struct {
	mu         sync.Mutex
	candidates []DuplicateCandidate
	overwrite  mapset.Set[string]
}

func newResolution(candidates []DuplicateCandidate, selectAll bool) *Resolution {
	r := &Resolution{
		candidates: candidates,
		overwrite:  mapset.NewThreadUnsafeSet[string](),
	}
	if selectAll {
		for _, c := range candidates {
			r.overwrite.Add(c.Staged.TempID)
		}
	}
	return r
}

// Candidates returns the duplicates in staged order
func (r *Resolution) Candidates() []DuplicateCandidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DuplicateCandidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

func (r *Resolution) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.candidates)
}

func (r *Resolution) has(tempID string) bool {
	for _, c := range r.candidates {
		if c.Staged.TempID == tempID {
			return true
		}
	}
	return false
}

// Toggle flips the overwrite choice for tempID and reports the new choice.
// Unknown ids are ignored.
func (r *Resolution) Toggle(tempID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.has(tempID) {
		return false
	}
	if r.overwrite.Contains(tempID) {
		r.overwrite.Remove(tempID)
		return false
	}
	r.overwrite.Add(tempID)
	return true
}

// Set records an explicit overwrite choice for tempID
func (r *Resolution) Set(tempID string, overwrite bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.has(tempID) {
		return
	}
	if overwrite {
		r.overwrite.Add(tempID)
	} else {
		r.overwrite.Remove(tempID)
	}
}

// ToggleAll clears the selection when everything is selected, else selects everything
func (r *Resolution) ToggleAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.allSelectedLocked() {
		r.overwrite.Clear()
		return
	}
	for _, c := range r.candidates {
		r.overwrite.Add(c.Staged.TempID)
	}
}

// SetAll selects or clears every candidate
func (r *Resolution) SetAll(overwrite bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.overwrite.Clear()
	if overwrite {
		for _, c := range r.candidates {
			r.overwrite.Add(c.Staged.TempID)
		}
	}
}

func (r *Resolution) IsSelected(tempID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overwrite.Contains(tempID)
}

func (r *Resolution) AllSelected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allSelectedLocked()
}

func (r *Resolution) allSelectedLocked() bool {
	return len(r.candidates) > 0 && r.overwrite.Cardinality() == len(r.candidates)
}

// Selected returns the tempIDs marked for overwrite, in staged order
func (r *Resolution) Selected() []string {
	overwrite, _ := r.split()
	return overwrite
}

// Counts reports how many entries will be overwritten and how many kept alongside
func (r *Resolution) Counts() (overwrite, keepBoth int) {
	o, k := r.split()
	return len(o), len(k)
}

func (r *Resolution) split() (overwrite, keepBoth []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.candidates {
		if r.overwrite.Contains(c.Staged.TempID) {
			overwrite = append(overwrite, c.Staged.TempID)
		} else {
			keepBoth = append(keepBoth, c.Staged.TempID)
		}
	}
	return overwrite, keepBoth
}

// drop removes a candidate once its staged entry is gone, returning the remaining count
func (r *Resolution) drop(tempIDs ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	gone := mapset.NewThreadUnsafeSet(tempIDs...)
	kept := r.candidates[:0]
	for _, c := range r.candidates {
		if gone.Contains(c.Staged.TempID) {
			r.overwrite.Remove(c.Staged.TempID)
			continue
		}
		kept = append(kept, c)
	}
	r.candidates = kept
	return len(r.candidates)
}
