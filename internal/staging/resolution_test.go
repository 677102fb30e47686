package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidates(ids ...string) []DuplicateCandidate {
	out := make([]DuplicateCandidate, len(ids))
	for i, id := range ids {
		out[i] = DuplicateCandidate{Staged: staged(id, id+".pdf")}
	}
	return out
}

func TestResolution_DefaultSelection(t *testing.T) {
	all := newResolution(candidates("t1", "t2"), true)
	assert.True(t, all.AllSelected())
	assert.Equal(t, []string{"t1", "t2"}, all.Selected())

	none := newResolution(candidates("t1", "t2"), false)
	assert.False(t, none.AllSelected())
	assert.Empty(t, none.Selected())
	o, k := none.Counts()
	assert.Equal(t, 0, o)
	assert.Equal(t, 2, k)
}

func TestResolution_Toggle(t *testing.T) {
	r := newResolution(candidates("t1", "t2", "t3"), true)

	assert.False(t, r.Toggle("t2"))
	assert.False(t, r.IsSelected("t2"))
	assert.Equal(t, []string{"t1", "t3"}, r.Selected())

	assert.True(t, r.Toggle("t2"))
	assert.True(t, r.AllSelected())

	assert.False(t, r.Toggle("unknown"))
	o, k := r.Counts()
	assert.Equal(t, 3, o)
	assert.Equal(t, 0, k)
}

func TestResolution_ToggleAll(t *testing.T) {
	r := newResolution(candidates("t1", "t2"), true)

	r.ToggleAll()
	assert.Empty(t, r.Selected(), "all selected -> none")

	r.Toggle("t1")
	r.ToggleAll()
	assert.True(t, r.AllSelected(), "partial -> all")

	r.SetAll(false)
	assert.Empty(t, r.Selected())
	r.Set("t2", true)
	r.Set("nope", true)
	assert.Equal(t, []string{"t2"}, r.Selected())
}

func TestResolution_Drop(t *testing.T) {
	r := newResolution(candidates("t1", "t2", "t3"), true)

	assert.Equal(t, 2, r.drop("t2"))
	assert.Equal(t, []string{"t1", "t3"}, r.Selected())
	assert.Len(t, r.Candidates(), 2)

	assert.Equal(t, 0, r.drop("t1", "t3"))
	assert.False(t, r.AllSelected(), "empty resolution is never all selected")
}
