package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvidenceList(t *testing.T) {
	ev := ParseEvidenceList([]string{
		"0 Knife name A sharp knife desc knife.png image",
		"1 Note name desc note.png image",
	})
	require.Len(t, ev, 2)
	assert.Equal(t, Evidence{Name: "Knife", Description: "A sharp knife", Image: "knife.png"}, ev[0])
	assert.Equal(t, Evidence{Name: "Note", Image: "note.png"}, ev[1])
}

func TestParseEvidenceListStopsAtMalformedEntry(t *testing.T) {
	ev := ParseEvidenceList([]string{
		"0 Knife name",
		"Badge name",
		"2 Photo name",
	})
	require.Len(t, ev, 1)
	assert.Equal(t, "Knife", ev[0].Name)
}

func TestEvidencePositionalEdits(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	for _, n := range []string{"E0", "E1", "E2"} {
		a.AppendEvidence(Evidence{Name: n})
	}
	require.NoError(t, a.SwapEvidence(0, 2))
	assert.Equal(t, []string{"E2", "E1", "E0"}, evidenceNames(a))

	require.NoError(t, a.DeleteEvidence(1))
	assert.Equal(t, []string{"E2", "E0"}, evidenceNames(a))

	require.NoError(t, a.InsertEvidence(1, Evidence{Name: "X"}))
	require.NoError(t, a.ReplaceEvidence(0, Evidence{Name: "Y"}))
	assert.Equal(t, []string{"Y", "X", "E0"}, evidenceNames(a))

	assert.Equal(t, ErrEvidenceOutOfRange, a.SwapEvidence(0, 3))
	assert.Equal(t, ErrEvidenceOutOfRange, a.DeleteEvidence(-1))
	assert.Equal(t, ErrEvidenceOutOfRange, a.ReplaceEvidence(3, Evidence{}))
	assert.Equal(t, ErrEvidenceOutOfRange, a.InsertEvidence(4, Evidence{}))
	assert.Equal(t, []string{"Y", "X", "E0"}, evidenceNames(a))
}

func evidenceNames(a *Area) []string {
	names := make([]string, 0)
	for _, e := range a.Evidence() {
		names = append(names, e.Name)
	}
	return names
}
