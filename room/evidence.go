package room

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrEvidenceOutOfRange = errors.New("evidence index out of range")

type Evidence struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// ParseEvidenceList decodes the configured evidence entries. Entry i must start with
// its index i, followed by optional "<name>name", "<desc>desc" and "<image>image"
// segments. Import stops silently at the first entry that does not match.
func ParseEvidenceList(entries []string) []Evidence {
	res := make([]Evidence, 0, len(entries))
	for i, entry := range entries {
		re := regexp.MustCompile(`^` + strconv.Itoa(i) + `(?:(.*?)name)?(?:(.*?)desc)?(?:(.*?)image)?`)
		m := re.FindStringSubmatch(entry)
		if m == nil {
			return res
		}
		res = append(res, Evidence{
			Name:        strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
			Image:       strings.TrimSpace(m[3]),
		})
	}
	return res
}

func (a *Area) Evidence() []Evidence {
	return append([]Evidence(nil), a.evidence...)
}

func (a *Area) AppendEvidence(e Evidence) {
	a.evidence = append(a.evidence, e)
}

func (a *Area) SwapEvidence(i, j int) error {
	if !a.evidenceIndexValid(i) || !a.evidenceIndexValid(j) {
		return ErrEvidenceOutOfRange
	}
	a.evidence[i], a.evidence[j] = a.evidence[j], a.evidence[i]
	return nil
}

func (a *Area) InsertEvidence(i int, e Evidence) error {
	if i < 0 || i > len(a.evidence) {
		return ErrEvidenceOutOfRange
	}
	a.evidence = append(a.evidence, Evidence{})
	copy(a.evidence[i+1:], a.evidence[i:])
	a.evidence[i] = e
	return nil
}

func (a *Area) DeleteEvidence(i int) error {
	if !a.evidenceIndexValid(i) {
		return ErrEvidenceOutOfRange
	}
	a.evidence = append(a.evidence[:i], a.evidence[i+1:]...)
	return nil
}

func (a *Area) ReplaceEvidence(i int, e Evidence) error {
	if !a.evidenceIndexValid(i) {
		return ErrEvidenceOutOfRange
	}
	a.evidence[i] = e
	return nil
}

func (a *Area) evidenceIndexValid(i int) bool {
	return i >= 0 && i < len(a.evidence)
}
