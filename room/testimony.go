package room

import "github.com/pkg/errors"

type TestimonyMode int

const (
	TestimonyStopped TestimonyMode = iota
	TestimonyRecording
	TestimonyPlayback
)

func (m TestimonyMode) String() string {
	switch m {
	case TestimonyRecording:
		return "RECORDING"
	case TestimonyPlayback:
		return "PLAYBACK"
	default:
		return "STOPPED"
	}
}

// Progress tells callers of JumpTo whether navigation hit a boundary.
type Progress int

const (
	ProgressOK Progress = iota
	ProgressLooped
	ProgressStayedAtFirst
)

const (
	// CursorCleared marks a testimony that is not being recorded.
	CursorCleared = -1
	// CursorReady is the cursor before the title statement is recorded.
	CursorReady = 0
)

var (
	ErrNoStatements        = errors.New("testimony has no statements")
	ErrStatementOutOfRange = errors.New("statement index out of range")
)

// Testimony is an ordered list of recorded IC statements with a cursor. Statement 0
// is the title of the testimony, navigation never lands on it.
type Testimony struct {
	statements [][]string
	cursor     int
	mode       TestimonyMode
}

func NewTestimony() *Testimony {
	return &Testimony{cursor: CursorCleared}
}

func (t *Testimony) Mode() TestimonyMode {
	return t.mode
}

func (t *Testimony) SetMode(mode TestimonyMode) {
	t.mode = mode
}

func (t *Testimony) Statement() int {
	return t.cursor
}

func (t *Testimony) Len() int {
	return len(t.statements)
}

func (t *Testimony) Statements() [][]string {
	res := make([][]string, len(t.statements))
	for i, s := range t.statements {
		res[i] = append([]string(nil), s...)
	}
	return res
}

func (t *Testimony) Record(stmt []string) {
	t.cursor++
	t.statements = append(t.statements, stmt)
}

func (t *Testimony) InsertAt(pos int, stmt []string) error {
	if pos < 0 || pos > len(t.statements) {
		return ErrStatementOutOfRange
	}
	t.statements = append(t.statements, nil)
	copy(t.statements[pos+1:], t.statements[pos:])
	t.statements[pos] = stmt
	return nil
}

func (t *Testimony) ReplaceAt(pos int, stmt []string) error {
	if pos < 0 || pos >= len(t.statements) {
		return ErrStatementOutOfRange
	}
	t.statements[pos] = stmt
	return nil
}

// RemoveAt deletes the statement at pos and always moves the cursor back by one,
// even when that leaves it below the first statement.
func (t *Testimony) RemoveAt(pos int) error {
	if pos < 0 || pos >= len(t.statements) {
		return ErrStatementOutOfRange
	}
	t.statements = append(t.statements[:pos], t.statements[pos+1:]...)
	t.cursor--
	return nil
}

// StartRecording discards any previous testimony and readies the ledger for its title.
func (t *Testimony) StartRecording() {
	t.statements = nil
	t.mode = TestimonyRecording
	t.cursor = CursorReady
}

func (t *Testimony) Restart() {
	t.mode = TestimonyPlayback
	t.cursor = CursorReady
}

func (t *Testimony) Clear() {
	t.mode = TestimonyStopped
	t.cursor = CursorCleared
	t.statements = nil
}

// JumpTo moves the cursor to pos. Past the last statement it wraps to statement 1
// (ProgressLooped); at or before statement 1 it stays there (ProgressStayedAtFirst).
func (t *Testimony) JumpTo(pos int) ([]string, Progress, error) {
	if len(t.statements) < 2 {
		return nil, ProgressOK, ErrNoStatements
	}
	t.cursor = pos
	if t.cursor > len(t.statements)-1 {
		t.cursor = 1
		return t.statements[1], ProgressLooped, nil
	}
	if t.cursor <= 1 {
		t.cursor = 1
		return t.statements[1], ProgressStayedAtFirst, nil
	}
	return t.statements[t.cursor], ProgressOK, nil
}
