package filter

import (
	"strconv"
	"strings"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/tcriess/lightspeed-court/types"
)

// AsInt parses v as an int, 0 on error
func AsInt(v string) int64 {
	val, _ := strconv.ParseInt(v, 0, 64)
	return val
}

// AsFloat parses v as a float64, 0.0 on error
func AsFloat(v string) float64 {
	val, _ := strconv.ParseFloat(v, 64)
	return val
}

// AsStringSlice splits v at whitespace, f.e. to inspect command arguments
func AsStringSlice(v string) []string {
	return strings.Fields(v)
}

// Filter is a compiled boolean expression over a log event, f.e.
//
//	Kind in ["ban", "kick"] || (Kind == "ooc" && HasPrefix(Message, "!"))
//
// The zero Filter (and a nil *Filter) matches everything.
type Filter struct {
	source  string
	program *vm.Program
}

func Compile(source string) (*Filter, error) {
	if strings.TrimSpace(source) == "" {
		return &Filter{}, nil
	}
	prog, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &Filter{source: source, program: prog}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the filter for the event. Evaluation errors count as no match.
func (f *Filter) Match(event *types.LogEvent) bool {
	if f == nil || f.program == nil {
		return true
	}
	if event == nil {
		return false
	}
	res, err := expr.Run(f.program, NewEnv(event))
	if err != nil {
		return false
	}
	ok, _ := res.(bool)
	return ok
}

func NewEnv(event *types.LogEvent) Env {
	return Env{
		Actor: Actor{
			CharName: event.Actor.CharName,
			OOCName:  event.Actor.OOCName,
			IPID:     event.Actor.IPID,
			HWID:     event.Actor.HWID,
			UID:      event.Actor.UID,
		},
		Kind:          string(event.Kind),
		Time:          event.Time.Unix(),
		Area:          event.Area,
		Hub:           event.Hub,
		Message:       event.Message,
		Moderator:     event.Moderator,
		Target:        event.Target,
		Command:       event.Command,
		Args:          event.Args,
		Duration:      event.Duration,
		Success:       event.Success,
		AsInt:         AsInt,
		AsFloat:       AsFloat,
		AsStringSlice: AsStringSlice,
		HasPrefix:     strings.HasPrefix,
	}
}
