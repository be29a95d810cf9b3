package eventlog

import (
	"bytes"
	"text/template"

	"github.com/tcriess/lightspeed-court/types"
)

const timeLayout = "2006-01-02 15:04:05"

var funcs = template.FuncMap{
	"ts": func(e *types.LogEvent) string { return e.Time.UTC().Format(timeLayout) },
}

// Templates render one line per event kind. Kinds without an entry use the "default" template.
var templates = template.Must(template.New("default").Funcs(funcs).Parse(
	`[{{ts .}}][{{.Kind}}]{{with .Area}}[{{.}}]{{end}} {{.Actor.CharName}} ({{.Actor.OOCName}})[{{.Actor.IPID}}] {{.Message}}`))

func init() {
	for kind, text := range map[types.LogKind]string{
		types.LogKindIC:         `[{{ts .}}][IC][{{.Area}}] {{.Actor.CharName}} ({{.Actor.OOCName}})[{{.Actor.IPID}}]: {{.Message}}`,
		types.LogKindOOC:        `[{{ts .}}][OOC][{{.Area}}] {{.Actor.OOCName}}[{{.Actor.IPID}}]: {{.Message}}`,
		types.LogKindLogin:      `[{{ts .}}][LOGIN][{{.Area}}] {{.Actor.OOCName}}[{{.Actor.IPID}}] as "{{.Moderator}}": {{if .Success}}success{{else}}failed{{end}}`,
		types.LogKindCommand:    `[{{ts .}}][CMD][{{.Area}}] {{.Actor.OOCName}}[{{.Actor.IPID}}]: /{{.Command}} {{.Args}}`,
		types.LogKindKick:       `[{{ts .}}][KICK] {{.Actor.IPID}} kicked by {{.Moderator}}`,
		types.LogKindBan:        `[{{ts .}}][BAN] {{.Actor.IPID}} banned by {{.Moderator}} for {{.Duration}}`,
		types.LogKindModcall:    `[{{ts .}}][MODCALL][{{.Area}}] {{.Actor.CharName}} ({{.Actor.OOCName}})[{{.Actor.IPID}}]: {{.Message}}`,
		types.LogKindConnect:    `[{{ts .}}][CONNECT] {{.Actor.IPID}} ({{.Actor.HWID}})`,
		types.LogKindDisconnect: `[{{ts .}}][DISCONNECT][{{.Area}}] {{.Actor.CharName}}[{{.Actor.IPID}}] uid {{.Actor.UID}}`,
		types.LogKindMusic:      `[{{ts .}}][MUSIC][{{.Area}}] {{.Actor.CharName}}[{{.Actor.IPID}}] played {{.Message}}`,
		types.LogKindChangeChar: `[{{ts .}}][CHANGECHAR][{{.Area}}] {{.Actor.CharName}}[{{.Actor.IPID}}] -> {{.Message}}`,
		types.LogKindChangeArea: `[{{ts .}}][CHANGEAREA][{{.Area}}] {{.Actor.CharName}}[{{.Actor.IPID}}] -> {{.Message}}`,
	} {
		template.Must(templates.New(string(kind)).Parse(text))
	}
}

// Format renders the event as a single text line (without newline).
func Format(event *types.LogEvent) string {
	name := string(event.Kind)
	if templates.Lookup(name) == nil {
		name = "default"
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, event); err != nil {
		return "[" + string(event.Kind) + "] " + event.Message
	}
	return buf.String()
}
