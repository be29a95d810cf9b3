package ws

import (
	"strconv"
	"strings"

	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

const icMessageIndex = 4

var testimonyCommands = []CommandInfo{
	{Name: "testimony", Usage: "/testimony", Handle: cmdTestimony},
	{Name: "examine", Permission: types.PermissionCM, Usage: "/examine", Handle: cmdExamine},
	{Name: "delete", Permission: types.PermissionCM, Usage: "/delete", Handle: cmdDeleteStatement},
	{Name: "add", Permission: types.PermissionCM, Usage: "/add", Handle: cmdAddStatement},
	{Name: "update", Permission: types.PermissionCM, Usage: "/update", Handle: cmdUpdateStatement},
	{Name: "pause", Permission: types.PermissionCM, Usage: "/pause", Handle: cmdPause},
}

func cmdTestimony(ctx *HandlerContext, _ []string) error {
	statements := ctx.Area.Testimony().Statements()
	if len(statements) == 0 {
		return reject("Unable to display empty testimony.")
	}
	lines := make([]string, 0, len(statements))
	for i, stmt := range statements {
		text := ""
		if len(stmt) > icMessageIndex {
			text = stmt[icMessageIndex]
		}
		lines = append(lines, strconv.Itoa(i)+": "+text)
	}
	ctx.ServerMessage(strings.Join(lines, "\n"))
	return nil
}

func cmdExamine(ctx *HandlerContext, _ []string) error {
	t := ctx.Area.Testimony()
	if t.Len() < 2 {
		return reject("Unable to start replay without prior examination.")
	}
	t.Restart()
	ctx.Broadcast(types.NewPacket("RT", "testimony2"))
	ctx.AreaMessage("Starting cross-examination.")
	return nil
}

func cmdDeleteStatement(ctx *HandlerContext, _ []string) error {
	t := ctx.Area.Testimony()
	if t.Mode() != room.TestimonyPlayback {
		return reject("Statements can only be deleted during playback.")
	}
	pos := t.Statement()
	if pos < 1 {
		return reject("Unable to delete the testimony title.")
	}
	if err := t.RemoveAt(pos); err != nil {
		return reject("Unable to delete statement %d.", pos)
	}
	ctx.AreaMessage("Deleted statement " + strconv.Itoa(pos) + ".")
	return nil
}

func startEdit(ctx *HandlerContext, edit testimonyEdit) error {
	t := ctx.Area.Testimony()
	if t.Len() < 2 || t.Mode() != room.TestimonyPlayback {
		return reject("Unable to change an empty testimony or one that is not being played back.")
	}
	ctx.Actor.testimonyEdit = edit
	return nil
}

func cmdAddStatement(ctx *HandlerContext, _ []string) error {
	if err := startEdit(ctx, editAdd); err != nil {
		return err
	}
	ctx.ServerMessage("The next IC message will be added after the current statement.")
	return nil
}

func cmdUpdateStatement(ctx *HandlerContext, _ []string) error {
	if err := startEdit(ctx, editUpdate); err != nil {
		return err
	}
	ctx.ServerMessage("The next IC message will replace the current statement.")
	return nil
}

func cmdPause(ctx *HandlerContext, _ []string) error {
	t := ctx.Area.Testimony()
	switch t.Mode() {
	case room.TestimonyPlayback, room.TestimonyRecording:
		t.SetMode(room.TestimonyStopped)
		ctx.Actor.testimonyEdit = editNone
		ctx.AreaMessage("Testimony has been paused.")
		return nil
	}
	return reject("There is no testimony being recorded or played back.")
}
