package ws

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tcriess/lightspeed-court/types"
)

type CommandHandler func(ctx *HandlerContext, args []string) error

// CommandInfo describes an OOC command ("/name args..."). Commands run on the area actor like packets.
type CommandInfo struct {
	Name       string
	MinArgs    int
	Permission types.Permission
	Usage      string
	// Sensitive commands are logged without their arguments.
	Sensitive bool
	Handle    CommandHandler
}

func (d *Dispatcher) command(info CommandInfo) {
	d.commands[info.Name] = info
}

func (d *Dispatcher) registerCommands() {
	for _, info := range areaCommands {
		d.command(info)
	}
	for _, info := range testimonyCommands {
		d.command(info)
	}
	for _, info := range moderationCommands {
		d.command(info)
	}
	for _, info := range hubCommands {
		d.command(info)
	}
	d.command(CommandInfo{Name: "help", Usage: "/help", Handle: d.cmdHelp})
}

func (d *Dispatcher) runCommand(ctx *HandlerContext, message string) error {
	fields := strings.Fields(strings.TrimPrefix(message, "/"))
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]
	info, ok := d.commands[name]
	if !ok {
		return reject("Invalid command.")
	}
	if len(args) < info.MinArgs {
		return reject("Invalid command syntax. Usage: %s", info.Usage)
	}
	if !ctx.HasPermission(info.Permission) {
		return &PermissionDeniedError{Action: name}
	}
	a := ctx.Area
	logged := strings.Join(args, " ")
	if info.Sensitive {
		logged = ""
	}
	ctx.Server.emit(types.NewCommandEvent(ctx.Client.actor(), a.Name(), ctx.Server.hub(a.Hub()).Name(), name, logged))
	return info.Handle(ctx, args)
}

func (d *Dispatcher) cmdHelp(ctx *HandlerContext, _ []string) error {
	names := make([]string, 0, len(d.commands))
	for name, info := range d.commands {
		if ctx.HasPermission(info.Permission) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names)+1)
	lines = append(lines, "Available commands:")
	for _, name := range names {
		lines = append(lines, d.commands[name].Usage)
	}
	ctx.ServerMessage(strings.Join(lines, "\n"))
	return nil
}

// targetClient resolves a client id argument.
func targetClient(ctx *HandlerContext, arg string) (*Client, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, reject("That does not look like a valid ID.")
	}
	c := ctx.Server.Registry.Get(id)
	if c == nil {
		return nil, reject("No client with ID %d.", id)
	}
	return c, nil
}

func onOff(b bool) string {
	if b {
		return "allowed"
	}
	return "forbidden"
}
