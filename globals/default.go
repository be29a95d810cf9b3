package globals

import "github.com/hashicorp/go-hclog"

// AppLogger is the process-wide logger; its level is adjusted once the configuration is read.
var AppLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "lightspeed-court",
	Level: hclog.LevelFromString("INFO"),
})

// Version is reported to clients in the handshake.
const Version = "1.0.0"
