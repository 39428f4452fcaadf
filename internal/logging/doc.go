// Package logging gives every canister subsystem its own slog logger.
//
// Loggers are named after the subsystem that owns them: playback,
// connection, command, indicator, audio, api, http, metrics and config.
// Each name can get its own level, and levels can be changed on a running
// service by calling Initialize again (the config watcher does this):
//
//	logger := logging.GetLogger("playback").With("animation", name)
//	logger.Info("Animation started", "loops", loops)
//
// # Where records go
//
// A module logger fans each record out to:
//
//   - stdout, as text or JSON, unless stdout is /dev/null
//   - the systemd journal, when journald is running
//   - the in-memory History behind GET /api/logs and /api/logs/stream
//   - the log file named by [Config.File], if any
//
// The file is written by a background goroutine. When it falls behind,
// lines are dropped and counted instead of stalling the render loop; the
// count is reported by [GetStats]. A file line looks like:
//
//	10/17/26 21:04:05 : [connection] Client connected remote=@
//
// Journal records are tagged SYSLOG_IDENTIFIER=canister and
// CANISTER_MODULE=<module>, and every attribute becomes an uppercased field:
//
//	journalctl -t canister CANISTER_MODULE=playback -f
//	journalctl -t canister ANIMATION=meltdown -p warning
//
// # Configuration
//
//	[logging]
//	level = "info"          # debug, info, warn or error
//	format = "text"         # stdout format: text or json
//	file = "/var/log/canister.log"
//
//	[logging.modules]
//	playback = "debug"
//	connection = "warn"
package logging
