/*
Package log provides structured logging for Gridpool using zerolog.

The package wraps zerolog behind a small surface: Init configures the
global logger (level, JSON vs. console output, destination), and the
With* helpers derive child loggers tagged with the fields the rest of
the codebase keys its logs on (component, faculty_id, node_id, job_id).

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("scheduler")
	logger.Info().Str("faculty_id", f).Msg("job scheduled")

Components hold a child logger rather than calling the package-level
helpers so their output is always attributable.
*/
package log
