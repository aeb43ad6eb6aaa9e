/*
Package notify hands job notifications (SCHEDULED, RESCHEDULED,
DROPPED) off toward their recipients.

Two sinks ship with the engine: LogNotifier, which records the event
in the structured log, and RedisNotifier, which appends it to a capped
Redis stream for an external delivery service to consume. The engine
treats both as fire-and-forget; a handoff failure is logged and never
affects the committed scheduling state it describes.
*/
package notify
