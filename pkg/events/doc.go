/*
Package events provides the in-process event broker that fans cluster
events out to informational subscribers.

The broker is best-effort by design: Publish never blocks producers,
and slow subscribers drop events from their own buffer, not from
others'. Anything that must not be lost goes through a direct call
instead; the rescheduler receives removals synchronously from the
lifecycle manager, and the node.removed event published here is only
the observable echo of that handoff.
*/
package events
