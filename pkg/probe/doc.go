// Package probe periodically checks that contributed nodes are still
// reachable at their registered urls. Reachability is advisory: an
// unreachable node is surfaced through logs and metrics but keeps its
// assigned capacity until its owner releases it or an operator removes
// it.
package probe
