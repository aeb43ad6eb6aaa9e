// Package client provides a Go client for the gridpool HTTP API,
// used by the CLI commands and available to embedders.
package client
