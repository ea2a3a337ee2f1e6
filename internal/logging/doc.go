// Package logging provides the console and no-op loggers used by the server
// and the import pipeline. Both are safe for concurrent use.
package logging
