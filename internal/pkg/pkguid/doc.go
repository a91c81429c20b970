// Package pkguid provides helpers for generating unique identifiers.
//
// UUID produces random string IDs used for request correlation. Snowflake
// produces numeric IDs used to tag the process that owns the log sinks.
package pkguid
