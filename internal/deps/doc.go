// Package deps reports whether the external binaries murmur shells out to
// are installed.
package deps
