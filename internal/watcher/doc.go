// Package watcher monitors an inbox directory and hands each new audio file
// to a handler once the file has stopped growing. Handled files are moved
// into processed/ or failed/ subdirectories of the inbox.
package watcher
