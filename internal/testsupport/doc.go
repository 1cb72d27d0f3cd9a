// Package testsupport provides fixtures shared by package tests: temp-dir
// configs, an opened store, and small audio files.
package testsupport
