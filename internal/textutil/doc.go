// Package textutil sanitizes names derived from user-supplied audio file
// names before they become RTTM recording ids or output file names.
package textutil
