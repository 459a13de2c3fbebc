// Package file implements the storage interfaces on plain JSON files.
//
// Every whole-file rewrite goes through an atomic replace (temp file, fsync,
// rename), and each store serializes its own read-modify-write cycle with a
// mutex. The files are meant to be shared by the workers of one process, not
// by several processes at once.
package file
