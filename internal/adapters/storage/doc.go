// Package storage provides the file-backed stores of the catalog: the JSON
// snapshot written at exit and read at startup, and the comma-separated seed
// file used when no snapshot exists.
//
// # Translation Boundary
//
// The on-disk snapshot has its own record type. Records are translated into
// domain books at load time and validated on the way in, so a hand-edited or
// truncated file never produces a book with a malformed id:
//
//   - snapshotRecord never leaves this package
//   - a record that fails translation makes the whole snapshot unusable
//   - file system failures map to domain.UnavailableError
//   - an absent or empty snapshot maps to domain.NotFoundError
package storage
