// Package registry persists a small ledger of in-flight runs in a SQLite
// database inside the base directory.
//
// Every run that creates a sink directory records itself here before its
// child process starts and removes itself once the directory is gone. If a
// runner process dies between the two, the row survives and the purge
// operation can tell a crashed run's leftover directory apart from one still
// owned by a live process.
package registry
