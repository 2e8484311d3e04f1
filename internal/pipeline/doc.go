// Package pipeline orchestrates a separation pass: enumerate the EXR
// files of a folder, build the channel catalog from the first file,
// fan the (file, channel) work units out over a worker pool, and report
// an aggregate summary.
//
// The catalog is built once, before any worker starts, and is the only
// shared state; every work unit reads its own source file and writes
// its own output file, so a failing unit never affects its siblings.
package pipeline
