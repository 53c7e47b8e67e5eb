// Package bitrepair defines the core configuration, error, logging and
// concurrency helpers shared across the bitrepair packages: checksum,
// bitops, sidecar, blockio, repair, restore, execute, score, and calibrate.
//
// The engine operates on three files per run: a data file, a single backup
// copy, and block-wise checksum sidecars over each. It tolerates corruption
// in any of the three, recovering by brute-force search against the
// checksum as an oracle. See the repair and restore packages for the two
// search engines, and calibrate for how their search widths are sized.
//
// This package is a foundation the subpackages build on; it is not a
// storage backend or a network service on its own.
package bitrepair
