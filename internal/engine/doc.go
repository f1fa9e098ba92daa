// Package engine contains the core scanning logic for riskscan. It walks the
// target tree, fans eligible files out to a pool of rule scanners, and
// returns findings in a reproducible order. This package is internal;
// external consumers should use the stable facade in pkg/core.
package engine
