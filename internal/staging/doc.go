// Package staging manages the per-audio work directories that hold pipeline
// checkpoints. It lists them for inspection and prunes those that have not
// been touched within a retention window, skipping directories whose lock is
// held by an active run.
package staging
