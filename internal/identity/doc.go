// Package identity resolves anonymous diarization clusters to named speakers.
//
// For each cluster the Resolver samples up to N sufficiently long turns, cuts
// each one out of the source audio, embeds it, and asks a Classifier which
// enrolled speaker it sounds like. Each confident answer is one vote; the
// cluster takes the identity with the most votes, ties going to the identity
// voted for first. Embedding work may run on several workers, but votes are
// always tallied in sampling order so the outcome does not depend on
// scheduling.
package identity
