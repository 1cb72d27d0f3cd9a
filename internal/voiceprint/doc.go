// Package voiceprint classifies speaker embeddings against enrolled speakers.
//
// A Gallery holds one centroid per identity, the mean of that identity's
// L2-normalized enrollment vectors. Classification returns the identity whose
// centroid has the highest cosine similarity with the query, provided the
// similarity reaches the configured threshold.
package voiceprint
