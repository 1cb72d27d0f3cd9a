package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveResolution replaces the votes and identities recorded for a run.
func (s *Store) SaveResolution(ctx context.Context, runID string, votes []Vote, identities []Identity) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear votes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM identities WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear identities: %w", err)
		}
		for _, vote := range votes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO votes (run_id, cluster_id, seq, identity, similarity, segment_start_ms, segment_end_ms)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, vote.ClusterID, vote.Seq, vote.Identity, vote.Similarity, vote.StartMs, vote.EndMs,
			); err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
		}
		for _, identity := range identities {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO identities (run_id, cluster_id, identity, vote_count, sample_count) VALUES (?, ?, ?, ?, ?)`,
				runID, identity.ClusterID, identity.Identity, identity.VoteCount, identity.SampleCount,
			); err != nil {
				return fmt.Errorf("insert identity: %w", err)
			}
		}
		return nil
	})
}

// ListVotes returns a run's votes grouped by cluster in sampling order.
func (s *Store) ListVotes(ctx context.Context, runID string) ([]Vote, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT cluster_id, seq, identity, similarity, segment_start_ms, segment_end_ms
         FROM votes WHERE run_id = ? ORDER BY cluster_id, seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var votes []Vote
	for rows.Next() {
		var vote Vote
		if err := rows.Scan(&vote.ClusterID, &vote.Seq, &vote.Identity, &vote.Similarity, &vote.StartMs, &vote.EndMs); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		votes = append(votes, vote)
	}
	return votes, rows.Err()
}

// ListIdentities returns the resolved identities of a run ordered by cluster.
func (s *Store) ListIdentities(ctx context.Context, runID string) ([]Identity, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT cluster_id, identity, vote_count, sample_count FROM identities WHERE run_id = ? ORDER BY cluster_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []Identity
	for rows.Next() {
		var identity Identity
		if err := rows.Scan(&identity.ClusterID, &identity.Identity, &identity.VoteCount, &identity.SampleCount); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}
