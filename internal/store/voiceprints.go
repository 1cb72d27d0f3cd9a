package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// AddVoiceprint enrolls a reference embedding for identity.
func (s *Store) AddVoiceprint(ctx context.Context, identity, sourcePath string, vector []float32) (int64, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return 0, errors.New("identity is required")
	}
	if len(vector) == 0 {
		return 0, errors.New("voiceprint vector is empty")
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO voiceprints (identity, source_path, dimensions, vector, created_at) VALUES (?, ?, ?, ?, ?)`,
		identity, nullableString(sourcePath), len(vector), encodeVector(vector), formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert voiceprint: %w", err)
	}
	return res.LastInsertId()
}

// ListVoiceprints returns every enrolled voiceprint ordered by identity.
func (s *Store) ListVoiceprints(ctx context.Context) ([]Voiceprint, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, identity, source_path, dimensions, vector, created_at FROM voiceprints ORDER BY identity, id`)
	if err != nil {
		return nil, fmt.Errorf("list voiceprints: %w", err)
	}
	defer rows.Close()

	var prints []Voiceprint
	for rows.Next() {
		var (
			vp         Voiceprint
			source     sql.NullString
			created    sql.NullString
			dimensions int
			blob       []byte
		)
		if err := rows.Scan(&vp.ID, &vp.Identity, &source, &dimensions, &blob, &created); err != nil {
			return nil, fmt.Errorf("scan voiceprint: %w", err)
		}
		vector, err := decodeVector(blob, dimensions)
		if err != nil {
			return nil, fmt.Errorf("voiceprint %d: %w", vp.ID, err)
		}
		vp.Vector = vector
		vp.SourcePath = source.String
		vp.CreatedAt = parseTime(created)
		prints = append(prints, vp)
	}
	return prints, rows.Err()
}

// RemoveVoiceprints deletes every voiceprint enrolled for identity.
func (s *Store) RemoveVoiceprints(ctx context.Context, identity string) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM voiceprints WHERE identity = ?`, strings.TrimSpace(identity))
	if err != nil {
		return 0, fmt.Errorf("remove voiceprints: %w", err)
	}
	return res.RowsAffected()
}

func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dimensions int) ([]float32, error) {
	if len(blob) != 4*dimensions {
		return nil, fmt.Errorf("vector holds %d bytes, expected %d", len(blob), 4*dimensions)
	}
	vector := make([]float32, dimensions)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
