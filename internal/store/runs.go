package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = `id, audio_path, status, stage, error_message, transcript_path, subtitle_path,
    sentence_count, speaker_count, created_at, updated_at, finished_at`

// CreateRun records a new running pipeline invocation.
func (s *Store) CreateRun(ctx context.Context, id, audioPath string) (*Run, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("run id is required")
	}
	now := formatTime(time.Now())
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, audio_path, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, audioPath, RunRunning, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// UpdateRunStage records the stage a running pipeline has reached.
func (s *Store) UpdateRunStage(ctx context.Context, id, stage string) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET stage = ?, updated_at = ? WHERE id = ?`,
		stage, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update run stage: %w", err)
	}
	return nil
}

// CompleteRun marks a run completed with its outputs.
func (s *Store) CompleteRun(ctx context.Context, id string, result RunResult) error {
	now := formatTime(time.Now())
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = NULL, transcript_path = ?, subtitle_path = ?,
            sentence_count = ?, speaker_count = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		RunCompleted,
		nullableString(result.TranscriptPath),
		nullableString(result.SubtitlePath),
		result.SentenceCount,
		result.SpeakerCount,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// FailRun marks a run failed with the error that stopped it.
func (s *Store) FailRun(ctx context.Context, id string, cause error) error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	now := formatTime(time.Now())
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		RunFailed, message, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// MarkInterruptedRuns fails every run still marked running. It is called
// before new work starts so crashed runs do not linger as running forever.
func (s *Store) MarkInterruptedRuns(ctx context.Context) (int64, error) {
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ?, finished_at = ? WHERE status = ?`,
		RunFailed, InterruptedReason, now, now, RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// GetRun fetches a run by full id or unique id prefix. It returns nil when
// nothing matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2`,
		id, stripLikeWildcards(id)+"%", id,
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("get run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	switch {
	case len(runs) == 0:
		return nil, nil
	case runs[0].ID == id || len(runs) == 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// LatestRun returns the most recently created run, or nil when none exist.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                                  Run
		status                               string
		stage, errMsg, transcript, subtitles sql.NullString
		created, updated, finished           sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.AudioPath, &status, &stage, &errMsg, &transcript, &subtitles,
		&run.SentenceCount, &run.SpeakerCount, &created, &updated, &finished,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Stage = stage.String
	run.ErrorMessage = errMsg.String
	run.TranscriptPath = transcript.String
	run.SubtitlePath = subtitles.String
	run.CreatedAt = parseTime(created)
	run.UpdatedAt = parseTime(updated)
	run.FinishedAt = parseTime(finished)
	return &run, nil
}

func stripLikeWildcards(value string) string {
	replacer := strings.NewReplacer(`%`, ``, `_`, ``)
	return replacer.Replace(value)
}
