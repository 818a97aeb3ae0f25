package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/chasehq/geochase/internal/game"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// sqliteNow matches the strftime default used by the schema.
const sqliteNow = "strftime('%Y-%m-%dT%H:%M:%fZ', 'now')"

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func (s *SQLiteStore) GetCase(ctx context.Context, caseID string) (game.Case, error) {
	var c game.Case
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, villain_id, target_location_id, difficulty_level, round_count, created_at
		FROM cases WHERE id = ?
	`, caseID).Scan(&c.ID, &c.Title, &c.VillainID, &c.TargetLocationID, &c.DifficultyLevel, &c.RoundCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c.CreatedAt = parseTime(createdAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, round_number, reveal_order, type, points_value, content
		FROM clues WHERE case_id = ?
		ORDER BY round_number, reveal_order
	`, caseID)
	if err != nil {
		return c, err
	}
	defer rows.Close()

	for rows.Next() {
		var cl game.Clue
		var ct string
		if err := rows.Scan(&cl.ID, &cl.CaseID, &cl.RoundNumber, &cl.RevealOrder, &ct, &cl.PointsValue, &cl.Content); err != nil {
			return c, err
		}
		cl.Type = game.ClueType(ct)
		c.Clues = append(c.Clues, cl)
	}
	return c, rows.Err()
}

func (s *SQLiteStore) GetLocation(ctx context.Context, locationID string) (game.Location, error) {
	var l game.Location
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, latitude, longitude, country, region
		FROM locations WHERE id = ?
	`, locationID).Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.Country, &l.Region)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	return l, err
}

func (s *SQLiteStore) ListCases(ctx context.Context) ([]game.Case, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, villain_id, target_location_id, difficulty_level, round_count, created_at
		FROM cases ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []game.Case
	for rows.Next() {
		var c game.Case
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Title, &c.VillainID, &c.TargetLocationID, &c.DifficultyLevel, &c.RoundCount, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, id, caseID, hostToken string, cfg game.SessionConfig) (sessionRecord, error) {
	autoAdvance := 0
	if cfg.AutoAdvance {
		autoAdvance = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, case_id, status, current_round, max_rounds, clues_per_round, round_duration_minutes, auto_advance, host_token)
		VALUES (?, ?, 'waiting', 1, ?, ?, ?, ?, ?)
	`, id, caseID, cfg.MaxRounds, cfg.CluesPerRound, cfg.RoundDurationMinutes, autoAdvance, hostToken)
	if err != nil {
		return sessionRecord{}, err
	}
	return s.GetSession(ctx, id)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (sessionRecord, error) {
	var rec sessionRecord
	var status, createdAt string
	var autoAdvance int
	var roundStartedAt, startedAt, completedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, status, current_round, max_rounds, clues_per_round, round_duration_minutes,
		       auto_advance, host_token, round_started_at, started_at, completed_at, created_at
		FROM sessions WHERE id = ?
	`, id).Scan(&rec.ID, &rec.CaseID, &status, &rec.CurrentRound,
		&rec.Config.MaxRounds, &rec.Config.CluesPerRound, &rec.Config.RoundDurationMinutes,
		&autoAdvance, &rec.HostToken, &roundStartedAt, &startedAt, &completedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	rec.Status = game.SessionStatus(status)
	rec.Config.AutoAdvance = autoAdvance != 0
	rec.RoundStartedAt = parseNullTime(roundStartedAt)
	rec.StartedAt = parseNullTime(startedAt)
	rec.CompletedAt = parseNullTime(completedAt)
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

func (s *SQLiteStore) StartSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = 'active', started_at = `+sqliteNow+`, round_started_at = `+sqliteNow+`
		WHERE id = ?
	`, id)
	return err
}

func (s *SQLiteStore) SetSessionStatus(ctx context.Context, id string, status game.SessionStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ?`, string(status), id)
	return err
}

func (s *SQLiteStore) AdvanceSessionRound(ctx context.Context, id string, nextRound int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET current_round = ?, round_started_at = `+sqliteNow+` WHERE id = ?
	`, nextRound, id)
	return err
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = 'completed', completed_at = `+sqliteNow+`
		WHERE id = ? AND status != 'completed'
	`, id)
	return err
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, id, sessionID, name, token string) (game.Team, error) {
	var t game.Team
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, session_id, name, join_token)
		VALUES (?, ?, ?, ?)
		RETURNING id, session_id, name, join_token, created_at
	`, id, sessionID, name, token).Scan(&t.ID, &t.SessionID, &t.Name, &t.JoinToken, &createdAt)
	if err != nil {
		return t, err
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *SQLiteStore) TeamByToken(ctx context.Context, token string) (game.Team, error) {
	var t game.Team
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, join_token, created_at
		FROM teams WHERE join_token = ?
	`, token).Scan(&t.ID, &t.SessionID, &t.Name, &t.JoinToken, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *SQLiteStore) ListTeams(ctx context.Context, sessionID string) ([]game.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, name, join_token, created_at
		FROM teams WHERE session_id = ? ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []game.Team
	for rows.Next() {
		var t game.Team
		var createdAt string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Name, &t.JoinToken, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) InitRevealMark(ctx context.Context, sessionID string, round int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reveal_marks (session_id, round_number, revealed_count)
		VALUES (?, ?, 0)
	`, sessionID, round)
	return err
}

func (s *SQLiteStore) RevealMark(ctx context.Context, sessionID string, round int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT revealed_count FROM reveal_marks
		WHERE session_id = ? AND round_number = ?
	`, sessionID, round).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// AdvanceRevealMark moves the high-water mark from `from` to `from+1` only
// if nobody else advanced it in between. A retried reveal therefore cannot
// double-count a clue.
func (s *SQLiteStore) AdvanceRevealMark(ctx context.Context, sessionID string, round, from int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reveal_marks SET revealed_count = ?
		WHERE session_id = ? AND round_number = ? AND revealed_count = ?
	`, from+1, sessionID, round, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMarkMoved
	}
	return nil
}

func (s *SQLiteStore) SubmissionFor(ctx context.Context, sessionID, teamID string, round int) (game.WarrantSubmission, error) {
	var sub game.WarrantSubmission
	var isCorrect int
	var submittedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, team_id, round_number, guessed_location_id, reasoning,
		       distance_km, is_correct, points_awarded, elapsed_seconds, submitted_at
		FROM warrant_submissions
		WHERE session_id = ? AND team_id = ? AND round_number = ?
	`, sessionID, teamID, round).Scan(&sub.ID, &sub.SessionID, &sub.TeamID, &sub.RoundNumber,
		&sub.GuessedLocationID, &sub.Reasoning, &sub.DistanceKm, &isCorrect, &sub.PointsAwarded,
		&sub.ElapsedSeconds, &submittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, ErrNotFound
	}
	if err != nil {
		return sub, err
	}
	sub.IsCorrect = isCorrect != 0
	sub.SubmittedAt = parseTime(submittedAt)
	return sub, nil
}

func (s *SQLiteStore) CountSubmissions(ctx context.Context, sessionID string, round int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM warrant_submissions WHERE session_id = ? AND round_number = ?
	`, sessionID, round).Scan(&count)
	return count, err
}

// RecordWarrant persists the submission and its ledger events in one
// transaction: both commit or neither does. The UNIQUE index on
// (session_id, team_id, round_number) is the last line of defense against a
// racing duplicate.
func (s *SQLiteStore) RecordWarrant(ctx context.Context, sub game.WarrantSubmission, events []game.ScoreEvent) (game.WarrantSubmission, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return sub, err
	}
	defer tx.Rollback()

	isCorrect := 0
	if sub.IsCorrect {
		isCorrect = 1
	}
	var submittedAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO warrant_submissions
			(id, session_id, team_id, round_number, guessed_location_id, reasoning,
			 distance_km, is_correct, points_awarded, elapsed_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING submitted_at
	`, sub.ID, sub.SessionID, sub.TeamID, sub.RoundNumber, sub.GuessedLocationID, sub.Reasoning,
		sub.DistanceKm, isCorrect, sub.PointsAwarded, sub.ElapsedSeconds).Scan(&submittedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return sub, ErrDuplicateSubmission
		}
		return sub, err
	}
	sub.SubmittedAt = parseTime(submittedAt)

	for _, ev := range events {
		if err := insertScoreEvent(ctx, tx, ev); err != nil {
			return sub, err
		}
	}

	return sub, tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertScoreEvent(ctx context.Context, db execer, ev game.ScoreEvent) error {
	meta := "{}"
	if len(ev.Metadata) > 0 {
		raw, _ := json.Marshal(ev.Metadata)
		meta = string(raw)
	}
	id := ev.ID
	if id == "" {
		id = newID()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO score_events (id, session_id, team_id, round_number, event_type, points, description, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, ev.SessionID, ev.TeamID, ev.RoundNumber, string(ev.Type), ev.Points, ev.Description, meta)
	return err
}

func (s *SQLiteStore) AppendScoreEvent(ctx context.Context, ev game.ScoreEvent) error {
	return insertScoreEvent(ctx, s.db, ev)
}

// TeamScores re-derives every team's totals by summing ledger events. The
// ledger is the only score authority; nothing here is cached.
func (s *SQLiteStore) TeamScores(ctx context.Context, sessionID string) ([]teamScoreRow, error) {
	teams, err := s.ListTeams(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*teamScoreRow, len(teams))
	var out []*teamScoreRow
	for _, t := range teams {
		row := &teamScoreRow{
			TeamID:   t.ID,
			TeamName: t.Name,
			JoinedAt: t.CreatedAt,
			PerRound: make(map[int]int),
		}
		byID[t.ID] = row
		out = append(out, row)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, round_number, SUM(points)
		FROM score_events
		WHERE session_id = ? AND team_id != ''
		GROUP BY team_id, round_number
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var teamID string
		var round, points int
		if err := rows.Scan(&teamID, &round, &points); err != nil {
			return nil, err
		}
		if row, ok := byID[teamID]; ok {
			row.PerRound[round] += points
			row.Total += points
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	correct, err := s.db.QueryContext(ctx, `
		SELECT team_id, MIN(submitted_at)
		FROM warrant_submissions
		WHERE session_id = ? AND is_correct = 1
		GROUP BY team_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer correct.Close()

	for correct.Next() {
		var teamID, at string
		if err := correct.Scan(&teamID, &at); err != nil {
			return nil, err
		}
		if row, ok := byID[teamID]; ok {
			t := parseTime(at)
			row.FirstCorrectAt = &t
		}
	}
	if err := correct.Err(); err != nil {
		return nil, err
	}

	result := make([]teamScoreRow, len(out))
	for i, r := range out {
		result[i] = *r
	}
	return result, nil
}

// AnalyticsData gathers the raw counters for a session. Missing rows mean
// zeros, never an error: an in-progress session must report cleanly.
func (s *SQLiteStore) AnalyticsData(ctx context.Context, sessionID string) (analyticsData, error) {
	d := analyticsData{
		RevealsByType: make(map[string]int),
		BonusEvents:   make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(revealed_count), 0) FROM reveal_marks WHERE session_id = ?
	`, sessionID).Scan(&d.CluesRevealed)
	if err != nil {
		return d, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(is_correct), 0),
		       COALESCE(SUM(elapsed_seconds), 0)
		FROM warrant_submissions WHERE session_id = ?
	`, sessionID).Scan(&d.SubmissionCount, &d.CorrectSubmissions, &d.TotalResponseSecs)
	if err != nil {
		return d, err
	}
	d.IncorrectSubmissions = d.SubmissionCount - d.CorrectSubmissions

	types, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(json_extract(metadata, '$.clueType'), 'unknown'), COUNT(*)
		FROM score_events
		WHERE session_id = ? AND event_type = 'clue_revealed'
		GROUP BY 1
	`, sessionID)
	if err != nil {
		return d, err
	}
	defer types.Close()
	for types.Next() {
		var ct string
		var n int
		if err := types.Scan(&ct, &n); err != nil {
			return d, err
		}
		d.RevealsByType[ct] = n
	}
	if err := types.Err(); err != nil {
		return d, err
	}

	bonuses, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*)
		FROM score_events
		WHERE session_id = ? AND event_type IN ('time_bonus', 'reasoning_bonus', 'country_bonus')
		GROUP BY event_type
	`, sessionID)
	if err != nil {
		return d, err
	}
	defer bonuses.Close()
	for bonuses.Next() {
		var et string
		var n int
		if err := bonuses.Scan(&et, &n); err != nil {
			return d, err
		}
		d.BonusEvents[et] = n
	}
	return d, bonuses.Err()
}
