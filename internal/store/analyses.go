package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docanalyze/internal/models"

	"github.com/google/uuid"
)

// SaveAnalysis persists one finished analysis for the user and returns the
// generated id. Rows are create-only; an analysis is never updated.
func (s *Store) SaveAnalysis(ctx context.Context, userID int64, filename string, result *models.AnalysisResult, customPrompt string) (string, error) {
	if userID <= 0 {
		return "", errors.New("user_id is required")
	}
	keyPoints, err := json.Marshal(result.KeyPoints)
	if err != nil {
		return "", fmt.Errorf("encode key points: %w", err)
	}
	full, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, user_id, filename, summary, key_points, analysis, custom_prompt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, filename, result.Summary, string(keyPoints), string(full), customPrompt, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

// GetAnalysis loads one analysis by id, scoped to its owning user.
// Returns sql.ErrNoRows when the id does not exist or belongs to another user.
func (s *Store) GetAnalysis(ctx context.Context, id string, userID int64) (*models.AnalysisResult, error) {
	var (
		summary   string
		keyPoints string
		full      string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT summary, key_points, analysis FROM analyses WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&summary, &keyPoints, &full)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	result := &models.AnalysisResult{Sections: models.EmptySections()}
	if err := json.Unmarshal([]byte(full), result); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	// The dedicated columns win over the JSON blob; they are what history
	// listings show, so the detail view must agree with them.
	result.Summary = summary
	var points []string
	if err := json.Unmarshal([]byte(keyPoints), &points); err == nil && points != nil {
		result.KeyPoints = points
	}
	if result.KeyPoints == nil {
		result.KeyPoints = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	if result.FileInfo == nil {
		result.FileInfo = []models.FileInfo{}
	}
	return result, nil
}

// ListHistory returns the user's analyses newest first.
func (s *Store) ListHistory(ctx context.Context, userID int64) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, summary, created_at FROM analyses WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	history := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Filename, &e.Summary, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}
