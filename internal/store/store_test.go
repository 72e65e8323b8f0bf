package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docanalyze/internal/config"
	"docanalyze/internal/models"
	"docanalyze/internal/storage"
)

func openTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return New(db), db
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Sections: models.Sections{
			Summary:          "A quarterly budget review.",
			KeyPoints:        []string{"revenue up", "costs up faster"},
			DetailedAnalysis: "Costs are dominated by cloud spend.",
			Recommendations:  []string{"renegotiate contracts"},
		},
		FileInfo: []models.FileInfo{
			{Filename: "budget.pdf", CharacterCount: 1200, PageCount: 3},
		},
		CustomPromptUsed: true,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	st, db := openTestStore(t)
	defer db.Close()
	ctx := context.Background()

	user, err := st.RegisterUser(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("RegisterUser error: %v", err)
	}
	if user.ID <= 0 || user.Username != "alice" {
		t.Fatalf("unexpected user: %#v", user)
	}

	got, err := st.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("login returned wrong user: %d != %d", got.ID, user.ID)
	}

	if _, err := st.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatalf("expected login failure with wrong password")
	}
	if _, err := st.Login(ctx, "nobody", "secret"); err == nil {
		t.Fatalf("expected login failure for unknown user")
	}
	if _, err := st.RegisterUser(ctx, "alice", "again"); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}
	if _, err := st.RegisterUser(ctx, "  ", "pw"); err == nil {
		t.Fatalf("expected blank username to fail")
	}
}

func TestSaveAndGetAnalysis(t *testing.T) {
	st, db := openTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user, err := st.RegisterUser(ctx, "bob", "pw")
	if err != nil {
		t.Fatalf("RegisterUser error: %v", err)
	}

	result := sampleResult()
	id, err := st.SaveAnalysis(ctx, user.ID, "budget.pdf", result, "focus on costs")
	if err != nil {
		t.Fatalf("SaveAnalysis error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected non-empty analysis id")
	}

	got, err := st.GetAnalysis(ctx, id, user.ID)
	if err != nil {
		t.Fatalf("GetAnalysis error: %v", err)
	}
	if got.Summary != result.Summary {
		t.Fatalf("summary mismatch: %q", got.Summary)
	}
	if len(got.KeyPoints) != 2 || got.KeyPoints[0] != "revenue up" {
		t.Fatalf("key points mismatch: %#v", got.KeyPoints)
	}
	if len(got.FileInfo) != 1 || got.FileInfo[0].Filename != "budget.pdf" {
		t.Fatalf("file info mismatch: %#v", got.FileInfo)
	}
	if !got.CustomPromptUsed {
		t.Fatalf("custom prompt flag lost")
	}
}

func TestGetAnalysisScopedToUser(t *testing.T) {
	st, db := openTestStore(t)
	defer db.Close()
	ctx := context.Background()
	owner, _ := st.RegisterUser(ctx, "owner", "pw")
	other, _ := st.RegisterUser(ctx, "other", "pw")

	id, err := st.SaveAnalysis(ctx, owner.ID, "doc.txt", sampleResult(), "")
	if err != nil {
		t.Fatalf("SaveAnalysis error: %v", err)
	}
	if _, err := st.GetAnalysis(ctx, id, other.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for foreign user, got %v", err)
	}
	if _, err := st.GetAnalysis(ctx, "missing-id", owner.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for unknown id, got %v", err)
	}
}

func TestListHistoryNewestFirst(t *testing.T) {
	st, db := openTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user, _ := st.RegisterUser(ctx, "carol", "pw")
	other, _ := st.RegisterUser(ctx, "dave", "pw")

	ids := make([]string, 3)
	for i := range ids {
		id, err := st.SaveAnalysis(ctx, user.ID, "doc.txt", sampleResult(), "")
		if err != nil {
			t.Fatalf("SaveAnalysis error: %v", err)
		}
		ids[i] = id
		// created_at has second precision in the DB; spread the rows out.
		if _, err := db.Exec(`UPDATE analyses SET created_at = ? WHERE id = ?`,
			time.Date(2025, 6, 1, 12, i, 0, 0, time.UTC), id); err != nil {
			t.Fatalf("backdate row: %v", err)
		}
	}
	if _, err := st.SaveAnalysis(ctx, other.ID, "foreign.txt", sampleResult(), ""); err != nil {
		t.Fatalf("SaveAnalysis error: %v", err)
	}

	history, err := st.ListHistory(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListHistory error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for i, entry := range history {
		if entry.ID != ids[len(ids)-1-i] {
			t.Fatalf("history not newest-first: %#v", history)
		}
		if entry.Filename != "doc.txt" || entry.Summary == "" {
			t.Fatalf("entry missing fields: %#v", entry)
		}
	}

	empty, err := st.ListHistory(ctx, 99999)
	if err != nil {
		t.Fatalf("ListHistory error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", empty)
	}
}
