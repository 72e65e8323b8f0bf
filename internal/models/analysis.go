package models

import "time"

// FileInfo describes one input document of an analysis, in input order.
type FileInfo struct {
	Filename       string `json:"filename"`
	CharacterCount int    `json:"character_count"`
	PageCount      int    `json:"page_count"`
}

// Sections holds the named sections parsed out of a model reply.
type Sections struct {
	Summary            string   `json:"summary"`
	KeyPoints          []string `json:"keyPoints"`
	DetailedAnalysis   string   `json:"detailedAnalysis"`
	Recommendations    []string `json:"recommendations"`
	DocumentComparison string   `json:"documentComparison"`
}

// EmptySections returns the zero-value sections with non-nil lists so the
// JSON encoding always carries empty arrays instead of null.
func EmptySections() Sections {
	return Sections{
		KeyPoints:       []string{},
		Recommendations: []string{},
	}
}

// AnalysisResult is the client-facing unit of value: the parsed sections plus
// per-file metadata. FileInfo length and order match the uploaded files.
type AnalysisResult struct {
	Sections
	FileInfo         []FileInfo `json:"fileInfo"`
	CustomPromptUsed bool       `json:"customPromptUsed"`
}

// HistoryEntry is one row of a user's analysis history.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}
