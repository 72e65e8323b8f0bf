package analysis

import (
	"strings"
	"testing"
)

func TestBuildAnalysisPromptSingleDocument(t *testing.T) {
	prompt := BuildAnalysisPrompt([]string{"hello world"}, "")
	if !strings.Contains(prompt, "Document:\nhello world") {
		t.Fatalf("expected document text in prompt, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "DOCUMENT 1:") {
		t.Fatalf("single document must not use numbered headers")
	}
	if strings.Contains(prompt, "documents") {
		t.Fatalf("single document prompt must stay singular throughout:\n%s", prompt)
	}
	if strings.Contains(prompt, "## Document Comparison") {
		t.Fatalf("single document prompt must not request a comparison section")
	}
	if strings.Contains(prompt, "User-Specified Instructions") {
		t.Fatalf("no instruction block expected without an instruction")
	}
}

func TestBuildAnalysisPromptMultipleDocuments(t *testing.T) {
	prompt := BuildAnalysisPrompt([]string{"first", "second", "third"}, "")
	if !strings.Contains(prompt, "## Document Comparison") {
		t.Fatalf("multi-document prompt must request a comparison section")
	}
	for i, text := range []string{"first", "second", "third"} {
		header := "DOCUMENT " + string(rune('1'+i)) + ":\n" + text
		if !strings.Contains(prompt, header) {
			t.Fatalf("missing %q in prompt:\n%s", header, prompt)
		}
	}
	if strings.Index(prompt, "DOCUMENT 1:") > strings.Index(prompt, "DOCUMENT 2:") {
		t.Fatalf("documents out of order")
	}
}

func TestBuildAnalysisPromptInstruction(t *testing.T) {
	prompt := BuildAnalysisPrompt([]string{"text"}, "  focus on risks  ")
	if !strings.HasSuffix(prompt, "User-Specified Instructions: focus on risks") {
		t.Fatalf("instruction block missing or untrimmed:\n%s", prompt)
	}

	prompt = BuildAnalysisPrompt([]string{"text"}, "   ")
	if strings.Contains(prompt, "User-Specified Instructions") {
		t.Fatalf("whitespace-only instruction must be ignored")
	}
}

func TestBuildAnalysisPromptTruncatesLongDocuments(t *testing.T) {
	long := strings.Repeat("a", maxDocumentChars+500)
	prompt := BuildAnalysisPrompt([]string{long}, "")
	if strings.Contains(prompt, long) {
		t.Fatalf("document text was not truncated")
	}
	if !strings.Contains(prompt, long[:maxDocumentChars]) {
		t.Fatalf("expected the first %d characters to survive", maxDocumentChars)
	}
}

func TestBuildMetadataPrompt(t *testing.T) {
	prompt := BuildMetadataPrompt("invoice text")
	if !strings.Contains(prompt, "Document:\ninvoice text") {
		t.Fatalf("expected document text in metadata prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Document type and purpose") {
		t.Fatalf("metadata prompt missing checklist")
	}
}
