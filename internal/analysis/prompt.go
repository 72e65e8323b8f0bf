package analysis

import (
	"fmt"
	"strings"
)

// Per-document input cap before prompt interpolation.
const maxDocumentChars = 15000

const singleDocumentTemplate = `Analyze the following document and provide your analysis in the exact format below with these exact section headings:

## Summary
Provide a concise executive summary of 2-3 paragraphs that captures the main ideas and purpose of the document.

## Key Points
Include 3-5 bullet points highlighting the most important facts, insights, or conclusions from the document.
Each bullet point should be a complete statement without placeholders or references to "key point X".
Use dashes (-) for bullet points.
Format exactly like this:
- First key point here
- Second key point here
- Third key point here

## Detailed Analysis
Provide a thorough analysis of the main themes, arguments, and evidence presented in the document.
Break this into paragraphs covering different aspects of the content.

## Recommendations
List specific, actionable recommendations based on the content.
Each recommendation must be on a separate line starting with a dash (-).
Format exactly like this:
- First recommendation here
- Second recommendation here
- Third recommendation here
Do not combine multiple recommendations into a single bullet point.

Document:
{text}`

const multipleDocumentsTemplate = `Analyze the following documents and provide your analysis in the exact format below with these exact section headings:

## Summary
Provide a concise executive summary of 2-3 paragraphs that captures the main ideas and purpose across all documents.

## Key Points
Include 3-5 bullet points highlighting the most important facts, insights, or conclusions from the documents.
Each bullet point should be a complete statement without placeholders or references to "key point X".
Use dashes (-) for bullet points.
Format exactly like this:
- First key point here
- Second key point here
- Third key point here

## Detailed Analysis
Provide a thorough analysis of the main themes, arguments, and evidence presented across all documents.
Break this into paragraphs covering different aspects of the content.

## Recommendations
List specific, actionable recommendations based on the content.
Each recommendation must be on a separate line starting with a dash (-).
Format exactly like this:
- First recommendation here
- Second recommendation here
- Third recommendation here
Do not combine multiple recommendations into a single bullet point.

## Document Comparison
Compare the documents, highlighting important similarities and differences in content, approach, and conclusions.

Documents:
{text}`

const metadataTemplate = `Extract and analyze the following metadata from the document:
1. Document type and purpose
2. Main topics or themes
3. Target audience
4. Key dates or timelines mentioned
5. Organizations or entities referenced

Document:
{text}`

// BuildAnalysisPrompt interpolates the document texts and the optional user
// instruction into the analysis prompt. A single text uses the
// single-document template; two or more use the multiple-documents template
// with DOCUMENT n headers in input order.
func BuildAnalysisPrompt(texts []string, instruction string) string {
	var prompt string
	if len(texts) == 1 {
		prompt = strings.Replace(singleDocumentTemplate, "{text}", truncate(texts[0]), 1)
	} else {
		var docs strings.Builder
		for i, text := range texts {
			if i > 0 {
				docs.WriteString("\n\n")
			}
			fmt.Fprintf(&docs, "DOCUMENT %d:\n%s", i+1, truncate(text))
		}
		prompt = strings.Replace(multipleDocumentsTemplate, "{text}", docs.String(), 1)
	}
	if instr := strings.TrimSpace(instruction); instr != "" {
		prompt += "\n\nUser-Specified Instructions: " + instr
	}
	return prompt
}

// BuildMetadataPrompt interpolates text into the metadata extraction prompt.
func BuildMetadataPrompt(text string) string {
	return strings.Replace(metadataTemplate, "{text}", truncate(text), 1)
}

func truncate(text string) string {
	if len(text) > maxDocumentChars {
		return text[:maxDocumentChars]
	}
	return text
}
