// Package attach folds attachment-derived context (transcripts, extracted
// documents, image descriptions) into message content before any decision
// logic runs. The engine does not know or care how the extraction happens.
package attach

import (
	"context"
	"strings"
)

// Enrichment is the optional extra context extracted from a raw message.
type Enrichment struct {
	Transcript         string
	ExtractedDocuments []string
	ImageDescriptions  []string
}

// Empty reports whether the enrichment carries no content.
func (e Enrichment) Empty() bool {
	return e.Transcript == "" && len(e.ExtractedDocuments) == 0 && len(e.ImageDescriptions) == 0
}

// Processor extracts enrichment from a raw inbound message.
// Implementations may download, transcribe, or OCR; failures should yield an
// empty enrichment, never an aborted message.
type Processor interface {
	Process(ctx context.Context, content string, media []string) Enrichment
}

// Fold appends the enrichment to content in a compact bracketed form the
// oracle can read alongside the original text.
func Fold(content string, e Enrichment) string {
	if e.Empty() {
		return content
	}

	var sb strings.Builder
	sb.WriteString(content)
	if e.Transcript != "" {
		sb.WriteString("\n[transcript: ")
		sb.WriteString(e.Transcript)
		sb.WriteString("]")
	}
	for _, doc := range e.ExtractedDocuments {
		sb.WriteString("\n[document: ")
		sb.WriteString(doc)
		sb.WriteString("]")
	}
	for _, desc := range e.ImageDescriptions {
		sb.WriteString("\n[image: ")
		sb.WriteString(desc)
		sb.WriteString("]")
	}
	return strings.TrimSpace(sb.String())
}

// NoopProcessor returns no enrichment. Used when no extractor is configured.
type NoopProcessor struct{}

func (NoopProcessor) Process(context.Context, string, []string) Enrichment {
	return Enrichment{}
}
