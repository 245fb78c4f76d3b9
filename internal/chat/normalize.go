package chat

import (
	"strings"

	"github.com/rs/zerolog"
)

const defaultFileName = "Uploaded File"

// NormalizeAttachments flattens a list of attachment refs into a single text
// blob (input order, space-joined, trimmed) and one summary per usable ref.
// A ref carrying no id, no name, and no text is skipped with a warning; it
// never aborts the rest of the list.
func NormalizeAttachments(refs []AttachmentRef, log zerolog.Logger) (string, []AttachmentSummary) {
	if len(refs) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(refs))
	summaries := make([]AttachmentSummary, 0, len(refs))

	for i, ref := range refs {
		if ref.FileID == "" && ref.FileName == "" && strings.TrimSpace(ref.ExtractedText) == "" {
			log.Warn().Int("index", i).Msg("skipping malformed attachment ref")
			continue
		}

		texts = append(texts, strings.TrimSpace(ref.ExtractedText))

		name := ref.FileName
		if name == "" {
			name = defaultFileName
		}
		summaries = append(summaries, AttachmentSummary{
			Type:    "file",
			Text:    name,
			Summary: ref.Summary,
			Tags:    ref.Tags,
			FileID:  ref.FileID,
		})
	}

	return strings.TrimSpace(strings.Join(texts, " ")), summaries
}
