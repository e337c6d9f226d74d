package engine

import (
	"strings"

	"github.com/chorusbot/chorus/internal/history"
	"github.com/chorusbot/chorus/internal/shared/stringutils"
)

// topicSummaryLen is how many leading characters of the last non-bot message
// form the topic summary.
const topicSummaryLen = 200

// FormatHistory renders messages as one "Author: content" line each, oldest
// first. Bot turns are marked so the oracle can tell personas and users
// apart.
func FormatHistory(msgs []history.StoredMessage) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if m.IsBot {
			sb.WriteString("[bot] ")
		}
		sb.WriteString(m.Author)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}

// TopicSummary returns the short text proxy for "what is currently being
// discussed": the leading characters of the latest non-bot message, or the
// whole formatted history when no non-bot message exists.
func TopicSummary(msgs []history.StoredMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsBot {
			return stringutils.Head(msgs[i].Content, topicSummaryLen)
		}
	}
	return stringutils.Head(FormatHistory(msgs), topicSummaryLen)
}
