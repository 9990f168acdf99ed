package publisher

import (
	"fmt"
	"html"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

func buildHTMLBody(digest *summarizer.Digest) string {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 760px; margin: 0 auto; padding: 20px; color: #333; }
h1 { color: #1a1a2e; border-bottom: 2px solid #228b22; padding-bottom: 10px; }
h2 { color: #228b22; }
.analysis { white-space: pre-wrap; line-height: 1.5; }
.sources li { margin-bottom: 8px; }
.sources .label { color: #228b22; }
.sources a { color: #000; font-size: 0.85em; word-break: break-all; }
</style></head><body>`)

	sb.WriteString("<h1>Daily Technical and Strategic Analysis</h1>")
	sb.WriteString(fmt.Sprintf("<p><em>%s &middot; %d news items</em></p>", digest.Date.Format("January 2, 2006"), digest.EntryCount))
	sb.WriteString(fmt.Sprintf(`<div class="analysis">%s</div>`, html.EscapeString(digest.Analysis)))

	if len(digest.Citations) > 0 {
		sb.WriteString(`<h2>News Sources</h2><ol class="sources">`)
		for _, c := range digest.Citations {
			sb.WriteString(fmt.Sprintf(`<li><div class="label">%s</div><a href="%s">%s</a></li>`,
				html.EscapeString(c.Label), html.EscapeString(c.Link), html.EscapeString(c.Link)))
		}
		sb.WriteString("</ol>")
	}

	sb.WriteString("</body></html>")
	return sb.String()
}
