package decodecmder

import (
	"fmt"
	"strings"

	"github.com/scriptoriumco/vellum/pkg/cliui"
	"github.com/scriptoriumco/vellum/pkg/message"
)

// renderParts formats a decoded part list as markdown and renders it for the
// terminal. On render failure it returns the plain markdown alongside the
// error so the caller can still show something.
func renderParts(parts []message.Part) (string, error) {
	md := partsMarkdown(parts)

	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		return md, err
	}
	return rendered, nil
}

func partsMarkdown(parts []message.Part) string {
	var b strings.Builder

	for _, part := range parts {
		switch part.Kind {
		case message.PartReasoning:
			for _, line := range strings.Split(strings.TrimRight(part.Reasoning, "\n"), "\n") {
				fmt.Fprintf(&b, "> %s\n", line)
			}
			b.WriteString("\n")

		case message.PartText:
			b.WriteString(part.Text)
			b.WriteString("\n\n")

		case message.PartToolStep:
			step := part.ToolStep
			fmt.Fprintf(&b, "- `%s` %s", step.ToolName, step.Status)
			if step.Error != "" {
				fmt.Fprintf(&b, ": %s", step.Error)
			}
			b.WriteString("\n")

		case message.PartToolInvocation:
			inv := part.ToolInvocation
			fmt.Fprintf(&b, "- `%s` %s\n", inv.ToolName, inv.State)

		case message.PartSource:
			src := part.Source
			title := src.Title
			if title == "" {
				title = src.URL
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", title, src.URL)
		}
	}

	return b.String()
}
