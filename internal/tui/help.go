package tui

import "taskboard-cli/internal/docs"

func renderHelp(width, height int) string {
	body, ok := docs.Get("keys")
	if !ok {
		body = "No help available."
	}
	w := width - 2
	if w > maxDetailW {
		w = maxDetailW
	}
	return normalizePane(renderMarkdown(body, w), width, height)
}
