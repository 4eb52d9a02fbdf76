package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

type WriteOptions struct {
	Overwrite bool
	// HTML also writes board.html next to board.md.
	HTML bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteBoard renders s into toDir/board.md (and board.html when asked).
func WriteBoard(s Snapshot, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	md := RenderBoardMarkdown(s)
	mdPath := filepath.Join(toDir, "board.md")
	if err := writeFile(mdPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{mdPath}

	if opt.HTML {
		title := "Board"
		if p := strings.TrimSpace(s.ProjectID); p != "" {
			title = "Project " + p
		}
		page, err := RenderHTML(title, md)
		if err != nil {
			return WriteResult{Written: written}, err
		}
		htmlPath := filepath.Join(toDir, "board.html")
		if err := writeFile(htmlPath, []byte(page), opt.Overwrite); err != nil {
			return WriteResult{Written: written}, err
		}
		written = append(written, htmlPath)
	}

	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
