package docs

import (
	"strings"
	"testing"
)

func TestTopicsAndGet(t *testing.T) {
	topics := Topics()
	if strings.Join(topics, ",") != "config,keys,sandbox,scripting" {
		t.Fatalf("unexpected topics: %v", topics)
	}
	body, ok := Get(" Keys ")
	if !ok || !strings.Contains(body, "# Board keys") {
		t.Fatalf("expected keys doc, got ok=%v", ok)
	}
	if _, ok := Get("../docs"); ok {
		t.Fatalf("path traversal should not resolve")
	}
	if _, ok := Get("nope"); ok {
		t.Fatalf("unknown topic should not resolve")
	}
}
