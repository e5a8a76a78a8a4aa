// Package diff renders observed-versus-desired previews for dry runs.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"
)

const (
	maxDiffLines    = 2000
	truncateMessage = "... (diff truncated) ..."
)

// GenerateUnifiedDiff compares two texts line by line and returns a unified-style
// diff. Identical inputs produce an empty string.
func GenerateUnifiedDiff(before, after []byte, beforeLabel, afterLabel string) string {
	if bytes.Equal(before, after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n", beforeLabel)
	fmt.Fprintf(&buf, "+++ %s\n", afterLabel)
	fmt.Fprintf(&buf, "@@ -1,%d +1,%d @@\n", countLines(before), countLines(after))

	written := 0
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitLines(d.Text) {
			if written >= maxDiffLines {
				buf.WriteString(truncateMessage)
				buf.WriteString("\n")
				return buf.String()
			}
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteString("\n")
			written++
		}
	}

	return buf.String()
}

// YAMLDiff renders both values as YAML and diffs the documents. Map keys are
// sorted by the encoder so field order never shows up as drift.
func YAMLDiff(observed, desired any) (string, error) {
	before, err := yaml.Marshal(observed)
	if err != nil {
		return "", fmt.Errorf("render observed state: %w", err)
	}
	after, err := yaml.Marshal(desired)
	if err != nil {
		return "", fmt.Errorf("render desired state: %w", err)
	}
	return GenerateUnifiedDiff(before, after, "observed", "desired"), nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func countLines(content []byte) int {
	return len(splitLines(string(content)))
}
