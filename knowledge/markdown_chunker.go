package knowledge

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	maxSectionDepth = 4
	windowRunes     = 1000
	windowOverlap   = 200
)

// ChunkMarkdown splits a markdown document into heading sections and each
// section into overlapping windows. Windows of a section are linked through
// PrevChunkID and NextChunkID.
func ChunkMarkdown(fileName string, markdown []byte, tags []string) []ChunkModel {
	title := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))

	var out []ChunkModel
	for _, sec := range parseMarkdownSections(markdown) {
		sectionPath := strings.Join(sec.path, " > ")
		sectionID := hash(fileName + "|" + strings.Join(sec.path, "|"))

		windows := splitWindows(sec.body, windowRunes, windowOverlap)
		first := len(out)
		for i, w := range windows {
			out = append(out, ChunkModel{
				ChunkID:     fmt.Sprintf("%s-%03d", sectionID, i),
				Title:       title,
				SectionPath: sectionPath,
				SourceURI:   fileName,
				Tags:        tags,
				Body:        w,
				SectionID:   sectionID,
				WindowIndex: i,
			})
		}

		for i := first; i < len(out); i++ {
			if i > first {
				out[i].PrevChunkID = out[i-1].ChunkID
			}
			if i < len(out)-1 {
				out[i].NextChunkID = out[i+1].ChunkID
			}
		}
	}

	return out
}

// splitWindows cuts s into windows of at most size runes, each starting
// size-overlap runes after the previous one.
func splitWindows(s string, size, overlap int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	runes := []rune(s)
	var out []string
	for i := 0; i < len(runes); i += size - overlap {
		end := min(i+size, len(runes))
		out = append(out, strings.TrimSpace(string(runes[i:end])))
		if end == len(runes) {
			break
		}
	}
	return out
}

func hash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

type markdownSection struct {
	path []string
	body string
}

// parseMarkdownSections returns one section per heading. Text before the
// first heading becomes a section with an empty path.
func parseMarkdownSections(md []byte) []markdownSection {
	var out []markdownSection

	reader := text.NewReader(md)
	root := goldmark.DefaultParser().Parse(reader)

	var currentPath []string
	var buf bytes.Buffer

	flush := func() {
		if strings.TrimSpace(buf.String()) != "" {
			dst := append([]string(nil), currentPath...)
			out = append(out, markdownSection{path: dst, body: buf.String()})
		}
		buf.Reset()
	}

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			flush()
			if h.Level <= maxSectionDepth {
				if len(currentPath) >= h.Level {
					currentPath = currentPath[:h.Level-1]
				}
				currentPath = append(currentPath, string(h.Text(md)))
			}
			// heading text belongs to the path, not the body
			return ast.WalkSkipChildren, nil
		}
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			buf.Write(t.Segment.Value(md))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case ast.KindString:
			buf.Write(n.(*ast.String).Value)
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(md))
			}
		}

		if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
			if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	return out
}
