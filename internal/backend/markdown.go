package backend

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// parsedBlock is one node of a parsed output tree, before ids are assigned.
type parsedBlock struct {
	Content  string
	Children []*parsedBlock
}

// parseMarkdownTree turns command output into a block tree. Headings become
// parent blocks nesting by level; everything else becomes one block per line,
// except fenced code which stays a single block. Output with no headings at
// all skips markdown entirely and yields the raw non-empty lines, so ls and
// friends come through untouched.
func parseMarkdownTree(content string) []*parsedBlock {
	src := []byte(content)
	docNode := goldmark.New().Parser().Parse(text.NewReader(src))

	if !hasHeading(docNode) {
		return flatLines(content)
	}

	// Heading stack: level 0 is the synthetic root.
	root := &parsedBlock{}
	type frame struct {
		level int
		node  *parsedBlock
	}
	stack := []frame{{0, root}}
	appendBlock := func(b *parsedBlock) {
		top := stack[len(stack)-1].node
		top.Children = append(top.Children, b)
	}

	var emit func(n ast.Node)
	emit = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Heading:
			for len(stack) > 1 && stack[len(stack)-1].level >= t.Level {
				stack = stack[:len(stack)-1]
			}
			// Keep the # prefix; the renderer styles headings off it.
			content := strings.Repeat("#", t.Level) + " " + strings.Join(segmentLines(t, src), " ")
			b := &parsedBlock{Content: content}
			appendBlock(b)
			stack = append(stack, frame{t.Level, b})
		case *ast.FencedCodeBlock:
			appendBlock(&parsedBlock{Content: fenceBlock(t, src)})
		case *ast.CodeBlock:
			appendBlock(&parsedBlock{Content: fenceBlock(t, src)})
		case *ast.Paragraph:
			for _, line := range segmentLines(t, src) {
				appendBlock(&parsedBlock{Content: line})
			}
		case *ast.TextBlock:
			for _, line := range segmentLines(t, src) {
				appendBlock(&parsedBlock{Content: line})
			}
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				emit(c)
			}
		}
	}
	for c := docNode.FirstChild(); c != nil; c = c.NextSibling() {
		emit(c)
	}
	return root.Children
}

func hasHeading(n ast.Node) bool {
	found := false
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if _, ok := c.(*ast.Heading); ok {
				found = true
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// segmentLines returns the trimmed non-empty source lines of a block node.
func segmentLines(n ast.Node, src []byte) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		s := strings.TrimSpace(string(seg.Value(src)))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func fenceBlock(n ast.Node, src []byte) string {
	lines := n.Lines()
	var body strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		body.Write(seg.Value(src))
	}
	return "```\n" + strings.TrimRight(body.String(), "\n") + "\n```"
}

func flatLines(content string) []*parsedBlock {
	var out []*parsedBlock
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, &parsedBlock{Content: line})
	}
	return out
}

// detackify swaps loud emoji for quiet glyphs before output lands in the
// outline.
var detackifier = strings.NewReplacer(
	"✅", "◆",
	"☑️", "◆",
	"✔️", "◆",
	"❌", "◇",
	"❎", "◇",
	"⛔", "◇",
	"🚫", "◇",
	"⚠️", "△",
	"🔴", "●",
	"🟢", "●",
	"🟡", "●",
	"📝", "»",
	"📌", "»",
	"💡", "◊",
	"🎯", "›",
	"🚀", "→",
)

func detackify(s string) string {
	return detackifier.Replace(s)
}
