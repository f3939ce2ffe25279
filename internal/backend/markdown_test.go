package backend

import "testing"

func flatten(blocks []*parsedBlock) []string {
	var out []string
	var walk func(bs []*parsedBlock, depth int)
	walk = func(bs []*parsedBlock, depth int) {
		for _, b := range bs {
			out = append(out, b.Content)
			walk(b.Children, depth+1)
		}
	}
	walk(blocks, 0)
	return out
}

func TestParsePlainOutputKeepsRawLines(t *testing.T) {
	got := parseMarkdownTree("total 8\ndrwxr-xr-x  bin\n\n-rw-r--r--  notes.txt\n")
	if len(got) != 3 {
		t.Fatalf("blocks = %d", len(got))
	}
	// No headings anywhere: raw lines, no markdown interpretation.
	if got[1].Content != "drwxr-xr-x  bin" {
		t.Fatalf("line = %q", got[1].Content)
	}
	for _, b := range got {
		if len(b.Children) != 0 {
			t.Fatalf("plain output must stay flat")
		}
	}
}

func TestParseHeadingsNestByLevel(t *testing.T) {
	src := "# One\nalpha\n## Two\nbeta\n# Three\ngamma\n"
	got := parseMarkdownTree(src)
	if len(got) != 2 {
		t.Fatalf("top level = %v", flatten(got))
	}
	one, three := got[0], got[1]
	if one.Content != "# One" || three.Content != "# Three" {
		t.Fatalf("headings = %q, %q", one.Content, three.Content)
	}
	if len(one.Children) != 2 || one.Children[0].Content != "alpha" || one.Children[1].Content != "## Two" {
		t.Fatalf("one children = %v", flatten(one.Children))
	}
	two := one.Children[1]
	if len(two.Children) != 1 || two.Children[0].Content != "beta" {
		t.Fatalf("two children = %v", flatten(two.Children))
	}
	if len(three.Children) != 1 || three.Children[0].Content != "gamma" {
		t.Fatalf("three children = %v", flatten(three.Children))
	}
}

func TestParseCodeFenceStaysOneBlock(t *testing.T) {
	src := "# Log\n```\nline one\nline two\n```\n"
	got := parseMarkdownTree(src)
	if len(got) != 1 || len(got[0].Children) != 1 {
		t.Fatalf("tree = %v", flatten(got))
	}
	fence := got[0].Children[0].Content
	if fence != "```\nline one\nline two\n```" {
		t.Fatalf("fence = %q", fence)
	}
}

func TestParseListItemsBecomeBlocks(t *testing.T) {
	src := "# Items\n- first\n- second\n"
	got := parseMarkdownTree(src)
	if len(got) != 1 {
		t.Fatalf("tree = %v", flatten(got))
	}
	kids := got[0].Children
	if len(kids) != 2 || kids[0].Content != "first" || kids[1].Content != "second" {
		t.Fatalf("items = %v", flatten(kids))
	}
}

func TestDetackify(t *testing.T) {
	got := detackify("✅ done, ❌ failed, 🚀 shipped")
	want := "◆ done, ◇ failed, → shipped"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
