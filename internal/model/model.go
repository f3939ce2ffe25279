package model

import "strings"

type BlockType string

const (
	BlockText     BlockType = "text"
	BlockShell    BlockType = "sh"
	BlockAI       BlockType = "ai"
	BlockContext  BlockType = "ctx"
	BlockDispatch BlockType = "dispatch"
	BlockWeb      BlockType = "web"
	BlockOutput   BlockType = "output"
	BlockError    BlockType = "error"
)

type ExecStatus string

const (
	ExecRunning  ExecStatus = "running"
	ExecComplete ExecStatus = "complete"
	ExecError    ExecStatus = "error"
)

// Block is one node of the outline tree.
//
// ParentID is "" for root blocks (their ids live in the document's rootIds
// sequence instead). Type is derived from Content on every write and is never
// an independent source of truth.
type Block struct {
	ID       string    `json:"id"`
	ParentID string    `json:"parentId,omitempty"`
	ChildIDs []string  `json:"childIds"`
	Content  string    `json:"content"`
	Type     BlockType `json:"type"`

	// Collapsed is the shared default; panes override it per view.
	Collapsed bool `json:"collapsed"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	// Execution metadata for command blocks.
	Status   ExecStatus `json:"status,omitempty"`
	ExitCode *int       `json:"exitCode,omitempty"`
}

// typePrefixes maps a recognized content prefix (lowercase) to the block type
// it marks. Matching is case-insensitive against trimmed content.
var typePrefixes = []struct {
	prefix string
	typ    BlockType
}{
	{"sh::", BlockShell},
	{"term::", BlockShell},
	{"ai::", BlockAI},
	{"chat::", BlockAI},
	{"ctx::", BlockContext},
	{"dispatch::", BlockDispatch},
	{"web::", BlockWeb},
	{"link::", BlockWeb},
}

// DeriveType computes the block type from content. This is a pure function;
// any content write must re-derive the type in the same transaction.
func DeriveType(content string) BlockType {
	c := strings.ToLower(strings.TrimSpace(content))
	for _, p := range typePrefixes {
		if strings.HasPrefix(c, p.prefix) {
			return p.typ
		}
	}
	return BlockText
}

// ShellCommand returns the dispatchable command carried by a shell block:
// the content with its sh::/term:: prefix removed and smart punctuation
// normalized. Every other type yields "": only shell blocks are executable,
// an ai:: prompt or web:: link must never reach the shell.
func ShellCommand(content string) string {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)
	for _, p := range typePrefixes {
		if p.typ != BlockShell {
			continue
		}
		if strings.HasPrefix(lower, p.prefix) {
			return NormalizePunctuation(strings.TrimSpace(trimmed[len(p.prefix):]))
		}
	}
	return ""
}

var punctuationNormalizer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"‘", `'`, // left single quote
	"’", `'`, // right single quote
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	" ", " ", // non-breaking space
)

// NormalizePunctuation replaces smart quotes and typographic dashes with
// their ASCII equivalents. Editors autocorrect pasted commands; the shell
// wants the originals back.
func NormalizePunctuation(s string) string {
	return punctuationNormalizer.Replace(s)
}
