package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"io"
	"regexp"
	"strings"

	"github.com/go-python/gpython/parser"
	"github.com/go-python/gpython/py"
	"gopkg.in/yaml.v3"
)

// fencePattern captures the body of ``` fenced blocks. The rest of the opening
// line is an info string (language tag plus attributes) and is dropped; one-line
// blocks have no info string and keep their whole body.
var (
	fencePattern  = regexp.MustCompile("```(?:[^\\n`]*\\n)?([\\s\\S]*?)```")
	inlinePattern = regexp.MustCompile("`[^`]+`")
)

// SyntaxChecker reports whether src parses in some target language.
type SyntaxChecker func(src string) bool

// SyntaxCheckerFor returns the checker for a configured code language.
func SyntaxCheckerFor(language string) (SyntaxChecker, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "", "python", "py":
		return ValidPython, nil
	case "go", "golang":
		return ValidGo, nil
	case "json":
		return ValidJSON, nil
	case "yaml", "yml":
		return ValidYAML, nil
	default:
		return nil, fmt.Errorf("unsupported code language %q", language)
	}
}

// ExtractCodeBlocks returns the trimmed, non-empty bodies of fenced code blocks.
func ExtractCodeBlocks(text string) []string {
	var blocks []string
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if body != "" {
			blocks = append(blocks, body)
		}
	}
	return blocks
}

// CodeValidity is the fraction of fenced blocks that parse. No blocks scores 1.0.
func CodeValidity(answer string, check SyntaxChecker) float64 {
	blocks := ExtractCodeBlocks(answer)
	if len(blocks) == 0 {
		return 1.0
	}
	if check == nil {
		check = ValidPython
	}
	valid := 0
	for _, b := range blocks {
		if check(b) {
			valid++
		}
	}
	return float64(valid) / float64(len(blocks))
}

// CodePresence is 1.0 when the answer holds a fenced block or an inline code span.
func CodePresence(answer string) float64 {
	if fencePattern.MatchString(answer) || inlinePattern.MatchString(answer) {
		return 1.0
	}
	return 0.0
}

// ValidPython reports whether src parses as a Python module.
func ValidPython(src string) bool {
	_, err := parser.Parse(strings.NewReader(src+"\n"), "<snippet>", py.ExecMode)
	return err == nil
}

// ValidGo accepts a full source file, bare declarations, or bare statements.
// Statements must fit inside one synthetic function body.
func ValidGo(src string) bool {
	if parsesGo(src) || parsesGo("package snippet\n"+src) {
		return true
	}
	f, err := goparser.ParseFile(token.NewFileSet(), "snippet.go", "package snippet\nfunc _() {\n"+src+"\n}\n", goparser.AllErrors)
	if err != nil || len(f.Decls) != 1 {
		return false
	}
	fn, ok := f.Decls[0].(*ast.FuncDecl)
	return ok && fn.Name.Name == "_" && fn.Recv == nil
}

func parsesGo(src string) bool {
	_, err := goparser.ParseFile(token.NewFileSet(), "snippet.go", src, goparser.AllErrors)
	return err == nil
}

func ValidJSON(src string) bool {
	return json.Valid([]byte(src))
}

// ValidYAML decodes every document in src.
func ValidYAML(src string) bool {
	dec := yaml.NewDecoder(strings.NewReader(src))
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return true
		}
		if err != nil {
			return false
		}
	}
}
