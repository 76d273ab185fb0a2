package llvm

import (
	"fmt"
	"strings"
)

// internString adds content to the string-constant pool and returns its id.
// Identical contents share one constant; distinct contents get increasing ids.
func (e *Emitter) internString(content string) int {
	if id, ok := e.strs[content]; ok {
		return id
	}
	id := e.nextStr
	e.nextStr++
	e.strs[content] = id
	e.strOrder = append(e.strOrder, content)
	return id
}

// stringDataName is the IR symbol of the pooled byte array for id.
func stringDataName(id int) string {
	return fmt.Sprintf("@.str.%d", id)
}

// stringConstOperand interns content and renders the runtime String aggregate
// referencing the pooled bytes, usable inline as a constant operand.
func (e *Emitter) stringConstOperand(content string) (string, error) {
	id := e.internString(content)
	// Lowering String emits the %String definition the operand relies on.
	if _, err := e.lowerType("String"); err != nil {
		return "", err
	}
	arrayLen := len(content) + 1 // NUL-terminated for C interop
	return fmt.Sprintf("{ i64 %d, i8* getelementptr inbounds ([%d x i8], [%d x i8]* %s, i64 0, i64 0) }",
		len(content), arrayLen, arrayLen, stringDataName(id)), nil
}

func (e *Emitter) renderStringConsts() []string {
	lines := make([]string, 0, len(e.strOrder))
	for _, content := range e.strOrder {
		id := e.strs[content]
		lines = append(lines, fmt.Sprintf("%s = private unnamed_addr constant [%d x i8] c\"%s\\00\"",
			stringDataName(id), len(content)+1, escapeString(content)))
	}
	return lines
}

// escapeString renders bytes in LLVM c"..." syntax: printable ASCII except
// quote and backslash stays literal, everything else becomes \XX hex.
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "\\%02X", c)
	}
	return b.String()
}
