package fix

// braceBalance returns the number of '{' minus the number of '}' over lines,
// ignoring string literals, line comments and (nested) block comments.
func braceBalance(lines []string) int {
	var (
		balance    int
		blockDepth int
		inString   bool
		multiline  bool
	)
	for _, line := range lines {
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case blockDepth > 0:
				switch {
				case c == '*' && i+1 < len(line) && line[i+1] == '/':
					blockDepth--
					i++
				case c == '/' && i+1 < len(line) && line[i+1] == '*':
					blockDepth++
					i++
				}
			case multiline:
				if c == '\\' {
					i++
				} else if hasPrefixAt(line, i, `"""`) {
					multiline = false
					i += 2
				}
			case inString:
				switch c {
				case '\\':
					i++
				case '"':
					inString = false
				}
			default:
				switch {
				case hasPrefixAt(line, i, "//"):
					i = len(line)
				case hasPrefixAt(line, i, "/*"):
					blockDepth++
					i++
				case hasPrefixAt(line, i, `"""`):
					multiline = true
					i += 2
				case c == '"':
					inString = true
				case c == '{':
					balance++
				case c == '}':
					balance--
				}
			}
		}
		// однострочные строки не переносятся на следующую строку
		inString = false
	}
	return balance
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return len(s)-i >= len(prefix) && s[i:i+len(prefix)] == prefix
}
