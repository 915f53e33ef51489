package ingest

import "strings"

// scrapeContentText pulls literal strings out of PDF text-showing operators
// (Tj, TJ, ' and "). It walks the content stream byte by byte, collecting
// parenthesized strings and inserting whitespace at text-positioning
// operators so words do not run together. Hex strings and CID-encoded fonts
// are skipped; this is a best-effort scrape, not a full PDF renderer.
func scrapeContentText(stream []byte) string {
	var sb strings.Builder
	i := 0
	n := len(stream)

	for i < n {
		c := stream[i]

		switch c {
		case '(':
			s, next := readLiteralString(stream, i)
			sb.WriteString(s)
			i = next
		case '<':
			// Hex string or dict open; skip to the matching close
			i = skipHex(stream, i)
		case '%':
			// Comment runs to end of line
			for i < n && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case 'T':
			// Td, TD, T* move the cursor; treat as a line break
			if i+1 < n && (stream[i+1] == 'd' || stream[i+1] == 'D' || stream[i+1] == '*') {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteByte('\n')
				}
				i += 2
			} else {
				i++
			}
		case '\'', '"':
			// Move-and-show operators imply a new line
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
			i++
		default:
			i++
		}
	}

	return strings.TrimSpace(sb.String())
}

// readLiteralString reads a parenthesized PDF string starting at stream[start]
// (which must be '('). It handles nested parens and backslash escapes, and
// returns the decoded text and the index just past the closing paren.
func readLiteralString(stream []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	n := len(stream)

	for i < n {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 >= n {
				return sb.String(), n
			}
			switch stream[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '(', ')', '\\':
				sb.WriteByte(stream[i+1])
			case '\n', '\r':
				// Line continuation, emit nothing
			default:
				// Octal escapes and anything else: keep the raw byte
				sb.WriteByte(stream[i+1])
			}
			i += 2
		case '(':
			if depth > 0 {
				sb.WriteByte('(')
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(')')
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String(), n
}

// skipHex advances past a hex string (<...>) or dict (<<...>>).
func skipHex(stream []byte, start int) int {
	i := start
	n := len(stream)
	if i+1 < n && stream[i+1] == '<' {
		// Dict: scan to matching >>
		depth := 0
		for i < n-1 {
			if stream[i] == '<' && stream[i+1] == '<' {
				depth++
				i += 2
				continue
			}
			if stream[i] == '>' && stream[i+1] == '>' {
				depth--
				i += 2
				if depth == 0 {
					return i
				}
				continue
			}
			i++
		}
		return n
	}
	for i < n && stream[i] != '>' {
		i++
	}
	return i + 1
}
