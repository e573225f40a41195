package importer

import "strings"

// Tokenize splits one CSV line into fields. Double quotes group text containing
// commas and a doubled quote inside a quoted section is a literal quote.
// Quoting is permissive: an unterminated quote runs to the end of the line.
// The trailing field is always emitted, so "" yields a single empty field.
func Tokenize(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	// Only ASCII bytes are compared, so multibyte runes pass through intact.
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	return append(fields, cur.String())
}
