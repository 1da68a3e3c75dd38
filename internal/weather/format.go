package weather

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// format substitutes positional placeholders the way the template files
// are written: "{}" takes the next argument, "{1}" a given one, and an
// optional ":<width" / ":>width" / ":^width" aligns the value. "{{" and
// "}}" are literal braces. Unknown placeholders are left untouched.
func format(tmpl string, args ...any) string {
	var b strings.Builder
	next := 0

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}' {
			b.WriteByte('}')
			i++
			continue
		}
		if c != '{' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '{' {
			b.WriteByte('{')
			i++
			continue
		}

		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		field := tmpl[i+1 : i+end]
		name, spec, _ := strings.Cut(field, ":")

		idx := next
		if name != "" {
			n, err := strconv.Atoi(name)
			if err != nil {
				b.WriteString(tmpl[i : i+end+1])
				i += end
				continue
			}
			idx = n
		} else {
			next++
		}

		if idx < 0 || idx >= len(args) {
			b.WriteString(tmpl[i : i+end+1])
		} else {
			b.WriteString(align(fmt.Sprint(args[idx]), spec))
		}
		i += end
	}
	return b.String()
}

func align(v, spec string) string {
	if spec == "" {
		return v
	}
	mode := byte('<')
	if strings.ContainsAny(spec[:1], "<>^") {
		mode = spec[0]
		spec = spec[1:]
	}
	width, err := strconv.Atoi(spec)
	if err != nil {
		return v
	}
	pad := width - runewidth.StringWidth(v)
	if pad <= 0 {
		return v
	}
	switch mode {
	case '>':
		return strings.Repeat(" ", pad) + v
	case '^':
		return strings.Repeat(" ", pad/2) + v + strings.Repeat(" ", pad-pad/2)
	default:
		return v + strings.Repeat(" ", pad)
	}
}
