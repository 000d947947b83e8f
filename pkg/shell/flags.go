package shell

import "strings"

// FlagSpec declares one flag a command accepts, mirroring spec.md §4.2's
// {name, short?, long?, takes_value} schema shape.
type FlagSpec struct {
	Name       string
	Short      byte // 0 if this flag has no short form
	Long       string
	TakesValue bool
}

// CommandSchema is a command's full flag declaration plus whether it may
// only be invoked as root.
type CommandSchema struct {
	Flags        []FlagSpec
	RootRequired bool
}

func (s CommandSchema) findShort(c byte) (FlagSpec, bool) {
	for _, f := range s.Flags {
		if f.Short == c {
			return f, true
		}
	}
	return FlagSpec{}, false
}

func (s CommandSchema) findLong(name string) (FlagSpec, bool) {
	for _, f := range s.Flags {
		if f.Long == name {
			return f, true
		}
	}
	return FlagSpec{}, false
}

// ParseFlags applies schema to args, returning the resolved flag values
// (booleans as true, value flags as string) keyed by canonical Name, and
// the remaining positional tokens in order. Unknown tokens are treated as
// positionals, per spec.md §4.2.
func ParseFlags(schema CommandSchema, args []Token) (map[string]any, []Token) {
	flags := map[string]any{}
	var positionals []Token

	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok.Quoted || !strings.HasPrefix(tok.Text, "-") || tok.Text == "-" {
			positionals = append(positionals, tok)
			continue
		}

		if strings.HasPrefix(tok.Text, "--") {
			body := tok.Text[2:]
			if eq := strings.IndexByte(body, '='); eq != -1 {
				name, value := body[:eq], body[eq+1:]
				if spec, ok := schema.findLong(name); ok {
					flags[spec.Name] = value
					continue
				}
			}
			if spec, ok := schema.findLong(body); ok {
				if spec.TakesValue {
					if i+1 < len(args) {
						i++
						flags[spec.Name] = args[i].Text
					} else {
						flags[spec.Name] = ""
					}
				} else {
					flags[spec.Name] = true
				}
				continue
			}
			positionals = append(positionals, tok)
			continue
		}

		body := tok.Text[1:]
		if len(body) == 0 {
			positionals = append(positionals, tok)
			continue
		}

		first := body[0]
		if spec, ok := schema.findShort(first); ok && spec.TakesValue {
			if len(body) > 1 {
				flags[spec.Name] = body[1:]
			} else if i+1 < len(args) {
				i++
				flags[spec.Name] = args[i].Text
			} else {
				flags[spec.Name] = ""
			}
			continue
		}

		if allBooleanShorts(schema, body) {
			for j := 0; j < len(body); j++ {
				spec, _ := schema.findShort(body[j])
				flags[spec.Name] = true
			}
			continue
		}

		positionals = append(positionals, tok)
	}

	return flags, positionals
}

func allBooleanShorts(schema CommandSchema, body string) bool {
	for i := 0; i < len(body); i++ {
		spec, ok := schema.findShort(body[i])
		if !ok || spec.TakesValue {
			return false
		}
	}
	return len(body) > 0
}
