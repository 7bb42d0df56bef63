package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// flagSpec maps a long flag name to whether it takes a value
type flagSpec map[string]bool

// with returns a copy of s extended by extra
func (s flagSpec) with(extra flagSpec) flagSpec {
	out := make(flagSpec, len(s)+len(extra))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// flags holds parsed flag values; boolean flags map to "true"
type flags map[string]string

func (f flags) has(name string) bool {
	_, ok := f[name]
	return ok
}

func (f flags) str(name string) string { return f[name] }

func (f flags) bool(name string) bool { return f[name] == "true" }

func (f flags) integer(name string) (int, error) {
	n, err := strconv.Atoi(f[name])
	if err != nil {
		return 0, fmt.Errorf("--%s expects an integer, got %q", name, f[name])
	}
	return n, nil
}

// intOr returns the integer value of name, or def when the flag is absent
func (f flags) intOr(name string, def int) (int, error) {
	if !f.has(name) {
		return def, nil
	}
	return f.integer(name)
}

// parseFlags splits args into flags declared in spec and positional
// arguments. Flags may appear anywhere, as --name value or --name=value;
// a single leading dash is accepted too. "--" ends flag parsing.
func parseFlags(args []string, spec flagSpec) (flags, []string, error) {
	f := flags{}
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		value, inline := "", false
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, value, inline = name[:eq], name[eq+1:], true
		}

		takesValue, known := spec[name]
		if !known {
			return nil, nil, fmt.Errorf("unknown flag %s", arg)
		}
		switch {
		case !takesValue && inline:
			return nil, nil, fmt.Errorf("flag --%s does not take a value", name)
		case !takesValue:
			value = "true"
		case !inline:
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("flag --%s requires a value", name)
			}
			i++
			value = args[i]
		}
		f[name] = value
	}
	return f, positional, nil
}
