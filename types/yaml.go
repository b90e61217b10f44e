package types

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veritlang/mem-model/errors"
)

// yamlField mirrors one field/variant entry in a YAML environment file.
type yamlField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// yamlEnv mirrors the document structure:
//
//	structs:
//	  pair:
//	    - {name: a, type: u32}
//	    - {name: b, type: u8}
//	unions:
//	  word:
//	    - {name: i, type: u32}
//	    - {name: f, type: u32}
type yamlEnv struct {
	Structs map[string][]yamlField `yaml:"structs"`
	Unions  map[string][]yamlField `yaml:"unions"`
}

// LoadEnv parses a YAML type-environment declaration and validates it.
// Declarations may reference each other in any order. The core never reads
// files itself; callers hand it bytes.
func LoadEnv(data []byte) (*Env, error) {
	var doc yamlEnv
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.PhaseEnv, errors.KindInvalidData, err, "parse environment YAML")
	}

	env := NewEnv()
	for name, fields := range doc.Structs {
		decl, err := parseFields(name, fields)
		if err != nil {
			return nil, err
		}
		if err := env.DeclareStruct(name, decl); err != nil {
			return nil, err
		}
	}
	for name, variants := range doc.Unions {
		decl, err := parseFields(name, variants)
		if err != nil {
			return nil, err
		}
		if err := env.DeclareUnion(name, decl); err != nil {
			return nil, err
		}
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func parseFields(decl string, fields []yamlField) ([]Field, error) {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		t, err := ParseType(f.Type)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEnv, errors.KindInvalidData, err,
				fmt.Sprintf("%s field %s", decl, f.Name))
		}
		out = append(out, Field{Name: f.Name, Type: t})
	}
	return out, nil
}

// ParseType parses the textual type notation used in YAML environments and
// produced by Type.String:
//
//	void
//	u8 u16 u32 u64
//	base:<bits>
//	[<n>]<elem>
//	struct <name>
//	union <name>
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "void":
		return Void(), nil
	case s == "u8":
		return U8, nil
	case s == "u16":
		return U16, nil
	case s == "u32":
		return U32, nil
	case s == "u64":
		return U64, nil
	case strings.HasPrefix(s, "base:"):
		bits, err := strconv.ParseUint(s[len("base:"):], 10, 32)
		if err != nil {
			return Type{}, fmt.Errorf("bad base width %q: %w", s, err)
		}
		return Base(uint32(bits)), nil
	case strings.HasPrefix(s, "["):
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return Type{}, fmt.Errorf("unterminated array length in %q", s)
		}
		n, err := strconv.Atoi(s[1:end])
		if err != nil {
			return Type{}, fmt.Errorf("bad array length in %q: %w", s, err)
		}
		elem, err := ParseType(s[end+1:])
		if err != nil {
			return Type{}, err
		}
		return Array(elem, n), nil
	case strings.HasPrefix(s, "struct "):
		name := strings.TrimSpace(s[len("struct "):])
		if name == "" {
			return Type{}, fmt.Errorf("empty struct name in %q", s)
		}
		return Struct(name), nil
	case strings.HasPrefix(s, "union "):
		name := strings.TrimSpace(s[len("union "):])
		if name == "" {
			return Type{}, fmt.Errorf("empty union name in %q", s)
		}
		return Union(name), nil
	default:
		return Type{}, fmt.Errorf("unrecognized type %q", s)
	}
}
