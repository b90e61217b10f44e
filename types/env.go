package types

import (
	"go.uber.org/multierr"

	"github.com/veritlang/mem-model/errors"
)

// Field is one declared struct field or union variant.
type Field struct {
	Name string
	Type Type
}

// Env holds the struct and union declarations a set of types resolves
// against. The model is single threaded (see the package docs of tree), so
// Env performs no locking; layout caches are invalidated on declaration.
type Env struct {
	structs map[string][]Field
	unions  map[string][]Field

	structLayouts map[string]StructLayout
	unionLayouts  map[string]UnionLayout
}

// NewEnv returns an empty type environment.
func NewEnv() *Env {
	return &Env{
		structs:       make(map[string][]Field),
		unions:        make(map[string][]Field),
		structLayouts: make(map[string]StructLayout),
		unionLayouts:  make(map[string]UnionLayout),
	}
}

// DeclareStruct adds or replaces a struct declaration. Field types are
// checked for local well-formedness only; cross-references are validated by
// Validate so declarations may arrive in any order.
func (e *Env) DeclareStruct(name string, fields []Field) error {
	if err := checkDecl(name, fields, "struct"); err != nil {
		return err
	}
	e.structs[name] = append([]Field(nil), fields...)
	e.resetLayouts()
	return nil
}

// DeclareUnion adds or replaces a union declaration.
func (e *Env) DeclareUnion(name string, variants []Field) error {
	if err := checkDecl(name, variants, "union"); err != nil {
		return err
	}
	e.unions[name] = append([]Field(nil), variants...)
	e.resetLayouts()
	return nil
}

func checkDecl(name string, fields []Field, what string) error {
	if name == "" {
		return errors.InvalidData(errors.PhaseEnv, nil, "empty "+what+" name")
	}
	if len(fields) == 0 {
		return errors.InvalidData(errors.PhaseEnv, nil, what+" "+name+" has no fields")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return errors.InvalidData(errors.PhaseEnv, nil, what+" "+name+" has an unnamed field")
		}
		if seen[f.Name] {
			return errors.InvalidData(errors.PhaseEnv, nil, what+" "+name+" redeclares field "+f.Name)
		}
		seen[f.Name] = true
		if f.Type.IsVoid() {
			return errors.InvalidData(errors.PhaseEnv, nil, what+" "+name+" field "+f.Name+" has void type")
		}
	}
	return nil
}

// StructFields returns the ordered field list of a declared struct.
func (e *Env) StructFields(name string) ([]Field, bool) {
	fs, ok := e.structs[name]
	return fs, ok
}

// UnionVariants returns the ordered variant list of a declared union.
func (e *Env) UnionVariants(name string) ([]Field, bool) {
	vs, ok := e.unions[name]
	return vs, ok
}

// StructNames returns the names of all declared structs, in no particular
// order.
func (e *Env) StructNames() []string {
	names := make([]string, 0, len(e.structs))
	for name := range e.structs {
		names = append(names, name)
	}
	return names
}

// UnionNames returns the names of all declared unions, in no particular order.
func (e *Env) UnionNames() []string {
	names := make([]string, 0, len(e.unions))
	for name := range e.unions {
		names = append(names, name)
	}
	return names
}

// CheckType verifies that every name t mentions is declared, every array is
// non-empty, and every base width is a positive multiple of 8.
func (e *Env) CheckType(t Type) error {
	switch t.Kind {
	case KindVoid:
		return nil
	case KindBase:
		if t.Bits == 0 || t.Bits%8 != 0 {
			return errors.New(errors.PhaseEnv, errors.KindBadWidth).
				Detail("base width %d is not a positive multiple of 8", t.Bits).
				Build()
		}
		return nil
	case KindArray:
		if t.Len <= 0 {
			return errors.InvalidData(errors.PhaseEnv, nil, "array length must be positive")
		}
		if t.Elem.IsVoid() {
			return errors.InvalidData(errors.PhaseEnv, nil, "array of void")
		}
		return e.CheckType(*t.Elem)
	case KindStruct:
		if _, ok := e.structs[t.Name]; !ok {
			return errors.UnknownType(errors.PhaseEnv, t.Name)
		}
		return nil
	case KindUnion:
		if _, ok := e.unions[t.Name]; !ok {
			return errors.UnknownType(errors.PhaseEnv, t.Name)
		}
		return nil
	default:
		return errors.InvalidData(errors.PhaseEnv, nil, "unknown type kind")
	}
}

// Validate checks the whole environment: every field type resolves, no
// declaration cycles exist, and every declared type has a finite positive
// width. Diagnostics for independent declarations are aggregated.
func (e *Env) Validate() error {
	var errs error
	for name, fields := range e.structs {
		for _, f := range fields {
			if err := e.CheckType(f.Type); err != nil {
				errs = multierr.Append(errs, errors.Wrap(errors.PhaseEnv, errors.KindInvalidData, err,
					"struct "+name+" field "+f.Name))
			}
		}
	}
	for name, variants := range e.unions {
		for _, v := range variants {
			if err := e.CheckType(v.Type); err != nil {
				errs = multierr.Append(errs, errors.Wrap(errors.PhaseEnv, errors.KindInvalidData, err,
					"union "+name+" variant "+v.Name))
			}
		}
	}
	if errs != nil {
		return errs
	}
	// Width computation detects declaration cycles.
	for name := range e.structs {
		if _, err := e.Width(Struct(name)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for name := range e.unions {
		if _, err := e.Width(Union(name)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Extends reports whether e is a weakening of sub: every declaration of sub
// is present in e with the same ordered fields. Well-typedness and validity
// survive moving from sub to e.
func (e *Env) Extends(sub *Env) bool {
	for name, fields := range sub.structs {
		got, ok := e.structs[name]
		if !ok || !fieldsEqual(got, fields) {
			return false
		}
	}
	for name, variants := range sub.unions {
		got, ok := e.unions[name]
		if !ok || !fieldsEqual(got, variants) {
			return false
		}
	}
	return true
}

func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !a[i].Type.Equal(b[i].Type) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the environment.
func (e *Env) Clone() *Env {
	c := NewEnv()
	for name, fields := range e.structs {
		c.structs[name] = append([]Field(nil), fields...)
	}
	for name, variants := range e.unions {
		c.unions[name] = append([]Field(nil), variants...)
	}
	return c
}

func (e *Env) resetLayouts() {
	e.structLayouts = make(map[string]StructLayout)
	e.unionLayouts = make(map[string]UnionLayout)
}
