package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/veritlang/mem-model/tree"
	"github.com/veritlang/mem-model/types"
)

func main() {
	var (
		envFile  = flag.String("env", "", "Path to YAML type environment")
		typeName = flag.String("type", "", "Inspect a single type expression (optional)")
		verbose  = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *envFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: memlayout -env <types.yaml> [-type expr]")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		tree.SetLogger(l)
		defer l.Sync()
	}

	if err := run(*envFile, *typeName); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile, typeName string) error {
	data, err := os.ReadFile(envFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	env, err := types.LoadEnv(data)
	if err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	if typeName != "" {
		t, err := types.ParseType(typeName)
		if err != nil {
			return fmt.Errorf("parse type: %w", err)
		}
		return printType(env, t)
	}

	for _, name := range sortedStructs(env) {
		if err := printStruct(env, name); err != nil {
			return err
		}
	}
	for _, name := range sortedUnions(env) {
		if err := printUnion(env, name); err != nil {
			return err
		}
	}
	return nil
}

func printType(env *types.Env, t types.Type) error {
	w, err := env.Width(t)
	if err != nil {
		return err
	}
	a, err := env.Align(t)
	if err != nil {
		return err
	}
	fmt.Printf("%s: width %d bits, align %d bits\n", t, w, a)
	switch t.Kind {
	case types.KindStruct:
		return printStruct(env, t.Name)
	case types.KindUnion:
		return printUnion(env, t.Name)
	}
	return nil
}

func printStruct(env *types.Env, name string) error {
	layout, err := env.StructLayout(name)
	if err != nil {
		return err
	}
	fields, _ := env.StructFields(name)
	fmt.Printf("struct %s: %d bits\n", name, layout.Bits)
	for i, f := range fields {
		span := layout.Fields[i]
		fmt.Printf("  .%-12s %-10s offset %4d  width %4d  pad %d\n",
			f.Name, f.Type, span.Offset, span.Bits, span.Pad)
	}
	return nil
}

func printUnion(env *types.Env, name string) error {
	layout, err := env.UnionLayout(name)
	if err != nil {
		return err
	}
	variants, _ := env.UnionVariants(name)
	fmt.Printf("union %s: %d bits\n", name, layout.Bits)
	for i, v := range variants {
		fmt.Printf("  @%-12s %-10s trailing %d\n", v.Name, v.Type, layout.Pads[i])
	}
	return nil
}

func sortedStructs(env *types.Env) []string {
	names := env.StructNames()
	sort.Strings(names)
	return names
}

func sortedUnions(env *types.Env) []string {
	names := env.UnionNames()
	sort.Strings(names)
	return names
}
