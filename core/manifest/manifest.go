// Package manifest captures the state needed to reproduce a run.
package manifest

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tcbench/core/model"
	"tcbench/core/registry"
	"tcbench/core/version"
)

// EnvKeys are the substrings that select an environment variable for the
// manifest: paths, user, locale, compiler drivers and flags, parallelism.
var EnvKeys = []string{"PATH", "USER", "PWD", "LANG", "LC_", "OMP", "CC", "CXX", "FC", "FLAGS"}

// EnvDeny drops credential-looking variables even when they match EnvKeys
// (AWS_ACCESS_KEY_ID contains "CC").
var EnvDeny = []string{"KEY", "TOKEN", "SECRET", "PASSWORD", "PASSWD", "CREDENTIAL", "AUTH"}

// Input is everything a manifest is built from.
type Input struct {
	Benchmark model.Benchmark
	Compiler  model.Compiler
	Machine   model.Machine
	Workload  model.Workload
	// Args is the harness option set, typically the parsed config.
	Args any
	// Env is the harness environment in KEY=VALUE form.
	Env []string
}

// Manifest is a nested mapping ready for serialization.
type Manifest map[string]any

func Build(in Input) Manifest {
	m := Manifest{
		"version": map[string]string{
			"manifest": version.ManifestVersion,
			"tcbench":  version.CoreVersion,
		},
		"workload": Flatten(in.Workload),
		"args":     Flatten(in.Args),
		"env":      FilterEnv(in.Env),
	}
	if in.Benchmark != nil {
		m["benchmark"] = modelState(model.KindBenchmark, in.Benchmark.Name(), in.Benchmark.Flags(), in.Benchmark)
	}
	if in.Compiler != nil {
		m["compiler"] = modelState(model.KindCompiler, in.Compiler.Name(), in.Compiler.Flags(), in.Compiler)
	}
	if in.Machine != nil {
		m["machine"] = modelState(model.KindMachine, in.Machine.Arch(), in.Machine.Flags(), in.Machine)
	}
	return m
}

func (m Manifest) YAML() ([]byte, error) {
	data, err := yaml.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

func modelState(kind model.Kind, name string, flags model.Flags, v any) map[string]any {
	state := map[string]any{
		"name":   name,
		"plugin": registry.PluginPath(kind, name),
		"flags":  Flatten(flags),
	}
	for k, fv := range Flatten(v) {
		if _, taken := state[k]; !taken {
			state[k] = fv
		}
	}
	return state
}

// FilterEnv keeps variables whose key contains one of EnvKeys. Keys with a
// leading underscore are private to the shell and dropped.
func FilterEnv(env []string) map[string]string {
	out := map[string]string{}
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" || strings.HasPrefix(key, "_") || denied(key) {
			continue
		}
		for _, want := range EnvKeys {
			if strings.Contains(key, want) {
				out[key] = value
				break
			}
		}
	}
	return out
}

func denied(key string) bool {
	upper := strings.ToUpper(key)
	for _, d := range EnvDeny {
		if strings.Contains(upper, d) {
			return true
		}
	}
	return false
}

// Flatten converts the exported scalar, slice, map and nested struct fields
// of v into plain values. Functions, channels and unexported fields are
// skipped. Non-struct values flatten to an empty mapping.
func Flatten(v any) map[string]any {
	out := map[string]any{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return out
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return out
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name, skip := fieldName(f)
		if skip {
			continue
		}
		if value, ok := plain(rv.Field(i)); ok {
			out[name] = value
		}
	}
	return out
}

func fieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("yaml")
	if tag == "-" {
		return "", true
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, false
	}
	return strings.ToLower(f.Name), false
}

func plain(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Invalid:
		return nil, false
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, false
		}
		return plain(v.Elem())
	case reflect.Struct:
		return Flatten(v.Interface()), true
	case reflect.Slice, reflect.Array:
		items := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if item, ok := plain(v.Index(i)); ok {
				items = append(items, item)
			}
		}
		return items, true
	case reflect.Map:
		entries := map[string]any{}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
		for _, k := range keys {
			if item, ok := plain(v.MapIndex(k)); ok {
				entries[fmt.Sprint(k.Interface())] = item
			}
		}
		return entries, true
	default:
		return v.Interface(), true
	}
}
