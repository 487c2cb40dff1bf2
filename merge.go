// FILE: lixenwraith/presets/merge.go
package presets

import (
	"fmt"
	"reflect"

	"github.com/jinzhu/copier"
)

// MergeStrategy names how a plain (non-function) contribution combines with the accumulator
type MergeStrategy string

const (
	// MergeConcatenate appends a sequence contribution to a sequence accumulator
	MergeConcatenate MergeStrategy = "concatenate"
	// MergeShallow overlays a keyed contribution on a keyed accumulator, contribution keys win
	MergeShallow MergeStrategy = "shallow"
	// MergeReplace makes the contribution the new accumulator
	MergeReplace MergeStrategy = "replace"
)

// StrategyFor reports which strategy Merge applies to the pair
func StrategyFor(acc, contribution any) MergeStrategy {
	a, c := reflect.ValueOf(acc), reflect.ValueOf(contribution)
	if !a.IsValid() || !c.IsValid() {
		return MergeReplace
	}
	switch {
	case a.Kind() == reflect.Slice && c.Kind() == reflect.Slice:
		return MergeConcatenate
	case isStringMap(a) && isStringMap(c):
		return MergeShallow
	case sameStruct(a, c):
		return MergeShallow
	}
	return MergeReplace
}

// Merge combines a plain contribution into the accumulator without modifying either.
// Struct overlays skip zero-valued contribution fields, so a struct contribution
// cannot reset a field to its zero value; use a map or a function contribution for that.
func Merge(acc, contribution any) (any, error) {
	switch StrategyFor(acc, contribution) {
	case MergeConcatenate:
		return concatenate(reflect.ValueOf(acc), reflect.ValueOf(contribution)), nil
	case MergeShallow:
		a, c := reflect.ValueOf(acc), reflect.ValueOf(contribution)
		if a.Kind() == reflect.Map {
			return mergeMaps(a, c), nil
		}
		return mergeStructs(a, c)
	default:
		return contribution, nil
	}
}

// concatenate keeps the slice type when both sides share it, otherwise yields []any
func concatenate(a, c reflect.Value) any {
	if a.Type() == c.Type() {
		out := reflect.MakeSlice(a.Type(), 0, a.Len()+c.Len())
		out = reflect.AppendSlice(out, a)
		return reflect.AppendSlice(out, c).Interface()
	}

	out := make([]any, 0, a.Len()+c.Len())
	for i := 0; i < a.Len(); i++ {
		out = append(out, a.Index(i).Interface())
	}
	for i := 0; i < c.Len(); i++ {
		out = append(out, c.Index(i).Interface())
	}
	return out
}

func mergeMaps(a, c reflect.Value) any {
	if a.Type() == c.Type() {
		out := reflect.MakeMapWithSize(a.Type(), a.Len()+c.Len())
		for _, src := range []reflect.Value{a, c} {
			iter := src.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), iter.Value())
			}
		}
		return out.Interface()
	}

	out := make(map[string]any, a.Len()+c.Len())
	for _, src := range []reflect.Value{a, c} {
		iter := src.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
	}
	return out
}

// mergeStructs copies the accumulator, then overlays the contribution's non-empty fields
func mergeStructs(a, c reflect.Value) (any, error) {
	isPtr := a.Kind() == reflect.Ptr
	if isPtr {
		a, c = a.Elem(), c.Elem()
	}

	out := reflect.New(a.Type())
	out.Elem().Set(a)
	if err := copier.CopyWithOption(out.Interface(), c.Interface(), copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", a.Type(), err)
	}
	if isPtr {
		return out.Interface(), nil
	}
	return out.Elem().Interface(), nil
}

func isStringMap(v reflect.Value) bool {
	return v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String
}

func sameStruct(a, c reflect.Value) bool {
	if a.Type() != c.Type() {
		return false
	}
	if a.Kind() == reflect.Ptr {
		return !a.IsNil() && !c.IsNil() && a.Elem().Kind() == reflect.Struct
	}
	return a.Kind() == reflect.Struct
}
