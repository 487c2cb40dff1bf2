// FILE: lixenwraith/presets/decode.go
package presets

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeTagName is the struct tag used when decoding extension results and options
const DecodeTagName = "preset"

// ApplyInto folds key and decodes the result into target, which must be a non-nil pointer
func (p *Presets) ApplyInto(ctx context.Context, key string, seed any, args map[string]any, target any) error {
	result, err := p.Apply(ctx, key, seed, args)
	if err != nil {
		return err
	}
	if err := decodeInto(result, target); err != nil {
		return fmt.Errorf("decode failed for extension %q: %w", key, err)
	}
	return nil
}

// Decode decodes the combined options into target, which must be a non-nil pointer
func (x *ExtensionContext) Decode(target any) error {
	if err := decodeInto(x.Options, target); err != nil {
		return fmt.Errorf("decode failed for options of preset %q: %w", x.Preset, err)
	}
	return nil
}

// decodeInto is the single decoding path for extension results and options
func decodeInto(input any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          DecodeTagName,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	return decoder.Decode(input)
}

// decodeHook returns the composite decode hook for all type conversions
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToURLHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// stringToURLHookFunc handles url.URL conversion, e.g. for dev server or static dir options
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != reflect.TypeOf(url.URL{}) {
			return data, nil
		}

		u, err := url.Parse(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}
