// FILE: lixenwraith/presets/type.go
package presets

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Get returns a combined option value
func (x *ExtensionContext) Get(key string) (any, bool) {
	v, ok := x.Options[key]
	return v, ok
}

// String retrieves a string option.
// Attempts conversion from common types if the stored value isn't already a string.
func (x *ExtensionContext) String(key string) (string, error) {
	val, found := x.Get(key)
	if !found {
		return "", fmt.Errorf("option not set: %s", key)
	}
	if val == nil {
		return "", nil
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for option %s", val, key)
	}
}

// Int64 retrieves an int64 option.
// Decoded preset files yield float64 for JSON numbers; floats convert only when
// they are integral and within int64 range.
func (x *ExtensionContext) Int64(key string) (int64, error) {
	val, found := x.Get(key)
	if !found {
		return 0, fmt.Errorf("option not set: %s", key)
	}
	if val == nil {
		return 0, fmt.Errorf("option %s is nil, cannot convert to int64", key)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > uint64(^uint64(0)>>1) {
			return 0, fmt.Errorf("cannot convert unsigned integer %d to int64 for option %s: overflow", u, key)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt64(v.Float(), key)
	case reflect.String:
		s := v.String()
		i, err := strconv.ParseInt(s, 0, 64)
		if err == nil {
			return i, nil
		}
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return floatToInt64(f, key)
		}
		return 0, fmt.Errorf("cannot convert string %q to int64 for option %s: %w", s, key, err)
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to int64 for option %s", val, key)
}

func floatToInt64(f float64, key string) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("cannot convert non-integral %v to int64 for option %s", f, key)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is out of range
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("cannot convert %v to int64 for option %s: overflow", f, key)
	}
	return int64(f), nil
}

// Bool retrieves a boolean option.
// Numbers convert as 0=false, non-zero=true.
func (x *ExtensionContext) Bool(key string) (bool, error) {
	val, found := x.Get(key)
	if !found {
		return false, fmt.Errorf("option not set: %s", key)
	}
	if val == nil {
		return false, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		b, err := strconv.ParseBool(v.String())
		if err != nil {
			return false, fmt.Errorf("cannot convert string %q to bool for option %s: %w", v.String(), key, err)
		}
		return b, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}

	return false, fmt.Errorf("cannot convert type %T to bool for option %s", val, key)
}

// Float64 retrieves a float64 option
func (x *ExtensionContext) Float64(key string) (float64, error) {
	val, found := x.Get(key)
	if !found {
		return 0, fmt.Errorf("option not set: %s", key)
	}
	if val == nil {
		return 0, fmt.Errorf("option %s is nil, cannot convert to float64", key)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to float64 for option %s: %w", v.String(), key, err)
		}
		return f, nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to float64 for option %s", val, key)
}
