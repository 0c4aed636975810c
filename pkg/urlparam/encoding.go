package urlparam

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SetValue stores v under key using enc. With EncodingFlat a struct is
// spread over its fields and key is ignored.
func (p *Params) SetValue(key string, v any, enc Encoding) error {
	p.init()
	switch enc {
	case EncodingJSON:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		p.values.Set(key, base64.RawURLEncoding.EncodeToString(data))
	case EncodingComma:
		p.values.Set(key, format(v))
	default:
		rv := reflectValue(v)
		if rv.Kind() != reflect.Struct {
			p.values.Set(key, format(v))
			return nil
		}
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name := fieldKey(field)
			if name == "" {
				continue
			}
			// Skip zero values
			fv := rv.Field(i)
			if fv.IsZero() {
				p.values.Del(name)
				continue
			}
			p.values.Set(name, formatValue(fv))
		}
	}
	return nil
}

// Value decodes key into dst, which must be a pointer, using enc. With
// EncodingFlat a struct is filled from its fields and key is ignored.
func (p Params) Value(key string, dst any, enc Encoding) error {
	switch enc {
	case EncodingJSON:
		val := p.Get(key)
		if val == "" {
			return nil
		}
		data, err := base64.RawURLEncoding.DecodeString(val)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, dst)
	default:
		rv := reflect.ValueOf(dst)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return fmt.Errorf("urlparam: decode target must be a non-nil pointer, got %T", dst)
		}
		rv = rv.Elem()
		if rv.Kind() == reflect.Struct && enc == EncodingFlat {
			return p.decodeStruct(rv)
		}
		if !p.Has(key) {
			return nil
		}
		return setFieldValue(rv, p.Get(key))
	}
}

// Decode fills the struct pointed to by dst from flat parameters.
func (p Params) Decode(dst any) error {
	return p.Value("", dst, EncodingFlat)
}

// Encode returns Params holding the fields of struct v.
func Encode(v any) (Params, error) {
	p := New()
	if reflectValue(v).Kind() != reflect.Struct {
		return p, fmt.Errorf("urlparam: Encode requires a struct, got %T", v)
	}
	err := p.SetValue("", v, EncodingFlat)
	return p, err
}

func (p Params) decodeStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}
		key := fieldKey(field)
		if key == "" || !p.Has(key) {
			continue
		}
		if err := setFieldValue(fieldValue, p.Get(key)); err != nil {
			return fmt.Errorf("urlparam: field %s: %w", field.Name, err)
		}
	}
	return nil
}

// fieldKey returns the URL tag or the lowercase field name, or "" for
// fields tagged "-" and unexported fields.
func fieldKey(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	key := field.Tag.Get("url")
	if key == "" {
		key = strings.ToLower(field.Name)
	}
	if key == "-" {
		return ""
	}
	return key
}

func reflectValue(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return rv
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, ",")
	case reflect.Invalid:
		return ""
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func setFieldValue(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetUint(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		if s == "" {
			v.SetBool(true)
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Slice:
		if s == "" {
			v.Set(reflect.MakeSlice(v.Type(), 0, 0))
			return nil
		}
		parts := strings.Split(s, ",")
		slice := reflect.MakeSlice(v.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := setFieldValue(slice.Index(i), part); err != nil {
				return err
			}
		}
		v.Set(slice)
	default:
		return fmt.Errorf("unsupported type: %v", v.Kind())
	}
	return nil
}
