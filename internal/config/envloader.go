package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
)

// LoadFromEnv applies environment overrides to cfg, a pointer to a struct.
// Fields name their variable with an `env` tag; nested structs are walked.
// Empty variables are treated as unset. Pointer fields are allocated when
// their variable is set, so an override can introduce a key the file left out.
func LoadFromEnv(cfg interface{}) error {
	return applyEnv(reflect.ValueOf(cfg), os.LookupEnv)
}

func applyEnv(v reflect.Value, lookup func(string) (string, bool)) error {
	v = reflect.Indirect(v)
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field, lookup); err != nil {
				return err
			}
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := lookup(name)
		if !ok || raw == "" {
			continue
		}

		if field.Kind() != reflect.Ptr {
			if err := parseInto(field, raw); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			continue
		}

		p := reflect.New(field.Type().Elem())
		if err := parseInto(p.Elem(), raw); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
		field.Set(p)
	}

	return nil
}

func parseInto(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)

	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}

	return nil
}
