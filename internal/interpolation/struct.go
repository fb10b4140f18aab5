package interpolation

import (
	"errors"
	"fmt"
	"reflect"
)

// Apply walks a struct (or pointer to struct) and expands environment
// variable references in every exported field tagged `env_interpolation:"yes"`.
// Tagged fields may be strings, string slices, or string-valued maps.
// Untagged struct fields, pointers to structs, and slices of structs are
// traversed so nested config sections pick up their own tagged fields.
func Apply(v any) error {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct or pointer to struct, got %T", v)
	}

	typ := val.Type()
	var errs []error

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !field.CanSet() {
			continue
		}

		tagged := fieldType.Tag.Get("env_interpolation") == "yes"

		switch field.Kind() {
		case reflect.String:
			if !tagged || field.String() == "" {
				continue
			}
			expanded, err := Expand(field.String())
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
				continue
			}
			field.SetString(expanded)

		case reflect.Slice:
			switch field.Type().Elem().Kind() {
			case reflect.String:
				if !tagged {
					continue
				}
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					expanded, err := Expand(elem.String())
					if err != nil {
						errs = append(errs, fmt.Errorf("field %s[%d]: %w", fieldType.Name, j, err))
						continue
					}
					elem.SetString(expanded)
				}
			case reflect.Struct:
				for j := 0; j < field.Len(); j++ {
					if err := Apply(field.Index(j).Addr().Interface()); err != nil {
						errs = append(errs, fmt.Errorf("field %s[%d]: %w", fieldType.Name, j, err))
					}
				}
			}

		case reflect.Map:
			if !tagged || field.IsNil() ||
				field.Type().Key().Kind() != reflect.String ||
				field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for _, key := range field.MapKeys() {
				expanded, err := Expand(field.MapIndex(key).String())
				if err != nil {
					errs = append(errs, fmt.Errorf("field %s[%s]: %w", fieldType.Name, key.String(), err))
					continue
				}
				field.SetMapIndex(key, reflect.ValueOf(expanded))
			}

		case reflect.Struct:
			if err := Apply(field.Addr().Interface()); err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
			}

		case reflect.Ptr:
			if field.Type().Elem().Kind() == reflect.Struct && !field.IsNil() {
				if err := Apply(field.Interface()); err != nil {
					errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
				}
			}
		}
	}

	return errors.Join(errs...)
}
