package schema

import (
	"reflect"

	"github.com/curateml/curate/pkg/curerrors"
)

// InferKind determines the field kind implied by a value. The table is
// evaluated in a fixed priority order: embedded documents first, then bool
// before the integer types (booleans are a subtype of integer in common
// external representations), then string, and the container kinds last since
// many scalar types could structurally satisfy a sequence check. A value
// matching no row fails with an uninferable_type error.
//
// For embedded documents the returned EmbeddedType is the document's own
// tag; for every other kind it is EmbeddedAny.
func InferKind(value interface{}) (FieldKind, EmbeddedType, error) {
	if value == nil {
		return "", EmbeddedAny, curerrors.New(curerrors.ErrorTypeUninferableType,
			"cannot infer a field kind from a nil value")
	}

	if doc, ok := value.(EmbeddedDocument); ok {
		return KindEmbedded, doc.EmbeddedType(), nil
	}

	switch value.(type) {
	case bool:
		return KindBool, EmbeddedAny, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt, EmbeddedAny, nil
	case string:
		return KindString, EmbeddedAny, nil
	}

	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return KindList, EmbeddedAny, nil
	case reflect.Map:
		return KindDict, EmbeddedAny, nil
	}

	return "", EmbeddedAny, curerrors.Newf(curerrors.ErrorTypeUninferableType,
		"cannot infer a field kind from value of type %T", value)
}

// ValidateValue checks a value against a field descriptor's declared kind.
// A nil value always validates (the field is simply unset). A mismatch fails
// with a validation error.
func ValidateValue(desc *FieldDescriptor, value interface{}) error {
	if value == nil {
		return nil
	}

	ok := false
	switch desc.Kind {
	case KindBool:
		_, ok = value.(bool)
	case KindInt:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			ok = true
		}
	case KindString:
		_, ok = value.(string)
	case KindList:
		k := reflect.TypeOf(value).Kind()
		ok = k == reflect.Slice || k == reflect.Array
		if ok && desc.ElemKind != "" {
			if err := validateElems(desc, value); err != nil {
				return err
			}
		}
	case KindDict:
		ok = reflect.TypeOf(value).Kind() == reflect.Map
	case KindEmbedded:
		doc, isDoc := value.(EmbeddedDocument)
		ok = isDoc && doc.EmbeddedType().IsA(desc.Embedded)
	}

	if !ok {
		return curerrors.Newf(curerrors.ErrorTypeValidation,
			"value of type %T does not match kind %q for field %q",
			value, string(desc.Kind), desc.Name)
	}
	return nil
}

// validateElems checks each element of a list value against the declared
// element kind.
func validateElems(desc *FieldDescriptor, value interface{}) error {
	elem := &FieldDescriptor{Name: desc.Name, Kind: desc.ElemKind}

	v := reflect.ValueOf(value)
	for i := 0; i < v.Len(); i++ {
		ev := v.Index(i).Interface()
		if err := ValidateValue(elem, ev); err != nil {
			return curerrors.Newf(curerrors.ErrorTypeValidation,
				"element %d of field %q does not match element kind %q (got %T)",
				i, desc.Name, string(desc.ElemKind), ev)
		}
	}
	return nil
}
