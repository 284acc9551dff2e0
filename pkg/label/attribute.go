package label

import "fmt"

// Attribute is a typed attribute value attached to a detection. The set of
// variants is closed: categorical, boolean, numeric, and opaque.
type Attribute interface {
	// Value returns the attribute's underlying value.
	Value() interface{}

	isAttribute()
}

// CategoricalAttribute holds a string-valued attribute.
type CategoricalAttribute struct {
	Val string `json:"value" bson:"value"`
}

// Value implements Attribute.
func (a *CategoricalAttribute) Value() interface{} { return a.Val }

func (*CategoricalAttribute) isAttribute() {}

// BooleanAttribute holds a boolean-valued attribute.
type BooleanAttribute struct {
	Val bool `json:"value" bson:"value"`
}

// Value implements Attribute.
func (a *BooleanAttribute) Value() interface{} { return a.Val }

func (*BooleanAttribute) isAttribute() {}

// NumericAttribute holds a float-valued attribute.
type NumericAttribute struct {
	Val float64 `json:"value" bson:"value"`
}

// Value implements Attribute.
func (a *NumericAttribute) Value() interface{} { return a.Val }

func (*NumericAttribute) isAttribute() {}

// OpaqueAttribute holds a value of any other shape.
type OpaqueAttribute struct {
	Val interface{} `json:"value" bson:"value"`
}

// Value implements Attribute.
func (a *OpaqueAttribute) Value() interface{} { return a.Val }

func (*OpaqueAttribute) isAttribute() {}

// CoerceAttribute converts a raw attribute value into exactly one Attribute
// variant by runtime inspection, in priority order: string values become
// categorical, booleans become boolean, any numeric type becomes numeric,
// and everything else is stored opaque.
func CoerceAttribute(value interface{}) Attribute {
	switch v := value.(type) {
	case string:
		return &CategoricalAttribute{Val: v}
	case bool:
		return &BooleanAttribute{Val: v}
	case float64:
		return &NumericAttribute{Val: v}
	case float32:
		return &NumericAttribute{Val: float64(v)}
	case int:
		return &NumericAttribute{Val: float64(v)}
	case int8:
		return &NumericAttribute{Val: float64(v)}
	case int16:
		return &NumericAttribute{Val: float64(v)}
	case int32:
		return &NumericAttribute{Val: float64(v)}
	case int64:
		return &NumericAttribute{Val: float64(v)}
	case uint:
		return &NumericAttribute{Val: float64(v)}
	case uint8:
		return &NumericAttribute{Val: float64(v)}
	case uint16:
		return &NumericAttribute{Val: float64(v)}
	case uint32:
		return &NumericAttribute{Val: float64(v)}
	case uint64:
		return &NumericAttribute{Val: float64(v)}
	default:
		return &OpaqueAttribute{Val: value}
	}
}

// StringValue renders an attribute value as a string, used when
// non-categorical multitask attributes are cast rather than skipped.
func StringValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
