package canopy

// toInt64 widens any Go integer type to int64. Unsigned inputs are cast
// bit-for-bit rather than range-checked: FieldBuilder.Int's get/set
// closures always speak int64 regardless of a binding's Signed flag, so an
// unsigned field's codec.Decode result (a uint64) must still reach
// FieldPlan.Set through here, and Go's uint64->int64 conversion already
// round-trips exactly back through toUint64.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// toUint64 widens any Go integer type to uint64. Signed inputs are cast
// bit-for-bit, the mirror image of toInt64: FieldBuilder.Int's Get always
// hands the integer codec an int64 even for an unsigned binding, and this
// must accept it on the encode path.
func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case int:
		return uint64(n), true
	case int8:
		return uint64(n), true
	case int16:
		return uint64(n), true
	case int32:
		return uint64(n), true
	case int64:
		return uint64(n), true
	default:
		return 0, false
	}
}

// toInt widens any Go integer type (signed or unsigned) to int.
func toInt(v any) (int, bool) {
	if n, ok := toInt64(v); ok {
		return int(n), true
	}
	if n, ok := toUint64(v); ok {
		return int(n), true
	}
	return 0, false
}
