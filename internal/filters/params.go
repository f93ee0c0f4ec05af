package filters

// Params carries a stream's /DecodeParms entries as plain Go values: int,
// float64, bool and string.
type Params map[string]interface{}

// Int returns the numeric entry key truncated to an int, or def.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns the boolean entry key, or def.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}
