package protocol

import "strconv"

// Payload field accessors. Inbound payloads are decoded into map[string]any,
// so numeric fields arrive as float64 and occasionally as strings (the bridge
// is not consistent about this for descriptor fields like "mode").

// IntField extracts an integer field from a payload.
func IntField(payload map[string]any, key string) (int, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// FloatField extracts a floating point field from a payload.
func FloatField(payload map[string]any, key string) (float64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// BoolField extracts a boolean field from a payload. Numeric values are
// treated as booleans the way the bridge does: zero is false.
func BoolField(payload map[string]any, key string) (bool, bool) {
	v, ok := payload[key]
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	default:
		return false, false
	}
}

// StringField extracts a string field from a payload.
func StringField(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ListField extracts a list field from a payload.
func ListField(payload map[string]any, key string) ([]any, bool) {
	v, ok := payload[key]
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

// ObjectList extracts a list of JSON objects from a payload, skipping
// elements that are not objects.
func ObjectList(payload map[string]any, key string) ([]map[string]any, bool) {
	raw, ok := ListField(payload, key)
	if !ok {
		return nil, false
	}
	items := make([]map[string]any, 0, len(raw))
	for _, el := range raw {
		if obj, ok := el.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items, true
}

// InfoValues parses the {text, value} info array convention used by RC Touch
// and companion sensor devices. It returns the temperature and humidity
// readings found in the payload's "info" array, if any.
func InfoValues(payload map[string]any) (temperature *float64, humidity *float64) {
	items, ok := ObjectList(payload, "info")
	if !ok {
		return nil, nil
	}
	for _, item := range items {
		text, _ := StringField(item, "text")
		value, ok := FloatField(item, "value")
		if !ok {
			continue
		}
		switch text {
		case InfoCodeTemperature:
			v := value
			temperature = &v
		case InfoCodeHumidity:
			v := value
			humidity = &v
		}
	}
	return temperature, humidity
}
