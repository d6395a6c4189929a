package data

// Types names the JSON-model kind of an evaluation result.
type Types string

const (
	NONE   Types = "none"
	BOOL   Types = "bool"
	INT    Types = "int"
	FLOAT  Types = "float"
	STRING Types = "string"
	LIST   Types = "list"
	MAP    Types = "map"
	ERROR  Types = "error"
)

// TypeOf classifies a JSON-model Go value.
func TypeOf(v any) Types {
	switch v.(type) {
	case nil:
		return NONE
	case bool:
		return BOOL
	case int, int32, int64, uint, uint32, uint64:
		return INT
	case float32, float64:
		return FLOAT
	case string:
		return STRING
	case []any:
		return LIST
	case map[string]any:
		return MAP
	default:
		return ERROR
	}
}
