package memory

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matches reports whether doc satisfies every clause of f. Supported forms are
// equality (including dotted paths through arrays) and the $ne, $in, $nin and
// $exists operators.
func matches(doc bson.M, f bson.M) (bool, error) {
	for path, want := range f {
		candidates := resolve(doc, strings.Split(path, "."))

		ops, isOps := operators(want)
		if !isOps {
			if !containsEqual(candidates, want) {
				return false, nil
			}
			continue
		}

		for op, arg := range ops {
			ok, err := evalOperator(op, arg, candidates)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func evalOperator(op string, arg interface{}, candidates []interface{}) (bool, error) {
	switch op {
	case "$eq":
		return containsEqual(candidates, arg), nil
	case "$ne":
		return !containsEqual(candidates, arg), nil
	case "$in":
		for _, v := range listValues(arg) {
			if containsEqual(candidates, v) {
				return true, nil
			}
		}
		return false, nil
	case "$nin":
		for _, v := range listValues(arg) {
			if containsEqual(candidates, v) {
				return false, nil
			}
		}
		return true, nil
	case "$exists":
		want, _ := arg.(bool)
		return (len(candidates) > 0) == want, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedOperator, op)
	}
}

// operators returns the operator map when v is a document whose keys all
// start with '$'.
func operators(v interface{}) (map[string]interface{}, bool) {
	var m map[string]interface{}
	switch t := v.(type) {
	case bson.M:
		m = t
	case map[string]interface{}:
		m = t
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// resolve walks a dotted path. Arrays fan out to their elements; an array at
// the end of the path yields both itself and its elements.
func resolve(v interface{}, parts []string) []interface{} {
	if len(parts) == 0 {
		if arr, ok := asArray(v); ok {
			return append([]interface{}{v}, arr...)
		}
		return []interface{}{v}
	}

	if arr, ok := asArray(v); ok {
		var out []interface{}
		for _, elem := range arr {
			out = append(out, resolve(elem, parts)...)
		}
		return out
	}

	var m map[string]interface{}
	switch t := v.(type) {
	case bson.M:
		m = t
	case map[string]interface{}:
		m = t
	default:
		return nil
	}

	next, ok := m[parts[0]]
	if !ok {
		return nil
	}
	return resolve(next, parts[1:])
}

func firstValue(doc bson.M, path string) interface{} {
	c := resolve(doc, strings.Split(path, "."))
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

func asArray(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []interface{}:
		return t, true
	}
	return nil, false
}

// listValues flattens the argument of $in/$nin, which may be any slice type.
func listValues(v interface{}) []interface{} {
	if arr, ok := asArray(v); ok {
		return arr
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{v}
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func containsEqual(candidates []interface{}, want interface{}) bool {
	if want == nil && len(candidates) == 0 {
		return true
	}
	for _, c := range candidates {
		if equalValues(c, want) {
			return true
		}
	}
	return false
}

func equalValues(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize maps Go values onto the types produced by decoding BSON into a
// bson.M, so filter literals compare equal to stored values.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case time.Time:
		return primitive.NewDateTimeFromTime(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return primitive.NewDateTimeFromTime(*t)
	case primitive.M:
		return t
	case map[string]interface{}:
		return primitive.M(t)
	case []interface{}:
		return primitive.A(t)
	}
	return v
}

// compareValues orders values for sorting. Missing values sort first.
func compareValues(a, b interface{}) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case primitive.DateTime:
		if y, ok := b.(primitive.DateTime); ok {
			return cmpOrdered(int64(x), int64(y))
		}
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex())
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func cmpOrdered[V int64 | float64](x, y V) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
