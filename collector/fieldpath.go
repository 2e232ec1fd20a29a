package collector

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/itchyny/gojq"

	"github.com/azure/exposure-reporter/types"
)

// FieldPath is a compiled jq path that pulls the exposure setting out of a detail document.
type FieldPath struct {
	Expression string
	code       *gojq.Code
}

func NewFieldPath(expression string) (*FieldPath, error) {
	if expression == "" {
		return nil, fmt.Errorf("field path is empty")
	}
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parsing field path %q: %w", expression, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compiling field path %q: %w", expression, err)
	}
	return &FieldPath{Expression: expression, code: code}, nil
}

// Extract returns the raw scalar at the path. Missing, null, empty and
// non-scalar values, and paths that hit a type error, all yield Unknown.
func (fieldPath *FieldPath) Extract(ctx context.Context, document any) string {
	iter := fieldPath.code.RunWithContext(ctx, document)
	value, ok := iter.Next()
	if !ok {
		return types.ExposureUnknown
	}
	if _, isError := value.(error); isError {
		return types.ExposureUnknown
	}
	return scalarToString(value)
}

func scalarToString(value any) string {
	switch typed := value.(type) {
	case nil:
		return types.ExposureUnknown
	case string:
		if typed == "" {
			return types.ExposureUnknown
		}
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case *big.Int:
		return typed.String()
	default:
		return types.ExposureUnknown
	}
}
