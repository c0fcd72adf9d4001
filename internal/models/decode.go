package models

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	decimalType  = reflect.TypeOf(decimal.Decimal{})
	objectIDType = reflect.TypeOf(primitive.ObjectID{})
)

// DecodeDocuments decodes stored documents into a slice of models, e.g.
// *[]Sale. Native identifiers become hex strings and numbers become decimals
// where the model asks for one.
func DecodeDocuments[T ~map[string]any](docs []T, out any) error {
	input := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		input = append(input, map[string]any(d))
	}

	decoder, err := newDecoder(out)
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode documents: %w", err)
	}
	return nil
}

// DecodeDocument decodes one document or request payload into a model.
func DecodeDocument(doc map[string]any, out any) error {
	decoder, err := newDecoder(out)
	if err != nil {
		return err
	}
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func newDecoder(out any) (*mapstructure.Decoder, error) {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			objectIDToStringHook,
			timeToDayHook,
			toDecimalHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	return decoder, nil
}

func objectIDToStringHook(from, to reflect.Type, data any) (any, error) {
	if from == objectIDType && to.Kind() == reflect.String {
		return data.(primitive.ObjectID).Hex(), nil
	}
	return data, nil
}

// timeToDayHook turns a timestamp bound for a string field, such as a sale
// date written as a BSON date, into its canonical day.
func timeToDayHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch data.(type) {
	case time.Time, primitive.DateTime:
		day, _ := SaleDay(data)
		return day, nil
	}
	return data, nil
}

func toDecimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return data, nil
	}
}
