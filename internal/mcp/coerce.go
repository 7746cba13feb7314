package mcp

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// argumentGetter is satisfied by mcp.CallToolRequest.
type argumentGetter interface {
	GetArguments() map[string]any
}

// bindArguments decodes request arguments into target using its json tags.
// Clients often send every value as a string, so numbers and booleans are
// weakly typed and a JSON-encoded array is accepted wherever a slice is
// expected. A plain string for a slice is split on commas.
func bindArguments[T any](request argumentGetter, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonArrayHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(request.GetArguments())
}

func jsonArrayHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return data, nil
	}

	slicePtr := reflect.New(to)
	if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err != nil {
		return data, nil
	}
	return slicePtr.Elem().Interface(), nil
}
