package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/vango-dev/upform/internal/errors"
)

// Request is one outbound submission.
type Request struct {
	// Method is the HTTP method, case-insensitive.
	Method string

	// URL is absolute or relative to the client's base URL.
	URL string

	// Headers are added to (and override) the client's default headers.
	Headers http.Header

	// Body is JSON-encoded for methods with a body. For GET and HEAD a flat
	// map is encoded as the query string instead.
	Body any

	// ID is sent as X-Request-ID. Generated when empty.
	ID string
}

// Response is a decoded HTTP response.
type Response struct {
	Status  int
	Headers http.Header

	// Data is the JSON-decoded body, the raw body as a string when it is
	// not JSON, or nil when empty.
	Data any

	// Raw is the undecoded body.
	Raw []byte

	Request *Request
}

// Decode unmarshals the raw JSON body into v.
func (r *Response) Decode(v any) error {
	if err := sonic.Unmarshal(r.Raw, v); err != nil {
		return errors.New(errors.CodeResponseDecode).Wrap(err)
	}
	return nil
}

// ErrorData is the error payload of a failed response:
//
//	{ "message": "The given data was invalid.", "errors": { "name": "required" } }
//
// Error values may also be arrays of messages; the first one is kept.
type ErrorData struct {
	Message string
	Errors  map[string]string
}

// ResponseError describes a failed request.
type ResponseError struct {
	Request *Request

	// Response is nil when no response was received.
	Response *Response

	// Data is the parsed error payload. Errors is never nil.
	Data ErrorData

	// Message is the generic failure message, e.g.
	// "Request failed with status code 422".
	Message string

	// Err is the underlying failure for requests without a response.
	Err error
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	method, target := "", ""
	if e.Request != nil {
		method, target = strings.ToUpper(e.Request.Method), e.Request.URL
	}
	return fmt.Sprintf("%s %s: %s", method, target, e.DisplayMessage())
}

// Unwrap returns the underlying failure, if any.
func (e *ResponseError) Unwrap() error {
	return e.Err
}

// Status returns the response status code, or 0 without a response.
func (e *ResponseError) Status() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// DisplayMessage returns the server's message when present, falling back
// to the generic failure message.
func (e *ResponseError) DisplayMessage() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Request failed"
}

// FieldErrors returns a copy of the field-level error map.
func (e *ResponseError) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Data.Errors))
	for field, msg := range e.Data.Errors {
		out[field] = msg
	}
	return out
}

// parseErrorData extracts message and field errors from a decoded body.
// Shapes it does not recognize yield empty data.
func parseErrorData(data any) ErrorData {
	out := emptyErrorData()

	body, ok := data.(map[string]any)
	if !ok {
		return out
	}

	if msg, ok := body["message"].(string); ok {
		out.Message = msg
	}

	fields, ok := body["errors"].(map[string]any)
	if !ok {
		return out
	}
	for field, value := range fields {
		if msg, ok := firstMessage(value); ok {
			out.Errors[field] = msg
		}
	}
	return out
}

func emptyErrorData() ErrorData {
	return ErrorData{Errors: map[string]string{}}
}

// firstMessage flattens a field error value to a single message.
func firstMessage(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				return s, true
			}
		}
		return "", false
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

// appendQuery encodes a flat map payload onto target's query string.
// Nil payloads leave target unchanged.
func appendQuery(target string, body any) (string, error) {
	if body == nil {
		return target, nil
	}

	var fields map[string]any
	switch b := body.(type) {
	case map[string]any:
		fields = b
	case map[string]string:
		fields = make(map[string]any, len(b))
		for k, v := range b {
			fields[k] = v
		}
	default:
		rv := reflect.ValueOf(body)
		if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			// Named map types such as form.Record keep their values as is.
			fields = make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				fields[iter.Key().String()] = iter.Value().Interface()
			}
			break
		}
		encoded, err := sonic.Marshal(body)
		if err != nil {
			return "", errors.New(errors.CodeRequestEncode).Wrap(err)
		}
		if err := queryDecoder.Unmarshal(encoded, &fields); err != nil {
			return "", errors.New(errors.CodeRequestEncode).
				WithDetail("GET and HEAD payloads must be flat objects").
				Wrap(err)
		}
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", errors.New(errors.CodeInvalidURL).Wrap(err)
	}

	query := u.Query()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := fields[k]
		if v == nil {
			continue
		}
		if items, ok := queryList(v); ok {
			for _, item := range items {
				query.Add(k+"[]", queryValue(item))
			}
			continue
		}
		query.Set(k, queryValue(v))
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// queryDecoder keeps JSON numbers exact when a struct payload is flattened.
var queryDecoder = sonic.Config{UseNumber: true}.Froze()

// queryList returns the elements of a slice or array value.
func queryList(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	default:
		return nil, false
	}
}

// queryValue renders a scalar for the query string; nested values are JSON.
// Floats never use exponent notation.
func queryValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	default:
		encoded, err := sonic.MarshalString(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return encoded
	}
}
