package form

import (
	"reflect"
	"sort"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/vango-dev/upform/internal/errors"
)

// Diff returns a JSON merge patch (RFC 7386) that turns the defaults into
// the current values. An unchanged form yields "{}".
func (s *State) Diff() ([]byte, error) {
	original, err := sonic.Marshal(s.Defaults())
	if err != nil {
		return nil, errors.New(errors.CodeRequestEncode).Wrap(err)
	}
	modified, err := sonic.Marshal(s.Data())
	if err != nil {
		return nil, errors.New(errors.CodeRequestEncode).Wrap(err)
	}
	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidPatch).Wrap(err)
	}
	return patch, nil
}

// DirtyFields returns the sorted names of fields whose value differs from
// the default.
func (s *State) DirtyFields() []string {
	patch, err := s.Diff()
	if err != nil {
		return s.dirtyFieldsDeep()
	}
	var changed map[string]any
	if err := sonic.Unmarshal(patch, &changed); err != nil {
		return s.dirtyFieldsDeep()
	}
	fields := make([]string, 0, len(changed))
	for k := range changed {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// dirtyFieldsDeep compares without JSON, for values JSON cannot encode.
func (s *State) dirtyFieldsDeep() []string {
	values, defaults := s.values.Get(), s.defaults.Get()
	var fields []string
	for _, k := range s.keys {
		if !reflect.DeepEqual(values[k], defaults[k]) {
			fields = append(fields, k)
		}
	}
	return fields
}

// IsDirty reports whether any value differs from its default.
func (s *State) IsDirty() bool {
	return len(s.DirtyFields()) > 0
}

// ApplyPatch applies a JSON merge patch to the current values. Patches
// that name unknown fields or remove a field (null) are rejected and
// nothing changes. Fields the patch does not name keep their values as is.
func (s *State) ApplyPatch(patch []byte) error {
	var changes map[string]any
	if err := sonic.Unmarshal(patch, &changes); err != nil {
		return errors.New(errors.CodeInvalidPatch).Wrap(err)
	}
	for _, field := range Record(changes).Keys() {
		if !s.hasKey(field) {
			return errors.New(errors.CodeInvalidPatch).
				WithField(field).
				WithDetail("patches cannot add fields")
		}
		if changes[field] == nil {
			return errors.New(errors.CodeInvalidPatch).
				WithField(field).
				WithDetail("patches cannot remove fields")
		}
	}

	current, err := sonic.Marshal(s.Data())
	if err != nil {
		return errors.New(errors.CodeInvalidPatch).Wrap(err)
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return errors.New(errors.CodeInvalidPatch).Wrap(err)
	}
	var result map[string]any
	if err := patchDecoder.Unmarshal(merged, &result); err != nil {
		return errors.New(errors.CodeInvalidPatch).Wrap(err)
	}

	s.values.Update(func(cur Record) Record {
		next := make(Record, len(cur))
		for k, v := range cur {
			next[k] = v
		}
		for field := range changes {
			next[field] = matchNumber(result[field], cur[field])
		}
		return next
	})
	return nil
}

// patchDecoder decodes whole JSON numbers as int64.
var patchDecoder = sonic.Config{UseInt64: true}.Froze()

// matchNumber converts a decoded number to the numeric type of like when
// that is lossless. Other values are returned unchanged.
func matchNumber(v, like any) any {
	nv, lv := reflect.ValueOf(v), reflect.ValueOf(like)
	if !nv.IsValid() || !lv.IsValid() || nv.Type() == lv.Type() {
		return v
	}
	target := reflect.New(lv.Type()).Elem()
	switch lv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(int64)
		if !ok || target.OverflowInt(n) {
			return v
		}
		target.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := v.(int64)
		if !ok || n < 0 || target.OverflowUint(uint64(n)) {
			return v
		}
		target.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		switch n := v.(type) {
		case int64:
			target.SetFloat(float64(n))
		case float64:
			if target.OverflowFloat(n) {
				return v
			}
			target.SetFloat(n)
		default:
			return v
		}
	default:
		return v
	}
	return target.Interface()
}
