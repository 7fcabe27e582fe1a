package form

// Errors returns a copy of the field-level error map.
func (s *State) Errors() map[string]string {
	return copyErrors(s.errors.Get().fields)
}

// Error returns the message for one field, or "" when it has none.
func (s *State) Error(field string) string {
	return s.errors.Get().fields[field]
}

// HasErrors reports whether any field has an error.
func (s *State) HasErrors() bool {
	return s.errors.Get().hasErrors
}

// SetError sets the message for one field, replacing any previous one.
func (s *State) SetError(field, message string) *State {
	return s.SetErrors(map[string]string{field: message})
}

// SetErrors merges errs into the error map. Errors for other fields are kept.
func (s *State) SetErrors(errs map[string]string) *State {
	if len(errs) == 0 {
		return s
	}
	s.errors.Update(func(cur errorSet) errorSet {
		next := copyErrors(cur.fields)
		for field, msg := range errs {
			next[field] = msg
		}
		return newErrorSet(next)
	})
	return s
}

// ClearErrors removes the errors of the named fields, or all errors when
// no field is named.
func (s *State) ClearErrors(fields ...string) *State {
	s.errors.Update(func(cur errorSet) errorSet {
		if len(fields) == 0 {
			return newErrorSet(map[string]string{})
		}
		next := copyErrors(cur.fields)
		for _, field := range fields {
			delete(next, field)
		}
		return newErrorSet(next)
	})
	return s
}
