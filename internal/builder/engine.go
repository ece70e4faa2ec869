package builder

// DragEnd is the end of a drag gesture. Over is empty when the item was
// released outside every drop target.
type DragEnd struct {
	Active string `json:"active"`
	Over   string `json:"over,omitempty"`
}

// HandleDragEnd interprets a finished drag gesture against the field list
// and reports whether the list changed.
//
//   - existing field onto another existing field: move it to that field's index
//   - palette item onto the container: append a new field
//   - palette item onto an existing field: insert a new field at that index
//
// Every other combination, including unknown ids, leaves the list untouched.
func (s *State) HandleDragEnd(ev DragEnd) bool {
	if ev.Over == "" {
		return false
	}
	src, ok := ParseSource(ev.Active)
	if !ok {
		return false
	}

	if !src.IsNew() {
		if src.FieldID == ev.Over {
			return false
		}
		from, to := s.IndexOf(src.FieldID), s.IndexOf(ev.Over)
		if from < 0 || to < 0 {
			return false
		}
		return s.Move(from, to)
	}

	index := len(s.fields)
	if ev.Over != ContainerID {
		index = s.IndexOf(ev.Over)
		if index < 0 {
			return false
		}
	}
	if _, err := s.Insert(src.Kind, index); err != nil {
		return false
	}
	return true
}
