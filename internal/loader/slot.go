package loader

// slot owns the coordinator's single in-flight request. Its methods are the
// only way to change it and must run on the coordination queue.
type slot struct {
	current RangeRequest
}

// Replace cancels the held request, if any, installs next and returns the
// request it cancelled.
func (s *slot) Replace(next RangeRequest) RangeRequest {
	prev := s.current
	if prev != nil {
		prev.Cancel()
	}
	s.current = next

	return prev
}

// ClearIf empties the slot only if it still holds req.
func (s *slot) ClearIf(req RangeRequest) bool {
	if s.current == nil || s.current != req {
		return false
	}
	s.current = nil

	return true
}

// CancelFor cancels and clears the held request if it serves lr.
func (s *slot) CancelFor(lr LoadingRequest) RangeRequest {
	if s.current == nil || s.current.LoadingRequest() != lr {
		return nil
	}

	cur := s.current
	s.current = nil
	cur.Cancel()

	return cur
}

// Take cancels and clears whatever is held.
func (s *slot) Take() RangeRequest {
	cur := s.current
	s.current = nil
	if cur != nil {
		cur.Cancel()
	}

	return cur
}

func (s *slot) Current() RangeRequest {
	return s.current
}
