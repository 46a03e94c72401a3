package models

// Section groups list items under a title, the way every list screen of
// the client is organised.
type Section[T any] struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
	Items     []T    `json:"items"`
}

func (s *Section[T]) Add(item T) {
	s.Items = append(s.Items, item)
}

func (s *Section[T]) IsEmpty() bool {
	return len(s.Items) == 0
}

// NonEmpty drops sections without items, keeping order.
func NonEmpty[T any](sections ...*Section[T]) []Section[T] {
	out := make([]Section[T], 0, len(sections))
	for _, s := range sections {
		if s != nil && !s.IsEmpty() {
			out = append(out, *s)
		}
	}
	return out
}
