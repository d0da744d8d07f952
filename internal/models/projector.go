package models

import "time"

// CallbackMediafile is the callback kind of a paginated document on the projector.
const CallbackMediafile = "mediafile"

// AspectRatio is a canonical width:height pair
type AspectRatio struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// Projector represents a stored display with its observed size
type Projector struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Width                  float64   `json:"width"`
	Height                 float64   `json:"height"`
	AspectRatioNumerator   int       `json:"aspectRatioNumerator"`
	AspectRatioDenominator int       `json:"aspectRatioDenominator"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// ActiveSlide describes what the shared projector currently shows.
// It is always written back as a whole record.
type ActiveSlide struct {
	CallbackKind string            `json:"callback"`
	ObjectID     string            `json:"pk,omitempty"`
	PageNumber   *int              `json:"page_num,omitempty"`
	Fullscreen   bool              `json:"fullscreen"`
	Params       map[string]string `json:"params,omitempty"`
}

// IsMediafile reports whether page navigation applies to the slide
func (s ActiveSlide) IsMediafile() bool {
	return s.CallbackKind == CallbackMediafile
}

// Clone returns a deep copy so callers never share the page pointer or params map.
func (s ActiveSlide) Clone() ActiveSlide {
	out := s
	if s.PageNumber != nil {
		page := *s.PageNumber
		out.PageNumber = &page
	}
	if s.Params != nil {
		out.Params = make(map[string]string, len(s.Params))
		for k, v := range s.Params {
			out.Params[k] = v
		}
	}
	return out
}

// PageResult is the outcome of a navigation request.
// Changed is false when nothing was modified.
type PageResult struct {
	Page    int  `json:"current_page"`
	Changed bool `json:"-"`
}
