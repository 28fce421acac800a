package block

import "github.com/taskenti/topoguia/canvas"

// Section is a heading followed by a body block. The heading is never placed
// without its body: the section is present only when the body is, and a page
// break moves both.
type Section struct {
	Placement
	Heading TextBlock
	Body    Block
}

func (s Section) Kind() Kind { return KindSection }

func (s Section) Present() bool { return s.Body != nil && s.Body.Present() }

func (s Section) Render(m Measurer, width float64) (Rendered, error) {
	head, err := s.Heading.Render(m, width)
	if err != nil {
		return Rendered{}, err
	}
	bw := width
	if w := s.Body.Layout().Width; w > 0 && w < width {
		bw = w
	}
	body, err := s.Body.Render(m, bw)
	if err != nil {
		return Rendered{}, err
	}

	offset := head.Height + s.Heading.Gap
	out := Rendered{
		Commands: append(head.Commands, canvas.TranslateAll(body.Commands, 0, offset)...),
		Height:   offset + body.Height,
		Warnings: append(head.Warnings, body.Warnings...),
	}
	return out, nil
}

func (s Section) headHeight(m Measurer, width float64) float64 {
	lines := s.Heading.wrap(m, width)
	return s.Heading.height(len(lines)) + s.Heading.Gap
}

// Split keeps the heading with the first part of a splittable body. The
// remainder continues without the heading.
func (s Section) Split(m Measurer, width, maxHeight float64) (Block, Block, bool) {
	sp, ok := s.Body.(Splitter)
	if !ok {
		return nil, nil, false
	}
	hh := s.headHeight(m, width)
	bodyHead, bodyTail, ok := sp.Split(m, width, maxHeight-hh)
	if !ok {
		return nil, nil, false
	}
	head := s
	head.Body = bodyHead
	head.Gap = 0
	return head, withGap(bodyTail, s.Gap), true
}

// Fit scales a fittable body so heading and body fit within maxHeight.
func (s Section) Fit(m Measurer, width, maxHeight float64) (Block, bool) {
	f, ok := s.Body.(Fitter)
	if !ok {
		return nil, false
	}
	body, ok := f.Fit(m, width, maxHeight-s.headHeight(m, width))
	if !ok {
		return nil, false
	}
	fit := s
	fit.Body = body
	return fit, true
}

func withGap(b Block, gap float64) Block {
	switch t := b.(type) {
	case TextBlock:
		t.Gap = gap
		return t
	case ImageBlock:
		t.Gap = gap
		return t
	}
	return b
}
