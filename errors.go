package topoguia

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common generation failure conditions.
var (
	ErrInvalidParam    = errors.New("topoguia: invalid parameter")
	ErrUnknownTemplate = errors.New("topoguia: unknown template")
	ErrUnknownField    = errors.New("topoguia: unknown field")
)

// Stage is a step of guide generation after validation.
type Stage int

const (
	StagePrepare Stage = iota // decoding uploads and synthesizing the code
	StageLayout               // running the template
	StageWrite                // serializing the PDF
)

func (s Stage) String() string {
	switch s {
	case StagePrepare:
		return "preparing assets"
	case StageLayout:
		return "laying out"
	case StageWrite:
		return "writing"
	}
	return fmt.Sprintf("stage %d", int(s))
}

// GenerateError is a failure past validation, tagged with the stage, route
// and template it happened in.
type GenerateError struct {
	Stage    Stage
	Route    string
	Template Template
	Err      error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("topoguia: %s %s (%s): %v", e.Stage, e.Route, e.Template, e.Err)
}

func (e *GenerateError) Unwrap() error { return e.Err }

// ValidationError lists the required fields and images that are missing, by
// their display labels. Generation does not start when it is returned.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "topoguia: missing required fields: " + strings.Join(e.Missing, ", ")
}

// AssetDecodeError reports an uploaded image that could not be decoded.
type AssetDecodeError struct {
	Slot  Slot
	Label string
	Err   error
}

func (e *AssetDecodeError) Error() string {
	return fmt.Sprintf("topoguia: decoding %s: %v", e.Label, e.Err)
}

func (e *AssetDecodeError) Unwrap() error {
	return e.Err
}
