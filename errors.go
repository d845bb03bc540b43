package yamlform

import "errors"

var (
	// ErrUnknownValueKind is returned when a target value holds something other than
	// null, bool, number, string, map or list. No text is produced when it fires.
	ErrUnknownValueKind = errors.New("yamlform: unknown value kind")

	// ErrOverlappingEdits indicates that two computed edits address the same bytes.
	ErrOverlappingEdits = errors.New("yamlform: overlapping edits")
)
