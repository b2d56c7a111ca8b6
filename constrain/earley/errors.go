package earley

import "fmt"

// RejectedError reports that feeding a byte leaves no surviving item in
// the new column: the input consumed so far, plus this byte, cannot be
// extended to any string the grammar derives.
type RejectedError struct {
	ByteOffset int
	Byte       byte
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("earley: input rejected at byte offset %d (byte %q)", e.ByteOffset, e.Byte)
}

// FinishedError reports that the recognizer has already reached a state
// with no further continuation possible (the last completed item left no
// path to extend), and cannot accept more bytes.
type FinishedError struct {
	ByteOffset int
}

func (e *FinishedError) Error() string {
	return fmt.Sprintf("earley: recognizer already finished at byte offset %d", e.ByteOffset)
}
