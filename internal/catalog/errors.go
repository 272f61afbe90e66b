package catalog

import "errors"

// ErrIndexInconsistent indicates a violated catalog invariant, such as a
// negative duration admitted into an index build. It signals a programming
// error in a boundary component, not a recoverable runtime condition.
var ErrIndexInconsistent = errors.New("duration index is inconsistent")
