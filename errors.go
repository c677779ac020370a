package dombind

import (
	"errors"

	"github.com/pthm/dombind/lib/statepack"
)

// Sentinel errors for engine operations.
var (
	ErrNotArray       = errors.New("dombind: for-each expression did not yield an array")
	ErrEval           = errors.New("dombind: expression evaluation failed")
	ErrBadDeclaration = errors.New("dombind: malformed declaration")
	ErrNotMounted     = errors.New("dombind: engine has no mounted document")

	ErrPayloadFormat    = errors.New("dombind: invalid state payload format")
	ErrSignatureInvalid = errors.New("dombind: state payload signature invalid")
	ErrDecryptFailed    = errors.New("dombind: state payload decryption failed")
)

// IsEvalError checks if err originated at the evaluator boundary.
func IsEvalError(err error) bool {
	return errors.Is(err, ErrEval)
}

// IsShapeError checks if err is a declaration shape error (for example a
// for-each expression yielding a non-array).
func IsShapeError(err error) bool {
	return errors.Is(err, ErrNotArray) || errors.Is(err, ErrBadDeclaration)
}

// IsPayloadError checks if err came from decoding an embedded state payload.
func IsPayloadError(err error) bool {
	return errors.Is(err, ErrPayloadFormat) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrDecryptFailed)
}

// wrapPayloadError maps statepack errors onto dombind sentinels.
func wrapPayloadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, statepack.ErrInvalidFormat) {
		return ErrPayloadFormat
	}
	if errors.Is(err, statepack.ErrSignatureInvalid) {
		return ErrSignatureInvalid
	}
	if errors.Is(err, statepack.ErrDecryptFailed) {
		return ErrDecryptFailed
	}
	return err
}
