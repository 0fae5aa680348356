package reclaimerrors

import (
	"errors"
	"strings"
)

// Lifecycle (L) Errors
var (
	ErrAlreadyInitialized = errors.New("L1|AlreadyInitialized: The configuration singleton already exists.")
	ErrOnlyOwner          = errors.New("L2|OnlyOwner: Caller is not the recorded configuration owner.")
	ErrNotInitialized     = errors.New("L3|NotInitialized: The configuration singleton has not been created.")
	ErrUnknownEpoch       = errors.New("L4|UnknownEpoch: No epoch record exists for the requested id.")
	ErrTooManyWitnesses   = errors.New("L5|TooManyWitnesses: An epoch holds at most 100 witnesses.")
)

// Proof (P) Errors
var (
	ErrHashMismatch       = errors.New("P1|HashMismatch: Claim identifier does not match the hash of the claim info.")
	ErrLengthMismatch     = errors.New("P2|LengthMismatch: Recovered signature count differs from the committee size.")
	ErrSignatureMismatch  = errors.New("P3|SignatureMismatch: A recovered signer is not in the selected committee.")
	ErrMalformedSignature = errors.New("P4|MalformedSignature: Signature has a bad length, bad hex, an unsupported recovery flag or cannot be recovered.")
	ErrNoWitnesses        = errors.New("P5|NoWitnesses: The epoch has no witnesses to select from.")
	ErrMissingProof       = errors.New("P6|MissingProof: No proof was supplied.")
)

// Verifier (V) Errors
var (
	ErrUnimplemented = errors.New("V1|Unimplemented: This verifier does not implement proof verification.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	// Split on ':' to separate the error name from its description.
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(err.Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}

// Kind returns the sentinel err wraps, or nil when err carries none of ours.
func Kind(err error) error {
	for _, sentinel := range all {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

var all = []error{
	ErrAlreadyInitialized, ErrOnlyOwner, ErrNotInitialized, ErrUnknownEpoch, ErrTooManyWitnesses,
	ErrHashMismatch, ErrLengthMismatch, ErrSignatureMismatch, ErrMalformedSignature, ErrNoWitnesses,
	ErrMissingProof, ErrUnimplemented,
}
