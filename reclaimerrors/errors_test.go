package reclaimerrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorParts(t *testing.T) {
	assert.Equal(t, "HashMismatch", GetErrorName(ErrHashMismatch))
	assert.Equal(t, "P1", GetErrorCode(ErrHashMismatch))
	assert.Equal(t, "P1_HashMismatch", GetErrorCodeWithName(ErrHashMismatch))
	assert.Equal(t, "Claim identifier does not match the hash of the claim info.", GetErrorDesc(ErrHashMismatch))
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, []string{"OnlyOwner", "AlreadyInitialized"}, GetErrorNames([]error{ErrOnlyOwner, ErrAlreadyInitialized}))
}

func TestKindUnwrapsContext(t *testing.T) {
	wrapped := fmt.Errorf("%w: signature 2: bad recovery flag 29", ErrMalformedSignature)
	assert.Equal(t, ErrMalformedSignature, Kind(wrapped))
	assert.Equal(t, "P4", GetErrorCode(Kind(wrapped)))
	assert.Nil(t, Kind(fmt.Errorf("disk full")))
}

func TestCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, err := range all {
		code := GetErrorCode(err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
