package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusContract(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthorized:     http.StatusUnauthorized,
		KindValidation:       http.StatusUnprocessableEntity,
		KindPermissionDenied: http.StatusForbidden,
		KindNotFound:         http.StatusNotFound,
		KindConflict:         http.StatusBadRequest,
		KindBadRequest:       http.StatusBadRequest,
		KindRateLimited:      http.StatusTooManyRequests,
		KindIntegrity:        http.StatusInternalServerError,
		KindInternal:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}

func TestIsMatchesWrappedSentinel(t *testing.T) {
	sentinel := Unauthorized("token_revoked", "Token has been revoked.")
	wrapped := fmt.Errorf("validate: %w", sentinel.Wrap(errors.New("cause")))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, Unauthorized("token_expired", "Token has expired."))
	assert.Equal(t, KindUnauthorized, KindOf(wrapped))
}

func TestFromUnclassified(t *testing.T) {
	err := From(errors.New("boom"))
	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, "Something went wrong.", err.Message)
	assert.Nil(t, From(nil))
}
