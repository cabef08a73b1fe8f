package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"edaworkspace/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidInput("bad filter")
	wrapped := Wrap(base, "saving analysis")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "saving analysis: bad filter", wrapped.Error())
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestClassifiesDomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{core.NewNotFoundError("analysis", "a1"), CodeNotFound, http.StatusNotFound},
		{core.NewFilterError("e", "v", "empty"), CodeValidationError, http.StatusBadRequest},
		{ExternalServiceError("subsetting", core.NewSchemaError("study.rootEntity")), CodeDecodeError, http.StatusBadGateway},
		{ExternalServiceError("data", fmt.Errorf("dial tcp: refused")), CodeExternalService, http.StatusBadGateway},
		{stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, GetCode(tt.err), tt.err.Error())
		assert.Equal(t, tt.status, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestDecodeFailuresCountAsExternal(t *testing.T) {
	decode := ExternalServiceError("data", core.NewSchemaError("barplot.data"))
	network := ExternalServiceError("data", stderrors.New("timeout"))

	assert.True(t, IsExternal(decode))
	assert.True(t, IsExternal(network))
	assert.True(t, IsExternal(Wrap(decode, "rendering chart")))
	assert.False(t, IsExternal(InvalidInput("x")))
}

func TestNotFoundUnwrapsToSentinel(t *testing.T) {
	assert.True(t, core.IsNotFoundError(NotFound("study")))
}
