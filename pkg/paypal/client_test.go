package paypal

import (
	"net/http"
	"testing"

	sdk "github.com/plutov/paypal/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

func TestApprovalLink(t *testing.T) {
	links := []sdk.Link{
		{Rel: "self", Href: "https://api.sandbox.paypal.com/v2/checkout/orders/1"},
		{Rel: "approve", Href: "https://www.sandbox.paypal.com/checkoutnow?token=1"},
	}
	assert.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token=1", approvalLink(links))
	assert.Empty(t, approvalLink(nil))
}

func TestMapError_APIStatus(t *testing.T) {
	apiErr := &sdk.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Name:     "RESOURCE_NOT_FOUND",
		Message:  "The specified resource does not exist.",
	}

	mapped := mapError(apiErr, "get order")
	typed := pkgerrors.As(mapped)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMapError_NonAPIFallsBackToDependency(t *testing.T) {
	mapped := mapError(assert.AnError, "create order")
	typed := pkgerrors.As(mapped)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestDomainCodeForStatus(t *testing.T) {
	assert.Equal(t, pkgerrors.CodeValidation, domainCodeForStatus(http.StatusBadRequest))
	assert.Equal(t, pkgerrors.CodeStateConflict, domainCodeForStatus(http.StatusUnprocessableEntity))
	assert.Equal(t, pkgerrors.CodeDependency, domainCodeForStatus(http.StatusBadGateway))
}
