package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAcceptsBothLayouts(t *testing.T) {
	var req ApplicationPatch
	require.NoError(t, json.Unmarshal([]byte(`{"appliedAt":"2025-03-04","followUpAt":"2025-03-10T15:04:05Z"}`), &req))
	require.NotNil(t, req.AppliedAt.Ptr())
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), *req.AppliedAt.Ptr())
	assert.Equal(t, 15, req.FollowUpAt.Ptr().Hour())
}

func TestNullDateEmptyNullAndMissing(t *testing.T) {
	var req ApplicationPatch
	require.NoError(t, json.Unmarshal([]byte(`{"appliedAt":""}`), &req))
	// Present but empty clears the field.
	assert.True(t, req.AppliedAt.Set)
	assert.Nil(t, req.AppliedAt.Ptr())
	assert.False(t, req.FollowUpAt.Set)
	assert.Nil(t, req.FollowUpAt.Ptr())

	var patch VehiclePatch
	require.NoError(t, json.Unmarshal([]byte(`{"insuranceExpiresAt":null,"registrationExpiresAt":"2026-01-31"}`), &patch))
	assert.True(t, patch.InsuranceExpiresAt.Set)
	assert.Nil(t, patch.InsuranceExpiresAt.Ptr())
	require.True(t, patch.RegistrationExpiresAt.Set)
	assert.Equal(t, time.January, patch.RegistrationExpiresAt.Ptr().Month())
}

func TestDateRejectsGarbage(t *testing.T) {
	var req ApplicationPatch
	err := json.Unmarshal([]byte(`{"appliedAt":"tomorrow"}`), &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}
