package fire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
	_ "firewatch.xyz/alert-dispatch-service/pkg/testing"
)

func TestGetPolicyDefaults(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	policy, err := f.Policy.GetPolicy()
	require.NoError(t, err)
	assert.Equal(t, 2, policy.StationCount)
	assert.Equal(t, models.ResponseFallbackZero, policy.ResponseFallback)
}

func TestUpsertPolicy(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	input := &models.DispatchPolicy{StationCount: 3, ResponseFallback: models.ResponseFallbackAlertCreated}
	require.NoError(t, f.Policy.UpsertPolicy(input))
	assert.Equal(t, models.DispatchPolicyID, input.ID)

	require.NoError(t, f.Policy.UpsertPolicy(&models.DispatchPolicy{StationCount: 4}))

	policy, err := f.Policy.GetPolicy()
	require.NoError(t, err)
	assert.Equal(t, 4, policy.StationCount)
	assert.Equal(t, models.ResponseFallbackZero, policy.ResponseFallback)
	assert.EqualValues(t, 1, countRows(t, f, &models.DispatchPolicy{}, ""))
}

func TestUpsertPolicyValidation(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, f, _, _, _ := GetMockFireWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	err := f.Policy.UpsertPolicy(&models.DispatchPolicy{StationCount: 0})
	assert.True(t, errors.Is(err, ErrValidation))

	err = f.Policy.UpsertPolicy(&models.DispatchPolicy{StationCount: 2, ResponseFallback: "guess"})
	assert.True(t, errors.Is(err, ErrValidation))

	assert.EqualValues(t, 0, countRows(t, f, &models.DispatchPolicy{}, ""))
}
