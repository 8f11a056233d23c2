package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

const mayaEmail = "maya.chen@launchgate.io"

func TestPartnerService_Create(t *testing.T) {
	env := newTestEnv(t)

	partner, err := env.partners.Create(context.Background(), pamUser(mayaEmail), &models.PartnerRecord{
		PartnerName: "Acme Grid",
		PAMOwner:    mayaEmail,
		// The caller cannot pre-position a partner in the pipeline.
		CurrentGate: models.GateThree,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, partner.ID)
	assert.Equal(t, models.GatePreContract, partner.CurrentGate)
	require.Contains(t, partner.Gates, models.GatePreContract)
	assert.Equal(t, models.GateStatusInProgress, partner.Gates[models.GatePreContract].Status)
	assert.NotNil(t, partner.Gates[models.GatePreContract].StartedDate)
	assert.Equal(t, models.GateStatusNotStarted, partner.Gates[models.GateZero].Status)
}

func TestPartnerService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.partners.Create(context.Background(), pamUser(mayaEmail), &models.PartnerRecord{
		ContractType: "Reseller",
		Tier:         "tier-7",
		CCV:          -1,
	})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "partnerName")
	assert.Contains(t, fields, "pamOwner")
	assert.Contains(t, fields, "contractType")
	assert.Contains(t, fields, "tier")
	assert.Contains(t, fields, "ccv")
}

func TestPartnerService_GetOwnership(t *testing.T) {
	env := newTestEnv(t)
	partner := createPartner(t, env, "Acme Grid", mayaEmail)

	t.Run("owner reads own record", func(t *testing.T) {
		got, err := env.partners.Get(context.Background(), pamUser(mayaEmail), partner.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Grid", got.PartnerName)
	})

	t.Run("other PAM is refused", func(t *testing.T) {
		_, err := env.partners.Get(context.Background(), pamUser("other.pam@launchgate.io"), partner.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.Contains(t, env.auditEvents(), "access_denied")
	})

	t.Run("admin reads any record", func(t *testing.T) {
		_, err := env.partners.Get(context.Background(), adminUser(), partner.ID)
		assert.NoError(t, err)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := env.partners.Get(context.Background(), adminUser(), uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPartnerService_ListFiltersByRole(t *testing.T) {
	env := newTestEnv(t)
	createPartner(t, env, "Acme Grid", mayaEmail)
	createPartner(t, env, "Borealis", "other.pam@launchgate.io")

	mine, err := env.partners.List(context.Background(), pamUser(mayaEmail))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Acme Grid", mine[0].PartnerName)

	all, err := env.partners.List(context.Background(), adminUser())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPartnerService_UpdateOwnership(t *testing.T) {
	env := newTestEnv(t)
	partner := createPartner(t, env, "Acme Grid", mayaEmail)

	t.Run("owner edits own record", func(t *testing.T) {
		edited := *partner
		edited.PartnerName = "Acme Grid Holdings"
		got, err := env.partners.Update(context.Background(), pamUser(mayaEmail), &edited)
		require.NoError(t, err)
		assert.Equal(t, "Acme Grid Holdings", got.PartnerName)
	})

	t.Run("non-owner PAM gets forbidden", func(t *testing.T) {
		edited := *partner
		edited.PartnerName = "Hijacked"
		_, err := env.partners.Update(context.Background(), pamUser("other.pam@launchgate.io"), &edited)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		got, err := env.partners.Get(context.Background(), adminUser(), partner.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "Hijacked", got.PartnerName)
	})
}

func TestPartnerService_UpdatePreservesGateState(t *testing.T) {
	env := newTestEnv(t)
	partner := createPartner(t, env, "Acme Grid", mayaEmail)

	// Move the partner forward so there is gate state worth protecting.
	moved, err := env.gates.RequestChange(context.Background(), adminUser(), partner.ID, models.GateOne)
	require.NoError(t, err)
	require.Equal(t, models.GateOne, moved.CurrentGate)

	edited := *moved
	edited.PartnerName = "Acme Grid Holdings"
	edited.CurrentGate = models.GatePreContract
	edited.Gates = models.NewGateProgressMap(time.Now().UTC())

	got, err := env.partners.Update(context.Background(), pamUser(mayaEmail), &edited)
	require.NoError(t, err)
	assert.Equal(t, models.GateOne, got.CurrentGate, "partner edits must not move gate state")
	assert.Equal(t, models.GateStatusCompleted, got.Gates[models.GateZero].Status)
}

func TestPartnerService_DeleteIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	partner := createPartner(t, env, "Acme Grid", mayaEmail)

	err := env.partners.Delete(context.Background(), pamUser(mayaEmail), partner.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	err = env.partners.Delete(context.Background(), adminUser(), partner.ID)
	require.NoError(t, err)

	_, err = env.partners.Get(context.Background(), adminUser(), partner.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
