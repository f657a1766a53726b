package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	before := time.Now().UTC()
	env := NewEnvelope(TypeFindingScored, "acme-webapp", map[string]string{"k": "v"})

	assert.Equal(t, TypeFindingScored, env.Type)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "acme-webapp", env.ProjectName)
	_, err := uuid.Parse(env.ID)
	require.NoError(t, err)
	assert.False(t, env.OccurredAt.Before(before))

	other := NewEnvelope(TypeFindingScored, "acme-webapp", nil)
	assert.NotEqual(t, env.ID, other.ID)
}
