package provision

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsforge/wsforge/internal/domain"
)

func TestSummaryMarshalJSONIncludesErrorText(t *testing.T) {
	t.Parallel()

	s := &Summary{
		Workspace: "devstack",
		Namespace: "acme",
		Components: []ComponentOutcome{
			{Name: "web", FinalState: domain.StateLinked},
			{Name: "api", FinalState: domain.StateScaffolded, Err: errors.New("push rejected")},
		},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	components, ok := decoded["components"].([]any)
	require.True(t, ok)
	require.Len(t, components, 2)

	api, ok := components[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "push rejected", api["error"])

	web, ok := components[0].(map[string]any)
	require.True(t, ok)
	_, hasError := web["error"]
	assert.False(t, hasError)
}

func TestSummaryFailedComponents(t *testing.T) {
	t.Parallel()

	s := &Summary{
		Components: []ComponentOutcome{
			{Name: "web"},
			{Name: "api", Err: errors.New("boom")},
			{Name: "worker", Err: errors.New("bang")},
		},
	}

	failed := s.FailedComponents()
	require.Len(t, failed, 2)
	assert.Equal(t, "api", failed[0].Name)
	assert.Equal(t, "worker", failed[1].Name)
}

func TestSummaryComplete(t *testing.T) {
	t.Parallel()

	linked := ComponentOutcome{Name: "web", FinalState: domain.StateLinked}

	assert.True(t, (&Summary{Components: []ComponentOutcome{linked}}).Complete())
	assert.False(t, (&Summary{Components: []ComponentOutcome{{Name: "api", FinalState: domain.StatePublished}}}).Complete())
	assert.False(t, (&Summary{
		Components: []ComponentOutcome{linked},
		Warnings:   []string{"component web has no pinned revision"},
	}).Complete())
}
