package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vqt123/construction-cost-estimator/internal/model"
)

func TestResolveRegion_CallerLocationWins(t *testing.T) {
	t.Parallel()

	st := new(mockStore)
	st.On("FindRegion", mock.Anything, "21201").
		Return(&model.Region{ID: 7, Name: "Baltimore City", CostMultiplier: 1.2}, nil)

	e := &Estimator{store: st}
	region, err := e.resolveRegion(context.Background(), "21201", "90210")

	require.NoError(t, err)
	assert.Equal(t, "Baltimore City", region.Name)
	st.AssertExpectations(t)
}

func TestResolveRegion_FallsBackToExtractedThenDefault(t *testing.T) {
	t.Parallel()

	st := new(mockStore)
	st.On("FindRegion", mock.Anything, "90210").Return(nil, nil)

	e := &Estimator{store: st}
	region, err := e.resolveRegion(context.Background(), "", "90210")

	require.NoError(t, err)
	assert.Equal(t, "Baltimore Metro", region.Name)
	assert.Equal(t, 1.15, region.CostMultiplier)
}

func TestResolveRegion_DefaultQueryWhenNoLocation(t *testing.T) {
	t.Parallel()

	st := new(mockStore)
	st.On("FindRegion", mock.Anything, "21093").Return(nil, nil)

	e := &Estimator{store: st}
	region, err := e.resolveRegion(context.Background(), "", "")

	require.NoError(t, err)
	assert.Equal(t, "Baltimore Metro", region.Name)
	st.AssertExpectations(t)
}

func TestResolveRegion_StoreErrorPropagates(t *testing.T) {
	t.Parallel()

	st := new(mockStore)
	st.On("FindRegion", mock.Anything, mock.Anything).Return(nil, eris.New("connection lost"))

	e := &Estimator{store: st}
	_, err := e.resolveRegion(context.Background(), "21093", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve region")
}

func TestResolveProjectType_SubstringMatch(t *testing.T) {
	t.Parallel()

	st := new(mockStore)
	st.On("FindProjectType", mock.Anything, "epoxy floor").
		Return(&model.ProjectType{ID: 3, Name: "Epoxy Flooring"}, nil)

	e := &Estimator{store: st}
	pt, err := e.resolveProjectType(context.Background(), "", "epoxy floor")

	require.NoError(t, err)
	assert.Equal(t, int64(3), pt.ID)
	assert.Equal(t, "Epoxy Flooring", pt.Name)
}

func TestResolveProjectType_MissUsesDefault(t *testing.T) {
	t.Parallel()

	st := new(mockStore)
	st.On("FindProjectType", mock.Anything, "underwater basket weaving").Return(nil, nil)

	e := &Estimator{store: st}
	pt, err := e.resolveProjectType(context.Background(), "underwater basket weaving", "")

	require.NoError(t, err)
	assert.Equal(t, "Epoxy Flooring", pt.Name)
}

func TestResolveProjectType_DefaultQuery(t *testing.T) {
	t.Parallel()

	st := new(mockStore)
	st.On("FindProjectType", mock.Anything, "epoxy flooring").Return(nil, nil)

	e := &Estimator{store: st}
	pt, err := e.resolveProjectType(context.Background(), "", "")

	require.NoError(t, err)
	assert.Equal(t, "Epoxy Flooring", pt.Name)
	st.AssertExpectations(t)
}
