package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/subsetting"
	"edaworkspace/domain/visualization"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoStudy = core.StudyID(testkit.DemoStudyID)

func newStub(t *testing.T) (*testkit.Server, *httptest.Server) {
	t.Helper()
	stub := testkit.NewServer(testkit.DefaultDemoConfig(), false)
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv
}

func opts() Options {
	return Options{Timeout: 5 * time.Second, AuthToken: "secret"}
}

func TestSubsettingClient(t *testing.T) {
	_, srv := newStub(t)
	client := NewSubsettingClient(srv.URL+testkit.SubsettingPrefix, opts())
	ctx := context.Background()

	studies, err := client.ListStudies(ctx)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, testkit.DemoStudyID, studies[0].ID)

	meta, err := client.GetStudyMetadata(ctx, demoStudy)
	require.NoError(t, err)
	assert.Equal(t, "household", meta.RootEntity.ID)

	all, err := client.EntityCount(ctx, demoStudy, "household", nil)
	require.NoError(t, err)
	assert.Equal(t, testkit.DefaultDemoConfig().Households, all)

	north := filter.Set{{EntityID: "household", VariableID: "region", Type: filter.TypeStringSet, StringSet: []string{"North"}}}
	some, err := client.EntityCount(ctx, demoStudy, "household", north)
	require.NoError(t, err)
	assert.Less(t, some, all)

	dist, err := client.Distribution(ctx, demoStudy, "participant", subsetting.DistributionRequest{VariableID: "sex", ValueSpec: visualization.ValueCount})
	require.NoError(t, err)
	assert.Len(t, dist.Histogram, 2)

	table, err := client.Tabular(ctx, demoStudy, "household", subsetting.TabularRequest{Filters: north, OutputVariableIDs: []string{"region", "water_source"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"household_id", "region", "water_source"}, table.Header)
	assert.Len(t, table.Rows, some)
}

func TestSubsettingClientUnknownStudy(t *testing.T) {
	_, srv := newStub(t)
	client := NewSubsettingClient(srv.URL+testkit.SubsettingPrefix, opts())

	_, err := client.GetStudyMetadata(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStudyNotFound)
	assert.Equal(t, http.StatusNotFound, errors.HTTPStatus(err))
}

func TestServerErrorIsExternal(t *testing.T) {
	stub, srv := newStub(t)
	stub.Fail(testkit.SubsettingPrefix, http.StatusInternalServerError)
	client := NewSubsettingClient(srv.URL+testkit.SubsettingPrefix, opts())

	_, err := client.ListStudies(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsExternal(err))
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)
}

func TestSchemaMismatchIsTreatedLikeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	_, err := NewSubsettingClient(srv.URL, opts()).ListStudies(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSchemaMismatch)
	assert.Equal(t, errors.CodeDecodeError, errors.GetCode(err))
	assert.True(t, errors.IsExternal(err))
}

func TestAuthorizationHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":"s","displayName":"S"}`))
	}))
	defer srv.Close()

	_, err := NewRecordClient(srv.URL, opts()).GetStudyRecord(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got)
}

func TestDataClient(t *testing.T) {
	_, srv := newStub(t)
	client := NewDataClient(srv.URL+testkit.DataPrefix, opts())
	ctx := context.Background()

	apps, err := client.ListApps(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	bar, err := client.Barplot(ctx, visualization.Request{
		StudyID: testkit.DemoStudyID,
		Config: testkit.ChartConfig{
			XAxisVariable: &core.VariableKey{EntityID: "household", VariableID: "region"},
			ValueSpec:     visualization.ValueCount,
		},
	})
	require.NoError(t, err)
	require.Len(t, bar.Data, 1)
	assert.Len(t, bar.Data[0].Label, 4)

	hist, err := client.Histogram(ctx, visualization.Request{
		StudyID: testkit.DemoStudyID,
		Config: testkit.ChartConfig{
			XAxisVariable: &core.VariableKey{EntityID: "participant", VariableID: "age"},
			ValueSpec:     visualization.ValueCount,
			BinWidth:      10,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, hist.Config.BinWidth)
	assert.NotEmpty(t, hist.Data[0].BinStart)

	scatter, err := client.Scatterplot(ctx, visualization.Request{
		StudyID: testkit.DemoStudyID,
		Config: testkit.ChartConfig{
			XAxisVariable: &core.VariableKey{EntityID: "observation", VariableID: "height"},
			YAxisVariable: &core.VariableKey{EntityID: "observation", VariableID: "weight"},
			ValueSpec:     visualization.ValueRaw,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, len(scatter.Data[0].SeriesX), len(scatter.Data[0].SeriesY))
}

func TestDataClientRejectsWrongTopLevelKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"histogram":{"data":[],"config":{}}}`))
	}))
	defer srv.Close()

	_, err := NewDataClient(srv.URL, opts()).Barplot(context.Background(), visualization.Request{StudyID: "s"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSchemaMismatch)
}

func TestRecordClient(t *testing.T) {
	stub, srv := newStub(t)
	client := NewRecordClient(srv.URL+testkit.RecordPrefix, opts())

	record, err := client.GetStudyRecord(context.Background(), demoStudy)
	require.NoError(t, err)
	assert.Equal(t, "Household Health Demo", record.DisplayName)
	assert.Equal(t, "Kenya", record.Attribute("country"))

	stub.Fail(testkit.RecordPrefix, http.StatusServiceUnavailable)
	_, err = client.GetStudyRecord(context.Background(), demoStudy)
	assert.Error(t, err)
}

func TestAnalysisClientRoundTrip(t *testing.T) {
	_, srv := newStub(t)
	client := NewAnalysisClient(srv.URL+testkit.UserPrefix, "alice", opts())
	ctx := context.Background()

	a := analysis.New(demoStudy, "Age by sex")
	a.Filters = a.Filters.With(filter.Filter{EntityID: "participant", VariableID: "sex", Type: filter.TypeStringSet, StringSet: []string{"Male"}})
	require.NoError(t, client.Create(ctx, a))

	got, err := client.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Age by sex", got.Name)
	require.Len(t, got.Filters, 1)

	got.Name = "Renamed"
	require.NoError(t, client.Update(ctx, got))

	list, err := client.List(ctx, demoStudy)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)

	other, err := client.List(ctx, "other-study")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, client.Delete(ctx, a.ID))
	_, err = client.Get(ctx, a.ID)
	assert.ErrorIs(t, err, core.ErrAnalysisNotFound)
	assert.ErrorIs(t, client.Delete(ctx, a.ID), core.ErrAnalysisNotFound)
}

func TestParseTabular(t *testing.T) {
	data, err := ParseTabular(strings.NewReader("id\tname\n1\tA \"quoted\"\n2\t\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, data.Header)
	assert.Equal(t, [][]string{{"1", "A \"quoted\""}, {"2", ""}}, data.Rows)

	_, err = ParseTabular(strings.NewReader(""))
	assert.ErrorIs(t, err, core.ErrSchemaMismatch)
}
