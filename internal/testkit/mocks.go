package testkit

import (
	"context"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	"edaworkspace/domain/subsetting"
	"edaworkspace/domain/visualization"

	"github.com/stretchr/testify/mock"
)

// MockSubsettingClient is a testify mock of ports.SubsettingClient
type MockSubsettingClient struct {
	mock.Mock
}

func (m *MockSubsettingClient) ListStudies(ctx context.Context) ([]study.StudyOverview, error) {
	args := m.Called(ctx)
	studies, _ := args.Get(0).([]study.StudyOverview)
	return studies, args.Error(1)
}

func (m *MockSubsettingClient) GetStudyMetadata(ctx context.Context, studyID core.StudyID) (*study.StudyMetadata, error) {
	args := m.Called(ctx, studyID)
	meta, _ := args.Get(0).(*study.StudyMetadata)
	return meta, args.Error(1)
}

func (m *MockSubsettingClient) EntityCount(ctx context.Context, studyID core.StudyID, entityID string, filters filter.Set) (int, error) {
	args := m.Called(ctx, studyID, entityID, filters)
	return args.Int(0), args.Error(1)
}

func (m *MockSubsettingClient) Distribution(ctx context.Context, studyID core.StudyID, entityID string, req subsetting.DistributionRequest) (*subsetting.DistributionResponse, error) {
	args := m.Called(ctx, studyID, entityID, req)
	resp, _ := args.Get(0).(*subsetting.DistributionResponse)
	return resp, args.Error(1)
}

func (m *MockSubsettingClient) Tabular(ctx context.Context, studyID core.StudyID, entityID string, req subsetting.TabularRequest) (*subsetting.TabularData, error) {
	args := m.Called(ctx, studyID, entityID, req)
	data, _ := args.Get(0).(*subsetting.TabularData)
	return data, args.Error(1)
}

// MockDataClient is a testify mock of ports.DataClient
type MockDataClient struct {
	mock.Mock
}

func (m *MockDataClient) ListApps(ctx context.Context) ([]visualization.AppOverview, error) {
	args := m.Called(ctx)
	apps, _ := args.Get(0).([]visualization.AppOverview)
	return apps, args.Error(1)
}

func (m *MockDataClient) Barplot(ctx context.Context, req visualization.Request) (*visualization.BarplotResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*visualization.BarplotResponse)
	return resp, args.Error(1)
}

func (m *MockDataClient) Histogram(ctx context.Context, req visualization.Request) (*visualization.HistogramResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*visualization.HistogramResponse)
	return resp, args.Error(1)
}

func (m *MockDataClient) Scatterplot(ctx context.Context, req visualization.Request) (*visualization.ScatterplotResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*visualization.ScatterplotResponse)
	return resp, args.Error(1)
}

// MockRecordClient is a testify mock of ports.RecordClient
type MockRecordClient struct {
	mock.Mock
}

func (m *MockRecordClient) GetStudyRecord(ctx context.Context, studyID core.StudyID) (*study.StudyRecord, error) {
	args := m.Called(ctx, studyID)
	record, _ := args.Get(0).(*study.StudyRecord)
	return record, args.Error(1)
}

// MockAnalysisStore is a testify mock of ports.AnalysisStore
type MockAnalysisStore struct {
	mock.Mock
}

func (m *MockAnalysisStore) List(ctx context.Context, studyID core.StudyID) ([]analysis.Summary, error) {
	args := m.Called(ctx, studyID)
	list, _ := args.Get(0).([]analysis.Summary)
	return list, args.Error(1)
}

func (m *MockAnalysisStore) Get(ctx context.Context, id core.AnalysisID) (*analysis.Analysis, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*analysis.Analysis)
	return a, args.Error(1)
}

func (m *MockAnalysisStore) Create(ctx context.Context, a *analysis.Analysis) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnalysisStore) Update(ctx context.Context, a *analysis.Analysis) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnalysisStore) Delete(ctx context.Context, id core.AnalysisID) error {
	return m.Called(ctx, id).Error(0)
}
