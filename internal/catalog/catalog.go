// Package catalog loads and memoizes study metadata and study records.
//
// Loads never fail: a study whose metadata or record cannot be fetched gets a stub in its
// place, and stubs are not memoized so the next request tries again.
package catalog

import (
	"context"
	"sync"

	"edaworkspace/domain/core"
	"edaworkspace/domain/study"
	"edaworkspace/internal/errors"
	"edaworkspace/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Catalog bundles the study list with the memoizing loaders
type Catalog struct {
	Metadata *MetadataLoader
	Records  *RecordLoader

	subsetting ports.SubsettingClient
}

// New wires the loaders over the subsetting and record clients
func New(subsetting ports.SubsettingClient, records ports.RecordClient, attributeNames []string, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		Metadata:   NewMetadataLoader(subsetting, logger),
		Records:    NewRecordLoader(records, attributeNames, logger),
		subsetting: subsetting,
	}
}

// Studies lists the available studies; failures propagate to the caller
func (c *Catalog) Studies(ctx context.Context) ([]study.StudyOverview, error) {
	studies, err := c.subsetting.ListStudies(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list studies")
	}
	return studies, nil
}

// memo is a fetch-once cache whose concurrent misses share one fetch
type memo[V any] struct {
	mu    sync.RWMutex
	items map[core.StudyID]V
	group singleflight.Group
}

func newMemo[V any]() *memo[V] {
	return &memo[V]{items: map[core.StudyID]V{}}
}

func (m *memo[V]) get(id core.StudyID) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[id]
	return v, ok
}

// load returns the memoized value or runs fetch once for all concurrent callers
func (m *memo[V]) load(id core.StudyID, fetch func() (V, error)) (V, error) {
	if v, ok := m.get(id); ok {
		return v, nil
	}
	result, err, _ := m.group.Do(id.String(), func() (any, error) {
		if v, ok := m.get(id); ok {
			return v, nil
		}
		v, err := fetch()
		if err != nil {
			return v, err
		}
		m.mu.Lock()
		m.items[id] = v
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (m *memo[V]) forget(id core.StudyID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
}

// MetadataLoader fetches a study's entity tree and sorts every entity's variables
type MetadataLoader struct {
	client ports.SubsettingClient
	logger *zap.Logger
	memo   *memo[*study.StudyMetadata]
}

func NewMetadataLoader(client ports.SubsettingClient, logger *zap.Logger) *MetadataLoader {
	return &MetadataLoader{
		client: client,
		logger: logger.Named("metadata"),
		memo:   newMemo[*study.StudyMetadata](),
	}
}

// Load returns the sorted metadata, or a stub flagged with Stub when the fetch fails.
// The returned tree is shared and must be treated as read-only.
// The shared fetch ignores the caller's cancellation and is bounded by the client timeout.
func (l *MetadataLoader) Load(ctx context.Context, studyID core.StudyID) *study.StudyMetadata {
	fetchCtx := context.WithoutCancel(ctx)
	meta, err := l.memo.load(studyID, func() (*study.StudyMetadata, error) {
		raw, err := l.client.GetStudyMetadata(fetchCtx, studyID)
		if err != nil {
			return nil, err
		}
		return raw.SortedCopy(), nil
	})
	if err != nil {
		l.logger.Warn("study metadata unavailable, using stub",
			zap.String("study_id", studyID.String()),
			zap.String("code", errors.GetCode(err)),
			zap.Error(err))
		return study.NewStubMetadata(studyID)
	}
	return meta
}

// Invalidate drops a memoized study so the next Load fetches again
func (l *MetadataLoader) Invalidate(studyID core.StudyID) {
	l.memo.forget(studyID)
}

// RecordLoader fetches a study's host record
type RecordLoader struct {
	client         ports.RecordClient
	attributeNames []string
	logger         *zap.Logger
	memo           *memo[*study.StudyRecord]
}

func NewRecordLoader(client ports.RecordClient, attributeNames []string, logger *zap.Logger) *RecordLoader {
	return &RecordLoader{
		client:         client,
		attributeNames: attributeNames,
		logger:         logger.Named("record"),
		memo:           newMemo[*study.StudyRecord](),
	}
}

// Load returns the record, or a stub whose attributes all read "N/A" when the fetch fails
func (l *RecordLoader) Load(ctx context.Context, studyID core.StudyID) *study.StudyRecord {
	fetchCtx := context.WithoutCancel(ctx)
	record, err := l.memo.load(studyID, func() (*study.StudyRecord, error) {
		return l.client.GetStudyRecord(fetchCtx, studyID)
	})
	if err != nil {
		l.logger.Warn("study record unavailable, using stub",
			zap.String("study_id", studyID.String()),
			zap.Error(err))
		return study.NewStubRecord(studyID, l.attributeNames)
	}
	return record
}

// AttributeNames lists the record attributes the workspace shows
func (l *RecordLoader) AttributeNames() []string {
	return l.attributeNames
}
