package container

import (
	"context"
	"fmt"
	"sync"

	"edaworkspace/adapters/api"
	"edaworkspace/adapters/sqlstore"
	"edaworkspace/domain/core"
	"edaworkspace/internal/catalog"
	"edaworkspace/internal/config"
	"edaworkspace/internal/distribution"
	"edaworkspace/internal/migration"
	"edaworkspace/internal/visualization"
	"edaworkspace/internal/workspace"
	"edaworkspace/ports"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure; DB is nil when analyses live in the remote user service
	DB *sqlx.DB

	// Service clients
	Subsetting ports.SubsettingClient
	Data       ports.DataClient
	Records    ports.RecordClient
	Analyses   ports.AnalysisStore

	// Domain services
	Catalog       *catalog.Catalog
	Charts        *visualization.Service
	Distributions *distribution.Service
}

// New creates the container and its service clients. The analysis store is set up by
// InitStore.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}
	c.initClients()
	c.initServices()
	return c, nil
}

// initClients builds one client per backend service sharing the transport options
func (c *Container) initClients() {
	opts := api.Options{
		Timeout:   c.Config.Services.Timeout,
		AuthToken: c.Config.Services.AuthToken,
		Logger:    c.Logger.Named("api"),
	}
	c.Subsetting = api.NewSubsettingClient(c.Config.Services.SubsettingURL, opts)
	c.Data = api.NewDataClient(c.Config.Services.DataURL, opts)
	c.Records = api.NewRecordClient(c.Config.Services.RecordURL, opts)
}

func (c *Container) initServices() {
	c.Catalog = catalog.New(c.Subsetting, c.Records, c.Config.Records.Attributes, c.Logger)
	c.Charts = visualization.NewService(c.Logger)
	c.Distributions = distribution.NewService(c.Logger)
}

// InitStore connects the configured analysis store, migrating SQL databases to the
// current schema
func (c *Container) InitStore(ctx context.Context) error {
	switch c.Config.Store.Driver {
	case config.StoreRemote:
		c.Analyses = api.NewAnalysisClient(c.Config.Services.UserURL, c.Config.User.ID, api.Options{
			Timeout:   c.Config.Services.Timeout,
			AuthToken: c.Config.Services.AuthToken,
			Logger:    c.Logger.Named("api"),
		})
		c.Logger.Info("analyses stored in user service", zap.String("url", c.Config.Services.UserURL))
		return nil

	case config.StorePostgres, config.StoreSQLite:
		db, err := sqlstore.Open(ctx, c.Config.Store.Driver, c.Config.Store.DatabaseURL)
		if err != nil {
			return err
		}
		runner := migration.NewRunner()
		if err := runner.Run(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate analysis store: %w", err)
		}
		c.DB = db
		c.Analyses = sqlstore.NewAnalysisRepository(db, c.Config.User.ID)
		c.Logger.Info("analyses stored in database",
			zap.String("driver", c.Config.Store.Driver),
			zap.String("schema_version", runner.Version()))
		return nil
	}
	return fmt.Errorf("unsupported analysis store %q", c.Config.Store.Driver)
}

// Workspace assembles the per-request view of one study. Metadata and record load
// concurrently; neither fails, a stub stands in for whatever could not be fetched.
func (c *Container) Workspace(ctx context.Context, studyID core.StudyID) *workspace.Workspace {
	ws := &workspace.Workspace{
		StudyID:    studyID,
		Subsetting: c.Subsetting,
		Data:       c.Data,
		Analyses:   c.Analyses,
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ws.Metadata = c.Catalog.Metadata.Load(ctx, studyID)
	}()
	go func() {
		defer wg.Done()
		ws.Record = c.Catalog.Records.Load(ctx, studyID)
	}()
	wg.Wait()
	return ws
}

// Close releases the database connection, if any
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
