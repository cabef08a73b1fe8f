package ports

import (
	"context"

	"edaworkspace/domain/visualization"
)

// DataClient computes visualizations on the data service
type DataClient interface {
	ListApps(ctx context.Context) ([]visualization.AppOverview, error)
	Barplot(ctx context.Context, req visualization.Request) (*visualization.BarplotResponse, error)
	Histogram(ctx context.Context, req visualization.Request) (*visualization.HistogramResponse, error)
	Scatterplot(ctx context.Context, req visualization.Request) (*visualization.ScatterplotResponse, error)
}
