package api

import (
	"context"
	"net/http"

	"edaworkspace/domain/visualization"
	"edaworkspace/ports"
)

const dataService = "data"

// DataClient talks to the data service's visualization apps
type DataClient struct {
	t *transport
}

var _ ports.DataClient = (*DataClient)(nil)

// NewDataClient creates a client rooted at the data service base URL
func NewDataClient(baseURL string, opts Options) *DataClient {
	return &DataClient{t: newTransport(dataService, baseURL, opts)}
}

// ListApps returns the computations and charts the data service offers
func (c *DataClient) ListApps(ctx context.Context) ([]visualization.AppOverview, error) {
	var resp struct {
		Apps []visualization.AppOverview `json:"apps"`
	}
	if err := c.t.getJSON(ctx, "/apps", &resp, "apps"); err != nil {
		return nil, err
	}
	return resp.Apps, nil
}

func (c *DataClient) Barplot(ctx context.Context, req visualization.Request) (*visualization.BarplotResponse, error) {
	var resp visualization.BarplotResponse
	if err := c.visualize(ctx, visualization.TypeBarplot, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *DataClient) Histogram(ctx context.Context, req visualization.Request) (*visualization.HistogramResponse, error) {
	var resp visualization.HistogramResponse
	if err := c.visualize(ctx, visualization.TypeHistogram, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *DataClient) Scatterplot(ctx context.Context, req visualization.Request) (*visualization.ScatterplotResponse, error) {
	var resp visualization.ScatterplotResponse
	if err := c.visualize(ctx, visualization.TypeScatterplot, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// visualize posts to /apps/{app}/visualizations/{type}; the payload sits under a key named
// after the chart type
func (c *DataClient) visualize(ctx context.Context, vt visualization.Type, req visualization.Request, out any) error {
	req.Filters = req.Filters.OrEmpty()
	path := "/apps/" + escape(vt.App()) + "/visualizations/" + escape(string(vt))

	body, err := c.t.send(ctx, http.MethodPost, path, req)
	if err != nil {
		return err
	}
	key := string(vt)
	if err := c.t.decode(body, nil, key+".data", key+".config"); err != nil {
		return err
	}
	return c.t.decodeAt(body, key, out)
}
