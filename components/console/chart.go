package console

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

// AccessChart renders the access distribution bar chart as standalone HTML.
type AccessChart struct {
	cache      RenderCache
	theme      string
	assetsHost string
	loc        *Localizer
}

// AccessChartOption customizes an AccessChart.
type AccessChartOption func(*AccessChart)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) AccessChartOption {
	return func(c *AccessChart) {
		c.cache = cache
	}
}

// WithChartTheme sets the ECharts theme (defaults to Westeros).
func WithChartTheme(theme string) AccessChartOption {
	return func(c *AccessChart) {
		if theme != "" {
			c.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) AccessChartOption {
	return func(c *AccessChart) {
		c.assetsHost = host
	}
}

// WithChartLocalizer sets the labels' language.
func WithChartLocalizer(loc *Localizer) AccessChartOption {
	return func(c *AccessChart) {
		c.loc = loc
	}
}

// NewAccessChart builds a chart renderer.
func NewAccessChart(options ...AccessChartOption) *AccessChart {
	c := &AccessChart{theme: types.ThemeWesteros}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ChartPoint is one labelled bar.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Points returns the bars for a snapshot in display order.
func (c *AccessChart) Points(analytics Analytics) []ChartPoint {
	counts := analytics.Users
	return []ChartPoint{
		{Label: c.loc.T(KeyStatsActive, nil), Value: float64(counts.Active)},
		{Label: c.loc.T(KeyStatsBlocked, nil), Value: float64(counts.Blocked)},
		{Label: c.loc.T(KeyStatsPending, nil), Value: float64(counts.Pending)},
		{Label: c.loc.T(KeyStatsTotal, nil), Value: float64(counts.Total)},
	}
}

// Render returns the chart HTML, served from the cache when the same
// analytics were rendered recently.
func (c *AccessChart) Render(analytics Analytics) (string, error) {
	points := c.Points(analytics)
	render := func() (string, error) {
		return c.render(points)
	}
	if c.cache == nil {
		return render()
	}
	key := fmt.Sprintf("access:%s:%s:%s", c.loc.Locale(), c.theme, contentHash(points))
	return c.cache.GetOrRender(key, render)
}

func (c *AccessChart) render(points []ChartPoint) (string, error) {
	labels := make([]string, len(points))
	data := make([]opts.BarData, len(points))
	for i, p := range points {
		labels[i] = p.Label
		data[i] = opts.BarData{Name: p.Label, Value: p.Value}
	}
	initOpts := opts.Initialization{
		Theme:  c.theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if c.assetsHost != "" {
		initOpts.AssetsHost = c.assetsHost
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    c.loc.T(KeyChartTitle, nil),
			Subtitle: c.loc.T(KeyChartSubtitle, nil),
		}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries(c.loc.T(KeyChartSeries, nil), data)
	return renderChart(bar)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
