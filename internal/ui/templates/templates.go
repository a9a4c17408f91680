// Package templates holds the HTML components of the dashboard. The
// components live in the .templ files; run `templ generate` after editing
// them.
package templates

import (
	"fmt"
	"net/url"
	"strconv"

	"campaign-dashboard/internal/models"
)

// Element ids patched over SSE.
const (
	KPIPanelID    = "kpi-panel"
	RecordTableID = "record-table"
)

// dashboardCharts are the canvases the page reserves, in display order.
var dashboardCharts = []string{
	models.ChartMonthConversion, models.ChartWeekdayConversion, models.ChartAgeBucketConversion,
	models.ChartPdaysHistogram, models.ChartPreviousConversion, models.ChartDurationBoxplot,
	models.ChartOutcomeStacked, models.ChartCampaignScatter, models.ChartTargetDistribution,
}

func pageLink(query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return "/sse/table?" + q.Encode()
}

// getAction is the datastar expression that fetches link over SSE.
func getAction(link string) string {
	return "@get('" + link + "')"
}

func pageSummary(page models.RecordPage) string {
	return fmt.Sprintf("Page %d of %d (%d records)", page.Page, max(page.TotalPages, 1), page.TotalRecords)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
