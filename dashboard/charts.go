package dashboard

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
	"github.com/PavanSai0211/Finance-Reporting-Project/pipeline"
)

var ohlcColumns = []string{"Date", "Open", "High", "Low", "Close"}

func (s *Server) ohlcChart(w http.ResponseWriter, r *http.Request) {
	query := fmt.Sprintf(`SELECT "Date", "Open", "High", "Low", "Close" FROM %s ORDER BY "Date";`, s.Warehouse.QualifiedName(factTable))
	table, err := s.Warehouse.QueryTable(query)
	if err != nil {
		s.renderError(w, r, fmt.Errorf("error reading %s: %w", factTable, err))
		return
	}

	kline, err := ohlcKline(table)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := kline.Render(w); err != nil {
		s.Logger.Error("Failed to render OHLC chart", "error", err)
	}
}

// ohlcKline draws a candlestick per row with the close price as a line on top.
func ohlcKline(table *frame.Table) (*charts.Kline, error) {
	if missing := table.MissingColumns(ohlcColumns); len(missing) > 0 {
		return nil, fmt.Errorf("fact table is missing columns %v", missing)
	}
	idx := make([]int, len(ohlcColumns))
	for i, c := range ohlcColumns {
		idx[i] = table.Index(c)
	}

	dates := make([]string, 0, table.Len())
	candles := make([]opts.KlineData, 0, table.Len())
	closes := make([]opts.LineData, 0, table.Len())
	for _, row := range table.Rows {
		open, high, low, closePrice := row[idx[1]].Num, row[idx[2]].Num, row[idx[3]].Num, row[idx[4]].Num
		dates = append(dates, row[idx[0]].String())
		// echarts candlestick order: open, close, lowest, highest
		candles = append(candles, opts.KlineData{Value: [4]float64{open, closePrice, low, high}})
		closes = append(closes, opts.LineData{Value: closePrice})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "OHLC Stock Price Movement"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	kline.SetXAxis(dates).AddSeries("OHLC", candles)

	line := charts.NewLine()
	line.SetXAxis(dates).AddSeries("Close", closes)
	kline.Overlap(line)

	return kline, nil
}

func (s *Server) kpiChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	table, err := s.readTable(pipeline.KPITables, name, 0)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	bar, err := kpiBar(name, table)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		s.Logger.Error("Failed to render KPI chart", "table", name, "error", err)
	}
}

// kpiBar plots every numeric column against the year, one series per column.
// Rows of kpi_yearly_report are labelled with year and symbol.
func kpiBar(name string, table *frame.Table) (*charts.Bar, error) {
	yearIdx := table.Index("year")
	if yearIdx < 0 {
		return nil, fmt.Errorf("%s has no year column", name)
	}
	symbolIdx := table.Index("symbol")

	labels := make([]string, table.Len())
	for i, row := range table.Rows {
		labels[i] = row[yearIdx].String()
		if symbolIdx >= 0 {
			labels[i] += " " + row[symbolIdx].String()
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: name}))
	bar.SetXAxis(labels)

	series := 0
	for j, col := range table.Columns {
		if j == yearIdx || j == symbolIdx || !table.IsNumeric(col) {
			continue
		}
		data := make([]opts.BarData, table.Len())
		for i, row := range table.Rows {
			data[i] = opts.BarData{Value: row[j].Num}
		}
		bar.AddSeries(col, data)
		series++
	}
	if series == 0 {
		return nil, fmt.Errorf("%s has no numeric columns to plot", name)
	}
	return bar, nil
}
