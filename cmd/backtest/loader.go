// The CSV loader below lives in cmd/backtest, not in any internal/
// package: data ingestion stays outside the core, which only ever sees
// []data.Record.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/shopspring/decimal"
)

// loadBarsCSV reads a header-first CSV of the form
// ts_event,symbol,venue,open,high,low,close,volume
// and builds one-minute-last bars at the given precision. Quotes and
// trades are intentionally not supported here — wiring a second loader for
// them is a straightforward follow-up, not something this reference CLI
// needs to demonstrate the core.
func loadBarsCSV(path string, pricePrecision, sizePrecision uint8) ([]data.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("loader: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"ts_event", "symbol", "venue", "open", "high", "low", "close", "volume"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("loader: %s: missing column %q", path, want)
		}
	}

	var records []data.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", path, err)
		}

		ts, err := strconv.ParseInt(row[col["ts_event"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: invalid ts_event %q: %w", path, row[col["ts_event"]], err)
		}
		instrumentId := ids.NewInstrumentId(ids.NewSymbol(row[col["symbol"]]), ids.NewVenue(row[col["venue"]]))

		parsePrice := func(key string) (money.Price, error) {
			return money.NewPriceFromString(row[col[key]], pricePrecision)
		}
		open, err := parsePrice("open")
		if err != nil {
			return nil, err
		}
		high, err := parsePrice("high")
		if err != nil {
			return nil, err
		}
		low, err := parsePrice("low")
		if err != nil {
			return nil, err
		}
		closePx, err := parsePrice("close")
		if err != nil {
			return nil, err
		}
		rawVolume, err := decimal.NewFromString(row[col["volume"]])
		if err != nil {
			return nil, fmt.Errorf("loader: %s: invalid volume %q: %w", path, row[col["volume"]], err)
		}
		volDec, err := money.NewQuantityChecked(rawVolume, sizePrecision)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: invalid volume: %w", path, err)
		}

		bt := data.BarType{
			InstrumentId: instrumentId,
			Spec:         data.BarSpec{Step: 1, Aggregation: data.AggregationMinute, PriceType: data.PriceLast},
		}
		records = append(records, data.Bar{
			BarType: bt,
			Open:    open,
			High:    high,
			Low:     low,
			Close:   closePx,
			Volume:  volDec,
			TsEvent: ts,
			TsInit:  ts,
		})
	}
	return records, nil
}
