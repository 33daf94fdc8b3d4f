package marketdata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// csvBar is one row of a <TICKER>.csv file.
type csvBar struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// CSVProvider reads daily bars from <dir>/<TICKER>.csv with a
// date,open,high,low,close,volume header. Useful offline and in tests.
type CSVProvider struct {
	dir    string
	limit  int
	logger zerolog.Logger
}

// NewCSVProvider creates a provider over dir.
func NewCSVProvider(dir string, limit int, logger zerolog.Logger) *CSVProvider {
	if limit <= 0 {
		limit = models.MaxHistoryPoints
	}
	return &CSVProvider{
		dir:    dir,
		limit:  limit,
		logger: logger.With().Str("component", "csv_prices").Logger(),
	}
}

func (p *CSVProvider) Name() string { return "csv" }

// Fetch loads and validates the file for ticker.
func (p *CSVProvider) Fetch(ctx context.Context, ticker string) (models.PriceHistory, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fetchFailed(p.Name(), symbol, "cancelled", err)
	}

	path := filepath.Join(p.dir, symbol+".csv")
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(p.Name(), symbol, fmt.Sprintf("no file %s", filepath.Base(path)))
	}
	if err != nil {
		return nil, fetchFailed(p.Name(), symbol, "opening file", err)
	}
	defer f.Close()

	var rows []*csvBar
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fetchFailed(p.Name(), symbol, "parsing csv", err)
	}

	history := make(models.PriceHistory, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(models.DateLayout, strings.TrimSpace(row.Date))
		if err != nil {
			return nil, fetchFailed(p.Name(), symbol, fmt.Sprintf("row %d: bad date %q", i+1, row.Date), nil)
		}
		if row.Open <= 0 || row.High <= 0 || row.Low <= 0 || row.Close <= 0 {
			continue
		}
		history = append(history, models.PricePoint{
			Date:   date,
			Open:   round2(row.Open),
			High:   round2(row.High),
			Low:    round2(row.Low),
			Close:  round2(row.Close),
			Volume: row.Volume,
		})
	}
	if len(history) == 0 {
		return nil, emptySeries(p.Name(), symbol)
	}

	history = finish(history, p.limit)
	p.logger.Debug().Str("ticker", symbol).Int("points", len(history)).Msg("Price history loaded")
	return history, nil
}
