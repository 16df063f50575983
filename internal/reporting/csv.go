package reporting

import (
	"bytes"
	"encoding/csv"
	"sort"
)

// RenderTimeseriesCSV renders the timeseries rows as CSV. Auxiliary columns
// follow the liquidity columns in name order; undefined values are empty.
func RenderTimeseriesCSV(rows []TimeseriesRow) (string, error) {
	aux := auxColumns(rows)

	header := []string{"date", "spx", "balance_sheet", "tga", "rrp", "reserves", "net_liquidity"}
	header = append(header, aux...)
	header = append(header, "trend", "ar1", "variance")

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range rows {
		record := []string{
			r.Date,
			formatNumber(&r.SPX),
			formatNumber(&r.BalanceSheet),
			formatNumber(&r.TGA),
			formatNumber(&r.RRP),
			formatNumber(r.Reserves),
			formatNumber(&r.NetLiquidity),
		}
		for _, col := range aux {
			record = append(record, formatNumber(r.Aux[col]))
		}
		record = append(record, formatNumber(r.Trend), formatNumber(r.AR1), formatNumber(r.Variance))
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sortedKeys(m map[string]*float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
