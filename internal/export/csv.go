package export

import (
	"encoding/csv"
	"os"
	"strconv"
)

// CSVSaver writes rows with a header line. Missing prices are empty cells.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []HistoryRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ean", "chain", "date", "min_price", "max_price", "avg_price"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.EAN, r.Chain, r.Date, formatPrice(r.MinPrice), formatPrice(r.MaxPrice), formatPrice(r.AvgPrice)}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}
