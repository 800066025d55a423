package export

import (
	"github.com/parquet-go/parquet-go"
)

// ParquetSaver writes rows as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []HistoryRow, path string) error {
	return parquet.WriteFile(path, rows)
}

// ReadParquet loads rows written by ParquetSaver.
func ReadParquet(path string) ([]HistoryRow, error) {
	return parquet.ReadFile[HistoryRow](path)
}
