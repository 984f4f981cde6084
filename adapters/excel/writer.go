package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
)

// Workbook is the content of an exported dashboard. Nil parts are skipped.
type Workbook struct {
	Summary   [][2]string
	Response  *stats.FrequencyTable
	Frequency *stats.FrequencyTable
	CrossTab  *stats.CrossTabulation
	Histogram *stats.Histogram
	Fence     *stats.Fence
	Preview   *dataset.Dataset
}

// WriteWorkbook renders wb as an XLSX document into w.
func WriteWorkbook(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	sw := &sheetWriter{f: f, header: bold}

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	rows := [][]interface{}{{"Metric", "Value"}}
	for _, kv := range wb.Summary {
		rows = append(rows, []interface{}{kv[0], kv[1]})
	}
	if wb.Fence != nil {
		rows = append(rows,
			[]interface{}{"Fence column", wb.Fence.Column},
			[]interface{}{"Q1", wb.Fence.Q1},
			[]interface{}{"Q3", wb.Fence.Q3},
			[]interface{}{"IQR", wb.Fence.IQR},
			[]interface{}{"Lower fence", wb.Fence.Lower},
			[]interface{}{"Upper fence", wb.Fence.Upper},
		)
	}
	if err := sw.write("Summary", rows); err != nil {
		return err
	}

	if wb.Response != nil {
		if err := sw.writeFrequency("Response", wb.Response); err != nil {
			return err
		}
	}
	if wb.Frequency != nil {
		if err := sw.writeFrequency("Frequency", wb.Frequency); err != nil {
			return err
		}
	}

	if wb.CrossTab != nil {
		header := []interface{}{wb.CrossTab.Column}
		for _, r := range wb.CrossTab.Responses {
			header = append(header, r)
		}
		rows := [][]interface{}{header}
		for i, v := range wb.CrossTab.Values {
			row := []interface{}{v}
			for _, c := range wb.CrossTab.Counts[i] {
				row = append(row, c)
			}
			rows = append(rows, row)
		}
		if err := sw.addSheet("CrossTab", rows); err != nil {
			return err
		}
	}

	if wb.Histogram != nil {
		rows := [][]interface{}{{"Start", "End", "Count"}}
		for _, b := range wb.Histogram.Bins {
			rows = append(rows, []interface{}{b.Start, b.End, b.Count})
		}
		if err := sw.addSheet("Histogram", rows); err != nil {
			return err
		}
	}

	if wb.Preview != nil {
		header := make([]interface{}, 0, len(wb.Preview.Columns()))
		for _, name := range wb.Preview.ColumnNames() {
			header = append(header, name)
		}
		rows := [][]interface{}{header}
		for _, rec := range wb.Preview.Records() {
			row := make([]interface{}, len(rec))
			for i, cell := range rec {
				row[i] = cell
			}
			rows = append(rows, row)
		}
		if err := sw.addSheet("Preview", rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type sheetWriter struct {
	f      *excelize.File
	header int
}

func (s *sheetWriter) writeFrequency(sheet string, t *stats.FrequencyTable) error {
	rows := [][]interface{}{{t.Column, "Count", "Percentage"}}
	for _, e := range t.Entries {
		rows = append(rows, []interface{}{e.Value, e.Count, e.DisplayPercent()})
	}
	return s.addSheet(sheet, rows)
}

func (s *sheetWriter) addSheet(sheet string, rows [][]interface{}) error {
	if _, err := s.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return s.write(sheet, rows)
}

func (s *sheetWriter) write(sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := s.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := s.f.SetCellStyle(sheet, "A1", last, s.header); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	return nil
}
