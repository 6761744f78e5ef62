package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/toricodesthings/sds-risk-service/internal/sds"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "リスクアセスメント"

	labelWidth = 22
	valueWidth = 70

	baseRowHeight  = 18.0
	runesPerLine   = 35
	extraPerLine   = 6.0
	maxExtraHeight = 120.0

	paperA4 = 9
)

// XLSX writes a record as a two-column key/value sheet.
type XLSX struct{}

func NewXLSX() *XLSX { return &XLSX{} }

// Write renders rec to w.
func (x *XLSX) Write(w io.Writer, rec sds.Record) error {
	f, err := x.build(rec)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile renders rec into dir under its display name, or under the ASCII
// fallback name when the display name is not a usable file name. It returns
// the path written.
func (x *XLSX) WriteFile(dir string, rec sds.Record) (string, error) {
	name := rec.FilenameXLSX
	if !usableFileName(name) {
		name = rec.FallbackXLSX
	}
	path := filepath.Join(dir, name)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil && name != rec.FallbackXLSX {
		path = filepath.Join(dir, rec.FallbackXLSX)
		out, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := x.Write(out, rec); err != nil {
		out.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func (x *XLSX) build(rec sds.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	fail := func(step string, err error) (*excelize.File, error) {
		f.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fail("rename sheet", err)
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fail("header style", err)
	}
	label, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return fail("label style", err)
	}
	value, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return fail("value style", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &[]any{"項目", "内容"}); err != nil {
		return fail("header row", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "B1", header); err != nil {
		return fail("header style", err)
	}
	if err := f.SetRowHeight(SheetName, 1, baseRowHeight); err != nil {
		return fail("header height", err)
	}

	for i, r := range rec.Rows() {
		row := i + 2
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStr(SheetName, a, r.Label); err != nil {
			return fail("label cell", err)
		}
		if err := f.SetCellStr(SheetName, b, r.Value); err != nil {
			return fail("value cell", err)
		}
		if err := f.SetCellStyle(SheetName, a, a, label); err != nil {
			return fail("label style", err)
		}
		if err := f.SetCellStyle(SheetName, b, b, value); err != nil {
			return fail("value style", err)
		}
		if err := f.SetRowHeight(SheetName, row, RowHeight(r.Value)); err != nil {
			return fail("row height", err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", labelWidth); err != nil {
		return fail("column width", err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", valueWidth); err != nil {
		return fail("column width", err)
	}

	size, orientation, one := paperA4, "portrait", 1
	if err := f.SetPageLayout(SheetName, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &one,
		FitToHeight: &one,
	}); err != nil {
		return fail("page layout", err)
	}
	fit := true
	if err := f.SetSheetProps(SheetName, &excelize.SheetPropsOptions{FitToPage: &fit}); err != nil {
		return fail("sheet props", err)
	}
	return f, nil
}

// RowHeight grows with the value length so wrapped text stays visible.
func RowHeight(value string) float64 {
	extra := float64(utf8.RuneCountInString(value)/runesPerLine) * extraPerLine
	if extra > maxExtraHeight {
		extra = maxExtraHeight
	}
	return baseRowHeight + extra
}

func usableFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\:*?"<>|`+"\x00")
}
