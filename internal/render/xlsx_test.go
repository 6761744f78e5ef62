package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toricodesthings/sds-risk-service/internal/sds"
	"github.com/xuri/excelize/v2"
)

func testRecord(name string) sds.Record {
	return sds.NewAssembler(nil, sds.Profile{Preparer: "山田太郎", Company: "テスト塗装"}).Assemble(sds.Fields{
		ProductName: name,
		Components:  []string{"トルエン 5%", "キシレン 3%"},
		GHS:         []string{"引火性液体 区分2"},
		Risk:        sds.RiskHigh,
	})
}

func TestWriteLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := NewXLSX().Write(&buf, testRecord("塗料A")); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %q", sheets)
	}

	cells := map[string]string{
		"A1":  "項目",
		"B1":  "内容",
		"A2":  "作業場所",
		"B2":  "",
		"A4":  "使用製品名",
		"B4":  "塗料A",
		"B5":  "トルエン 5%\nキシレン 3%",
		"B6":  "有",
		"A8":  "リスクレベルの判定",
		"B8":  "高",
		"A12": "所属会社",
		"B12": "テスト塗装",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(SheetName, cell)
		if err != nil {
			t.Fatalf("%s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("%s = %q want %q", cell, got, want)
		}
	}

	if w, _ := f.GetColWidth(SheetName, "A"); w != labelWidth {
		t.Fatalf("column A width = %v", w)
	}
	if w, _ := f.GetColWidth(SheetName, "B"); w != valueWidth {
		t.Fatalf("column B width = %v", w)
	}
}

func TestRowHeight(t *testing.T) {
	cases := []struct {
		runes int
		want  float64
	}{
		{0, 18},
		{34, 18},
		{35, 24},
		{70, 30},
		{700, 138},
		{10000, 138},
	}
	for _, c := range cases {
		if got := RowHeight(strings.Repeat("あ", c.runes)); got != c.want {
			t.Fatalf("%d runes: got %v want %v", c.runes, got, c.want)
		}
	}
}

func TestWriteFileUsesDisplayName(t *testing.T) {
	dir := t.TempDir()
	path, err := NewXLSX().WriteFile(dir, testRecord("塗料A"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "塗料A_リスクアセスメント.xlsx" {
		t.Fatalf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestWriteFileFallsBackForUnsafeNames(t *testing.T) {
	dir := t.TempDir()
	path, err := NewXLSX().WriteFile(dir, testRecord("Paint A/B"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "paint-a-b_risk_assessment.xlsx" {
		t.Fatalf("path = %q", path)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("written outside dir: %q", path)
	}
}
