package ocr

import "testing"

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"form feed", "製品名：テスト\n\f", "製品名：テスト"},
		{"cjk spacing", "製 品 名 ： 塗 料 A", "製品名：塗料 A"},
		{"latin kept", "Product name: ABC Cleaner", "Product name: ABC Cleaner"},
		{"digits kept", "区分 1\nキシレン 10 %", "区分 1\nキシレン 10 %"},
		{"zero width", "引\u200b火性", "引火性"},
		{"trailing and blank lines", "a  \r\n\n\n\n\n\nb\t", "a\n\n\nb"},
	}
	for _, c := range cases {
		if got := cleanText(c.in); got != c.want {
			t.Fatalf("%s: got %q want %q", c.name, got, c.want)
		}
	}
}
