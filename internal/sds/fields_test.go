package sds

import (
	"fmt"
	"reflect"
	"regexp"
	"testing"
)

const sampleSDS = `安全データシート
1. 化学品及び会社情報
製品名：ハイブリッド塗料A
会社名：テスト化学株式会社
2. 危険有害性の要約
GHS分類
引火性液体 区分2
皮膚腐食性/刺激性 区分2
眼に対する重篤な損傷性/眼刺激性 区分2A
特定標的臓器毒性（単回ばく露） 区分3（麻酔作用）
ラベル要素
注意喚起語 危険
・引火性の高い液体及び蒸気
・皮膚刺激
・強い眼刺激
・眠気又はめまいのおそれ
3. 組成及び成分情報
キシレン 10〜20%
エチルベンゼン：5%
トルエン　1-5 %
石油系炭化水素
4. 応急措置
吸入した場合：空気の新鮮な場所に移す。`

func TestBetween(t *testing.T) {
	start := regexp.MustCompile(`(?s)START.*?\n`)
	end := regexp.MustCompile(`\nEND`)

	cases := []struct {
		name string
		text string
		want string
	}{
		{"bounded", "pre\nSTART here\nbody 1\nbody 2\nEND\npost", "body 1\nbody 2"},
		{"no start", "pre\nbody\nEND", ""},
		{"no end", "START\nbody to the end", "body to the end"},
		{"first start wins", "START\na\nEND\nSTART\nb\nEND", "a"},
	}
	for _, c := range cases {
		if got := Between(c.text, start, end); got != c.want {
			t.Fatalf("%s: got %q want %q", c.name, got, c.want)
		}
	}
}

func TestBetweenStartSpansLines(t *testing.T) {
	r := DefaultRules()
	text := "第 3 項\n組成及び成分情報\nキシレン 10%\n第4項 応急措置"
	seg := firstSection(text, r.componentSections)
	if seg != "及び成分情報\nキシレン 10%" {
		t.Fatalf("unexpected segment %q", seg)
	}
}

func TestProductNameLabeled(t *testing.T) {
	r := DefaultRules()
	cases := []struct{ text, want string }{
		{"製品名：ハイブリッド塗料A\n会社名：X", "ハイブリッド塗料A"},
		{"製品名称: シンナー  \n", "シンナー"},
		{"品名 ラッカー\n", "ラッカー"},
		{"Product name: ABC Cleaner", "ABC Cleaner"},
		{"製品名\n  改行後の名前\n次の行", "改行後の名前"},
	}
	for _, c := range cases {
		if got := r.ProductName(c.text, "ignored.pdf"); got != c.want {
			t.Fatalf("%q: got %q want %q", c.text, got, c.want)
		}
	}
}

func TestProductNameFromFilename(t *testing.T) {
	r := DefaultRules()
	cases := []struct{ name, want string }{
		{"uploads/サンプル塗料.PDF", "サンプル塗料"},
		{`C:\sds\thinner.Pdf`, "thinner"},
		{"plain", "plain"},
		{"report.pdf.bak", "report.pdf.bak"},
		{".pdf", "不明製品"},
		{"", "不明製品"},
		{"folder/", "不明製品"},
	}
	for _, c := range cases {
		if got := r.ProductName("no labels here", c.name); got != c.want {
			t.Fatalf("%q: got %q want %q", c.name, got, c.want)
		}
	}
}

func TestComponentsFromSample(t *testing.T) {
	got := DefaultRules().Components(sampleSDS)
	want := []string{"キシレン 10〜20%", "エチルベンゼン 5%", "トルエン 1-5%", "石油系炭化水素"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseComponentsDedupesInOrder(t *testing.T) {
	seg := "トルエン 5%\nキシレン 3%\nトルエン  5%\n\n酸化チタン\n酸化チタン"
	got := DefaultRules().ParseComponents(seg)
	want := []string{"トルエン 5%", "キシレン 3%", "酸化チタン"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseComponentsSkipsUnrelatedLines(t *testing.T) {
	got := DefaultRules().ParseComponents("化学名又は一般名\nCAS番号\n官報公示整理番号")
	if len(got) != 0 {
		t.Fatalf("expected no components, got %q", got)
	}
}

func TestParseComponentsTruncatesAtFifty(t *testing.T) {
	var seg string
	var want []string
	for i := 0; i < 60; i++ {
		name := fmt.Sprintf("sub%c%c", 'a'+i/26, 'a'+i%26)
		seg += name + " 2%\n"
		if i < 50 {
			want = append(want, name+" 2%")
		}
	}
	got := DefaultRules().ParseComponents(seg)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected first 50 in order, got %d entries: %q", len(got), got)
	}
}

func TestGHSFromSample(t *testing.T) {
	got := DefaultRules().GHS(sampleSDS)
	want := []string{
		"引火性液体 区分2",
		"皮膚腐食性/刺激性 区分2",
		"眼に対する重篤な損傷性/眼刺激性 区分2A",
		"特定標的臓器毒性（単回ばく露） 区分3（麻酔作用）",
		"・引火性の高い液体及び蒸気",
		"・皮膚刺激",
		"・強い眼刺激",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestGHSFallsBackToHazardSummary(t *testing.T) {
	text := "2. 危険有害性の要約\n引火性液体　区分　2\n水生環境有害性 短期（急性） 区分3\n4. 応急措置\n"
	got := DefaultRules().GHS(text)
	want := []string{"引火性液体 区分 2", "水生環境有害性 短期（急性） 区分3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestGHSMissingSections(t *testing.T) {
	if got := DefaultRules().GHS("製品名：X\n3. 組成\nトルエン 5%"); len(got) != 0 {
		t.Fatalf("expected no GHS lines, got %q", got)
	}
}

func TestHazardsFromSample(t *testing.T) {
	got := DefaultRules().Hazards(sampleSDS)
	want := []string{
		"皮膚腐食性/刺激性 区分2",
		"眼に対する重篤な損傷性/眼刺激性 区分2A",
		"特定標的臓器毒性（単回ばく露） 区分3（麻酔作用）",
		"注意喚起語 危険",
		"皮膚刺激",
		"強い眼刺激",
		"眠気又はめまいのおそれ",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseHazardsDefaults(t *testing.T) {
	got := DefaultRules().ParseHazards("分類対象外\nその他の情報なし")
	want := []string{
		"引火性がある",
		"皮膚・眼に刺激",
		"蒸気/ミストの吸入で健康障害のおそれ",
		"水生環境へ有害",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}

	// The defaults must not alias the rule table.
	got[0] = "changed"
	if again := DefaultRules().ParseHazards(""); again[0] != "引火性がある" {
		t.Fatalf("defaults were mutated: %q", again)
	}
}

func TestParseHazardsTruncatesAtThirty(t *testing.T) {
	var seg string
	for i := 0; i < 40; i++ {
		seg += fmt.Sprintf("* 有害性 %d\n", i)
	}
	got := DefaultRules().ParseHazards(seg)
	if len(got) != 30 {
		t.Fatalf("expected 30 lines, got %d", len(got))
	}
	if got[0] != "有害性 0" {
		t.Fatalf("bullet not stripped: %q", got[0])
	}
}
