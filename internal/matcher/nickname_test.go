package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "full-width latin", in: "ＫＡＧＵＹＡ", want: "kaguya"},
		{name: "ideographic space", in: "黎　黎", want: "黎黎"},
		{name: "symbols kept", in: " : ) ", want: ":)"},
		{name: "half-width katakana folded", in: "ｶﾔ", want: "カヤ"},
		{name: "invalid utf8", in: "\xff\xfe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Kaguya ❤️", "ＡＢＣ　１２３", "黎黎:)", "  ", ":)", "ｶｸﾞﾔ様", "Vic Ton"}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)

		core := Core(in)
		assert.Equal(t, core, Core(core), in)
	}
}

func TestCore(t *testing.T) {
	assert.Equal(t, "kaguya", Core("Kaguya ❤️"))
	assert.Equal(t, "kaguya", Core("Kaguya :)"))
	assert.Equal(t, "黎黎", Core("黎黎:)"))
	assert.Equal(t, "", Core(":)"))
	assert.Equal(t, "한글abc1", Core("한글-abc_1!"))
}

func TestCore_KeepsKanaMarks(t *testing.T) {
	assert.Equal(t, "ルーシー", Core("ルーシー"))
	assert.Equal(t, "ルーシー", Core("ﾙｰｼｰ"))
	assert.Equal(t, "ラ・ムー", Core("ラ・ムー!"))
}

func TestMatches_LongVowelMarkDistinguishesCustomers(t *testing.T) {
	assert.False(t, Matches("ルーシー", "ルシア"))
	assert.False(t, Matches("ラーメン", "ラメン"))
	assert.True(t, Matches("ルーシー", "ルーシー♡"))
	assert.True(t, Matches("ﾗｰﾒﾝ", "ラーメン屋"))
}

func TestMatches_LatinIsExact(t *testing.T) {
	assert.False(t, Matches("v", "victon"))
	assert.True(t, Matches("V", "v"))
	assert.True(t, Matches("Kaguya :)", "Kaguya ❤️"))
	assert.True(t, Matches("ｋａｇｕｙａ", "Kaguya"))
	assert.False(t, Matches("kaguya", "kaguya2"))
}

func TestMatches_CJKIsSubstring(t *testing.T) {
	assert.True(t, Matches("黎黎", "黎黎:)"))
	assert.True(t, Matches("黎黎", "✨黎黎のお店✨"))
	assert.False(t, Matches("黎黎のお店", "黎黎"))
	assert.False(t, Matches("黎黎", "黎"))
}

func TestMatches_SymbolOnlyQuery(t *testing.T) {
	assert.True(t, Matches(":)", ":)"))
	// whitespace is stripped before comparing, so the spaced form is the same nickname
	assert.True(t, Matches(":)", ": )"))
	assert.False(t, Matches(":)", ":("))
	assert.False(t, Matches(":)", "Kaguya :)"))
}

func TestMatches_BlankQuery(t *testing.T) {
	assert.False(t, Matches("", ""))
	assert.False(t, Matches("   ", "   "))
	assert.False(t, Matches("　", "anything"))
	assert.True(t, IsBlank(" \t　"))
	assert.True(t, New("  ").Empty())
}

func TestMatches_MalformedInput(t *testing.T) {
	assert.False(t, Matches("\xff", "\xff"))
	assert.False(t, Matches("kaguya", "\xffkaguya"))
}

func TestMatcher_ReusedAcrossCandidates(t *testing.T) {
	m := New("Kaguya")
	candidates := []string{"kaguya", "KAGUYA!!", "kaguyaa", "黎黎", ""}

	var got []string
	for _, c := range candidates {
		if m.Match(c) {
			got = append(got, c)
		}
	}

	assert.Equal(t, []string{"kaguya", "KAGUYA!!"}, got)
}
