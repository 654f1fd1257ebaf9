package kana

import (
	"strings"

	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/phoneme"
	"github.com/haivivi/koe/pkg/trie"
)

// moraEntry is one row of the katakana mora table. Consonant is empty for
// vowel-only moras.
type moraEntry struct {
	text      string
	consonant string
	vowel     string
}

var moraTable = [...]moraEntry{
	{"ヴォ", "v", "o"}, {"ヴェ", "v", "e"}, {"ヴィ", "v", "i"}, {"ヴァ", "v", "a"}, {"ヴ", "v", "u"},
	{"ン", "", "N"},
	{"ワ", "w", "a"},
	{"ロ", "r", "o"}, {"レ", "r", "e"}, {"ル", "r", "u"},
	{"リョ", "ry", "o"}, {"リュ", "ry", "u"}, {"リャ", "ry", "a"}, {"リェ", "ry", "e"}, {"リ", "r", "i"},
	{"ラ", "r", "a"},
	{"ヨ", "y", "o"}, {"ユ", "y", "u"}, {"ヤ", "y", "a"},
	{"モ", "m", "o"}, {"メ", "m", "e"}, {"ム", "m", "u"},
	{"ミョ", "my", "o"}, {"ミュ", "my", "u"}, {"ミャ", "my", "a"}, {"ミェ", "my", "e"}, {"ミ", "m", "i"},
	{"マ", "m", "a"},
	{"ポ", "p", "o"}, {"ボ", "b", "o"}, {"ホ", "h", "o"},
	{"ペ", "p", "e"}, {"ベ", "b", "e"}, {"ヘ", "h", "e"},
	{"プ", "p", "u"}, {"ブ", "b", "u"},
	{"フォ", "f", "o"}, {"フェ", "f", "e"}, {"フィ", "f", "i"}, {"ファ", "f", "a"}, {"フ", "f", "u"},
	{"ピョ", "py", "o"}, {"ピュ", "py", "u"}, {"ピャ", "py", "a"}, {"ピェ", "py", "e"}, {"ピ", "p", "i"},
	{"ビョ", "by", "o"}, {"ビュ", "by", "u"}, {"ビャ", "by", "a"}, {"ビェ", "by", "e"}, {"ビ", "b", "i"},
	{"ヒョ", "hy", "o"}, {"ヒュ", "hy", "u"}, {"ヒャ", "hy", "a"}, {"ヒェ", "hy", "e"}, {"ヒ", "h", "i"},
	{"パ", "p", "a"}, {"バ", "b", "a"}, {"ハ", "h", "a"},
	{"ノ", "n", "o"}, {"ネ", "n", "e"}, {"ヌ", "n", "u"},
	{"ニョ", "ny", "o"}, {"ニュ", "ny", "u"}, {"ニャ", "ny", "a"}, {"ニェ", "ny", "e"}, {"ニ", "n", "i"},
	{"ナ", "n", "a"},
	{"ドゥ", "d", "u"}, {"ド", "d", "o"}, {"トゥ", "t", "u"}, {"ト", "t", "o"},
	{"デョ", "dy", "o"}, {"デュ", "dy", "u"}, {"デャ", "dy", "a"}, {"ディ", "d", "i"}, {"デ", "d", "e"},
	{"テョ", "ty", "o"}, {"テュ", "ty", "u"}, {"テャ", "ty", "a"}, {"ティ", "t", "i"}, {"テ", "t", "e"},
	{"ツォ", "ts", "o"}, {"ツェ", "ts", "e"}, {"ツィ", "ts", "i"}, {"ツァ", "ts", "a"}, {"ツ", "ts", "u"},
	{"ッ", "", "cl"},
	{"チョ", "ch", "o"}, {"チュ", "ch", "u"}, {"チャ", "ch", "a"}, {"チェ", "ch", "e"}, {"チ", "ch", "i"},
	{"ダ", "d", "a"}, {"タ", "t", "a"},
	{"ゾ", "z", "o"}, {"ソ", "s", "o"}, {"ゼ", "z", "e"}, {"セ", "s", "e"},
	{"ズィ", "z", "i"}, {"ズ", "z", "u"}, {"スィ", "s", "i"}, {"ス", "s", "u"},
	{"ジョ", "j", "o"}, {"ジュ", "j", "u"}, {"ジャ", "j", "a"}, {"ジェ", "j", "e"}, {"ジ", "j", "i"},
	{"ショ", "sh", "o"}, {"シュ", "sh", "u"}, {"シャ", "sh", "a"}, {"シェ", "sh", "e"}, {"シ", "sh", "i"},
	{"ザ", "z", "a"}, {"サ", "s", "a"},
	{"ゴ", "g", "o"}, {"コ", "k", "o"}, {"ゲ", "g", "e"}, {"ケ", "k", "e"},
	{"グヮ", "gw", "a"}, {"グ", "g", "u"}, {"クヮ", "kw", "a"}, {"ク", "k", "u"},
	{"ギョ", "gy", "o"}, {"ギュ", "gy", "u"}, {"ギャ", "gy", "a"}, {"ギェ", "gy", "e"}, {"ギ", "g", "i"},
	{"キョ", "ky", "o"}, {"キュ", "ky", "u"}, {"キャ", "ky", "a"}, {"キェ", "ky", "e"}, {"キ", "k", "i"},
	{"ガ", "g", "a"}, {"カ", "k", "a"},
	{"オ", "", "o"}, {"エ", "", "e"},
	{"ウォ", "w", "o"}, {"ウェ", "w", "e"}, {"ウィ", "w", "i"}, {"ウ", "", "u"},
	{"イェ", "y", "e"}, {"イ", "", "i"},
	{"ア", "", "a"},
}

// symbols maps mora text (and "_"+text for unvoiced variants) to a parsed
// mora; reverse maps consonant+vowel back to text.
var symbols, reverse = buildTables()

func buildTables() (*trie.Trie[audioquery.Mora], map[string]string) {
	tr := trie.New[audioquery.Mora]()
	rev := make(map[string]string, len(moraTable))
	for _, e := range moraTable {
		rev[e.consonant+e.vowel] = e.text
		_ = tr.SetValue(e.text, newMora(e.text, e.consonant, e.vowel))
		switch e.vowel {
		case "a", "i", "u", "e", "o":
			_ = tr.SetValue(UnvoiceSymbol+e.text, newMora(e.text, e.consonant, strings.ToUpper(e.vowel)))
		}
	}
	return tr, rev
}

func newMora(text, consonant, vowel string) audioquery.Mora {
	m := audioquery.Mora{Text: text, Vowel: vowel}
	if consonant != "" {
		m.Consonant = audioquery.String(consonant)
		m.ConsonantLength = audioquery.Float(0)
	}
	return m
}

// MoraText returns the katakana text of a consonant+vowel pair. An uppercase
// (unvoiced) trailing vowel is read as its voiced form. Pairs missing from
// the table are returned as the concatenated phonemes.
func MoraText(consonant, vowel string) string {
	key := consonant + vowel
	if n := len(key); n > 0 && phoneme.IsUnvoicedVowel(key[n-1:]) {
		key = key[:n-1] + strings.ToLower(key[n-1:])
	}
	if text, ok := reverse[key]; ok {
		return text
	}
	return key
}

// lookupMora returns the mora for a single mora text, including "_"-prefixed
// unvoiced variants.
func lookupMora(text string) (audioquery.Mora, bool) {
	m, ok := symbols.GetValue(text)
	if !ok {
		return audioquery.Mora{}, false
	}
	return cloneMora(m), true
}

func cloneMora(m audioquery.Mora) audioquery.Mora {
	if m.Consonant != nil {
		m.Consonant = audioquery.String(*m.Consonant)
		m.ConsonantLength = audioquery.Float(0)
	}
	return m
}
