package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/haivivi/koe/pkg/acoustic"
	"github.com/haivivi/koe/pkg/audio/pcm"
	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/fullcontext"
	"github.com/haivivi/koe/pkg/kana"
	"github.com/haivivi/koe/pkg/storage"
	"github.com/haivivi/koe/pkg/synthesis"
	"github.com/haivivi/koe/pkg/userdict"
)

const helloText = "こんにちは"

// helloLabels renders labels for a single phrase コンニチワ with the accent
// on the last mora.
func helloLabels() []string {
	var out []string
	n := 0
	add := func(ph string, kv ...string) {
		l := &fullcontext.Label{Contexts: make(map[string]string, len(fullcontext.Keys))}
		for _, k := range fullcontext.Keys {
			l.Contexts[k] = "xx"
		}
		l.Contexts["p1"] = strconv.Itoa(n)
		l.Contexts["p3"] = ph
		for i := 0; i+1 < len(kv); i += 2 {
			l.Contexts[kv[i]] = kv[i+1]
		}
		n++
		out = append(out, l.Format())
	}
	add("sil")
	moras := [][2]string{{"k", "o"}, {"", "N"}, {"n", "i"}, {"ch", "i"}, {"w", "a"}}
	for i, m := range moras {
		kv := []string{"a2", strconv.Itoa(i + 1), "f1", "5", "f2", "5", "f3", "0", "f5", "1", "i3", "1"}
		if m[0] != "" {
			add(m[0], kv...)
		}
		add(m[1], kv...)
	}
	add("sil")
	return out
}

type testEnv struct {
	srv   *httptest.Server
	dict  *userdict.Dict
	store *storage.Local
}

func newTestEnv(t *testing.T, opts ...synthesis.Option) *testEnv {
	t.Helper()
	opts = append([]synthesis.Option{
		synthesis.WithAnalyzer(fullcontext.StaticAnalyzer{helloText: helloLabels()}),
		synthesis.WithRand(synthesis.FixedRand(0.5)),
	}, opts...)
	engine, err := synthesis.New(acoustic.NewTone(), opts...)
	if err != nil {
		t.Fatalf("synthesis.New: %v", err)
	}
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	n := 0
	dict := userdict.New(userdict.NewMemory(), userdict.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
	}))
	s := New(engine, WithDict(dict), WithStore(store), WithVersion("1.2.3"))
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, dict: dict, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, params url.Values, body []byte) (*http.Response, []byte) {
	t.Helper()
	u := e.srv.URL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d; body = %s", resp.StatusCode, want, body)
	}
}

func TestVersionAndSpeakers(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, http.MethodGet, "/version", nil, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if strings.TrimSpace(string(body)) != `"1.2.3"` {
		t.Errorf("version = %s", body)
	}

	resp, body = e.do(t, http.MethodGet, "/speakers", nil, nil)
	expectStatus(t, resp, body, http.StatusOK)
	var metas []map[string]any
	if err := json.Unmarshal(body, &metas); err != nil {
		t.Fatalf("speakers: %v", err)
	}
	if len(metas) != 1 || metas[0]["name"] != "tone" {
		t.Errorf("speakers = %s", body)
	}
}

func TestAudioQuery(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, http.MethodPost, "/audio_query", url.Values{"text": {helloText}, "speaker": {"0"}}, nil)
	expectStatus(t, resp, body, http.StatusOK)

	q, err := audioquery.Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if q.Kana != "コンニチワ'" {
		t.Errorf("kana = %q", q.Kana)
	}
	moras := q.AccentPhrases[0].Moras
	if len(moras) != 5 || moras[0].Text != "コ" || moras[0].Pitch <= 0 {
		t.Errorf("moras = %+v", moras)
	}
	if q.SpeedScale != 1 || q.OutputSamplingRate != 24000 {
		t.Errorf("query scales = %+v", q)
	}
}

func TestAccentPhrases(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, http.MethodPost, "/accent_phrases", url.Values{"text": {"ア'イ/ウ'"}, "speaker": {"1"}, "is_kana": {"true"}}, nil)
	expectStatus(t, resp, body, http.StatusOK)
	phrases, err := audioquery.DecodeAccentPhrases(body)
	if err != nil {
		t.Fatalf("DecodeAccentPhrases: %v", err)
	}
	if len(phrases) != 2 || phrases[0].Accent != 1 || kana.Create(phrases) != "ア'イ/ウ'" {
		t.Errorf("phrases = %+v", phrases)
	}

	resp, body = e.do(t, http.MethodPost, "/accent_phrases", url.Values{"text": {helloText}, "speaker": {"0"}}, nil)
	expectStatus(t, resp, body, http.StatusOK)
}

func TestMoraRoutes(t *testing.T) {
	e := newTestEnv(t)
	phrases, err := kana.Parse("コンニチワ'")
	if err != nil {
		t.Fatalf("kana.Parse: %v", err)
	}
	body, _ := json.Marshal(phrases)

	for _, path := range []string{"/mora_data", "/mora_length", "/mora_pitch"} {
		t.Run(path, func(t *testing.T) {
			resp, out := e.do(t, http.MethodPost, path, url.Values{"speaker": {"0"}}, body)
			expectStatus(t, resp, out, http.StatusOK)
			got, err := audioquery.DecodeAccentPhrases(out)
			if err != nil {
				t.Fatalf("DecodeAccentPhrases: %v", err)
			}
			m := got[0].Moras[0]
			switch path {
			case "/mora_length":
				if m.VowelLength == 0 || m.Pitch != 0 {
					t.Errorf("mora = %+v", m)
				}
			case "/mora_pitch":
				if m.Pitch == 0 || m.VowelLength != 0 {
					t.Errorf("mora = %+v", m)
				}
			default:
				if m.Pitch == 0 || m.VowelLength == 0 {
					t.Errorf("mora = %+v", m)
				}
			}
		})
	}
}

func TestSynthesis(t *testing.T) {
	e := newTestEnv(t)
	resp, qbody := e.do(t, http.MethodPost, "/audio_query", url.Values{"text": {helloText}, "speaker": {"0"}}, nil)
	expectStatus(t, resp, qbody, http.StatusOK)

	resp, wav := e.do(t, http.MethodPost, "/synthesis", url.Values{"speaker": {"0"}, "save": {"out/hello.wav"}}, qbody)
	expectStatus(t, resp, wav, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q", ct)
	}
	f, size, err := pcm.ParseWAVHeader(wav)
	if err != nil {
		t.Fatalf("ParseWAVHeader: %v", err)
	}
	if f.SampleRate() != 24000 || f.Channels() != 1 || int(size) != len(wav)-44 || size == 0 {
		t.Errorf("wav = %v, %d bytes of %d", f, size, len(wav))
	}

	saved, err := storage.ReadFile(context.Background(), e.store, "out/hello.wav")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(saved, wav) {
		t.Error("saved artifact differs from response")
	}
}

func TestErrors(t *testing.T) {
	e := newTestEnv(t)
	phrases, _ := json.Marshal([]audioquery.AccentPhrase{{Moras: []audioquery.Mora{{Text: "ア", Vowel: "a"}}, Accent: 1}})
	query, _ := json.Marshal(audioquery.New([]audioquery.AccentPhrase{{
		Moras:  []audioquery.Mora{{Text: "ア", Vowel: "a", VowelLength: 0.1, Pitch: 5}},
		Accent: 1,
	}}, "ア'"))

	tests := []struct {
		name   string
		method string
		path   string
		params url.Values
		body   []byte
		want   int
	}{
		{"missing text", http.MethodPost, "/audio_query", url.Values{"speaker": {"0"}}, nil, 400},
		{"bad speaker", http.MethodPost, "/audio_query", url.Values{"text": {"x"}, "speaker": {"one"}}, nil, 400},
		{"unknown text", http.MethodPost, "/audio_query", url.Values{"text": {"x"}, "speaker": {"0"}}, nil, 400},
		{"bad kana", http.MethodPost, "/accent_phrases", url.Values{"text": {"アイ"}, "speaker": {"0"}, "is_kana": {"1"}}, nil, 400},
		{"bad is_kana", http.MethodPost, "/accent_phrases", url.Values{"text": {"ア'"}, "speaker": {"0"}, "is_kana": {"maybe"}}, nil, 400},
		{"bad shape", http.MethodPost, "/mora_data", url.Values{"speaker": {"0"}}, []byte(`[{"moras": 1}]`), 400},
		{"bad query", http.MethodPost, "/synthesis", url.Values{"speaker": {"0"}}, []byte(`{"accent_phrases": []}`), 400},
		{"core failure", http.MethodPost, "/mora_data", url.Values{"speaker": {"7"}}, phrases, 500},
		{"bad save path", http.MethodPost, "/synthesis", url.Values{"speaker": {"0"}, "save": {"../x.wav"}}, query, 400},
		{"not found", http.MethodGet, "/nope", nil, nil, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := e.do(t, tt.method, tt.path, tt.params, tt.body)
			expectStatus(t, resp, out, tt.want)
			if tt.want == 404 {
				return
			}
			var er ErrorResponse
			if err := json.Unmarshal(out, &er); err != nil || er.Code != tt.want || er.Message == "" {
				t.Errorf("error body = %s", out)
			}
		})
	}
}

func TestUserDictRoutes(t *testing.T) {
	e := newTestEnv(t)

	word := url.Values{"surface": {"koe"}, "pronunciation": {"コエ"}, "accent_type": {"1"}}
	resp, body := e.do(t, http.MethodPost, "/user_dict_word", word, nil)
	expectStatus(t, resp, body, http.StatusOK)
	var id string
	if err := json.Unmarshal(body, &id); err != nil {
		t.Fatalf("id: %v", err)
	}

	resp, body = e.do(t, http.MethodGet, "/user_dict", nil, nil)
	expectStatus(t, resp, body, http.StatusOK)
	var words map[string]userdict.Word
	if err := json.Unmarshal(body, &words); err != nil {
		t.Fatalf("user_dict: %v", err)
	}
	if words[id].Surface != "ｋｏｅ" || words[id].Priority != userdict.DefaultPriority {
		t.Errorf("words = %+v", words)
	}

	rewrite := url.Values{"surface": {"koe"}, "pronunciation": {"コエ"}, "accent_type": {"0"}, "word_type": {"COMMON_NOUN"}, "priority": {"9"}}
	resp, body = e.do(t, http.MethodPut, "/user_dict_word/"+id, rewrite, nil)
	expectStatus(t, resp, body, http.StatusNoContent)
	if w, _ := e.dict.Get(context.Background(), id); w.AccentType != 0 || w.Priority != 9 {
		t.Errorf("rewritten word = %+v", w)
	}

	missing := "00000000-0000-4000-8000-999999999999"
	resp, body = e.do(t, http.MethodPut, "/user_dict_word/"+missing, rewrite, nil)
	expectStatus(t, resp, body, http.StatusNotFound)

	bad := url.Values{"surface": {"koe"}, "pronunciation": {"こえ"}, "accent_type": {"1"}}
	resp, body = e.do(t, http.MethodPost, "/user_dict_word", bad, nil)
	expectStatus(t, resp, body, http.StatusBadRequest)

	other, _ := userdict.NewWord(userdict.WordRequest{Surface: "oto", Pronunciation: "オト", AccentType: 2})
	imported, _ := json.Marshal(map[string]userdict.Word{"11111111-1111-4111-8111-111111111111": other})
	resp, body = e.do(t, http.MethodPost, "/import_user_dict", url.Values{"override": {"true"}}, imported)
	expectStatus(t, resp, body, http.StatusNoContent)

	resp, body = e.do(t, http.MethodDelete, "/user_dict_word/"+id, nil, nil)
	expectStatus(t, resp, body, http.StatusNoContent)
	resp, body = e.do(t, http.MethodDelete, "/user_dict_word/"+id, nil, nil)
	expectStatus(t, resp, body, http.StatusNotFound)

	all, err := e.dict.Words(context.Background())
	if err != nil || len(all) != 1 {
		t.Errorf("words after delete = %+v, %v", all, err)
	}
}

func TestUserDictDisabled(t *testing.T) {
	engine, err := synthesis.New(acoustic.NewTone())
	if err != nil {
		t.Fatalf("synthesis.New: %v", err)
	}
	srv := httptest.NewServer(New(engine))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/user_dict")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/audio_query?text=x&speaker=0", "", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("audio_query without analyzer status = %d", resp.StatusCode)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", audioquery.ErrInvalidQueryShape), 400},
		{&kana.ParseError{Err: kana.ErrUnknownMoraText, Phrase: 1, Text: "x"}, 400},
		{fullcontext.ErrTooLongMora, 400},
		{userdict.ErrWordNotFound, 404},
		{&acoustic.CoreError{Op: "decode", Message: "gpu lost"}, 500},
		{errors.New("analyzer crashed"), 500},
		{synthesis.ErrNoAnalyzer, 501},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServe_Shutdown(t *testing.T) {
	engine, err := synthesis.New(acoustic.NewTone())
	if err != nil {
		t.Fatalf("synthesis.New: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(engine).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/version")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
