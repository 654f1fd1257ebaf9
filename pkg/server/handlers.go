package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/storage"
	"github.com/haivivi/koe/pkg/userdict"
)

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.version)
}

func (s *Server) handleSpeakers(w http.ResponseWriter, _ *http.Request) {
	metas := s.engine.Metas()
	if !json.Valid([]byte(metas)) {
		writeErrorCode(w, http.StatusInternalServerError, "core returned invalid speaker metadata")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(metas))
}

func (s *Server) handleAudioQuery(w http.ResponseWriter, r *http.Request) {
	text, err := requireString(r, "text")
	if err != nil {
		writeError(w, err)
		return
	}
	speaker, err := speakerParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := s.engine.AudioQuery(r.Context(), text, speaker)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleAccentPhrases(w http.ResponseWriter, r *http.Request) {
	text, err := requireString(r, "text")
	if err != nil {
		writeError(w, err)
		return
	}
	speaker, err := speakerParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	isKana, err := queryBool(r, "is_kana")
	if err != nil {
		writeError(w, err)
		return
	}
	var phrases []audioquery.AccentPhrase
	if isKana {
		phrases, err = s.engine.AccentPhrasesFromKana(r.Context(), text, speaker)
	} else {
		phrases, err = s.engine.CreateAccentPhrases(r.Context(), text, speaker)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, phrases)
}

type phraseOp func(ctx context.Context, phrases []audioquery.AccentPhrase, speaker int64) ([]audioquery.AccentPhrase, error)

// handlePhrases serves the routes that rewrite posted accent phrases.
func (s *Server) handlePhrases(w http.ResponseWriter, r *http.Request, op phraseOp) {
	speaker, err := speakerParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	phrases, err := audioquery.DecodeAccentPhrases(body)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := op(r.Context(), phrases, speaker)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMoraData(w http.ResponseWriter, r *http.Request) {
	s.handlePhrases(w, r, s.engine.ReplaceMoraData)
}

func (s *Server) handleMoraLength(w http.ResponseWriter, r *http.Request) {
	s.handlePhrases(w, r, s.engine.ReplacePhonemeLength)
}

func (s *Server) handleMoraPitch(w http.ResponseWriter, r *http.Request) {
	s.handlePhrases(w, r, s.engine.ReplaceMoraPitch)
}

func (s *Server) handleSynthesis(w http.ResponseWriter, r *http.Request) {
	speaker, err := speakerParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	save := r.URL.Query().Get("save")
	if save != "" && s.store == nil {
		writeErrorCode(w, http.StatusBadRequest, "save requires an output store")
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := audioquery.Decode(body)
	if err != nil {
		writeError(w, err)
		return
	}
	wav, err := s.engine.SynthesizeWAV(r.Context(), q, speaker)
	if err != nil {
		writeError(w, err)
		return
	}
	if save != "" {
		if err := storage.WriteFile(r.Context(), s.store, save, wav); err != nil {
			writeError(w, fmt.Errorf("save %s: %w", save, err))
			return
		}
		slog.Info("server: saved synthesis", "path", save, "bytes", len(wav))
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(wav)
}

func (s *Server) handleUserDict(w http.ResponseWriter, r *http.Request) {
	words, err := s.dict.Words(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, words)
}

// wordRequest reads a word from the surface, pronunciation, accent_type,
// word_type and priority query parameters.
func wordRequest(r *http.Request) (userdict.WordRequest, error) {
	var req userdict.WordRequest
	var err error
	if req.Surface, err = requireString(r, "surface"); err != nil {
		return req, err
	}
	if req.Pronunciation, err = requireString(r, "pronunciation"); err != nil {
		return req, err
	}
	accent, _, err := queryInt(r, "accent_type", true)
	if err != nil {
		return req, err
	}
	req.AccentType = int(accent)
	req.WordType = userdict.WordType(r.URL.Query().Get("word_type"))
	priority, ok, err := queryInt(r, "priority", false)
	if err != nil {
		return req, err
	}
	if ok {
		p := int(priority)
		req.Priority = &p
	}
	return req, nil
}

func (s *Server) handleAddWord(w http.ResponseWriter, r *http.Request) {
	req, err := wordRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := s.dict.Add(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) handleRewriteWord(w http.ResponseWriter, r *http.Request) {
	req, err := wordRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.dict.Rewrite(r.Context(), chi.URLParam(r, "word_uuid"), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteWord(w http.ResponseWriter, r *http.Request) {
	if err := s.dict.Delete(r.Context(), chi.URLParam(r, "word_uuid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportDict(w http.ResponseWriter, r *http.Request) {
	override, err := queryBool(r, "override")
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	var words map[string]userdict.Word
	if err := json.Unmarshal(body, &words); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.dict.Import(r.Context(), words, override); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
