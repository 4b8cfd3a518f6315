package cmd

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gorilla/mux"
	"github.com/jsphweid/chordlab/chord"
	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/model"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $CHORDLAB_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the chord theory API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr == "" {
			serveAddr = constants.GetListenAddr()
		}
		slog.Info("listening", "addr", serveAddr)
		return http.ListenAndServe(serveAddr, NewRouter())
	},
}

// NewRouter returns the theory API with permissive CORS.
func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/match", HandleMatch).Methods("POST")
	router.HandleFunc("/detect", HandleDetect).Methods("POST")
	router.HandleFunc("/simplify", HandleSimplify).Methods("POST")
	router.HandleFunc("/chords", HandleChords).Methods("GET")
	router.HandleFunc("/chords/{symbol}", HandleChord).Methods("GET")
	router.HandleFunc("/scales/{root}/{scale}", HandleScale).Methods("GET")
	router.HandleFunc("/levels", HandleLevels).Methods("GET")
	return cors.AllowAll().Handler(router)
}

func HandleMatch(w http.ResponseWriter, r *http.Request) {
	var input model.MatchRequestBody
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chord.MatchChord(input.Notes, input.Target))
}

func HandleDetect(w http.ResponseWriter, r *http.Request) {
	input := model.DetectRequestBody{MaxDifficulty: cfg.Difficulty}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DetectResponse{
		Detection: chord.DetectChord(input.Notes, input.MaxDifficulty),
	})
}

func HandleSimplify(w http.ResponseWriter, r *http.Request) {
	input := model.SimplifyRequestBody{MaxDifficulty: cfg.Difficulty}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}
	if input.Symbol == "" {
		writeError(w, fault.New("empty symbol",
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("empty symbol", "symbol is required")))
		return
	}
	writeJSON(w, http.StatusOK, chord.ChordForDifficulty(input.Symbol, input.MaxDifficulty))
}

// HandleChords lists the catalogue. ?level=N narrows it to one level and
// ?maxDifficulty=N to everything at or below N.
func HandleChords(w http.ResponseWriter, r *http.Request) {
	lib := chord.Default()
	q := r.URL.Query()

	res := lib.All()
	switch {
	case q.Has("level"):
		n, err := queryInt(q.Get("level"))
		if err != nil {
			writeError(w, err)
			return
		}
		res = lib.AtLevel(n)
	case q.Has("maxDifficulty"):
		n, err := queryInt(q.Get("maxDifficulty"))
		if err != nil {
			writeError(w, err)
			return
		}
		res = lib.UpTo(n)
	}
	if res == nil {
		res = []model.ChordDefinition{}
	}
	writeJSON(w, http.StatusOK, res)
}

func HandleChord(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	def, ok := chord.Default().Lookup(symbol)
	if !ok {
		writeError(w, fault.New("unknown chord",
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("unknown chord "+symbol, "Chord "+symbol+" is not in the library")))
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func HandleScale(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notes := chord.ScaleNotes(vars["root"], vars["scale"])
	if notes == nil {
		writeError(w, fault.New("unknown scale",
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("unknown scale", "Unknown root or scale")))
		return
	}
	writeJSON(w, http.StatusOK, model.ScaleResponse{Root: vars["root"], Scale: vars["scale"], Notes: notes})
}

func HandleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chord.DifficultyLevels)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("decode request body", "Request body is not valid JSON"))
	}
	return nil
}

func queryInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("parse query", "Expected a whole number, got "+s))
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch ftag.Get(err) {
	case ftag.InvalidArgument:
		status = http.StatusBadRequest
	case ftag.NotFound:
		status = http.StatusNotFound
	}
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = err.Error()
	}
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}
