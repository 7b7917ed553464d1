package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/red031000/nitrog3d/nsbmd"
)

const readHeaderTimeout = 10 * time.Second

type fileStore map[string]*nsbmd.Container

func runServer(addr string, files fileStore) error {
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(logrus.StandardLogger()))(newRouter(files))
	h = handlers.LoggingHandler(logrus.StandardLogger().Writer(), h)

	logrus.WithField("addr", addr).Info("starting HTTP server")

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	return nil
}

func newRouter(files fileStore) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/files", files.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/files/{file}", files.handleFile).Methods(http.MethodGet)
	r.HandleFunc("/api/files/{file}/models/{model}", files.handleModel).Methods(http.MethodGet)
	r.HandleFunc("/api/files/{file}/models/{model}/shapes/{shape}", files.handleShape).Methods(http.MethodGet)
	return r
}

func (f fileStore) handleList(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, names)
}

func (f fileStore) handleFile(w http.ResponseWriter, r *http.Request) {
	c, err := f.container(mux.Vars(r)["file"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, c)
}

func (f fileStore) handleModel(w http.ResponseWriter, r *http.Request) {
	m, err := f.model(mux.Vars(r))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, m)
}

func (f fileStore) handleShape(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, err := f.model(vars)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	for _, s := range m.Shapes {
		if s.Name == vars["shape"] {
			writeJSON(w, s)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("shape %q not found in model %q", vars["shape"], m.Name))
}

func (f fileStore) container(name string) (*nsbmd.Container, error) {
	c, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("file %q not loaded", name)
	}
	return c, nil
}

func (f fileStore) model(vars map[string]string) (*nsbmd.Model, error) {
	c, err := f.container(vars["file"])
	if err != nil {
		return nil, err
	}
	for _, m := range c.Models {
		if m.Name == vars["model"] {
			return m, nil
		}
	}
	return nil, fmt.Errorf("model %q not found in %q", vars["model"], vars["file"])
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{err.Error()}); encErr != nil {
		logrus.WithError(encErr).Error("writing error response")
	}
}
