package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Daskott/haven/server/work"
	"github.com/Daskott/haven/utils"
	"github.com/go-playground/validator"
)

var errInvalidBody = errors.New("invalid JSON body")

type ErrorPayload struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad interface{}, statusCode int) {
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

// writeError logs 'err' server side & responds with 'msg' only
func writeError(rw http.ResponseWriter, msg string, err error, statusCode int) {
	logError(msg, err, statusCode)
	writeResponse(rw, ErrorPayload{Error: msg}, statusCode)
}

func logError(msg string, err error, statusCode int) {
	if err == nil {
		err = errors.New(msg)
	}

	if statusCode >= http.StatusInternalServerError {
		logg.Errorf("%v: %v", msg, err)
		return
	}

	if statusCode >= http.StatusBadRequest {
		logg.Infof("%v: %v", msg, err)
	}
}

// decodeBody decodes the JSON request body into 'dest'. It writes the
// error response itself & reports false when the body can't be used.
func decodeBody(rw http.ResponseWriter, r *http.Request, dest interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dest)
	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(rw, "request entity too large", err, http.StatusRequestEntityTooLarge)
		return false
	}

	writeError(rw, errInvalidBody.Error(), err, http.StatusBadRequest)
	return false
}

func RegisterValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("Haven server is listening on %v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(server *http.Server, workerPool *work.WorkerPoolAdapter, backup *sqliteBackup, store Store) {
	// Shutdown server gracefully, in-flight alerts are allowed to finish
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Errorf("Haven server shutdown failed:%+s", err)
	}

	workerPool.Stop()

	if backup != nil {
		if err := backup.run(nil); err != nil {
			logg.Errorf("Final sqlite backup failed: %v", err)
		}
	}

	if err := store.Close(); err != nil {
		logg.Error(err)
	}

	logg.Infof("Haven server stopped properly")
}

// configDirectory returns the directory haven keeps its local data in,
// '~/haven' or './dev' in dev mode.
func configDirectory(devMode bool) (string, error) {
	configFolderName := "haven"
	rootDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	configDir := filepath.Join(rootDir, configFolderName)
	if err := utils.CreateDirIfNotExist(configDir); err != nil {
		return "", err
	}

	return configDir, nil
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
