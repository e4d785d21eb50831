package http

import (
	"errors"
	"io"
	"net/http"

	"fintrack/internal/backup"
	"fintrack/internal/log"
)

// handleBackup exports on GET and restores on POST, in ?format=json|yaml.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	format, err := backup.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		data, err := backup.Export(r.Context(), s.svc.Backup, format)
		if err != nil {
			s.fail(w, r, err, log.ComponentBackup, log.OpExport)
			return
		}
		NewResponse().
			Header("Content-Disposition", `attachment; filename="fintrack-backup.`+string(format)+`"`).
			Raw(format.ContentType(), data).
			Write(w)
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			BadRequestError("malformed request body").Write(w)
			return
		}
		if len(body) > maxBodyBytes {
			ErrorResponse(http.StatusRequestEntityTooLarge, errBodyTooLarge.Error()).Write(w)
			return
		}
		sum, err := backup.Import(r.Context(), s.svc.Backup, format, body)
		if errors.Is(err, backup.ErrMalformed) {
			BadRequestError("malformed backup").Write(w)
			return
		}
		if err != nil {
			s.fail(w, r, err, log.ComponentBackup, log.OpImport)
			return
		}
		NewResponse().JSON(sum).Write(w)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}
