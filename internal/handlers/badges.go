package handlers

import (
	"net/http"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/badgegen/internal/models"
	"github.com/abrezinsky/badgegen/pkg/pretix"
)

// badgeCode matches "<order>-<positionid>" with an optional low-vision suffix
var badgeCode = regexp.MustCompile(`^[A-Za-z0-9]{1,16}-[0-9]+` + models.LowVisionSuffix + `?$`)

// ValidBadgeCode reports whether code is a well-formed badge code
func ValidBadgeCode(code string) bool {
	return badgeCode.MatchString(code)
}

var artifactTypes = map[string]string{
	".svg": "image/svg+xml",
	".pdf": "application/pdf",
}

// ==================== Badges ====================

func (h *Handlers) handleListBadges(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("order")
	if order != "" && !pretix.ValidOrderCode(order) {
		respondError(w, BadRequest("Invalid order code"))
		return
	}

	badges, err := h.Store.ListBadges(r.Context(), order)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, badges)
}

func (h *Handlers) handleGetBadge(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !ValidBadgeCode(code) {
		respondError(w, BadRequest("Invalid badge code"))
		return
	}

	badge, err := h.Store.GetBadge(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, badge)
}

// handleBadgeFile serves /badges/<code>.svg and /badges/<code>.pdf from the
// paths recorded in the ledger
func (h *Handlers) handleBadgeFile(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	ext := path.Ext(file)
	contentType, ok := artifactTypes[ext]
	if !ok {
		respondError(w, NotFound("Unknown artifact type"))
		return
	}
	code := strings.TrimSuffix(file, ext)
	if !ValidBadgeCode(code) {
		respondError(w, BadRequest("Invalid badge code"))
		return
	}

	badge, err := h.Store.GetBadge(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}

	artifact := badge.SVGPath
	if ext == ".pdf" {
		artifact = badge.PDFPath
	}
	if artifact == "" {
		respondError(w, NotFound("No "+strings.TrimPrefix(ext, ".")+" recorded for "+code))
		return
	}
	if _, err := os.Stat(artifact); err != nil {
		respondError(w, NotFound("Artifact file is missing for "+code))
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, artifact)
}
