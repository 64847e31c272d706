package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// CreateRoom handles POST /create
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	info, err := h.engine.CreateRoom(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	setPlayerCookie(w, info.Code, req.Name)
	writeJSON(w, http.StatusOK, map[string]string{"pin": info.Code})
}

// JoinRoom handles POST /join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	info, err := h.engine.JoinRoom(req.Pin, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	setPlayerCookie(w, info.Code, req.Name)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"room":    info,
	})
}

// RoomInfo handles GET /room/{code}
func (h *Handler) RoomInfo(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	info, err := h.engine.RoomInfo(code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// RoomQR handles GET /room/{code}/qr and serves a PNG QR code that opens
// the join page for the room
func (h *Handler) RoomQR(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if _, err := h.engine.RoomInfo(code); err != nil {
		writeError(w, err)
		return
	}

	joinURL := getBaseURL(r) + "/?pin=" + url.QueryEscape(code)
	png, err := generateQRCode(joinURL)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to generate QR code")
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// generateQRCode renders content as a PNG
func generateQRCode(content string) ([]byte, error) {
	qrc, err := qrcode.NewWith(content,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	tmp, err := os.CreateTemp("", "qr_*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFile)

	w, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8), // 8 pixels per module
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	// Save closes the writer
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	return data, nil
}

// getBaseURL constructs the base URL from the request
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	// Check for X-Forwarded-Proto header (common in reverse proxy setups)
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}
