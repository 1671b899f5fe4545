package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
	"github.com/nisshchayarathi/drawing-app/internal/shapes"
	"github.com/nisshchayarathi/drawing-app/internal/typeid"
)

// ShapeSource loads a room's decoded shapes. *shapes.Service implements it.
type ShapeSource interface {
	Decoded(ctx context.Context, roomID int64) ([]shape.Shape, error)
}

type Handler struct {
	source   ShapeSource
	measurer geom.Measurer
}

func NewHandler(source ShapeSource, m geom.Measurer) *Handler {
	return &Handler{source: source, measurer: m}
}

func (h *Handler) RoomPDF(w http.ResponseWriter, r *http.Request) {
	roomID, err := shapes.ParseID(mux.Vars(r)["roomId"])
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	list, err := h.source.Decoded(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, shapes.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		slog.Error("load room for export", "error", err, "room", roomID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := Render(&buf, fmt.Sprintf("Room %d", roomID), list, h.measurer); err != nil {
		slog.Error("render pdf", "error", err, "room", roomID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="room-%d-%s.pdf"`, roomID, typeid.NewExportID()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
