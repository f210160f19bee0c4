package animals

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes monta el espejo JSON de sólo lectura bajo el router de /api.
func RegisterAPIRoutes(r chi.Router, svc *Service) {
	r.Route("/animais", func(ar chi.Router) {
		ar.Get("/", listAnimalsAPIHandler(svc))
		ar.Get("/{id}", getAnimalAPIHandler(svc))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// listAnimalsAPIHandler godoc
// @Summary Listar animales
// @Description Devuelve todos los animales ordenados por nome_comum.
// @Tags animais
// @Produce json
// @Success 200 {array} Animal
// @Failure 502 {object} errorResponse "backend no disponible"
// @Router /animais [get]
func listAnimalsAPIHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "backend unavailable"})
			return
		}
		if list == nil {
			list = []Animal{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// getAnimalAPIHandler godoc
// @Summary Obtener un animal
// @Description Devuelve la ficha completa de un animal por id.
// @Tags animais
// @Produce json
// @Param id path string true "ID del animal"
// @Success 200 {object} Animal
// @Failure 404 {object} errorResponse "no encontrado"
// @Failure 502 {object} errorResponse "backend no disponible"
// @Router /animais/{id} [get]
func getAnimalAPIHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "animal not found"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "backend unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
