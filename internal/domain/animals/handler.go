package animals

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"animal-catalog/internal/session"
	"animal-catalog/internal/views"
)

const (
	msgListFailed    = "Erro ao carregar a lista de animais."
	msgNotFound      = "Animal não encontrado."
	msgDetailsFailed = "Erro ao buscar detalhes do animal. Tente novamente mais tarde."
	msgEditLoad      = "Erro ao buscar animal para edição."
	msgInvalid       = "Verifique os dados: o nome comum é obrigatório e os arquivos devem ser imagens."
	msgUploadFailed  = "Erro ao fazer upload da imagem."
	msgSaveFailed    = "Erro ao salvar animal. Por favor, tente novamente."
	msgDeleteFailed  = "Erro ao excluir animal. Por favor, tente novamente."

	msgCreated = "Animal criado com sucesso!"
	msgUpdated = "Animal atualizado com sucesso!"
	msgDeleted = "Animal excluído com sucesso!"

	listPath = "/lista-animais"
	qrSize   = 256
)

// QRWriter escribe un PNG con el QR de text.
type QRWriter func(w io.Writer, text string, size int) error

type HandlerOptions struct {
	Views *views.Views
	Guard session.Guard

	// PublicBaseURL es el origen que se codifica en los QR. Vacío = el host del request.
	PublicBaseURL string
	QR            QRWriter

	// MaxUploadBytes limita el formulario multipart. Default 10 MiB.
	MaxUploadBytes int64
}

func RegisterRoutes(r chi.Router, svc *Service, opts HandlerOptions) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	v := opts.Views

	// Públicas
	r.Group(func(pr chi.Router) {
		pr.Use(opts.Guard.Require(session.Public))
		pr.Get(listPath, listHandler(svc, v))
		pr.Get("/animal-details/{id}", detailsHandler(svc, v))
	})

	// La imagen del QR no depende de la sesión ni del backend.
	if opts.QR != nil {
		r.Get("/animal-details/{id}/qr.png", qrHandler(opts))
	}

	// Protegidas
	r.Group(func(pr chi.Router) {
		pr.Use(opts.Guard.Require(session.Protected))
		pr.Get("/cadastro-animal", newFormHandler(v))
		pr.Post("/cadastro-animal", createHandler(svc, v, opts.MaxUploadBytes))
		pr.Get("/editar-animal/{id}", editFormHandler(svc, v))
		pr.Post("/editar-animal/{id}", updateHandler(svc, v, opts.MaxUploadBytes))
		pr.Post("/animais/{id}/excluir", deleteHandler(svc, v))
	})
}

type listData struct {
	Animals []Animal
}

type detailsData struct {
	Animal Animal
}

type formData struct {
	Editing  bool
	Action   string
	Fields   Fields
	ImageURL string
	MapURL   string
}

type deleteData struct {
	ID   string
	Name string
}

func listHandler(svc *Service, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := v.Page(r, "Lista de Animais", listData{})

		list, err := svc.List(r.Context())
		if err != nil {
			v.Fail(w, r, http.StatusBadGateway, "animals_list", p, msgListFailed, err)
			return
		}

		p.Data = listData{Animals: list}
		v.Render(w, r, http.StatusOK, "animals_list", p)
	}
}

func detailsHandler(svc *Service, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := v.Page(r, "Detalhes do Animal", detailsData{})

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			v.Fail(w, r, http.StatusNotFound, "animal_details", p, msgNotFound, nil)
			return
		}
		if err != nil {
			v.Fail(w, r, http.StatusBadGateway, "animal_details", p, msgDetailsFailed, err)
			return
		}

		p.Title = a.CommonName
		p.Data = detailsData{Animal: a}
		v.Render(w, r, http.StatusOK, "animal_details", p)
	}
}

func qrHandler(opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if err := opts.QR(w, detailsURL(r, opts.PublicBaseURL, id), qrSize); err != nil {
			opts.Views.Log().Error("qr encode failed", map[string]any{"id": id, "err": err})
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
		}
	}
}

func newFormHandler(v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v.Render(w, r, http.StatusOK, "animal_form", v.Page(r, "Cadastrar Animal", formData{Action: "/cadastro-animal"}))
	}
}

func createHandler(svc *Service, v *views.Views, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := formData{Action: "/cadastro-animal"}

		in, closeFiles, err := readForm(w, r, maxBytes)
		if err != nil {
			v.Fail(w, r, http.StatusBadRequest, "animal_form", v.Page(r, "Cadastrar Animal", data), msgInvalid, err)
			return
		}
		defer closeFiles()
		data.Fields = in.Fields

		if _, err := svc.Create(r.Context(), in); err != nil {
			status, msg := saveError(err)
			v.Fail(w, r, status, "animal_form", v.Page(r, "Cadastrar Animal", data), msg, err)
			return
		}

		v.Redirect(w, r, listPath, msgCreated)
	}
}

func editFormHandler(svc *Service, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data := formData{Editing: true, Action: "/editar-animal/" + url.PathEscape(id)}

		a, err := svc.GetByID(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			v.Fail(w, r, http.StatusNotFound, "animal_form", v.Page(r, "Editar Animal", data), msgNotFound, nil)
			return
		}
		if err != nil {
			v.Fail(w, r, http.StatusBadGateway, "animal_form", v.Page(r, "Editar Animal", data), msgEditLoad, err)
			return
		}

		data.Fields = a.Fields()
		data.ImageURL = a.ImageURL
		data.MapURL = a.MapURL
		v.Render(w, r, http.StatusOK, "animal_form", v.Page(r, "Editar Animal", data))
	}
}

func updateHandler(svc *Service, v *views.Views, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data := formData{Editing: true, Action: "/editar-animal/" + url.PathEscape(id)}

		in, closeFiles, err := readForm(w, r, maxBytes)
		if err != nil {
			v.Fail(w, r, http.StatusBadRequest, "animal_form", v.Page(r, "Editar Animal", data), msgInvalid, err)
			return
		}
		defer closeFiles()
		data.Fields = in.Fields

		if _, err := svc.Update(r.Context(), id, in); err != nil {
			status, msg := saveError(err)
			v.Fail(w, r, status, "animal_form", v.Page(r, "Editar Animal", data), msg, err)
			return
		}

		v.Redirect(w, r, listPath, msgUpdated)
	}
}

// deleteHandler: sin confirm=sim muestra la confirmación y no toca el backend.
func deleteHandler(svc *Service, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		data := deleteData{ID: id, Name: strings.TrimSpace(r.PostForm.Get("nome"))}
		confirmed := r.PostForm.Get("confirm") == "sim"

		err := svc.Delete(r.Context(), id, confirmed)
		switch {
		case err == nil:
			v.Redirect(w, r, listPath, msgDeleted)
		case errors.Is(err, ErrConfirmationRequired):
			v.Render(w, r, http.StatusOK, "animal_delete_confirm", v.Page(r, "Excluir Animal", data))
		case errors.Is(err, ErrNotFound):
			v.Fail(w, r, http.StatusNotFound, "animal_delete_confirm", v.Page(r, "Excluir Animal", data), msgNotFound, nil)
		default:
			v.Fail(w, r, http.StatusBadGateway, "animal_delete_confirm", v.Page(r, "Excluir Animal", data), msgDeleteFailed, err)
		}
	}
}

func saveError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusUnprocessableEntity, msgInvalid
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, ErrUpload):
		return http.StatusBadGateway, msgUploadFailed
	default:
		return http.StatusBadGateway, msgSaveFailed
	}
}

// readForm acepta multipart (con archivos) o urlencoded (sólo texto).
func readForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (SaveInput, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return SaveInput{}, func() {}, err
		}
		if err := r.ParseForm(); err != nil {
			return SaveInput{}, func() {}, err
		}
	}

	in := SaveInput{Fields: Fields{
		CommonName:     r.PostFormValue("nome_comum"),
		ScientificName: r.PostFormValue("nome_cientifico"),
		Family:         r.PostFormValue("familia"),
		Distribution:   r.PostFormValue("distribuicao_geografica"),
		Habitat:        r.PostFormValue("habitat"),
		Diet:           r.PostFormValue("alimentacao"),
		SizeAppearance: r.PostFormValue("tamanho_aparencia"),
		Reproduction:   r.PostFormValue("reproducao"),
		Conservation:   r.PostFormValue("conservacao"),
		Curiosities:    r.PostFormValue("curiosidades"),
	}}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for field, dst := range map[string]**Upload{"imagem": &in.Photo, "mapa": &in.Map} {
		f, hdr, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			continue
		}
		if err != nil {
			closeAll()
			return SaveInput{}, func() {}, err
		}
		opened = append(opened, f)
		*dst = &Upload{
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Body:        f,
		}
	}

	return in, closeAll, nil
}

func detailsURL(r *http.Request, base, id string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/animal-details/" + url.PathEscape(id)
}
