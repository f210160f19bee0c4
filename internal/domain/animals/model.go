package animals

// Animal es la ficha de una especie catalogada.
// Los tags json siguen los nombres de columna de la tabla "animais" en el backend.
type Animal struct {
	ID string `json:"id,omitempty"`

	CommonName     string `json:"nome_comum"`
	ScientificName string `json:"nome_cientifico"`
	Family         string `json:"familia"`
	Distribution   string `json:"distribuicao_geografica"`
	Habitat        string `json:"habitat"`
	Diet           string `json:"alimentacao"`
	SizeAppearance string `json:"tamanho_aparencia"`
	Reproduction   string `json:"reproducao"`
	Conservation   string `json:"conservacao"`
	Curiosities    string `json:"curiosidades"`

	// Opcionales: foto del ejemplar y mapa de distribución.
	ImageURL string `json:"imagem_url"`
	MapURL   string `json:"mapa_distribuicao_url"`
}

// Fields son los campos de texto editables desde el formulario.
type Fields struct {
	CommonName     string
	ScientificName string
	Family         string
	Distribution   string
	Habitat        string
	Diet           string
	SizeAppearance string
	Reproduction   string
	Conservation   string
	Curiosities    string
}

func (a Animal) Fields() Fields {
	return Fields{
		CommonName:     a.CommonName,
		ScientificName: a.ScientificName,
		Family:         a.Family,
		Distribution:   a.Distribution,
		Habitat:        a.Habitat,
		Diet:           a.Diet,
		SizeAppearance: a.SizeAppearance,
		Reproduction:   a.Reproduction,
		Conservation:   a.Conservation,
		Curiosities:    a.Curiosities,
	}
}

func (a *Animal) apply(f Fields) {
	a.CommonName = f.CommonName
	a.ScientificName = f.ScientificName
	a.Family = f.Family
	a.Distribution = f.Distribution
	a.Habitat = f.Habitat
	a.Diet = f.Diet
	a.SizeAppearance = f.SizeAppearance
	a.Reproduction = f.Reproduction
	a.Conservation = f.Conservation
	a.Curiosities = f.Curiosities
}
