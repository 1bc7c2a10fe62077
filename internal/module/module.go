package module

import "strings"

// CategoryPrefix is the domain prefix carried by every category-derived
// module key: "transparencia_<slug>".
const CategoryPrefix = "transparencia"

const categorySeparator = "_"

type Kind int

const (
	KindCore Kind = iota
	KindCategory
)

func (k Kind) String() string {
	if k == KindCategory {
		return "category"
	}
	return "core"
}

// Module is a permissionable resource. Build values with Core or Category;
// the key of a category module is only ever formed in Category.
type Module struct {
	Key          string
	Description  string
	Kind         Kind
	CategorySlug string
}

func Core(key, description string) Module {
	return Module{Key: key, Description: description, Kind: KindCore}
}

func Category(slug, name string) Module {
	return Module{
		Key:          CategoryKey(slug),
		Description:  name,
		Kind:         KindCategory,
		CategorySlug: slug,
	}
}

// CategoryKey returns the module key for a category slug.
func CategoryKey(slug string) string {
	return CategoryPrefix + categorySeparator + slug
}

// IsCategoryKey is the grouping test for listings and UIs. Authorization
// never uses it: grants match on the exact key.
func IsCategoryKey(key string) bool {
	return strings.HasPrefix(key, CategoryPrefix+categorySeparator) &&
		len(key) > len(CategoryPrefix)+len(categorySeparator)
}

func (m Module) IsCategory() bool {
	return m.Kind == KindCategory
}

// CategoryRef is what the category configuration contributes to the registry.
type CategoryRef struct {
	Slug string
	Name string
}

const (
	KeyUsuarios      = "usuarios"
	KeyCategorias    = "categorias"
	KeyNoticias      = "noticias"
	KeyEventos       = "eventos"
	KeyConvocatorias = "convocatorias"
	KeyGaceta        = "gaceta"
	KeyEncuestas     = "encuestas"
	KeyProgramas     = "programas"
	KeyPaginas       = "paginas"
)

var coreModules = []Module{
	Core(KeyUsuarios, "Usuarios del panel de administración"),
	Core(KeyCategorias, "Categorías de documentos de transparencia"),
	Core(KeyNoticias, "Noticias"),
	Core(KeyEventos, "Eventos"),
	Core(KeyConvocatorias, "Convocatorias"),
	Core(KeyGaceta, "Gaceta oficial"),
	Core(KeyEncuestas, "Encuestas"),
	Core(KeyProgramas, "Programas de beneficencia"),
	Core(KeyPaginas, "Páginas institucionales"),
}

// CoreModules returns a copy of the fixed module list.
func CoreModules() []Module {
	out := make([]Module, len(coreModules))
	copy(out, coreModules)
	return out
}
