package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

//go:embed templates
var templateFS embed.FS

//go:embed locales
var localeFS embed.FS

//go:embed content
var contentFS embed.FS

//go:embed pages
var pagesFS embed.FS

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// StaticFS holds css, js and bundled images served under /assets/.
func StaticFS() fs.FS { return mustSub(staticFS, "static") }

// TemplateFS holds the html/template sources.
func TemplateFS() fs.FS { return mustSub(templateFS, "templates") }

// LocaleFS holds the flat UI string tables, one `<lang>.json` per language.
func LocaleFS() fs.FS { return mustSub(localeFS, "locales") }

// ContentFS holds the page copy dictionary and the sample code shown in the code modal.
func ContentFS() fs.FS { return mustSub(contentFS, "content") }

// PagesFS holds markdown pages laid out as <kind>/<lang>/<slug>.md.
func PagesFS() fs.FS { return mustSub(pagesFS, "pages") }
