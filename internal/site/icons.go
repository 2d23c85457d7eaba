package site

import (
	"bytes"
	"html/template"

	g "maragu.dev/gomponents"
)

// iconPaths holds 24x24 stroke outlines keyed by the names used in the content files.
var iconPaths = map[string][]string{
	"camera": {
		"M14.5 4h-5L7 7H4a2 2 0 0 0-2 2v9a2 2 0 0 0 2 2h16a2 2 0 0 0 2-2V9a2 2 0 0 0-2-2h-3l-2.5-3z",
		"M12 17a4 4 0 1 0 0-8 4 4 0 0 0 0 8z",
	},
	"upload": {
		"M21 15v4a2 2 0 0 1-2 2H5a2 2 0 0 1-2-2v-4",
		"M17 8l-5-5-5 5",
		"M12 3v12",
	},
	"package": {
		"M16.5 9.4l-9-5.19",
		"M21 16V8a2 2 0 0 0-1-1.73l-7-4a2 2 0 0 0-2 0l-7 4A2 2 0 0 0 3 8v8a2 2 0 0 0 1 1.73l7 4a2 2 0 0 0 2 0l7-4A2 2 0 0 0 21 16z",
		"M3.27 6.96L12 12.01l8.73-5.05",
		"M12 22.08V12",
	},
	"brain": {
		"M12 5a3 3 0 1 0-5.997.125 4 4 0 0 0-2.526 5.77 4 4 0 0 0 .556 6.588A4 4 0 1 0 12 18Z",
		"M12 5a3 3 0 1 1 5.997.125 4 4 0 0 1 2.526 5.77 4 4 0 0 1-.556 6.588A4 4 0 1 1 12 18Z",
		"M12 5v13",
	},
	"palette": {
		"M12 22a10 10 0 1 1 10-10c0 2.76-2.24 4-5 4h-1.5a1.5 1.5 0 0 0-1.06 2.56A1.5 1.5 0 0 1 12 22z",
		"M7.5 10.5h.01",
		"M12 7.5h.01",
		"M16.5 10.5h.01",
	},
	"file-code": {
		"M14 2H6a2 2 0 0 0-2 2v16a2 2 0 0 0 2 2h12a2 2 0 0 0 2-2V8z",
		"M14 2v6h6",
		"M10 13l-2 2 2 2",
		"M14 17l2-2-2-2",
	},
	"zap": {
		"M13 2L3 14h9l-1 8 10-12h-9l1-8z",
	},
	"check": {
		"M20 6L9 17l-5-5",
	},
	"x": {
		"M18 6L6 18",
		"M6 6l12 12",
	},
	"code": {
		"M16 18l6-6-6-6",
		"M8 6l-6 6 6 6",
	},
	"copy": {
		"M20 9h-9a2 2 0 0 0-2 2v9a2 2 0 0 0 2 2h9a2 2 0 0 0 2-2v-9a2 2 0 0 0-2-2z",
		"M5 15H4a2 2 0 0 1-2-2V4a2 2 0 0 1 2-2h9a2 2 0 0 1 2 2v1",
	},
	"sparkles": {
		"M12 3l1.9 5.8L20 10.7l-5.8 1.9L12 18.5l-1.9-5.9L4 10.7l6.1-1.9z",
	},
	"globe": {
		"M12 22a10 10 0 1 0 0-20 10 10 0 0 0 0 20z",
		"M2 12h20",
		"M12 2a15.3 15.3 0 0 1 4 10 15.3 15.3 0 0 1-4 10 15.3 15.3 0 0 1-4-10 15.3 15.3 0 0 1 4-10z",
	},
	"grip": {
		"M9 5v14",
		"M15 5v14",
	},
}

// Icon returns an inline SVG for name, or nil when the name is unknown.
func Icon(name string, class string) g.Node {
	paths, ok := iconPaths[name]
	if !ok {
		return nil
	}
	if class == "" {
		class = "icon"
	}
	return g.El("svg",
		g.Attr("xmlns", "http://www.w3.org/2000/svg"),
		g.Attr("viewBox", "0 0 24 24"),
		g.Attr("fill", "none"),
		g.Attr("stroke", "currentColor"),
		g.Attr("stroke-width", "2"),
		g.Attr("stroke-linecap", "round"),
		g.Attr("stroke-linejoin", "round"),
		g.Attr("class", class),
		g.Attr("aria-hidden", "true"),
		g.Group(g.Map(paths, func(d string) g.Node {
			return g.El("path", g.Attr("d", d))
		})),
	)
}

// iconHTML is the template helper form of Icon.
func iconHTML(name string, class ...string) template.HTML {
	c := ""
	if len(class) > 0 {
		c = class[0]
	}
	node := Icon(name, c)
	if node == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}
