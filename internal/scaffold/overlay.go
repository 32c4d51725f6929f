package scaffold

import "embed"

// Canonical overlay payload. After the external tool scaffolds a component,
// these files replace the generated ones so every workspace starts from the
// same entry point, primary view/model, dependency manifest, ignore file
// and documentation.
//
//go:embed all:templates
var templatesFS embed.FS

// overlayFile maps an embedded template to its destination inside the
// component directory.
type overlayFile struct {
	src  string
	dest string
}

// viteOverlay is the canonical file set for the desktop client.
func viteOverlay() []overlayFile {
	return []overlayFile{
		{src: "templates/vite/main.tsx", dest: "src/main.tsx"},
		{src: "templates/vite/App.tsx", dest: "src/App.tsx"},
		{src: "templates/vite/package.json", dest: "package.json"},
		{src: "templates/vite/gitignore", dest: ".gitignore"},
		{src: "templates/vite/README.md", dest: "README.md"},
	}
}

// fastapiOverlay is the canonical file set for the backend service.
func fastapiOverlay() []overlayFile {
	return []overlayFile{
		{src: "templates/fastapi/main.py", dest: "app/main.py"},
		{src: "templates/fastapi/config.py", dest: "app/config.py"},
		{src: "templates/fastapi/routers_init.py", dest: "app/__init__.py"},
		{src: "templates/fastapi/routers_init.py", dest: "app/routers/__init__.py"},
		{src: "templates/fastapi/routers_items.py", dest: "app/routers/items.py"},
		{src: "templates/fastapi/routers_tasks.py", dest: "app/routers/tasks.py"},
		{src: "templates/fastapi/pyproject.toml", dest: "pyproject.toml"},
		{src: "templates/fastapi/gitignore", dest: ".gitignore"},
		{src: "templates/fastapi/README.md", dest: "README.md"},
	}
}
