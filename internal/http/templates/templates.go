package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// HomePageData contains dynamic values rendered on the landing page.
type HomePageData struct {
	Title    string
	Subtitle string
	Domain   string
}

// RawHTML returns a templ component that writes the provided HTML without escaping.
func RawHTML(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := io.WriteString(w, content)
		return err
	})
}

// HomePage renders the minimal branded landing page served at /.
func HomePage(data HomePageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body{font-family:system-ui,sans-serif;background:#f8fafc;color:#0f172a;margin:0;display:flex;min-height:100vh;flex-direction:column;align-items:center;justify-content:center;text-align:center}
h1{color:#2563eb;font-size:2rem;margin:0 0 .5rem}
p{color:#475569;max-width:30rem}
code{background:#e2e8f0;border-radius:4px;padding:.1rem .35rem}
</style>
</head>
<body>
<h1>%s</h1>
<p>%s</p>
<p>Published pages live under <code>%s/p/&lt;slug&gt;</code>.</p>
</body>
</html>
`,
			html.EscapeString(data.Title),
			html.EscapeString(data.Title),
			html.EscapeString(data.Subtitle),
			html.EscapeString(data.Domain),
		)
		return err
	})
}
