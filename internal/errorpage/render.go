package errorpage

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	stdhttp "net/http"

	"github.com/a-h/templ"

	"launchpage/app/internal/kv"
)

// BrandMark appears on every rendered error document.
const BrandMark = "LaunchPage"

// StatusFor maps an error code to its HTTP status. The mapping is total:
// unrecognized codes fall back to 500.
func StatusFor(code kv.ErrorCode) int {
	switch code {
	case kv.CodeNotFound:
		return stdhttp.StatusNotFound
	case kv.CodeUnavailable, kv.CodeReadError:
		return stdhttp.StatusServiceUnavailable
	case kv.CodeWriteError:
		return stdhttp.StatusInternalServerError
	default:
		return stdhttp.StatusInternalServerError
	}
}

// Render produces the branded HTML document and HTTP status for an error code.
// It is pure and total: any code, known or not, yields a well-formed document.
// For NOT_FOUND, a non-empty slugContext is interpolated into the message.
func Render(code kv.ErrorCode, slugContext string) (string, int) {
	var buf bytes.Buffer
	// Rendering into a buffer cannot fail; the component does no I/O.
	_ = Document(code, slugContext).Render(context.Background(), &buf)
	return buf.String(), StatusFor(code)
}

// Document returns the branded error page as a templ component.
func Document(code kv.ErrorCode, slugContext string) templ.Component {
	status := StatusFor(code)
	heading, message := copyFor(code, slugContext)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%d %s • %s</title>
<style>
body{font-family:system-ui,sans-serif;background:#f8fafc;color:#0f172a;margin:0;display:flex;min-height:100vh;flex-direction:column}
header{padding:1.5rem 2rem;font-weight:700;font-size:1.25rem;color:#2563eb}
main{flex:1;display:flex;flex-direction:column;align-items:center;justify-content:center;text-align:center;padding:2rem}
h1{font-size:1.75rem;margin:0 0 .75rem}
p{color:#475569;max-width:28rem;margin:0 0 1.5rem}
a{color:#2563eb;text-decoration:none;font-weight:600}
</style>
</head>
<body>
<header>%s</header>
<main>
<h1>%s</h1>
<p>%s</p>
<a href="/">Back to %s</a>
</main>
</body>
</html>
`,
			status, stdhttp.StatusText(status), BrandMark,
			BrandMark,
			html.EscapeString(heading),
			message,
			BrandMark,
		)
		return err
	})
}

func copyFor(code kv.ErrorCode, slugContext string) (heading, message string) {
	switch code {
	case kv.CodeNotFound:
		if slugContext != "" {
			return "Page not found", fmt.Sprintf("We couldn't find a landing page named <strong>%s</strong>. It may not be published yet.", html.EscapeString(slugContext))
		}
		return "Page not found", "We couldn't find that landing page. It may not be published yet."
	case kv.CodeUnavailable:
		return "Temporarily unavailable", "Page storage is not reachable right now. Please try again in a moment."
	case kv.CodeReadError:
		return "Temporarily unavailable", "We hit a hiccup loading this page. Please try again in a moment."
	case kv.CodeWriteError:
		return "Something went wrong", "We couldn't save your page. Please try publishing again."
	default:
		return "Something went wrong", "We couldn't process your request right now."
	}
}
