// Package templates renders the html pages served by the web api.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/aouyang1/einkframe/photocache"
	"github.com/aouyang1/einkframe/slideshow"
)

// StatusData is everything the status page shows.
type StatusData struct {
	Status         slideshow.Status
	Cache          photocache.Stats
	Photos         []slideshow.PhotoRef
	SyncConfigured bool
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Photo Frame</title>
<script src="https://unpkg.com/htmx.org@2.0.4"></script>
</head>
<body>
`

// StatusPage is the landing page with slideshow controls and the photo grid.
func StatusPage(data StatusData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(pageHead)
		b.WriteString("<h1>Photo Frame</h1>\n")

		st := data.Status
		state := "stopped"
		if st.Running {
			state = fmt.Sprintf("running every %d min", st.IntervalMinutes)
		}

		b.WriteString("<ul class=\"status\">\n")
		item(&b, "Slideshow", state)
		item(&b, "Order", string(st.OrderMode))
		item(&b, "Photos", fmt.Sprintf("%d (%s)", data.Cache.Count, humanBytes(data.Cache.Bytes)))
		if st.NextRun != nil {
			item(&b, "Next change", st.NextRun.Local().Format(time.Kitchen))
		}
		if st.Current != nil {
			item(&b, "Showing", st.Current.ID)
		}
		b.WriteString("</ul>\n")

		b.WriteString(`<div class="controls">
<button hx-post="/prev" hx-swap="none">Previous</button>
<button hx-post="/next" hx-swap="none">Next</button>
`)
		if st.Running {
			b.WriteString(`<button hx-post="/slideshow/stop" hx-swap="none">Stop</button>` + "\n")
		} else {
			b.WriteString(`<button hx-post="/slideshow/start" hx-swap="none">Start</button>` + "\n")
		}
		b.WriteString(`<button hx-post="/info" hx-swap="none">Info screen</button>` + "\n")
		if data.SyncConfigured {
			b.WriteString(`<button hx-post="/sync" hx-swap="none">Sync now</button>` + "\n")
		}
		b.WriteString("</div>\n")

		b.WriteString("<div class=\"photo-row\">\n")
		for _, photo := range data.Photos {
			name := templ.EscapeString(photo.ID)
			fmt.Fprintf(&b,
				"  <div class=\"photo-item\"><img src=\"%s\" alt=\"%s\" class=\"photo-thumbnail\" loading=\"lazy\" />"+
					"<button class=\"photo-play-btn\" title=\"Show this photo\" hx-post=\"%s\" hx-swap=\"none\">Show</button></div>\n",
				templ.EscapeString(photoImageURL(photo)),
				name,
				templ.EscapeString(showURL(photo)),
			)
		}
		b.WriteString("</div>\n</body>\n</html>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func item(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  <li><strong>%s:</strong> %s</li>\n", templ.EscapeString(label), templ.EscapeString(value))
}
