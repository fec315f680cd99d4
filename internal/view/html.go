package view

import (
	"bytes"
	"fmt"
	"html/template"
)

// ContainerID is the element id of the slip root in the HTML rendition
const ContainerID = "receipt-container"

var funcs = template.FuncMap{
	"px": func(v float64) string { return fmt.Sprintf("%.2fpx", v) },
	"sub": func(a, b float64) float64 { return a - b },
	"align": func(a Align) string {
		switch a {
		case AlignCenter:
			return "center"
		case AlignRight:
			return "right"
		default:
			return "left"
		}
	},
	"weight": func(s Style) string {
		if s.Bold {
			return "bold"
		}
		return "normal"
	},
	"fontStyle": func(s Style) string {
		if s.Italic {
			return "italic"
		}
		return "normal"
	},
	"isText":    func(k Kind) bool { return k == KindText },
	"isRow":     func(k Kind) bool { return k == KindRow },
	"isDivider": func(k Kind) bool { return k == KindDivider },
	"isLogo":    func(k Kind) bool { return k == KindLogo },
	"isBarcode": func(k Kind) bool { return k == KindBarcode },
	// logo sources are data URLs produced by the settings layer
	"dataURL": func(s string) template.URL { return template.URL(s) },
}

const fragmentTmpl = `<div id="{{.ID}}" style="position:relative;background:#fff;width:{{px .Doc.Width}};height:{{px .Doc.Height}};border-top:{{px .Border}} solid #374151;box-sizing:border-box;font-family:'Go Mono',ui-monospace,monospace;color:#1f2937">
{{- range .Doc.Blocks}}
{{- if isText .Kind}}
<div style="position:absolute;left:{{px .X}};top:{{px (sub .Y $.Border)}};width:{{px .W}};height:{{px .H}};line-height:{{px .H}};font-size:{{px .Style.Size}};font-weight:{{weight .Style}};font-style:{{fontStyle .Style}};color:{{.Style.Tone.Hex}};text-align:{{align .Style.Align}};white-space:pre">{{.Text}}</div>
{{- else if isRow .Kind}}
{{- $y := .Y}}
{{- range .Cells}}
<div style="position:absolute;left:{{px .X}};top:{{px (sub $y $.Border)}};width:{{px .W}};line-height:{{px .Style.LineHeight}};font-size:{{px .Style.Size}};font-weight:{{weight .Style}};font-style:{{fontStyle .Style}};color:{{.Style.Tone.Hex}};text-align:{{align .Style.Align}};white-space:pre">{{range $i, $l := .Lines}}{{if $i}}<br>{{end}}{{$l}}{{end}}</div>
{{- end}}
{{- else if isDivider .Kind}}
<div style="position:absolute;left:{{px .X}};top:{{px (sub .Y $.Border)}};width:{{px .W}};border-bottom:2px dashed #d1d5db"></div>
{{- else if isLogo .Kind}}
<img alt="Logo" src="{{dataURL .Source}}" style="position:absolute;left:{{px .X}};top:{{px (sub .Y $.Border)}};width:{{px .W}};height:{{px .H}};object-fit:contain;filter:grayscale(100%)">
{{- else if isBarcode .Kind}}
<div style="position:absolute;left:{{px .X}};top:{{px (sub .Y $.Border)}};width:{{px .W}};height:{{px .H}};opacity:.2;background-image:repeating-linear-gradient(90deg,transparent,transparent 2px,#000 2px,#000 4px)"></div>
{{- end}}
{{- end}}
</div>`

const pageTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>body{margin:0;background:#f3f4f6;display:flex;justify-content:center;padding:32px 0}</style>
</head>
<body>
<div id="receipt-frame">{{.Fragment}}</div>
{{- if .LiveURL}}
<script>
(function () {
  var frame = document.getElementById("receipt-frame");
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + {{.LiveURL}});
  ws.onmessage = function () {
    fetch({{.FragmentURL}}).then(function (r) { return r.text(); }).then(function (html) { frame.innerHTML = html; });
  };
})();
</script>
{{- end}}
</body>
</html>`

var (
	fragment = template.Must(template.New("fragment").Funcs(funcs).Parse(fragmentTmpl))
	page     = template.Must(template.New("page").Parse(pageTmpl))
)

// PageOptions controls the standalone HTML page
type PageOptions struct {
	Title string
	// LiveURL is a websocket path; when set the page refreshes on every message
	LiveURL string
	// FragmentURL is fetched to refresh the slip
	FragmentURL string
}

// HTMLFragment renders the slip root element
func (d *Document) HTMLFragment() (template.HTML, error) {
	var buf bytes.Buffer
	err := fragment.Execute(&buf, struct {
		ID     string
		Doc    *Document
		Border float64
	}{ContainerID, d, BorderTop})
	if err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	// the fragment template escapes all user text, so the result is safe markup
	return template.HTML(buf.String()), nil
}

// HTMLPage renders a standalone page containing the slip
func (d *Document) HTMLPage(opts PageOptions) ([]byte, error) {
	frag, err := d.HTMLFragment()
	if err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = "Receipt Preview"
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, struct {
		PageOptions
		Fragment template.HTML
	}{opts, frag})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
