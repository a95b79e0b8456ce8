// Package gallery renders recommended books as a self-contained HTML fragment:
// a thumbnail grid plus one detail modal per book.
package gallery

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bookrec/internal/domain"
)

// NoResults is the fragment returned for an empty result.
const NoResults = "<p>No recommendations found for your query.</p>"

// Columns is the number of grid columns.
const Columns = 8

// Styles is the overlay/modal stylesheet.
const Styles = `<style>
.modal {
  display: none; position: fixed; z-index: 1000; left: 0; top: 0;
  width: 100%; height: 100%; overflow: auto; background-color: rgba(0,0,0,0.6);
}
.modal-content {
  background-color: #fefefe; margin: 10% auto; padding: 25px;
  border: 1px solid #888; width: 60%; border-radius: 10px; position: relative;
}
.modal-content h2, .modal-content h4, .modal-content p { color: black !important; }
.close-btn {
  color: #aaa; float: right; font-size: 28px; font-weight: bold;
  position: absolute; top: 10px; right: 20px;
}
.close-btn:hover, .close-btn:focus { color: black; text-decoration: none; cursor: pointer; }
</style>`

// Script holds showModal/closeModal. The page also loads it in <head>,
// since scripts inside swapped-in fragments do not run.
const Script = `<script>
function showModal(modalId) {
  document.getElementById(modalId).style.display = 'block';
}
function closeModal(event, modalId) {
  event.stopPropagation();
  document.getElementById(modalId).style.display = 'none';
}
</script>`

var fragment = template.Must(template.New("gallery").Parse(
	`{{.Styles}}{{.Script}}
<div class="gallery" style="display: grid; grid-template-columns: repeat({{.Columns}}, 1fr); gap: 20px;">
{{- range .Items}}
  <div onclick="showModal({{.ModalID}})" style="text-align: center; cursor: pointer;">
    <img src="{{.Thumbnail}}" alt="{{.Title}}" style="width: 100%; height: 220px; object-fit: cover; border-radius: 5px;">
    <p style="font-size: 12px; margin-top: 8px; font-weight: bold;">{{.Title}}</p>
    <p style="font-size: 11px; color: #555;">by {{.Authors}}</p>
  </div>
{{- end}}
</div>
{{- range .Items}}
<div id="{{.ModalID}}" class="modal" onclick="closeModal(event, {{.ModalID}})">
  <div class="modal-content">
    <span class="close-btn" onclick="closeModal(event, {{.ModalID}})">&times;</span>
    <h2>{{.Title}}</h2>
    <h4>by {{.Authors}}</h4>
    <p>{{.Description}}</p>
  </div>
</div>
{{- end}}
`))

type item struct {
	ModalID     string
	Thumbnail   string
	Title       string
	Authors     string
	Description string
}

// ModalID returns the element id of a book's detail modal.
func ModalID(isbn int64) string {
	return "modal-" + strconv.FormatInt(isbn, 10)
}

// Render returns the gallery fragment for rows, or NoResults when rows is empty.
// All book text is HTML-escaped.
func Render(rows []domain.Book) string {
	if len(rows) == 0 {
		return NoResults
	}

	items := make([]item, len(rows))
	for i, b := range rows {
		items[i] = item{
			ModalID:     ModalID(b.ISBN13),
			Thumbnail:   b.LargeThumbnail,
			Title:       b.Title,
			Authors:     FormatAuthors(b.Authors),
			Description: b.Description,
		}
	}

	var sb strings.Builder
	err := fragment.Execute(&sb, struct {
		Styles  template.HTML
		Script  template.HTML
		Columns int
		Items   []item
	}{template.HTML(Styles), template.HTML(Script), Columns, items}) //nolint:gosec // constant markup
	if err != nil {
		// Only reachable through a broken template.
		panic("gallery: " + err.Error())
	}
	return sb.String()
}
