package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"ayat-booking/internal/availability"
	"ayat-booking/internal/catalog"
)

var pageFuncs = template.FuncMap{
	"rupees": func(n int) string { return fmt.Sprintf("₹%d", n) },
}

type pageData struct {
	Error    string
	Upcoming []availability.Card
	Past     []availability.Card
}

const listingPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Ayat Baithak</title>
</head>
<body>
<h1>Ayat Baithak</h1>
<section id="upcomingEvents">
<h2>Upcoming Baithaks</h2>
{{- if .Error}}
<div class="empty-state error">{{.Error}}</div>
{{- else if not .Upcoming}}
<div class="empty-state">No upcoming events at the moment. Check back soon!</div>
{{- else}}
{{- range .Upcoming}}
<div class="event-card" data-event-id="{{.ID}}">
  <h3 class="event-title">{{.Title}}</h3>
  <div class="event-artist">{{.Artist}}</div>
  <div class="event-details">
    <span>{{.FormattedDate}}</span>
    <span>{{.Time}}</span>
    <span>{{.Venue}}</span>
    <span>{{rupees .TicketPrice}} per person</span>
  </div>
  <p class="event-description">{{.Description}}</p>
  {{- with .Eligibility}}
  <div class="seats-info{{if not .CanBook}} full{{end}}">{{.SeatLine}}</div>
  <button class="book-button"{{if not .CanBook}} disabled{{end}}>{{.Label}}</button>
  {{- end}}
</div>
{{- end}}
{{- end}}
</section>
<section id="pastEvents">
<h2>Past Baithaks</h2>
{{- if .Error}}
{{- else if not .Past}}
<div class="empty-state">No past events to display.</div>
{{- else}}
{{- range .Past}}
<div class="event-card past" data-event-id="{{.ID}}">
  <h3 class="event-title">{{.Title}}</h3>
  <div class="event-artist">{{.Artist}}</div>
  <div class="event-details">
    <span>{{.FormattedDate}}</span>
    <span>{{.Venue}}</span>
  </div>
  <p class="event-description">{{.Description}}</p>
</div>
{{- end}}
{{- end}}
</section>
</body>
</html>
`

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	status := http.StatusOK

	if err := h.Store.Err(); err != nil {
		data.Error = catalog.LoadErrorMessage
		status = http.StatusServiceUnavailable
	} else {
		listing := h.Evaluator.BuildListing(h.Store.Events(), h.Evaluator.Now())
		data.Upcoming = listing.Upcoming
		data.Past = listing.Past
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.Logger.Error("HTTP", fmt.Sprintf("Failed to render listing page: %v", err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
