package http

import (
	"context"
	"net/http"
	"strconv"

	"freelance/internal/log"
	"freelance/internal/report"
	"freelance/internal/services"
)

type clientRow struct {
	ID    string
	Name  string
	Gross string
	Net   string
}

type clientsView struct {
	Clients []clientRow
	Error   string
}

type clientFormView struct {
	ID     string
	Name   string
	Rate   string
	Title  string
	Submit string
	Action string
}

func (s *Server) clientsView(ctx context.Context, acct string) clientsView {
	clients, err := s.clients.List(ctx, acct)
	if err != nil {
		s.events.LogError(ctx, "Client list failed", err, log.ComponentClient, log.OpList,
			log.NewFields().WithAccount(acct))
		return clientsView{Error: "Impossibile recuperare i clienti."}
	}
	v := clientsView{Clients: make([]clientRow, 0, len(clients))}
	for _, c := range clients {
		v.Clients = append(v.Clients, clientRow{
			ID:    c.ID,
			Name:  c.Name,
			Gross: report.FormatEuro(c.GrossDailyRate),
			Net:   report.FormatEuro(c.NetDailyRate()),
		})
	}
	return v
}

func (s *Server) handleClientsPage(w http.ResponseWriter, r *http.Request) {
	view := s.clientsView(r.Context(), accountID(r))
	s.render(w, r, NewHTMXResponse(), "clients.html", s.newPage(r, "Clienti", "clients", view))
}

func (s *Server) handleClientsPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, NewHTMXResponse(), "clients_list", s.clientsView(r.Context(), accountID(r)))
}

// handleClientForm renders the add dialog, or the edit dialog when ?id= names a client.
func (s *Server) handleClientForm(w http.ResponseWriter, r *http.Request) {
	view := clientFormView{
		Title:  "Aggiungi Cliente",
		Submit: "Salva Cliente",
		Action: "/clients",
	}
	if id := sanitizeInput(r.URL.Query().Get("id")); id != "" {
		c, err := s.clients.Get(r.Context(), accountID(r), id)
		if err != nil {
			s.errorResponse(r, err, log.ComponentClient, log.OpRead, "Impossibile recuperare i clienti.").Write(w)
			return
		}
		view = clientFormView{
			ID:     c.ID,
			Name:   c.Name,
			Rate:   strconv.FormatFloat(c.GrossDailyRate, 'f', -1, 64),
			Title:  "Modifica Cliente",
			Submit: "Salva",
			Action: "/clients/" + c.ID,
		}
	}
	s.render(w, r, NewHTMXResponse(), "client_form", view)
}

func clientInput(body *RequestBodyParser) services.ClientInput {
	return services.ClientInput{
		Name:           body.Get("name"),
		GrossDailyRate: body.Get("gross_daily_rate"),
	}
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Retarget("#client-form-error").Write(w)
		return
	}
	acct := accountID(r)

	c, err := s.clients.Create(r.Context(), acct, clientInput(body))
	if err != nil {
		s.errorResponse(r, err, log.ComponentClient, log.OpCreate, "Errore nel salvataggio del cliente.").
			Retarget("#client-form-error").
			Write(w)
		return
	}
	s.events.LogClientChanged(r.Context(), log.OpCreate, acct, c.ID, c.Name, c.GrossDailyRate)
	s.renderClientsChanged(w, r, acct, "Cliente aggiunto.")
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Retarget("#client-form-error").Write(w)
		return
	}
	acct := accountID(r)

	c, err := s.clients.Update(r.Context(), acct, r.PathValue("id"), clientInput(body))
	if err != nil {
		s.errorResponse(r, err, log.ComponentClient, log.OpUpdate, "Errore nel salvataggio del cliente.").
			Retarget("#client-form-error").
			Write(w)
		return
	}
	s.events.LogClientChanged(r.Context(), log.OpUpdate, acct, c.ID, c.Name, c.GrossDailyRate)
	s.renderClientsChanged(w, r, acct, "Cliente aggiornato.")
}

// handleDeleteClient requires confirm=true; work days of the client are kept as orphans.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	acct := accountID(r)
	id := r.PathValue("id")
	confirmed := body.Get("confirm") == "true"

	if err := s.clients.Delete(r.Context(), acct, id, confirmed); err != nil {
		s.errorResponse(r, err, log.ComponentClient, log.OpDelete, "Errore nell'eliminazione del cliente.").
			Retarget("#clients-error").
			Write(w)
		return
	}
	s.events.LogClientChanged(r.Context(), log.OpDelete, acct, id, "", 0)
	s.renderClientsChanged(w, r, acct, "Cliente eliminato.")
}

func (s *Server) renderClientsChanged(w http.ResponseWriter, r *http.Request, acct, message string) {
	b := NewHTMXResponse().
		TriggerClientsChanged().
		TriggerDialogClose().
		TriggerSuccessNotification(message)
	s.render(w, r, b, "clients_list", s.clientsView(r.Context(), acct))
}
