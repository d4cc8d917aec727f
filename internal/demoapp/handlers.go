package demoapp

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"
)

const (
	flashCookie   = "flash"
	sessionCookie = "rack.session"

	flashSuccess = "success"
	flashError   = "error"
)

type flash struct {
	Kind    string
	Message string
}

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HttpOnly: true,
	})
}

// takeFlash reads the pending flash message and clears it
func takeFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &flash{Kind: kind, Message: message}
}

func (h *Handler) render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, indexPage, nil)
}

// Login handles GET /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, loginPage, takeFlash(w, r))
}

// Authenticate handles POST /authenticate
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	switch {
	case username != ValidUsername:
		setFlash(w, flashError, "Your username is invalid!")
		http.Redirect(w, r, "/login", http.StatusFound)
	case password != ValidPassword:
		setFlash(w, flashError, "Your password is invalid!")
		http.Redirect(w, r, "/login", http.StatusFound)
	default:
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: username, Path: "/", HttpOnly: true})
		setFlash(w, flashSuccess, "You logged into a secure area!")
		http.Redirect(w, r, "/secure", http.StatusFound)
	}
}

// Secure handles GET /secure
func (h *Handler) Secure(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err != nil || c.Value != ValidUsername {
		setFlash(w, flashError, "You must login to view the secure area!")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.render(w, securePage, takeFlash(w, r))
}

// Logout handles GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
	setFlash(w, flashSuccess, "You logged out of the secure area!")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// DynamicLoading handles GET /dynamic_loading/1
func (h *Handler) DynamicLoading(w http.ResponseWriter, r *http.Request) {
	h.render(w, dynamicLoadingPage, struct{ DelayMillis int64 }{h.opts.LoadingDelay.Milliseconds()})
}
