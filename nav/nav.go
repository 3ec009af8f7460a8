// Package nav resolves the client's logical paths: which screen a path is,
// whether it needs a session, and where to go instead.
package nav

import (
	"net/url"
	"strings"
)

type Route string

const (
	Splash       Route = "/"
	Home         Route = "/home"
	Login        Route = "/login"
	Services     Route = "/services"
	Booking      Route = "/booking"
	Details      Route = "/booking/:id"
	Proceed      Route = "/booking/proceed"
	Payment      Route = "/booking/payment"
	Confirmation Route = "/booking/confirmation"
	Profile      Route = "/profile"
	NotFound     Route = "*"
)

var protected = map[Route]bool{
	Booking:      true,
	Details:      true,
	Proceed:      true,
	Payment:      true,
	Confirmation: true,
	Profile:      true,
}

// literal routes, checked before the /booking/:id pattern
var exact = map[string]Route{
	"/":                     Splash,
	"/home":                 Home,
	"/login":                Login,
	"/services":             Services,
	"/booking":              Booking,
	"/booking/proceed":      Proceed,
	"/booking/payment":      Payment,
	"/booking/confirmation": Confirmation,
	"/profile":              Profile,
}

func (r Route) Protected() bool {
	return protected[r]
}

// Match returns the route for path and its parameters.
func Match(path string) (Route, map[string]string) {
	path = clean(path)

	if r, ok := exact[path]; ok {
		return r, nil
	}

	if id, ok := strings.CutPrefix(path, "/booking/"); ok && id != "" && !strings.Contains(id, "/") {
		return Details, map[string]string{"id": id}
	}
	return NotFound, nil
}

func clean(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

type Decision struct {
	Path     string            `json:"path"`
	Route    Route             `json:"route"`
	Params   map[string]string `json:"params,omitempty"`
	Allowed  bool              `json:"allowed"`
	Redirect string            `json:"redirect,omitempty"`
	From     string            `json:"from,omitempty"`
}

// Resolve decides whether path may be entered. Protected routes without a
// session send the user to the login page, remembering where they were going.
func Resolve(path string, authenticated bool) Decision {
	route, params := Match(path)
	d := Decision{Path: clean(path), Route: route, Params: params, Allowed: true}

	if route.Protected() && !authenticated {
		d.Allowed = false
		d.Redirect = string(Login)
		d.From = d.Path
	}
	return d
}

// AfterLogin is where a successful login lands: back where the user was
// heading, or home.
func AfterLogin(from string) string {
	if from == "" {
		return string(Home)
	}
	route, _ := Match(from)
	switch route {
	case NotFound, Login, Splash:
		return string(Home)
	}
	return clean(from)
}
