// Package navigation names the screens of the client and tracks which one is shown.
package navigation

import (
	"log/slog"
	"strings"
	"sync"
)

// Screen identifies a navigable view.
type Screen int

const (
	Landing Screen = iota
	Home
	AddLink
	EditLink
	Login
	Register
	NotFound
)

var screenNames = map[Screen]string{
	Landing:  "landing",
	Home:     "home",
	AddLink:  "add-link",
	EditLink: "edit-link",
	Login:    "login",
	Register: "register",
	NotFound: "not-found",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return "unknown"
}

// View is a screen plus its parameter. Only EditLink carries a LinkID.
type View struct {
	Screen Screen
	LinkID string
}

// To returns the view for a parameterless screen.
func To(s Screen) View {
	return View{Screen: s}
}

// ToEditLink returns the edit view for the link with the given id.
func ToEditLink(id string) View {
	return View{Screen: EditLink, LinkID: id}
}

// Path returns the client route of v.
func (v View) Path() string {
	switch v.Screen {
	case Landing:
		return "/"
	case Home:
		return "/home"
	case AddLink:
		return "/links/add"
	case EditLink:
		return "/links/" + v.LinkID
	case Login:
		return "/auth/login"
	case Register:
		return "/auth/register"
	default:
		return "/404"
	}
}

// Parse maps a client route to its view. Unknown routes resolve to NotFound.
func Parse(path string) View {
	path = strings.TrimSuffix(path, "/")

	switch path {
	case "":
		return To(Landing)
	case "/home":
		return To(Home)
	case "/links/add":
		return To(AddLink)
	case "/auth/login":
		return To(Login)
	case "/auth/register":
		return To(Register)
	}

	if id, ok := strings.CutPrefix(path, "/links/"); ok && id != "" && !strings.Contains(id, "/") {
		return ToEditLink(id)
	}

	return To(NotFound)
}

// Navigator records the current view. Listeners run synchronously after every
// navigation, in registration order.
type Navigator struct {
	mu        sync.Mutex
	current   View
	listeners []func(View)
	logger    *slog.Logger
}

// NewNavigator returns a Navigator positioned at start.
func NewNavigator(start View, logger *slog.Logger) *Navigator {
	return &Navigator{
		current: start,
		logger:  logger,
	}
}

// Current returns the view being shown.
func (n *Navigator) Current() View {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.current
}

// OnNavigate registers fn to be called after each navigation.
func (n *Navigator) OnNavigate(fn func(View)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.listeners = append(n.listeners, fn)
}

// Navigate replaces the current view with v.
func (n *Navigator) Navigate(v View) {
	n.mu.Lock()
	n.current = v
	listeners := append([]func(View){}, n.listeners...)
	n.mu.Unlock()

	n.logger.Debug("navigate", slog.String("path", v.Path()))

	for _, fn := range listeners {
		fn(v)
	}
}
