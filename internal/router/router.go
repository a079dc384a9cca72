// Package router maps location fragments ("#/conversation/<id>") to pages.
package router

import (
	"strings"
	"sync"
)

// Page identifies a top-level screen
type Page string

const (
	PageHome         Page = "home"
	PageConversation Page = "conversation"
)

const conversationPrefix = "/conversation/"

// Route is the parsed form of a fragment
type Route struct {
	Page           Page
	ConversationID string
}

// Home is the route every unrecognized fragment falls back to
var Home = Route{Page: PageHome}

// Conversation returns the route for a conversation page
func Conversation(id string) Route {
	return Route{Page: PageConversation, ConversationID: id}
}

// Parse maps a fragment to a route. A leading "#" is optional. Anything other
// than "/conversation/<id>" with a non-blank id is the home page.
func Parse(fragment string) Route {
	path := strings.TrimPrefix(fragment, "#")
	if !strings.HasPrefix(path, conversationPrefix) {
		return Home
	}

	id := strings.TrimSpace(strings.TrimPrefix(path, conversationPrefix))
	if id == "" {
		return Home
	}
	return Conversation(id)
}

// IsConversation reports whether r points at a conversation page
func (r Route) IsConversation() bool {
	return r.Page == PageConversation && r.ConversationID != ""
}

// Fragment renders r back to a fragment
func (r Route) Fragment() string {
	if r.IsConversation() {
		return "#" + conversationPrefix + r.ConversationID
	}
	return "#/"
}

func (r Route) String() string {
	return r.Fragment()
}

// Listener is notified with the new route after each fragment change
type Listener func(Route)

// Router holds the current fragment and notifies listeners when it changes.
// There is no history stack: navigating replaces the current location.
type Router struct {
	mu        sync.Mutex
	fragment  string
	listeners map[int]Listener
	nextID    int
}

// New creates a router positioned at fragment
func New(fragment string) *Router {
	return &Router{
		fragment:  fragment,
		listeners: make(map[int]Listener),
	}
}

// Current returns the parsed current route
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Parse(r.fragment)
}

// Fragment returns the raw current fragment
func (r *Router) Fragment() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fragment
}

// Navigate sets the fragment. Listeners fire only when it actually changes,
// the same way a hashchange event does.
func (r *Router) Navigate(fragment string) {
	r.mu.Lock()
	if fragment == r.fragment {
		r.mu.Unlock()
		return
	}
	r.fragment = fragment
	route := Parse(fragment)
	listeners := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(route)
	}
}

// ToHome navigates to the home page
func (r *Router) ToHome() {
	r.Navigate(Home.Fragment())
}

// ToConversation navigates to a conversation page
func (r *Router) ToConversation(id string) {
	r.Navigate(Conversation(id).Fragment())
}

// Subscribe registers fn and returns a function that removes it
func (r *Router) Subscribe(fn Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}
