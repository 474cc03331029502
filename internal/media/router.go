// Package media routes opaque media identifiers to speaker commands.
package media

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// BuiltinNotification is the reserved identifier for the built-in chime.
const BuiltinNotification = "sonos2mqtt://bell"

const (
	builtinChimeURL = "https://cdn.smartersoft-group.com/various/pull-bell-short.mp3"

	mediaSourcePrefix  = "media-source://"
	ttsPrefix          = "media-source://tts/"
	radioBrowserPrefix = "media-source://radio_browser/"
	spotifyPrefix      = "spotify:"
)

// Resolved is a media-source reference resolved to a playable URL.
type Resolved struct {
	URL      string
	MimeType string
}

// Resolver turns an abstract media-source identifier into a concrete URL.
// Implemented by the hosting platform; nil disables media-source playback.
type Resolver interface {
	Resolve(ctx context.Context, mediaID string) (Resolved, error)
}

// CommandSender accepts an outbound speaker command. Satisfied by
// player.Entity.
type CommandSender interface {
	SendCommand(command string, input any) error
}

// notifyInput plays a short clip at a fixed volume, then restores the
// previous playback.
type notifyInput struct {
	TrackURI string `json:"trackUri"`
	Timeout  int    `json:"timeout"`
	Volume   int    `json:"volume"`
	DelayMs  int    `json:"delayMs"`
}

type request struct {
	mediaID  string
	announce bool
}

// route is one entry in the ordered dispatch table. Routing is strict
// first-match-wins; the predicates are mutually exclusive prefix and
// equality tests, so order is the only tie-breaker that matters.
type route struct {
	name   string
	match  func(request) bool
	handle func(context.Context, CommandSender, request) error
}

// Router maps media identifiers onto outbound command shapes.
type Router struct {
	resolver Resolver
	routes   []route
}

// NewRouter builds the dispatch table. resolver may be nil, in which case
// media-source identifiers fail as unavailable content.
func NewRouter(resolver Resolver) *Router {
	router := &Router{resolver: resolver}
	router.routes = []route{
		{
			name:   "builtin-notification",
			match:  func(req request) bool { return req.mediaID == BuiltinNotification },
			handle: router.playBuiltinNotification,
		},
		{
			name:   "media-source",
			match:  func(req request) bool { return strings.HasPrefix(req.mediaID, mediaSourcePrefix) },
			handle: router.playMediaSource,
		},
		{
			name:   "spotify",
			match:  func(req request) bool { return strings.HasPrefix(req.mediaID, spotifyPrefix) },
			handle: router.playSpotify,
		},
	}
	return router
}

// Route selects exactly one action for the identifier and executes it.
// Unrecognized identifiers are logged and ignored; they are not an error.
func (r *Router) Route(ctx context.Context, sender CommandSender, mediaID string, announce bool) error {
	req := request{mediaID: mediaID, announce: announce}
	for _, route := range r.routes {
		if route.match(req) {
			return route.handle(ctx, sender, req)
		}
	}
	log.Printf("Unsupported media identifier %q, ignoring", mediaID)
	return nil
}

// playBuiltinNotification rings the built-in chime. The announce flag has
// no effect here; the chime is always a notification.
func (r *Router) playBuiltinNotification(_ context.Context, sender CommandSender, _ request) error {
	return sender.SendCommand("notify", notifyInput{
		TrackURI: builtinChimeURL,
		Timeout:  10,
		Volume:   25,
		DelayMs:  600,
	})
}

// playMediaSource resolves the reference and picks the command shape from
// what it resolved to: synthesized speech and announcements interrupt as
// notifications, radio streams replace the transport URI, everything else
// lands on the queue.
func (r *Router) playMediaSource(ctx context.Context, sender CommandSender, req request) error {
	if r.resolver == nil {
		return fmt.Errorf("no media resolver configured, cannot play %q", req.mediaID)
	}
	resolved, err := r.resolver.Resolve(ctx, req.mediaID)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", req.mediaID, err)
	}

	if strings.HasPrefix(req.mediaID, ttsPrefix) || req.announce {
		return sender.SendCommand("notify", notifyInput{
			TrackURI: resolved.URL,
			Timeout:  30,
			Volume:   25,
			DelayMs:  600,
		})
	}

	if strings.HasPrefix(req.mediaID, radioBrowserPrefix) {
		log.Printf("Playing radio stream %s as %s", req.mediaID, resolved.URL)
		return sender.SendCommand("setavtransporturi", resolved.URL)
	}

	return sender.SendCommand("queue", resolved.URL)
}

// playSpotify queues the identifier itself. Spotify URIs are not
// resolvable here; the speaker side knows how to queue them directly.
func (r *Router) playSpotify(_ context.Context, sender CommandSender, req request) error {
	return sender.SendCommand("queue", req.mediaID)
}
