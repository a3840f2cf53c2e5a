// Package display provides the presentation side of marker tracking.
//
// Display is the single-method collaborator the session controller calls
// with a marker's content on its first appearance. Popup is the concrete
// implementation: it holds exactly one card, replaces it on every Show and
// hands each new card to a Publisher (the WebSocket hub in production).
package display
