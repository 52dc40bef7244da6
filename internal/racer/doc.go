// Package racer finds a shortest hyperlink path between two pages of a link
// graph that is discovered while it is searched.
//
// The search is a bounded-depth breadth-first search. Every page of the current
// level is expanded concurrently (fetch, then extract article links), the
// results are merged into the next level under a single lock, and levels run
// strictly one after another. A page enters the frontier at most once, so the
// first level at which the target shows up gives a shortest path.
//
// Fetch and parse failures only remove that page's outbound links from the
// search. The target may be found by any of several equally short paths; which
// one is returned depends on task completion order.
package racer
