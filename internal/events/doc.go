// Package events lets services announce domain events (a user registered,
// a post was published) without knowing who consumes them. The webhook
// dispatcher in the task package is the main consumer.
package events
