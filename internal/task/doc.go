// Package task runs background jobs such as webhook delivery. Tasks are
// persisted before they are queued so a restart can pick up unfinished work,
// and a Registry turns stored records back into executable tasks.
package task
