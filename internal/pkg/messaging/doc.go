// Package messaging publishes domain events to a message broker.
//
// Publishers are selected by driver name (see NewFromDriver) so the domain code
// only depends on the Publisher interface.
package messaging
