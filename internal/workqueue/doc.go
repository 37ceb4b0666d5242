// Package workqueue provides a bounded-lifetime, thread-safe FIFO queue
// used to hand work items (indirect-ping requests, report-forwarding jobs)
// between the gossip server's accept loop and a bounded pool of workers.
//
// The queue enforces the same lifetime discipline as its C++ counterpart:
// it must be empty before it is closed, so a caller can't silently drop
// queued work by tearing the queue down underneath it.
package workqueue
