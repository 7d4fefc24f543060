// Package action holds the descriptors of remote-triggerable actions and
// the FIFO used to register them with the companion one at a time.
package action

// Descriptor is one action to register with the companion device.
type Descriptor struct {
	Title       string
	Command     string
	Description string
}

// TakePicture is the action set this application registers after pairing.
var TakePicture = Descriptor{
	Title:       "Smile!",
	Command:     "TALK2WATCH_TAKE_PICTURE",
	Description: "Take a picture",
}

// DefaultSet returns the fixed actions registered after authorization.
func DefaultSet() []Descriptor { return []Descriptor{TakePicture} }

// Queue is an ordered list of descriptors awaiting registration. Once a
// registration request has been sent, the head is in flight until it is
// acknowledged. Not safe for concurrent use; the pairing machine owns it.
type Queue struct {
	items    []Descriptor
	inFlight bool
}

// Enqueue appends descriptors in order. Duplicates are kept.
func (q *Queue) Enqueue(ds ...Descriptor) {
	q.items = append(q.items, ds...)
}

// Head returns the first pending descriptor.
func (q *Queue) Head() (Descriptor, bool) {
	if len(q.items) == 0 {
		return Descriptor{}, false
	}
	return q.items[0], true
}

// MarkInFlight records that a registration request for the head was sent.
// It returns false when the queue is empty or a request is already out.
func (q *Queue) MarkInFlight() bool {
	if len(q.items) == 0 || q.inFlight {
		return false
	}
	q.inFlight = true
	return true
}

// InFlight reports whether the head is awaiting acknowledgment.
func (q *Queue) InFlight() bool { return q.inFlight }

// DequeueAck removes the acknowledged head. Without an outstanding
// request there is nothing to acknowledge and the queue is unchanged.
func (q *Queue) DequeueAck() (Descriptor, bool) {
	if !q.inFlight || len(q.items) == 0 {
		return Descriptor{}, false
	}
	head := q.items[0]
	q.items[0] = Descriptor{}
	q.items = q.items[1:]
	q.inFlight = false
	return head, true
}

func (q *Queue) Len() int { return len(q.items) }

// Commands lists the command strings of every descriptor still queued.
func (q *Queue) Commands() []string {
	out := make([]string, 0, len(q.items))
	for _, d := range q.items {
		out = append(out, d.Command)
	}
	return out
}
